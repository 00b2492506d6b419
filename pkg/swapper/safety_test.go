package swapper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"swap-loop/pkg/quotes"
)

const router = "0x9dDA6Ef3D919c9bC8885D5560999A3640431e8e6"

func quoteTargeting(to string) *quotes.Quote {
	return &quotes.Quote{Trade: []quotes.Step{
		{Title: "approval", TxData: quotes.TxData{To: "0x1111111111111111111111111111111111111111"}},
		{Title: "trade", TxData: quotes.TxData{To: to}},
	}}
}

func TestEnsureRouterSafety_ExactMatch(t *testing.T) {
	assert.NoError(t, EnsureRouterSafety(quoteTargeting(router), router))
}

func TestEnsureRouterSafety_CaseDifferenceAccepted(t *testing.T) {
	assert.NoError(t, EnsureRouterSafety(quoteTargeting("0x9dda6ef3d919c9bc8885d5560999a3640431e8e6"), router))
}

func TestEnsureRouterSafety_DifferentAddressRejected(t *testing.T) {
	err := EnsureRouterSafety(quoteTargeting("0x9dDA6Ef3D919c9bC8885D5560999A3640431e8e7"), router)
	assert.ErrorIs(t, err, ErrUnsafeRouter)
}

func TestEnsureRouterSafety_MissingTradeStep(t *testing.T) {
	quote := &quotes.Quote{Trade: []quotes.Step{{Title: "approval"}}}
	assert.ErrorIs(t, EnsureRouterSafety(quote, router), ErrMissingTradeStep)
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		err       error
		retriable bool
	}{
		{errors.New("execution reverted"), true},
		{errors.New("rpc: Execution Reverted (code -32000)"), true},
		{errors.New("Return amount is not enough"), true},
		{errors.New("cannot estimate gas; transaction may fail"), true},
		{errors.New("always failing transaction"), true},
		{errors.New("insufficient funds for gas * price + value"), false},
		{errors.New("nonce too low"), false},
		{ErrUnsafeRouter, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.retriable, IsRetriable(tt.err), "err=%v", tt.err)
	}
}

func TestIsRetriable_WrappedError(t *testing.T) {
	wrapped := errors.Join(errors.New("submit failed"), errors.New("execution reverted"))
	assert.True(t, IsRetriable(wrapped))
}
