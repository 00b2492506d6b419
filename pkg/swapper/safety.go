package swapper

import (
	"errors"
	"fmt"
	"strings"

	"swap-loop/pkg/quotes"
)

// ErrMissingTradeStep reports a quote without a trade step. Never retried.
var ErrMissingTradeStep = errors.New("quote has no trade step")

// ErrUnsafeRouter reports a quote whose trade step targets a contract other
// than the configured router. Accepting it would let the aggregator redirect
// funds, so the attempt is aborted with no fallback. Never retried.
var ErrUnsafeRouter = errors.New("unsafe router")

// EnsureRouterSafety verifies that the quote's trade step targets exactly
// the expected router address. Comparison ignores case only.
func EnsureRouterSafety(quote *quotes.Quote, routerAddress string) error {
	trade := quote.TradeStep()
	if trade == nil {
		return ErrMissingTradeStep
	}
	if !strings.EqualFold(trade.TxData.To, routerAddress) {
		return fmt.Errorf("%w: expected %s, got %s", ErrUnsafeRouter, routerAddress, trade.TxData.To)
	}
	return nil
}
