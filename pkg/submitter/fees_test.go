package submitter

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-loop/pkg/chain/stub"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func floatPtr(f float64) *float64 { return &f }

func TestOverrides_NoCapMeansNoOverrides(t *testing.T) {
	policy := NewFeePolicy(&stub.Backend{}, nil)
	assert.Nil(t, policy.Overrides(context.Background()))
}

func TestOverrides_LiveBelowCapUsesLive(t *testing.T) {
	backend := &stub.Backend{
		SuggestGasTipFn: func(ctx context.Context) (*big.Int, error) {
			return gwei(1), nil
		},
		HeaderFn: func(ctx context.Context, number *big.Int) (*types.Header, error) {
			return &types.Header{BaseFee: gwei(2)}, nil
		},
	}
	policy := NewFeePolicy(backend, floatPtr(50))

	overrides := policy.Overrides(context.Background())
	require.NotNil(t, overrides)
	// live maxFee = 2*base + tip = 5 gwei, below the 50 gwei cap
	assert.Equal(t, gwei(5), overrides.MaxFeePerGas)
	assert.Equal(t, gwei(1), overrides.MaxPriorityFeePerGas)
}

func TestOverrides_LiveAboveCapIsClamped(t *testing.T) {
	backend := &stub.Backend{
		SuggestGasTipFn: func(ctx context.Context) (*big.Int, error) {
			return gwei(80), nil
		},
		HeaderFn: func(ctx context.Context, number *big.Int) (*types.Header, error) {
			return &types.Header{BaseFee: gwei(100)}, nil
		},
	}
	policy := NewFeePolicy(backend, floatPtr(50))

	overrides := policy.Overrides(context.Background())
	require.NotNil(t, overrides)
	assert.Equal(t, gwei(50), overrides.MaxFeePerGas)
	assert.Equal(t, gwei(50), overrides.MaxPriorityFeePerGas)
}

func TestOverrides_EstimateFailureFallsBackToCap(t *testing.T) {
	backend := &stub.Backend{
		SuggestGasTipFn: func(ctx context.Context) (*big.Int, error) {
			return nil, assert.AnError
		},
	}
	policy := NewFeePolicy(backend, floatPtr(30))

	overrides := policy.Overrides(context.Background())
	require.NotNil(t, overrides)
	assert.Equal(t, gwei(30), overrides.MaxFeePerGas)
	assert.Equal(t, gwei(30), overrides.MaxPriorityFeePerGas)
}
