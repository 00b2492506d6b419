package submitter

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"swap-loop/pkg/chain"
)

// GasOverrides are EIP-1559 fee fields forced onto a transaction.
type GasOverrides struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// FeePolicy clamps network fee estimates to a configured ceiling.
type FeePolicy struct {
	backend chain.Backend
	capWei  *big.Int // nil when no ceiling is configured
}

// NewFeePolicy builds a policy from a gwei ceiling. A nil maxGwei means
// no ceiling: transactions then use the node's own fee suggestion.
func NewFeePolicy(backend chain.Backend, maxGwei *float64) *FeePolicy {
	policy := &FeePolicy{backend: backend}
	if maxGwei != nil {
		policy.capWei = decimal.NewFromFloat(*maxGwei).Shift(9).BigInt()
	}
	return policy
}

// Overrides computes the fee fields for the next transaction. With no
// ceiling configured it returns nil and the builder falls back to the
// node's estimate. With a ceiling, both fee fields are the minimum of the
// live estimate and the cap; if the live estimate cannot be fetched the
// cap itself is used for both.
func (p *FeePolicy) Overrides(ctx context.Context) *GasOverrides {
	if p.capWei == nil {
		return nil
	}

	maxFee, maxPriority, err := p.liveEstimate(ctx)
	if err != nil {
		return &GasOverrides{
			MaxFeePerGas:         new(big.Int).Set(p.capWei),
			MaxPriorityFeePerGas: new(big.Int).Set(p.capWei),
		}
	}
	return &GasOverrides{
		MaxFeePerGas:         minBig(maxFee, p.capWei),
		MaxPriorityFeePerGas: minBig(maxPriority, p.capWei),
	}
}

func (p *FeePolicy) liveEstimate(ctx context.Context) (maxFee, maxPriority *big.Int, err error) {
	tip, err := p.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, err
	}
	head, err := p.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	// maxFee = 2*baseFee + tip, the usual headroom for base-fee drift.
	maxFee = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	return maxFee, tip, nil
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
