// Package submitter turns quote steps into signed transactions and lands
// them on chain, either by direct broadcast or through the relay service.
package submitter

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"swap-loop/pkg/chain"
)

// gasBufferNum/gasBufferDen apply the +20% safety margin on estimates.
const (
	gasBufferNum = 120
	gasBufferDen = 100
)

// TxRequest is the base transaction before population: target, calldata, value.
type TxRequest struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// BuiltTx is a signed transaction plus the populated fields kept for
// diagnostics. Built transactions are single-use: the nonce and fee fields
// belong to the attempt that built them.
type BuiltTx struct {
	Tx  *types.Transaction
	Raw string // hex-encoded RLP for relay submission
}

// Builder populates, signs and encodes transactions against the current
// account state.
type Builder struct {
	backend chain.Backend
	chainID *big.Int
	log     zerolog.Logger
}

// NewBuilder creates a transaction builder for one chain.
func NewBuilder(backend chain.Backend, chainID int64, log zerolog.Logger) *Builder {
	return &Builder{backend: backend, chainID: big.NewInt(chainID), log: log}
}

// BuildSigned estimates gas, populates nonce and fee fields from the
// account's current state, and signs. When estimation fails and
// fallbackGasLimit is non-zero the fallback is used instead; otherwise the
// estimation error propagates so the retry policy can classify it.
// Must be called fresh for every attempt.
func (b *Builder) BuildSigned(ctx context.Context, key *ecdsa.PrivateKey, req TxRequest, overrides *GasOverrides, fallbackGasLimit uint64) (*BuiltTx, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	to := req.To
	gasLimit, err := b.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  req.Data,
	})
	if err != nil {
		if fallbackGasLimit == 0 {
			return nil, fmt.Errorf("gas estimation failed: %w", err)
		}
		b.log.Warn().Err(err).Uint64("fallbackGasLimit", fallbackGasLimit).Msg("gas estimation failed, using fallback")
		gasLimit = fallbackGasLimit
	}
	gasLimit = gasLimit * gasBufferNum / gasBufferDen

	nonce, err := b.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	var maxFee, maxPriority *big.Int
	if overrides != nil {
		maxFee = overrides.MaxFeePerGas
		maxPriority = overrides.MaxPriorityFeePerGas
	} else {
		maxFee, maxPriority, err = b.suggestFees(ctx)
		if err != nil {
			return nil, err
		}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   b.chainID,
		Nonce:     nonce,
		GasTipCap: maxPriority,
		GasFeeCap: maxFee,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(b.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	b.log.Debug().
		Str("to", to.Hex()).
		Str("value", value.String()).
		Uint64("gasLimit", gasLimit).
		Uint64("nonce", nonce).
		Str("maxFeePerGas", maxFee.String()).
		Str("maxPriorityFeePerGas", maxPriority.String()).
		Msg("built transaction")

	return &BuiltTx{Tx: signed, Raw: hexutil.Encode(raw)}, nil
}

func (b *Builder) suggestFees(ctx context.Context) (maxFee, maxPriority *big.Int, err error) {
	tip, err := b.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	head, err := b.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get chain head: %w", err)
	}
	maxFee = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	return maxFee, tip, nil
}
