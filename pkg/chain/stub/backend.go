// Package stub provides an in-memory chain.Backend for tests.
package stub

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is a configurable fake node. Zero-value fields fall back to
// benign defaults; override the function fields to steer a test.
type Backend struct {
	ChainIDValue *big.Int
	Code         map[common.Address][]byte
	Balance      map[common.Address]*big.Int

	CallContractFn    func(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGasFn     func(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasTipFn   func(ctx context.Context) (*big.Int, error)
	HeaderFn          func(ctx context.Context, number *big.Int) (*types.Header, error)
	NonceFn           func(ctx context.Context, account common.Address) (uint64, error)
	SendTransactionFn func(ctx context.Context, tx *types.Transaction) error
	ReceiptFn         func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumberFn     func(ctx context.Context) (uint64, error)

	SentTransactions []*types.Transaction
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	if b.ChainIDValue == nil {
		return big.NewInt(1), nil
	}
	return b.ChainIDValue, nil
}

func (b *Backend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return b.Code[account], nil
}

func (b *Backend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if wei, ok := b.Balance[account]; ok {
		return wei, nil
	}
	return new(big.Int), nil
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.CallContractFn != nil {
		return b.CallContractFn(ctx, call, blockNumber)
	}
	return nil, fmt.Errorf("stub: CallContract not configured")
}

func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if b.EstimateGasFn != nil {
		return b.EstimateGasFn(ctx, call)
	}
	return 21000, nil
}

func (b *Backend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if b.SuggestGasTipFn != nil {
		return b.SuggestGasTipFn(ctx)
	}
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if b.HeaderFn != nil {
		return b.HeaderFn(ctx, number)
	}
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *Backend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if b.NonceFn != nil {
		return b.NonceFn(ctx, account)
	}
	return 0, nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if b.SendTransactionFn != nil {
		return b.SendTransactionFn(ctx, tx)
	}
	b.SentTransactions = append(b.SentTransactions, tx)
	return nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if b.ReceiptFn != nil {
		return b.ReceiptFn(ctx, txHash)
	}
	return nil, ethereum.NotFound
}

func (b *Backend) BlockNumber(ctx context.Context) (uint64, error) {
	if b.BlockNumberFn != nil {
		return b.BlockNumberFn(ctx)
	}
	return 1, nil
}
