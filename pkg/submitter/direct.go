package submitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"swap-loop/pkg/chain"
)

const (
	// ConfirmationDepth is how many mined blocks (including the
	// transaction's own) count as final.
	ConfirmationDepth = 2

	defaultConfirmPollInterval = 1500 * time.Millisecond
)

// DirectSubmitter broadcasts transactions straight to the node and waits
// for confirmations. There is no overall deadline: the wait runs until the
// transaction is observed mined or the context is cancelled.
type DirectSubmitter struct {
	backend       chain.Backend
	pollInterval  time.Duration
	confirmations uint64
	log           zerolog.Logger
}

// NewDirectSubmitter creates a submitter with the default confirmation policy.
func NewDirectSubmitter(backend chain.Backend, log zerolog.Logger) *DirectSubmitter {
	return &DirectSubmitter{
		backend:       backend,
		pollInterval:  defaultConfirmPollInterval,
		confirmations: ConfirmationDepth,
		log:           log,
	}
}

// Submit broadcasts a signed transaction, waits for it to be mined and for
// the confirmation depth to accumulate, then returns the final receipt.
func (s *DirectSubmitter) Submit(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if err := s.backend.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	hash := tx.Hash()
	s.log.Info().Str("tx", hash.Hex()).Msg("transaction sent")

	receipt, err := s.waitMined(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := s.waitConfirmations(ctx, receipt.BlockNumber.Uint64()); err != nil {
		return nil, err
	}

	final, err := s.backend.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch final receipt: %w", err)
	}
	s.log.Info().Str("tx", hash.Hex()).Uint64("block", final.BlockNumber.Uint64()).Msg("transaction confirmed")
	return final, nil
}

func (s *DirectSubmitter) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, tx.Hash())
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			s.log.Debug().Err(err).Msg("receipt poll error")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *DirectSubmitter) waitConfirmations(ctx context.Context, minedBlock uint64) error {
	for {
		head, err := s.backend.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to get block height: %w", err)
		}
		if head >= minedBlock && head-minedBlock+1 >= s.confirmations {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}
