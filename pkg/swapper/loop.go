package swapper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"swap-loop/pkg/chain"
	"swap-loop/pkg/types"
)

// CycleDelay is the pause between full passes over the wallet list.
const CycleDelay = 60 * time.Second

// Runner drives the outer loop: every wallet to completion, in order,
// forever. A wallet's failure is logged and never aborts the others.
type Runner struct {
	orchestrator *Orchestrator
	wallets      []types.Wallet
	log          zerolog.Logger

	// PreWallet, when set, runs before each wallet's cycle pass. Used for
	// the rewards preamble; its errors are the hook's own concern and must
	// never gate swap execution.
	PreWallet func(ctx context.Context, signer *chain.Signer)

	cycleDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRunner creates the outer wallet loop.
func NewRunner(orchestrator *Orchestrator, wallets []types.Wallet, log zerolog.Logger) *Runner {
	return &Runner{
		orchestrator: orchestrator,
		wallets:      wallets,
		log:          log,
		cycleDelay:   CycleDelay,
		sleep:        sleepContext,
	}
}

// Run loops until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		r.log.Info().Int("wallets", len(r.wallets)).Msg("cycle start")
		r.RunOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Info().Dur("delay", r.cycleDelay).Msg("waiting before next cycle")
		if err := r.sleep(ctx, r.cycleDelay); err != nil {
			return err
		}
	}
}

// RunOnce processes every wallet a single time.
func (r *Runner) RunOnce(ctx context.Context) {
	for _, wallet := range r.wallets {
		if ctx.Err() != nil {
			return
		}
		if err := r.processWallet(ctx, wallet); err != nil {
			r.log.Error().Err(err).Str("wallet", wallet.Address).Msg("wallet cycle failed")
		}
	}
}

func (r *Runner) processWallet(ctx context.Context, wallet types.Wallet) error {
	signer, err := chain.NewSigner(wallet)
	if err != nil {
		return err
	}
	if r.PreWallet != nil {
		r.PreWallet(ctx, signer)
	}
	return r.orchestrator.CycleWallet(ctx, signer)
}
