package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-loop/config"
	"swap-loop/pkg/chain"
	"swap-loop/pkg/swapper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the recurring swap loop over every configured wallet",
	Long: `Run the swap loop: for each wallet in wallets.json, swap the full WETH
balance to USDC, pause, then swap the refreshed USDC balance back to WETH.
The loop repeats until interrupted.

Examples:
  swap-loop run
  swap-loop run --verbose`,
	Run: runLoop,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLoop(cmd *cobra.Command, args []string) {
	log := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Green("Swap loop starting")
	color.Cyan("Chain: %d | Router: %s", cfg.ChainID, cfg.RouterAddress)
	color.Cyan("RPC: %s", cfg.RPCURL)

	application, err := newApp(ctx, cfg, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	color.Green("Router and token addresses validated")

	wallets, err := cfg.LoadWallets()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if len(wallets) == 0 {
		color.Yellow("No wallets configured, nothing to do")
		return
	}
	log.Info().Int("wallets", len(wallets)).
		Int64("chain_id", cfg.ChainID).
		Float64("slippage", cfg.Slippage).
		Bool("relay", cfg.RelayEnabled()).
		Bool("rewards", cfg.RewardsEnabled()).
		Msg("configuration loaded")

	runner := swapper.NewRunner(application.newOrchestrator(), wallets, log)
	if application.rewards != nil {
		runner.PreWallet = rewardsPreamble(application, cfg)
	}

	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		printError(err)
		os.Exit(1)
	}
	color.Yellow("Swap loop stopped")
}

// rewardsPreamble establishes the rewards session for a wallet and logs its
// season standing. Failures are logged and swallowed: rewards never gate
// swap execution.
func rewardsPreamble(application *app, cfg *config.Config) func(ctx context.Context, signer *chain.Signer) {
	return func(ctx context.Context, signer *chain.Signer) {
		session, err := application.rewards.EnsureSession(ctx, signer, cfg.RewardsReferralCode)
		if err != nil {
			application.log.Warn().Err(err).
				Str("wallet", signer.Address.Hex()).
				Msg("rewards session unavailable")
			return
		}
		season, err := application.rewards.CurrentSeason(ctx, session.SessionID)
		if err != nil {
			application.log.Warn().Err(err).
				Str("wallet", signer.Address.Hex()).
				Msg("rewards season status unavailable")
			return
		}
		event := application.log.Info().Str("wallet", signer.Address.Hex())
		if season.Season.Name != "" {
			event = event.Str("season", season.Season.Name)
		} else if season.Season.ID != "" {
			event = event.Str("season", season.Season.ID)
		}
		if points, ok := season.PointsTotal(); ok {
			event = event.Float64("points", points)
		}
		event.Msg("rewards session ok")
	}
}
