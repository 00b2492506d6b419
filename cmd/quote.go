package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-loop/config"
	"swap-loop/pkg/quotes"
	"swap-loop/pkg/types"
)

var (
	quoteDirection string
	quoteAmount    string
	quoteWallet    string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Fetch quotes for a swap without executing it",
	Long: `Fetch candidate quotes from the aggregator for a prospective swap and
show the best route. Nothing is signed or submitted.

Examples:
  swap-loop quote --direction ETH_TO_USDC --amount 0.01 --wallet 0xabc...
  swap-loop quote --direction USDC_TO_ETH --amount 25 --wallet 0xabc... --json`,
	Run: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteDirection, "direction", string(types.DirectionEthToUsdc), "Swap direction (ETH_TO_USDC or USDC_TO_ETH)")
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "", "Source amount in human units")
	quoteCmd.Flags().StringVar(&quoteWallet, "wallet", "", "Wallet address to quote for")
	quoteCmd.MarkFlagRequired("amount")
	quoteCmd.MarkFlagRequired("wallet")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	direction := types.Direction(quoteDirection)
	if direction != types.DirectionEthToUsdc && direction != types.DirectionUsdcToEth {
		printError(fmt.Errorf("unknown direction %q", quoteDirection))
		os.Exit(1)
	}

	ctx := context.Background()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quotes..."
		s.Start()
	}

	application, err := newApp(ctx, cfg, log)
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		printError(err)
		os.Exit(1)
	}

	srcToken, destToken := cfg.WethAddress, cfg.UsdcAddress
	srcDecimals := application.ethDec
	if direction == types.DirectionUsdcToEth {
		srcToken, destToken = cfg.UsdcAddress, cfg.WethAddress
		srcDecimals = application.usdcDec
	}

	candidates, err := application.quotes.FetchQuotes(ctx, quotes.FetchParams{
		WalletAddress:  quoteWallet,
		SrcChainID:     cfg.ChainID,
		DestChainID:    cfg.ChainID,
		SrcToken:       srcToken,
		DestToken:      destToken,
		SrcAmountHuman: quoteAmount,
		SrcDecimals:    srcDecimals,
		Slippage:       cfg.Slippage,
		ResetApproval:  cfg.ResetApproval,
		GasIncluded:    cfg.GasIncluded,
	})
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	best := quotes.PickBest(candidates)

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]any{
			"candidates": len(candidates),
			"best":       best,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if best == nil {
		color.Yellow("No quotes available")
		return
	}

	fmt.Printf("\nCandidates: %d\n", len(candidates))
	fmt.Printf("Best route: %s -> %s\n", color.CyanString(srcToken), color.CyanString(destToken))
	fmt.Printf("Destination amount (base units): %s\n", best.DestAmount().String())
	for _, step := range best.Trade {
		fmt.Printf("  step %-10s to=%s\n", step.Title, step.TxData.To)
	}
	fmt.Println()
}
