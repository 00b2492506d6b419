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
	"swap-loop/pkg/rewards"
	"swap-loop/pkg/types"
	"swap-loop/pkg/units"
)

var (
	pointsDirection string
	pointsAmount    string
	pointsWallet    string
)

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Estimate rewards points for a prospective swap",
	Long: `Ask the rewards API how many points a swap would earn. Requires the
rewards integration to be configured (REWARDS_API_URL and REWARDS_CLIENT_ID).

Examples:
  swap-loop points --direction ETH_TO_USDC --amount 0.01 --wallet 0xabc...`,
	Run: runPoints,
}

func init() {
	rootCmd.AddCommand(pointsCmd)

	pointsCmd.Flags().StringVar(&pointsDirection, "direction", string(types.DirectionEthToUsdc), "Swap direction (ETH_TO_USDC or USDC_TO_ETH)")
	pointsCmd.Flags().StringVar(&pointsAmount, "amount", "", "Source amount in human units")
	pointsCmd.Flags().StringVar(&pointsWallet, "wallet", "", "Wallet address")
	pointsCmd.MarkFlagRequired("amount")
	pointsCmd.MarkFlagRequired("wallet")
}

func runPoints(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !cfg.RewardsEnabled() {
		printError(fmt.Errorf("rewards integration is not configured"))
		os.Exit(1)
	}

	direction := types.Direction(pointsDirection)
	if direction != types.DirectionEthToUsdc && direction != types.DirectionUsdcToEth {
		printError(fmt.Errorf("unknown direction %q", pointsDirection))
		os.Exit(1)
	}

	// WETH legs are priced as the native asset for points purposes.
	srcAssetID := rewards.Caip19Native(cfg.ChainID)
	srcDecimals := 18
	destAssetID := rewards.Caip19Erc20(cfg.ChainID, cfg.UsdcAddress)
	if direction == types.DirectionUsdcToEth {
		srcAssetID = rewards.Caip19Erc20(cfg.ChainID, cfg.UsdcAddress)
		srcDecimals = 6
		destAssetID = rewards.Caip19Native(cfg.ChainID)
	}

	srcAmount, err := units.ToUnits(pointsAmount, srcDecimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client := rewards.NewClient(rewards.ClientConfig{
		BaseURL:      cfg.RewardsAPIURL,
		ClientID:     cfg.RewardsClientID,
		Language:     cfg.RewardsLanguage,
		SessionsPath: cfg.RewardsSessionsPath,
	}, log)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Estimating points..."
		s.Start()
	}

	estimate, err := client.EstimateSwapPoints(context.Background(), rewards.EstimateSwapParams{
		ChainID:     cfg.ChainID,
		Address:     pointsWallet,
		SrcAssetID:  srcAssetID,
		DestAssetID: destAssetID,
		FeeAssetID:  rewards.Caip19Native(cfg.ChainID),
		SrcAmount:   srcAmount.String(),
	})
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(estimate, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\nEstimated points: %s\n", color.GreenString("%.2f", estimate.PointsEstimate))
	if estimate.BonusBips > 0 {
		fmt.Printf("Bonus: %.0f bips\n", estimate.BonusBips)
	}
	fmt.Println()
}
