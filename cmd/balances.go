package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swap-loop/config"
	"swap-loop/pkg/units"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show ETH, USDC and WETH balances for every configured wallet",
	Long: `Show the native ETH, USDC and WETH balances for each wallet in
wallets.json, using the configured RPC endpoint.

Examples:
  swap-loop balances
  swap-loop balances --json`,
	Run: runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
}

type walletBalances struct {
	Address string `json:"address"`
	Eth     string `json:"eth"`
	Usdc    string `json:"usdc"`
	Weth    string `json:"weth"`
}

func runBalances(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Reading balances..."
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

	wallets, err := cfg.LoadWallets()
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		printError(err)
		os.Exit(1)
	}

	results := make([]walletBalances, 0, len(wallets))
	for _, w := range wallets {
		account := common.HexToAddress(w.Address)
		balances, err := application.chain.Balances(ctx, account, application.usdcAddr, application.wethAddr)
		if err != nil {
			if !jsonOutput {
				s.Stop()
			}
			printError(fmt.Errorf("wallet %s: %w", w.Address, err))
			os.Exit(1)
		}
		results = append(results, walletBalances{
			Address: w.Address,
			Eth:     units.FromWei(balances.EthWei).String(),
			Usdc:    units.FromUnits(balances.UsdcWei, application.usdcDec).String(),
			Weth:    units.FromUnits(balances.WethWei, application.ethDec).String(),
		})
	}

	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	for _, r := range results {
		fmt.Printf("\n%s\n", color.CyanString(r.Address))
		fmt.Printf("  ETH:  %s\n", r.Eth)
		fmt.Printf("  USDC: %s\n", r.Usdc)
		fmt.Printf("  WETH: %s\n", r.Weth)
	}
	fmt.Println()
}
