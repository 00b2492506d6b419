package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swap-loop",
	Short: "A recurring token swap bot for aggregator-routed WETH/USDC cycles",
	Long: `swap-loop drives recurring two-leg token swaps through an aggregator:
it fetches quotes, picks the best route, validates the router, and submits
the transactions either directly to the chain or through the batching relay.

Examples:
  swap-loop run
  swap-loop balances
  swap-loop quote --direction ETH_TO_USDC --amount 0.01`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
