package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"swap-loop/pkg/types"
)

// Default addresses and tuning values applied when the environment does
// not override them.
const (
	DefaultQuoteAPIBase  = "https://api-metamask.xto.lol"
	DefaultRouterAddress = "0x9dDA6Ef3D919c9bC8885D5560999A3640431e8e6"
)

// Config holds the application configuration.
type Config struct {
	ChainID    int64
	RPCURL     string
	QuoteBase  string

	Slippage      float64
	GasIncluded   bool
	ResetApproval bool

	RouterAddress string
	UsdcAddress   string
	WethAddress   string

	EthThreshold  float64
	UsdcMinSwap   float64
	EthMinSwap    float64
	GasMinReserve float64

	GasPriceMaxGwei *float64
	DelaySecondsMin int
	DelaySecondsMax int

	// Relay submission is enabled when TxSubmitBase is set.
	TxSubmitBase         string
	StxControllerVersion int

	// Rewards integration is enabled when both RewardsAPIURL and
	// RewardsClientID are set.
	RewardsAPIURL       string
	RewardsClientID     string
	RewardsLanguage     string
	RewardsReferralCode string
	RewardsSessionsPath string

	WalletsPath string
}

var globalConfig *Config

// Load reads configuration from environment variables and optional config file.
func Load() (*Config, error) {
	viper.SetConfigName(".swap-loop")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("QUOTE_API_BASE", DefaultQuoteAPIBase)
	viper.SetDefault("ROUTER_ADDRESS", DefaultRouterAddress)
	viper.SetDefault("SLIPPAGE", 0.01)
	viper.SetDefault("GAS_INCLUDED", true)
	viper.SetDefault("RESET_APPROVAL", false)
	viper.SetDefault("ETH_THRESHOLD", 0.002)
	viper.SetDefault("USDC_MIN_SWAP", 1.0)
	viper.SetDefault("ETH_MIN_SWAP", 0.001)
	viper.SetDefault("GAS_MIN_RESERVE", 0.0002)
	viper.SetDefault("DELAY_SECONDS_MIN", 45)
	viper.SetDefault("DELAY_SECONDS_MAX", 90)
	viper.SetDefault("STX_CONTROLLER_VERSION", 1)
	viper.SetDefault("REWARDS_LANGUAGE", "en")
	viper.SetDefault("REWARDS_SESSIONS_PATH", ".rewards-sessions.json")
	viper.SetDefault("WALLETS_PATH", "wallets.json")

	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()

	cfg := &Config{
		ChainID:              viper.GetInt64("CHAIN_ID"),
		RPCURL:               viper.GetString("RPC_URL"),
		QuoteBase:            viper.GetString("QUOTE_API_BASE"),
		Slippage:             viper.GetFloat64("SLIPPAGE"),
		GasIncluded:          viper.GetBool("GAS_INCLUDED"),
		ResetApproval:        viper.GetBool("RESET_APPROVAL"),
		RouterAddress:        viper.GetString("ROUTER_ADDRESS"),
		UsdcAddress:          viper.GetString("USDC_ADDRESS"),
		WethAddress:          viper.GetString("WETH_ADDRESS"),
		EthThreshold:         viper.GetFloat64("ETH_THRESHOLD"),
		UsdcMinSwap:          viper.GetFloat64("USDC_MIN_SWAP"),
		EthMinSwap:           viper.GetFloat64("ETH_MIN_SWAP"),
		GasMinReserve:        viper.GetFloat64("GAS_MIN_RESERVE"),
		DelaySecondsMin:      viper.GetInt("DELAY_SECONDS_MIN"),
		DelaySecondsMax:      viper.GetInt("DELAY_SECONDS_MAX"),
		TxSubmitBase:         viper.GetString("TX_SUBMIT_BASE"),
		StxControllerVersion: viper.GetInt("STX_CONTROLLER_VERSION"),
		RewardsAPIURL:        viper.GetString("REWARDS_API_URL"),
		RewardsClientID:      viper.GetString("REWARDS_CLIENT_ID"),
		RewardsLanguage:      viper.GetString("REWARDS_LANGUAGE"),
		RewardsReferralCode:  viper.GetString("REWARDS_REFERRAL_CODE"),
		RewardsSessionsPath:  viper.GetString("REWARDS_SESSIONS_PATH"),
		WalletsPath:          viper.GetString("WALLETS_PATH"),
	}

	if viper.IsSet("GAS_PRICE_MAX_GWEI") && viper.GetString("GAS_PRICE_MAX_GWEI") != "" {
		maxGwei := viper.GetFloat64("GAS_PRICE_MAX_GWEI")
		cfg.GasPriceMaxGwei = &maxGwei
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("missing required env: CHAIN_ID")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("missing required env: RPC_URL")
	}
	for name, value := range map[string]string{
		"USDC_ADDRESS":   c.UsdcAddress,
		"WETH_ADDRESS":   c.WethAddress,
		"ROUTER_ADDRESS": c.RouterAddress,
	} {
		if value == "" {
			return fmt.Errorf("missing required env: %s", name)
		}
		if !common.IsHexAddress(value) {
			return fmt.Errorf("env %s is not a valid address: %s", name, value)
		}
	}
	if c.DelaySecondsMax < c.DelaySecondsMin {
		return fmt.Errorf("DELAY_SECONDS_MAX must be >= DELAY_SECONDS_MIN")
	}
	return nil
}

// RelayEnabled reports whether transactions go through the relay API.
func (c *Config) RelayEnabled() bool {
	return c.TxSubmitBase != ""
}

// RewardsEnabled reports whether the rewards integration is configured.
func (c *Config) RewardsEnabled() bool {
	return c.RewardsAPIURL != "" && c.RewardsClientID != ""
}

// Get returns the global configuration.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration.
func Set(cfg *Config) {
	globalConfig = cfg
}

// LoadWallets reads the wallet list from the configured JSON file.
func (c *Config) LoadWallets() ([]types.Wallet, error) {
	path, err := filepath.Abs(c.WalletsPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.WalletsPath, err)
	}
	var wallets []types.Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("%s must be a JSON array of wallets: %w", c.WalletsPath, err)
	}
	for i, w := range wallets {
		if !common.IsHexAddress(w.Address) {
			return nil, fmt.Errorf("wallet %d has invalid address %q", i, w.Address)
		}
		if w.PrivateKey == "" {
			return nil, fmt.Errorf("wallet %d is missing privateKey", i)
		}
	}
	return wallets, nil
}
