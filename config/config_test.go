package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("CHAIN_ID", "8453")
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("USDC_ADDRESS", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	t.Setenv("WETH_ADDRESS", "0x4200000000000000000000000000000000000006")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(8453), cfg.ChainID)
	assert.Equal(t, DefaultQuoteAPIBase, cfg.QuoteBase)
	assert.Equal(t, DefaultRouterAddress, cfg.RouterAddress)
	assert.Equal(t, 0.01, cfg.Slippage)
	assert.True(t, cfg.GasIncluded)
	assert.False(t, cfg.ResetApproval)
	assert.Equal(t, 45, cfg.DelaySecondsMin)
	assert.Equal(t, 90, cfg.DelaySecondsMax)
	assert.Nil(t, cfg.GasPriceMaxGwei)
	assert.False(t, cfg.RelayEnabled())
	assert.False(t, cfg.RewardsEnabled())
}

func TestLoadMissingChainID(t *testing.T) {
	viper.Reset()
	t.Setenv("CHAIN_ID", "")
	t.Setenv("RPC_URL", "http://localhost:8545")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAIN_ID")
}

func TestLoadGasCapAndRelay(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GAS_PRICE_MAX_GWEI", "2.5")
	t.Setenv("TX_SUBMIT_BASE", "https://relay.example")

	cfg, err := Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.GasPriceMaxGwei)
	assert.Equal(t, 2.5, *cfg.GasPriceMaxGwei)
	assert.True(t, cfg.RelayEnabled())
	assert.Equal(t, 1, cfg.StxControllerVersion)
}

func TestLoadInvalidDelayRange(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DELAY_SECONDS_MIN", "90")
	t.Setenv("DELAY_SECONDS_MAX", "45")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadWallets(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "wallets.json")
	payload, err := json.Marshal([]map[string]string{{
		"address":    "0x4200000000000000000000000000000000000006",
		"privateKey": "0x01",
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	t.Setenv("WALLETS_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	wallets, err := cfg.LoadWallets()
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "0x4200000000000000000000000000000000000006", wallets[0].Address)
}

func TestLoadWalletsRejectsBadAddress(t *testing.T) {
	setRequiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "wallets.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"address":"nope","privateKey":"0x01"}]`), 0o600))
	t.Setenv("WALLETS_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	_, err = cfg.LoadWallets()
	require.Error(t, err)
}
