package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"swap-loop/config"
	"swap-loop/pkg/chain"
	"swap-loop/pkg/quotes"
	"swap-loop/pkg/rewards"
	"swap-loop/pkg/submitter"
	"swap-loop/pkg/swapper"
)

// app bundles the wired engine components shared by the commands.
type app struct {
	cfg        *config.Config
	chain      *chain.Client
	quotes     *quotes.Client
	fees       *submitter.FeePolicy
	swapper    *swapper.Swapper
	rewards    *rewards.Client
	usdcDec    int
	ethDec     int
	usdcAddr   common.Address
	wethAddr   common.Address
	routerAddr common.Address
	log        zerolog.Logger
}

// newApp dials the node, validates the environment, reads token decimals,
// and wires the swap engine. Validation failures are fatal by design of the
// caller: nothing should swap against a wrong chain.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	backend, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainClient, err := chain.NewClient(backend)
	if err != nil {
		return nil, err
	}

	usdcAddr := common.HexToAddress(cfg.UsdcAddress)
	wethAddr := common.HexToAddress(cfg.WethAddress)
	routerAddr := common.HexToAddress(cfg.RouterAddress)

	if err := chainClient.ValidateEnvironment(ctx, cfg.ChainID, routerAddr, usdcAddr, wethAddr); err != nil {
		return nil, err
	}

	usdcDecimals, err := chainClient.TokenDecimals(ctx, usdcAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to read USDC decimals: %w", err)
	}
	wethDecimals, err := chainClient.TokenDecimals(ctx, wethAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to read WETH decimals: %w", err)
	}

	quoteClient := quotes.NewClient(&quotes.ClientConfig{BaseURL: cfg.QuoteBase})
	feePolicy := submitter.NewFeePolicy(backend, cfg.GasPriceMaxGwei)
	builder := submitter.NewBuilder(backend, cfg.ChainID, log)
	direct := submitter.NewDirectSubmitter(backend, log)

	var relay swapper.Relay
	if cfg.RelayEnabled() {
		relay = submitter.NewRelayClient(submitter.RelayConfig{
			BaseURL:           cfg.TxSubmitBase,
			ChainID:           cfg.ChainID,
			ControllerVersion: cfg.StxControllerVersion,
		}, log)
	}

	engine := swapper.NewSwapper(quoteClient, builder, feePolicy, direct, relay, swapper.Config{
		ChainID:       cfg.ChainID,
		RouterAddress: cfg.RouterAddress,
		UsdcAddress:   cfg.UsdcAddress,
		WethAddress:   cfg.WethAddress,
		UsdcDecimals:  usdcDecimals,
		EthDecimals:   wethDecimals,
		Slippage:      cfg.Slippage,
		ResetApproval: cfg.ResetApproval,
		GasIncluded:   cfg.GasIncluded,
	}, log)

	var rewardsClient *rewards.Client
	if cfg.RewardsEnabled() {
		rewardsClient = rewards.NewClient(rewards.ClientConfig{
			BaseURL:      cfg.RewardsAPIURL,
			ClientID:     cfg.RewardsClientID,
			Language:     cfg.RewardsLanguage,
			SessionsPath: cfg.RewardsSessionsPath,
		}, log)
	}

	return &app{
		cfg:        cfg,
		chain:      chainClient,
		quotes:     quoteClient,
		fees:       feePolicy,
		swapper:    engine,
		rewards:    rewardsClient,
		usdcDec:    usdcDecimals,
		ethDec:     wethDecimals,
		usdcAddr:   usdcAddr,
		wethAddr:   wethAddr,
		routerAddr: routerAddr,
		log:        log,
	}, nil
}

// newOrchestrator builds the per-wallet cycle driver on top of the engine.
func (a *app) newOrchestrator() *swapper.Orchestrator {
	return swapper.NewOrchestrator(a.chain, a.swapper, swapper.CycleConfig{
		UsdcAddress:     a.usdcAddr,
		WethAddress:     a.wethAddr,
		UsdcDecimals:    a.usdcDec,
		EthDecimals:     a.ethDec,
		EthMinSwap:      decimal.NewFromFloat(a.cfg.EthMinSwap),
		UsdcMinSwap:     decimal.NewFromFloat(a.cfg.UsdcMinSwap),
		DelaySecondsMin: a.cfg.DelaySecondsMin,
		DelaySecondsMax: a.cfg.DelaySecondsMax,
	}, a.log)
}
