package swapper

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"swap-loop/pkg/chain"
	"swap-loop/pkg/types"
	"swap-loop/pkg/units"
)

// BalanceReader provides the per-wallet balance fan-out.
type BalanceReader interface {
	Balances(ctx context.Context, account, usdc, weth common.Address) (chain.Balances, error)
}

// LegRunner executes one swap leg with retries.
type LegRunner interface {
	PerformSwap(ctx context.Context, signer *chain.Signer, direction types.Direction, amountHuman string) (bool, error)
}

// CycleConfig is the orchestrator's environment.
type CycleConfig struct {
	UsdcAddress  common.Address
	WethAddress  common.Address
	UsdcDecimals int
	EthDecimals  int
	// Minimum human amounts below which a leg is skipped.
	EthMinSwap  decimal.Decimal
	UsdcMinSwap decimal.Decimal
	// Inter-leg delay bounds, in whole seconds.
	DelaySecondsMin int
	DelaySecondsMax int
}

// Orchestrator sequences the two-leg cycle per wallet. Wallets are
// processed strictly one at a time: nonces and the relay's per-account
// batching assume no concurrent submission for the same account.
type Orchestrator struct {
	balances BalanceReader
	legs     LegRunner
	cfg      CycleConfig
	log      zerolog.Logger
	rng      *rand.Rand
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates the per-wallet cycle driver.
func NewOrchestrator(balances BalanceReader, legs LegRunner, cfg CycleConfig, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		balances: balances,
		legs:     legs,
		cfg:      cfg,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    sleepContext,
	}
}

// CycleWallet runs one wallet's pass: WETH→USDC with the full balance, a
// randomized pause, then USDC→WETH with the refreshed balance. When the
// first leg's threshold is not met it falls back to a single USDC→WETH leg.
// Amounts are always the exact balance observed immediately beforehand.
func (o *Orchestrator) CycleWallet(ctx context.Context, signer *chain.Signer) error {
	log := o.log.With().Str("wallet", signer.Address.Hex()).Logger()
	log.Info().Msg("processing wallet")

	balances, err := o.balances.Balances(ctx, signer.Address, o.cfg.UsdcAddress, o.cfg.WethAddress)
	if err != nil {
		return fmt.Errorf("failed to read balances: %w", err)
	}

	ethHuman := units.FromWei(balances.EthWei)
	wethHuman := units.FromUnits(balances.WethWei, o.cfg.EthDecimals)
	usdcHuman := units.FromUnits(balances.UsdcWei, o.cfg.UsdcDecimals)
	log.Info().
		Str("eth", ethHuman.String()).
		Str("weth", wethHuman.String()).
		Str("usdc", usdcHuman.String()).
		Msg("balances")

	if wethHuman.GreaterThanOrEqual(o.cfg.EthMinSwap) {
		log.Info().Str("amount", wethHuman.String()).Msg("leg 1: WETH->USDC")
		if _, err := o.legs.PerformSwap(ctx, signer, types.DirectionEthToUsdc, wethHuman.String()); err != nil {
			return err
		}

		delay := o.interLegDelay()
		log.Info().Dur("delay", delay).Msg("waiting before swap back")
		if err := o.sleep(ctx, delay); err != nil {
			return err
		}

		refreshed, err := o.balances.Balances(ctx, signer.Address, o.cfg.UsdcAddress, o.cfg.WethAddress)
		if err != nil {
			return fmt.Errorf("failed to refresh balances: %w", err)
		}
		usdcAfter := units.FromUnits(refreshed.UsdcWei, o.cfg.UsdcDecimals)
		if usdcAfter.GreaterThanOrEqual(o.cfg.UsdcMinSwap) {
			log.Info().Str("amount", usdcAfter.String()).Msg("leg 2: USDC->WETH")
			_, err := o.legs.PerformSwap(ctx, signer, types.DirectionUsdcToEth, usdcAfter.String())
			return err
		}
		log.Info().Msg("USDC below minimum after leg 1, skipping swap back")
		return nil
	}

	if usdcHuman.GreaterThanOrEqual(o.cfg.UsdcMinSwap) {
		log.Info().Str("amount", usdcHuman.String()).Msg("single leg: USDC->WETH")
		_, err := o.legs.PerformSwap(ctx, signer, types.DirectionUsdcToEth, usdcHuman.String())
		return err
	}

	log.Info().Msg("no swap condition met for this cycle")
	return nil
}

func (o *Orchestrator) interLegDelay() time.Duration {
	min, max := o.cfg.DelaySecondsMin, o.cfg.DelaySecondsMax
	if max <= min {
		return time.Duration(min) * time.Second
	}
	return time.Duration(min+o.rng.Intn(max-min+1)) * time.Second
}
