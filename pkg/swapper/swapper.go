// Package swapper is the swap execution engine: it selects and validates
// quotes, drives transaction submission for each leg, applies the retry
// policy, and sequences the two-leg cycle for every wallet.
package swapper

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"swap-loop/pkg/chain"
	"swap-loop/pkg/quotes"
	"swap-loop/pkg/submitter"
	"swap-loop/pkg/types"
)

// batchFallbackGasLimit is used on the relay path when gas estimation fails:
// relayed transactions can legitimately fail estimation when a later step
// depends on an earlier one in the same batch.
const batchFallbackGasLimit = 900_000

// QuoteSource fetches candidate quotes and reports executed trades.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, params quotes.FetchParams) ([]quotes.Quote, error)
	SubmitProof(ctx context.Context, txHash string, chainID int64) error
}

// TxBuilder produces fresh signed transactions per attempt.
type TxBuilder interface {
	BuildSigned(ctx context.Context, key *ecdsa.PrivateKey, req submitter.TxRequest, overrides *submitter.GasOverrides, fallbackGasLimit uint64) (*submitter.BuiltTx, error)
}

// FeeSource computes optional fee overrides for the next transaction.
type FeeSource interface {
	Overrides(ctx context.Context) *submitter.GasOverrides
}

// Broadcaster lands one signed transaction directly and waits for finality.
type Broadcaster interface {
	Submit(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)
}

// Relay submits a signed batch and blocks until it settles.
type Relay interface {
	SubmitAndWait(ctx context.Context, rawTxs []string) (string, error)
}

// Config holds the swap environment shared by all wallets.
type Config struct {
	ChainID       int64
	RouterAddress string
	UsdcAddress   string
	WethAddress   string
	UsdcDecimals  int
	EthDecimals   int
	Slippage      float64
	ResetApproval bool
	GasIncluded   bool
}

// Swapper executes one swap leg end to end. A nil relay selects the direct
// broadcast path for every transaction.
type Swapper struct {
	quotes QuoteSource
	build  TxBuilder
	fees   FeeSource
	direct Broadcaster
	relay  Relay
	cfg    Config
	log    zerolog.Logger
	rng    *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewSwapper wires the engine components together.
func NewSwapper(quoteSource QuoteSource, build TxBuilder, fees FeeSource, direct Broadcaster, relay Relay, cfg Config, log zerolog.Logger) *Swapper {
	return &Swapper{
		quotes: quoteSource,
		build:  build,
		fees:   fees,
		direct: direct,
		relay:  relay,
		cfg:    cfg,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleepContext,
	}
}

// PerformSwap runs the quote → validate → build → submit sequence for one
// leg, retrying transient failures with a fresh quote. It returns false with
// a nil error when the aggregator had no quotes (skip, not a failure).
func (s *Swapper) PerformSwap(ctx context.Context, signer *chain.Signer, direction types.Direction, amountHuman string) (bool, error) {
	srcToken, destToken, srcDecimals := s.legTokens(direction)

	params := quotes.FetchParams{
		WalletAddress:  signer.Address.Hex(),
		SrcChainID:     s.cfg.ChainID,
		DestChainID:    s.cfg.ChainID,
		SrcToken:       srcToken,
		DestToken:      destToken,
		SrcAmountHuman: amountHuman,
		SrcDecimals:    srcDecimals,
		Slippage:       s.cfg.Slippage,
		ResetApproval:  s.cfg.ResetApproval,
		GasIncluded:    s.cfg.GasIncluded,
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		s.log.Info().
			Str("direction", string(direction)).
			Str("amount", amountHuman).
			Int("attempt", attempt).
			Int("maxAttempts", MaxAttempts).
			Msg("fetching quotes")

		candidates, err := s.quotes.FetchQuotes(ctx, params)
		if err != nil {
			return false, err
		}
		if len(candidates) == 0 {
			s.log.Warn().Msg("no quotes returned")
			return false, nil
		}

		best := quotes.PickBest(candidates)
		err = s.executeQuote(ctx, signer, best)
		if err == nil {
			return true, nil
		}

		s.log.Warn().Err(err).Int("attempt", attempt).Msg("swap attempt failed")
		if attempt < MaxAttempts && IsRetriable(err) {
			delay := retryDelay(s.rng)
			s.log.Info().Dur("delay", delay).Msg("retrying with fresh quote")
			if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
				return false, sleepErr
			}
			continue
		}
		return false, err
	}
	return false, nil
}

// executeQuote validates and lands the selected quote's steps. Every call
// rebuilds transactions from scratch: a prior attempt may have consumed the
// previous nonce.
func (s *Swapper) executeQuote(ctx context.Context, signer *chain.Signer, quote *quotes.Quote) error {
	if err := EnsureRouterSafety(quote, s.cfg.RouterAddress); err != nil {
		return err
	}
	overrides := s.fees.Overrides(ctx)

	if s.relay != nil {
		return s.executeRelayed(ctx, signer, quote, overrides)
	}
	return s.executeDirect(ctx, signer, quote, overrides)
}

func (s *Swapper) executeDirect(ctx context.Context, signer *chain.Signer, quote *quotes.Quote, overrides *submitter.GasOverrides) error {
	if approval := quote.ApprovalStep(); approval != nil {
		req, err := stepToRequest(approval)
		if err != nil {
			return err
		}
		s.log.Info().Msg("sending approval tx")
		built, err := s.build.BuildSigned(ctx, signer.Key, req, overrides, 0)
		if err != nil {
			return err
		}
		if _, err := s.direct.Submit(ctx, built.Tx); err != nil {
			return err
		}
	}

	trade := quote.TradeStep()
	req, err := stepToRequest(trade)
	if err != nil {
		return err
	}
	s.log.Info().Msg("sending trade tx")
	built, err := s.build.BuildSigned(ctx, signer.Key, req, overrides, 0)
	if err != nil {
		return err
	}
	receipt, err := s.direct.Submit(ctx, built.Tx)
	if err != nil {
		return err
	}

	s.submitProof(ctx, receipt.TxHash.Hex())
	return nil
}

func (s *Swapper) executeRelayed(ctx context.Context, signer *chain.Signer, quote *quotes.Quote, overrides *submitter.GasOverrides) error {
	steps := make([]*quotes.Step, 0, 2)
	if approval := quote.ApprovalStep(); approval != nil {
		steps = append(steps, approval)
	}
	steps = append(steps, quote.TradeStep())

	rawTxs := make([]string, 0, len(steps))
	for _, step := range steps {
		req, err := stepToRequest(step)
		if err != nil {
			return err
		}
		built, err := s.build.BuildSigned(ctx, signer.Key, req, overrides, batchFallbackGasLimit)
		if err != nil {
			return err
		}
		rawTxs = append(rawTxs, built.Raw)
	}

	s.log.Info().Int("steps", len(rawTxs)).Msg("submitting batch to relay")
	minedHash, err := s.relay.SubmitAndWait(ctx, rawTxs)
	if err != nil {
		return err
	}
	s.log.Info().Str("minedHash", minedHash).Msg("relay batch settled")

	s.submitProof(ctx, minedHash)
	return nil
}

// submitProof reports the mined trade back to the aggregator. Best effort:
// a proof failure never fails the swap.
func (s *Swapper) submitProof(ctx context.Context, txHash string) {
	if err := s.quotes.SubmitProof(ctx, txHash, s.cfg.ChainID); err != nil {
		s.log.Warn().Err(err).Str("tx", txHash).Msg("proof submission failed")
	}
}

func (s *Swapper) legTokens(direction types.Direction) (srcToken, destToken string, srcDecimals int) {
	if direction == types.DirectionEthToUsdc {
		return s.cfg.WethAddress, s.cfg.UsdcAddress, s.cfg.EthDecimals
	}
	return s.cfg.UsdcAddress, s.cfg.WethAddress, s.cfg.UsdcDecimals
}

// stepToRequest converts a quote step's wire payload into a buildable
// transaction request.
func stepToRequest(step *quotes.Step) (submitter.TxRequest, error) {
	if !common.IsHexAddress(step.TxData.To) {
		return submitter.TxRequest{}, fmt.Errorf("invalid step target address %q", step.TxData.To)
	}

	var data []byte
	if step.TxData.Data != "" && step.TxData.Data != "0x" {
		decoded, err := hexutil.Decode(step.TxData.Data)
		if err != nil {
			return submitter.TxRequest{}, fmt.Errorf("invalid step calldata: %w", err)
		}
		data = decoded
	}

	value, err := parseStepValue(step.TxData.Value)
	if err != nil {
		return submitter.TxRequest{}, err
	}

	return submitter.TxRequest{
		To:    common.HexToAddress(step.TxData.To),
		Data:  data,
		Value: value,
	}, nil
}

func parseStepValue(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	if strings.HasPrefix(raw, "0x") {
		value, err := hexutil.DecodeBig(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid step value %q: %w", raw, err)
		}
		return value, nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid step value %q", raw)
	}
	return value, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
