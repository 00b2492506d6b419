package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultPollInterval is how often settlement status is polled.
	DefaultPollInterval = 1500 * time.Millisecond
	// DefaultSettleTimeout bounds settlement of a single-transaction submission.
	DefaultSettleTimeout = 120 * time.Second
	// DefaultBatchSettleTimeout bounds settlement of a multi-transaction batch.
	DefaultBatchSettleTimeout = 180 * time.Second

	submitRequestTimeout = 60 * time.Second
	statusRequestTimeout = 30 * time.Second
)

// ErrSettlementTimeout reports that the relay did not settle the submission
// inside the polling window. The submission itself is not cancelled and may
// still settle outside this run.
var ErrSettlementTimeout = errors.New("relay batch did not settle in time")

// SettlementStatus is one tracking entry from the relay's status endpoint.
type SettlementStatus struct {
	IsSettled          bool   `json:"isSettled"`
	MinedTx            string `json:"minedTx"`
	MinedHash          string `json:"minedHash"`
	WouldRevertMessage string `json:"wouldRevertMessage"`
	CancellationReason string `json:"cancellationReason"`
}

// FailureReason returns the relay-reported reason for a settled non-success.
func (s *SettlementStatus) FailureReason() string {
	if s.WouldRevertMessage != "" {
		return s.WouldRevertMessage
	}
	if s.CancellationReason != "" {
		return s.CancellationReason
	}
	return "failed"
}

// RelayClient submits signed raw transactions to the batching relay and
// tracks their settlement asynchronously.
type RelayClient struct {
	httpClient        *http.Client
	baseURL           string
	chainID           int64
	controllerVersion int
	pollInterval      time.Duration
	log               zerolog.Logger
}

// RelayConfig configures the relay client.
type RelayConfig struct {
	BaseURL           string
	ChainID           int64
	ControllerVersion int
	PollInterval      time.Duration
	HTTPClient        *http.Client
}

// NewRelayClient creates a relay client.
func NewRelayClient(config RelayConfig, log zerolog.Logger) *RelayClient {
	pollInterval := config.PollInterval
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &RelayClient{
		httpClient:        httpClient,
		baseURL:           config.BaseURL,
		chainID:           config.ChainID,
		controllerVersion: config.ControllerVersion,
		pollInterval:      pollInterval,
		log:               log,
	}
}

// Submit posts one or more signed raw transactions as a single batch and
// returns the relay's tracking identifier. A response without a valid
// identifier is a fatal submission error.
func (r *RelayClient) Submit(ctx context.Context, rawTxs []string) (string, error) {
	if len(rawTxs) == 0 {
		return "", fmt.Errorf("relay submit: no transactions")
	}

	payload, err := json.Marshal(map[string]any{
		"rawTxs":       rawTxs,
		"rawCancelTxs": []string{},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode submission: %w", err)
	}

	submitURL := fmt.Sprintf("%s/networks/%d/submitTransactions?stxControllerVersion=%d",
		r.baseURL, r.chainID, r.controllerVersion)

	ctx, cancel := context.WithTimeout(ctx, submitRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read submit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("relay submit returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if result.UUID == "" {
		return "", fmt.Errorf("relay submit: missing uuid")
	}
	if _, err := uuid.Parse(result.UUID); err != nil {
		return "", fmt.Errorf("relay submit: malformed uuid %q: %w", result.UUID, err)
	}

	r.log.Debug().Str("uuid", result.UUID).Int("rawTxs", len(rawTxs)).Msg("relay submission accepted")
	return result.UUID, nil
}

// WaitForSettlement polls the relay until the tracked submission settles or
// the timeout elapses. A success settlement yields the mined transaction
// hash; any other settled outcome fails with the relay-reported reason.
func (r *RelayClient) WaitForSettlement(ctx context.Context, trackingID string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)

	for attempt := 1; time.Now().Before(deadline); attempt++ {
		status, err := r.fetchStatus(ctx, trackingID)
		if err != nil {
			return "", err
		}
		r.log.Debug().
			Int("poll", attempt).
			Bool("isSettled", status.IsSettled).
			Str("minedTx", status.MinedTx).
			Str("minedHash", status.MinedHash).
			Msg("settlement poll")

		if status.IsSettled {
			if status.MinedTx == "success" && status.MinedHash != "" {
				return status.MinedHash, nil
			}
			return "", fmt.Errorf("relay batch failed: %s", status.FailureReason())
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.pollInterval):
		}
	}
	return "", ErrSettlementTimeout
}

// SubmitAndWait submits a batch and blocks until settlement. Single
// transactions use the shorter settlement window, batches the longer one.
func (r *RelayClient) SubmitAndWait(ctx context.Context, rawTxs []string) (string, error) {
	trackingID, err := r.Submit(ctx, rawTxs)
	if err != nil {
		return "", err
	}
	timeout := DefaultSettleTimeout
	if len(rawTxs) > 1 {
		timeout = DefaultBatchSettleTimeout
	}
	return r.WaitForSettlement(ctx, trackingID, timeout)
}

func (r *RelayClient) fetchStatus(ctx context.Context, trackingID string) (*SettlementStatus, error) {
	statusURL := fmt.Sprintf("%s/networks/%d/batchStatus?%s",
		r.baseURL, r.chainID, url.Values{"uuids": {trackingID}}.Encode())

	ctx, cancel := context.WithTimeout(ctx, statusRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("relay status returned status %d: %s", resp.StatusCode, string(body))
	}

	var entries map[string]SettlementStatus
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}
	status, ok := entries[trackingID]
	if !ok {
		// Unknown uuid counts as not yet settled.
		return &SettlementStatus{}, nil
	}
	return &status, nil
}
