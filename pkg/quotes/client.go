// Package quotes talks to the swap aggregator: fetching candidate quotes,
// choosing among them, and reporting executed trades back.
package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"swap-loop/pkg/units"
)

const (
	// DefaultTimeout bounds a single quote request.
	DefaultTimeout = 60 * time.Second

	// proofTimeout bounds a proof submission.
	proofTimeout = 30 * time.Second
)

// Client is an aggregator API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientConfig contains configuration for the aggregator client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new aggregator API client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    config.BaseURL,
	}
}

// FetchParams are the parameters of one quote request.
type FetchParams struct {
	WalletAddress   string
	SrcChainID      int64
	DestChainID     int64
	SrcToken        string
	DestToken       string
	SrcAmountHuman  string
	SrcDecimals     int
	Slippage        float64
	InsufficientBal bool
	ResetApproval   bool
	GasIncluded     bool
}

// FetchQuotes requests candidate quotes for a swap. The returned slice keeps
// the aggregator's ordering. A response that is not a JSON array is treated
// as "no quotes", not as an error; transport errors propagate unmodified.
func (c *Client) FetchQuotes(ctx context.Context, params FetchParams) ([]Quote, error) {
	srcAmount, err := units.ToUnits(params.SrcAmountHuman, params.SrcDecimals)
	if err != nil {
		return nil, fmt.Errorf("source amount: %w", err)
	}

	query := url.Values{}
	query.Set("walletAddress", params.WalletAddress)
	query.Set("destWalletAddress", params.WalletAddress)
	query.Set("srcChainId", strconv.FormatInt(params.SrcChainID, 10))
	query.Set("destChainId", strconv.FormatInt(params.DestChainID, 10))
	query.Set("srcTokenAddress", params.SrcToken)
	query.Set("destTokenAddress", params.DestToken)
	query.Set("srcTokenAmount", srcAmount.String())
	query.Set("insufficientBal", strconv.FormatBool(params.InsufficientBal))
	query.Set("resetApproval", strconv.FormatBool(params.ResetApproval))
	query.Set("gasIncluded", strconv.FormatBool(params.GasIncluded))
	query.Set("slippage", strconv.FormatFloat(params.Slippage, 'f', -1, 64))

	requestURL := fmt.Sprintf("%s/fetch-quotes?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("quote API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result []Quote
	if err := json.Unmarshal(body, &result); err != nil {
		// Not an array; the aggregator sometimes answers with an object
		// on internal errors. Treat as no quotes.
		return nil, nil
	}
	return result, nil
}

// PickBest selects the quote with the largest destination amount.
// Comparison is arbitrary-precision; exact ties keep the aggregator's
// original order, so the first quote at the top value wins.
// Returns nil for empty input.
func PickBest(candidates []Quote) *Quote {
	if len(candidates) == 0 {
		return nil
	}
	sorted := make([]Quote, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DestAmount().Cmp(sorted[j].DestAmount()) > 0
	})
	return &sorted[0]
}

// SubmitProof reports a mined trade transaction back to the aggregator.
func (c *Client) SubmitProof(ctx context.Context, txHash string, chainID int64) error {
	if txHash == "" {
		return fmt.Errorf("submit-proof: missing txhash")
	}

	payload, err := json.Marshal(map[string]any{
		"txhash":  txHash,
		"chainId": chainID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode proof: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, proofTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submit-proof", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("submit-proof returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
