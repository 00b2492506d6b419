// Package rewards integrates the optional points side-system: session
// authentication, season status, and swap points estimation. Nothing in
// here gates swap execution.
package rewards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"swap-loop/pkg/chain"
)

const requestTimeout = 30 * time.Second

// Client talks to the rewards API on behalf of one client id.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	language   string
	sessions   *SessionStore
	log        zerolog.Logger
}

// ClientConfig configures the rewards client.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	Language     string
	SessionsPath string
	HTTPClient   *http.Client
}

// NewClient creates a rewards client with a file-backed session cache.
func NewClient(config ClientConfig, log zerolog.Logger) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    config.BaseURL,
		clientID:   config.ClientID,
		language:   config.Language,
		sessions:   NewSessionStore(config.SessionsPath),
		log:        log,
	}
}

// Session is an authenticated rewards session for one wallet.
type Session struct {
	SessionID      string `json:"sessionId"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

type authResponse struct {
	SessionID       string      `json:"sessionId"`
	ServerTimestamp json.Number `json:"serverTimestamp"`
	Subscription    struct {
		ID string `json:"id"`
	} `json:"subscription"`
}

// EnsureSession returns a cached session for the wallet or establishes one
// via the mobile-login / mobile-optin handshake.
func (c *Client) EnsureSession(ctx context.Context, signer *chain.Signer, referralCode string) (*Session, error) {
	address := signer.Address.Hex()
	if session, ok := c.sessions.Get(address); ok {
		return session, nil
	}

	response, err := c.loginOrOptIn(ctx, signer, referralCode)
	if err != nil {
		return nil, err
	}

	session := &Session{SessionID: response.SessionID, SubscriptionID: response.Subscription.ID}
	if err := c.sessions.Put(address, session); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist rewards session")
	}
	return session, nil
}

// loginOrOptIn tries login first, then opt-in, retrying each once with the
// server's own timestamp when the API rejects ours for clock skew.
func (c *Client) loginOrOptIn(ctx context.Context, signer *chain.Signer, referralCode string) (*authResponse, error) {
	var lastErr error
	for _, path := range []string{"/auth/mobile-login", "/auth/mobile-optin"} {
		response, err := c.authAttempt(ctx, path, signer, referralCode, time.Now().Unix())
		if err == nil && response.SessionID == "" && response.ServerTimestamp != "" {
			serverMillis, convErr := response.ServerTimestamp.Int64()
			if convErr != nil {
				return nil, fmt.Errorf("rewards auth: bad serverTimestamp: %w", convErr)
			}
			response, err = c.authAttempt(ctx, path, signer, referralCode, serverMillis/1000)
		}
		if err == nil && response.SessionID != "" {
			return response, nil
		}
		if err == nil {
			err = fmt.Errorf("rewards auth at %s returned no session", path)
		}
		c.log.Debug().Err(err).Str("path", path).Msg("rewards auth attempt failed")
		lastErr = err
	}
	return nil, fmt.Errorf("rewards auth failed: %w", lastErr)
}

func (c *Client) authAttempt(ctx context.Context, path string, signer *chain.Signer, referralCode string, timestamp int64) (*authResponse, error) {
	signature, err := signAuthMessage(signer, timestamp)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"account":   signer.Address.Hex(),
		"timestamp": timestamp,
		"signature": signature,
	}
	if path == "/auth/mobile-optin" && referralCode != "" {
		body["referralCode"] = referralCode
	}

	var response authResponse
	status, err := c.postJSON(ctx, path, "", body, &response)
	if err != nil {
		return nil, err
	}
	if status >= 300 && response.ServerTimestamp == "" {
		return nil, fmt.Errorf("rewards auth returned status %d", status)
	}
	return &response, nil
}

// signAuthMessage signs "rewards,{address},{timestamp}" EIP-191 style,
// matching the API's personal_sign verification.
func signAuthMessage(signer *chain.Signer, timestamp int64) (string, error) {
	message := fmt.Sprintf("rewards,%s,%d", signer.Address.Hex(), timestamp)
	digest := accounts.TextHash([]byte(message))
	signature, err := crypto.Sign(digest, signer.Key)
	if err != nil {
		return "", fmt.Errorf("failed to sign auth message: %w", err)
	}
	signature[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(signature), nil
}

// SeasonStatus is the wallet's standing in the current rewards season.
type SeasonStatus struct {
	Season struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"season"`
	Balance struct {
		Total  *float64 `json:"total"`
		Points *float64 `json:"points"`
	} `json:"balance"`
}

// PointsTotal returns the points balance, whichever field the API used.
func (s *SeasonStatus) PointsTotal() (float64, bool) {
	if s.Balance.Total != nil {
		return *s.Balance.Total, true
	}
	if s.Balance.Points != nil {
		return *s.Balance.Points, true
	}
	return 0, false
}

// CurrentSeason fetches the current season status for a session.
func (c *Client) CurrentSeason(ctx context.Context, sessionID string) (*SeasonStatus, error) {
	var status SeasonStatus
	httpStatus, err := c.getJSON(ctx, "/seasons/current/status", sessionID, &status)
	if err != nil {
		return nil, err
	}
	if httpStatus >= 300 {
		return nil, fmt.Errorf("season status returned status %d", httpStatus)
	}
	return &status, nil
}

// PointsEstimate is the rewards API's answer for a prospective swap.
type PointsEstimate struct {
	PointsEstimate float64 `json:"pointsEstimate"`
	BonusBips      float64 `json:"bonusBips"`
}

// EstimateSwapParams describe the swap being priced for points.
type EstimateSwapParams struct {
	ChainID     int64
	Address     string
	SrcAssetID  string
	DestAssetID string
	FeeAssetID  string
	SrcAmount   string
	DestAmount  string
	FeeAmount   string
}

// EstimateSwapPoints asks the API how many points a swap would earn.
func (c *Client) EstimateSwapPoints(ctx context.Context, params EstimateSwapParams) (*PointsEstimate, error) {
	destAmount := params.DestAmount
	if destAmount == "" {
		destAmount = "0"
	}
	feeAmount := params.FeeAmount
	if feeAmount == "" {
		feeAmount = "0"
	}

	body := map[string]any{
		"activityType": "SWAP",
		"account":      Caip10(params.ChainID, params.Address),
		"activityContext": map[string]any{
			"swapContext": map[string]any{
				"srcAsset":  map[string]string{"id": params.SrcAssetID, "amount": params.SrcAmount},
				"destAsset": map[string]string{"id": params.DestAssetID, "amount": destAmount},
				"feeAsset":  map[string]string{"id": params.FeeAssetID, "amount": feeAmount},
			},
		},
	}

	var estimate PointsEstimate
	status, err := c.postJSON(ctx, "/points-estimation", "", body, &estimate)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("points estimation returned status %d", status)
	}
	return &estimate, nil
}

func (c *Client) postJSON(ctx context.Context, path, sessionID string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, sessionID, out)
}

func (c *Client) getJSON(ctx context.Context, path, sessionID string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, sessionID, out)
}

func (c *Client) do(req *http.Request, sessionID string, out any) (int, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("rewards-client-id", c.clientID)
	if sessionID != "" {
		req.Header.Set("rewards-access-token", sessionID)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > 0 && out != nil {
		// Error bodies may still carry fields the caller needs
		// (serverTimestamp); a decode failure on them is not fatal.
		if err := json.Unmarshal(body, out); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
