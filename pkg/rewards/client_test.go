package rewards

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-loop/pkg/chain"
	"swap-loop/pkg/types"
)

func newTestSigner(t *testing.T) *chain.Signer {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey)
	signer, err := chain.NewSigner(types.Wallet{
		Address:    address.Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	})
	require.NoError(t, err)
	return signer
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:      baseURL,
		ClientID:     "test-client",
		Language:     "en",
		SessionsPath: filepath.Join(t.TempDir(), "sessions.json"),
	}, zerolog.Nop())
}

func TestCaipIdentifiers(t *testing.T) {
	assert.Equal(t, "eip155:8453:0xabc", Caip10(8453, "0xabc"))
	assert.Equal(t, "eip155:8453/slip44:60", Caip19Native(8453))
	assert.Equal(t, "eip155:8453/erc20:0xdef", Caip19Erc20(8453, "0xdef"))
}

func TestEnsureSessionLogsIn(t *testing.T) {
	signer := newTestSigner(t)

	var loginBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/mobile-login", r.URL.Path)
		require.Equal(t, "test-client", r.Header.Get("rewards-client-id"))
		require.Equal(t, "en", r.Header.Get("Accept-Language"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&loginBody))
		json.NewEncoder(w).Encode(map[string]any{
			"sessionId":    "session-1",
			"subscription": map[string]string{"id": "sub-1"},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.EnsureSession(context.Background(), signer, "")
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.SessionID)
	assert.Equal(t, "sub-1", session.SubscriptionID)

	// The signature must recover to the wallet address.
	require.Equal(t, signer.Address.Hex(), loginBody["account"])
	timestamp := int64(loginBody["timestamp"].(float64))
	message := "rewards," + signer.Address.Hex() + "," + jsonNumber(timestamp)
	signature, err := hexutil.Decode(loginBody["signature"].(string))
	require.NoError(t, err)
	signature[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), signature)
	require.NoError(t, err)
	assert.Equal(t, signer.Address, crypto.PubkeyToAddress(*pub))
}

func jsonNumber(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func TestEnsureSessionRetriesWithServerTimestamp(t *testing.T) {
	signer := newTestSigner(t)

	var attempts atomic.Int64
	var timestamps []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		timestamps = append(timestamps, int64(body["timestamp"].(float64)))
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{"serverTimestamp": 1700000123456})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"sessionId": "session-2"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.EnsureSession(context.Background(), signer, "")
	require.NoError(t, err)
	assert.Equal(t, "session-2", session.SessionID)

	require.Len(t, timestamps, 2)
	assert.Equal(t, int64(1700000123), timestamps[1])
}

func TestEnsureSessionFallsBackToOptIn(t *testing.T) {
	signer := newTestSigner(t)

	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/auth/mobile-login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "FRIEND", body["referralCode"])
		json.NewEncoder(w).Encode(map[string]any{"sessionId": "session-3"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	session, err := client.EnsureSession(context.Background(), signer, "FRIEND")
	require.NoError(t, err)
	assert.Equal(t, "session-3", session.SessionID)
	assert.Equal(t, []string{"/auth/mobile-login", "/auth/mobile-optin"}, paths)
}

func TestEnsureSessionUsesCache(t *testing.T) {
	signer := newTestSigner(t)

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"sessionId": "session-4"})
	}))
	defer server.Close()

	sessionsPath := filepath.Join(t.TempDir(), "sessions.json")
	config := ClientConfig{BaseURL: server.URL, ClientID: "c", SessionsPath: sessionsPath}

	first := NewClient(config, zerolog.Nop())
	_, err := first.EnsureSession(context.Background(), signer, "")
	require.NoError(t, err)
	require.Equal(t, int64(1), calls.Load())

	// A fresh client sharing the same sessions file skips the handshake.
	second := NewClient(config, zerolog.Nop())
	session, err := second.EnsureSession(context.Background(), signer, "")
	require.NoError(t, err)
	assert.Equal(t, "session-4", session.SessionID)
	assert.Equal(t, int64(1), calls.Load())
}

func TestCurrentSeason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/seasons/current/status", r.URL.Path)
		require.Equal(t, "session-5", r.Header.Get("rewards-access-token"))
		json.NewEncoder(w).Encode(map[string]any{
			"season":  map[string]string{"id": "s1", "name": "Season One"},
			"balance": map[string]float64{"total": 420},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	status, err := client.CurrentSeason(context.Background(), "session-5")
	require.NoError(t, err)
	assert.Equal(t, "Season One", status.Season.Name)
	total, ok := status.PointsTotal()
	require.True(t, ok)
	assert.Equal(t, float64(420), total)
}

func TestEstimateSwapPoints(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/points-estimation", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]any{"pointsEstimate": 12.5, "bonusBips": 100})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	estimate, err := client.EstimateSwapPoints(context.Background(), EstimateSwapParams{
		ChainID:     8453,
		Address:     "0xabc",
		SrcAssetID:  Caip19Native(8453),
		DestAssetID: Caip19Erc20(8453, "0xdef"),
		FeeAssetID:  Caip19Native(8453),
		SrcAmount:   "1000000000000000000",
	})
	require.NoError(t, err)
	assert.Equal(t, 12.5, estimate.PointsEstimate)

	require.Equal(t, "SWAP", body["activityType"])
	require.Equal(t, "eip155:8453:0xabc", body["account"])
	swapContext := body["activityContext"].(map[string]any)["swapContext"].(map[string]any)
	destAsset := swapContext["destAsset"].(map[string]any)
	assert.Equal(t, "0", destAsset["amount"])
}

func TestCurrentSeasonErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CurrentSeason(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))
}
