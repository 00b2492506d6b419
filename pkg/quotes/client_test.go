package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(&ClientConfig{BaseURL: server.URL})
	return client, server
}

func TestFetchQuotes_QueryParameters(t *testing.T) {
	var gotQuery map[string]string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`[]`))
	})
	defer server.Close()

	_, err := client.FetchQuotes(context.Background(), FetchParams{
		WalletAddress:  "0xabc",
		SrcChainID:     8453,
		DestChainID:    8453,
		SrcToken:       "0xsrc",
		DestToken:      "0xdst",
		SrcAmountHuman: "1.23456789",
		SrcDecimals:    6,
		Slippage:       0.01,
		GasIncluded:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "0xabc", gotQuery["walletAddress"])
	assert.Equal(t, "0xabc", gotQuery["destWalletAddress"])
	assert.Equal(t, "8453", gotQuery["srcChainId"])
	assert.Equal(t, "1234567", gotQuery["srcTokenAmount"], "amount must be truncated to token precision")
	assert.Equal(t, "true", gotQuery["gasIncluded"])
	assert.Equal(t, "false", gotQuery["resetApproval"])
	assert.Equal(t, "0.01", gotQuery["slippage"])
}

func TestFetchQuotes_ParsesQuotes(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"quote":{"destTokenAmount":"1000"},"trade":[
				{"title":"Approval","txdata":{"to":"0x1","data":"0xa","value":"0"}},
				{"title":"Trade","txdata":{"to":"0x2","data":"0xb","value":"0"}}
			]}
		]`))
	})
	defer server.Close()

	got, err := client.FetchQuotes(context.Background(), FetchParams{SrcAmountHuman: "1", SrcDecimals: 6})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1000", got[0].DestAmount().String())
	require.NotNil(t, got[0].TradeStep())
	assert.Equal(t, "0x2", got[0].TradeStep().TxData.To)
	require.NotNil(t, got[0].ApprovalStep())
}

func TestFetchQuotes_NonArrayResponseMeansNoQuotes(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"internal"}`))
	})
	defer server.Close()

	got, err := client.FetchQuotes(context.Background(), FetchParams{SrcAmountHuman: "1", SrcDecimals: 6})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchQuotes_ErrorStatusPropagates(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	defer server.Close()

	_, err := client.FetchQuotes(context.Background(), FetchParams{SrcAmountHuman: "1", SrcDecimals: 6})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSubmitProof(t *testing.T) {
	var gotPath string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	require.NoError(t, client.SubmitProof(context.Background(), "0xhash", 8453))
	assert.Equal(t, "/submit-proof", gotPath)

	assert.Error(t, client.SubmitProof(context.Background(), "", 8453))
}
