package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mvxid/indexer/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(apiURL, economicsURL string) *Client {
	return NewClient(config.Config{
		APIURL:          apiURL,
		EconomicsURL:    economicsURL,
		ContractAddress: "erd1contract",
		RequestTimeout:  5 * time.Second,
	}, zerolog.Nop())
}

func TestAccountTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/erd1contract/transactions", r.URL.Path)

		query := r.URL.Query()
		assert.Equal(t, "1713000000", query.Get("after"))
		assert.Equal(t, "10", query.Get("size"))
		assert.Equal(t, "asc", query.Get("order"))
		assert.Contains(t, query.Get("fields"), "txHash")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"data":"cmVnaXN0ZXI=","receiver":"erd1contract","sender":"erd1alice",
			 "status":"success","timestamp":1713000050,"txHash":"aa11","function":"register"}
		]`))
	}))
	defer server.Close()

	client := testClient(server.URL, server.URL)
	transactions, err := client.AccountTransactions(context.Background(), 1713000000)
	require.NoError(t, err)
	require.Len(t, transactions, 1)

	tx := transactions[0]
	assert.Equal(t, "aa11", tx.TxHash)
	assert.Equal(t, "erd1alice", tx.Sender)
	assert.Equal(t, int64(1713000050), tx.Timestamp)
	assert.Equal(t, "success", tx.Status)
}

func TestAccountTransactionsEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := testClient(server.URL, server.URL)
	transactions, err := client.AccountTransactions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestAccountTransactionsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(server.URL, server.URL)
	_, err := client.AccountTransactions(context.Background(), 0)
	assert.Error(t, err)
}

func TestEgldPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":42.5,"marketCap":1000000}`))
	}))
	defer server.Close()

	client := testClient(server.URL, server.URL)
	price, err := client.EgldPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.5, price)
}

func TestEgldPriceMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := testClient(server.URL, server.URL)
	_, err := client.EgldPrice(context.Background())
	assert.Error(t, err)
}
