// Package gateway talks to the MultiversX public API.
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mvxid/indexer/internal/config"
	"github.com/mvxid/indexer/internal/metrics"
	"github.com/mvxid/indexer/internal/utils"
	"github.com/rs/zerolog"
)

// transactionPageSize bounds each poll so a busy contract cannot stall a cycle
const transactionPageSize = 10

// transactionFields trims the API response to what the indexer consumes
const transactionFields = "data,receiver,sender,status,timestamp,txHash,function"

// Transaction is a single contract transaction as returned by the API
type Transaction struct {
	Data      string `json:"data"`
	Receiver  string `json:"receiver"`
	Sender    string `json:"sender"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	TxHash    string `json:"txHash"`
	Function  string `json:"function"`
}

type economics struct {
	Price float64 `json:"price"`
}

// Client fetches contract transactions and network economics
type Client struct {
	api       *utils.HTTPClient
	economics *utils.HTTPClient
	contract  string
	logger    zerolog.Logger
}

// NewClient creates a gateway client from the configured API endpoints
func NewClient(cfg config.Config, logger zerolog.Logger) *Client {
	return &Client{
		api: utils.NewHTTPClient(
			utils.WithBaseURL(cfg.APIURL),
			utils.WithTimeout(cfg.RequestTimeout),
		),
		economics: utils.NewHTTPClient(
			utils.WithBaseURL(cfg.EconomicsURL),
			utils.WithTimeout(cfg.RequestTimeout),
		),
		contract: cfg.ContractAddress,
		logger:   logger.With().Str("component", "gateway").Logger(),
	}
}

// AccountTransactions returns the next page of contract transactions strictly
// newer than the given timestamp, oldest first
func (c *Client) AccountTransactions(ctx context.Context, after int64) ([]Transaction, error) {
	query := url.Values{}
	query.Set("after", strconv.FormatInt(after, 10))
	query.Set("size", strconv.Itoa(transactionPageSize))
	query.Set("fields", transactionFields)
	query.Set("order", "asc")

	path := fmt.Sprintf("/accounts/%s/transactions", c.contract)
	resp, err := c.api.Get(ctx, path, query)
	if err != nil {
		metrics.RecordGatewayRequest("transactions", "failed")
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	var transactions []Transaction
	if err := resp.DecodeJSON(&transactions); err != nil {
		metrics.RecordGatewayRequest("transactions", "failed")
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	metrics.RecordGatewayRequest("transactions", "success")
	c.logger.Debug().Int64("after", after).Int("count", len(transactions)).Msg("Fetched transactions")
	return transactions, nil
}

// EgldPrice returns the current EGLD spot price in USD
func (c *Client) EgldPrice(ctx context.Context) (float64, error) {
	resp, err := c.economics.Get(ctx, "", nil)
	if err != nil {
		metrics.RecordGatewayRequest("economics", "failed")
		return 0, fmt.Errorf("failed to fetch economics: %w", err)
	}

	var data economics
	if err := resp.DecodeJSON(&data); err != nil {
		metrics.RecordGatewayRequest("economics", "failed")
		return 0, fmt.Errorf("failed to decode economics: %w", err)
	}

	metrics.RecordGatewayRequest("economics", "success")
	return data.Price, nil
}
