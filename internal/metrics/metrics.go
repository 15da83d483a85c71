package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestCycles tracks ingestion cycles by outcome
	IngestCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvxdomains_ingest_cycles_total",
			Help: "The total number of transaction ingestion cycles",
		},
		[]string{"outcome"}, // completed, lock_held, no_price, failed
	)

	// IngestCycleSeconds tracks time taken by a full ingestion cycle
	IngestCycleSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mvxdomains_ingest_cycle_seconds",
		Help:    "Time taken by a transaction ingestion cycle in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// TransactionsProcessed tracks processed transactions by action and outcome
	TransactionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvxdomains_transactions_processed_total",
			Help: "The total number of contract transactions processed",
		},
		[]string{"action", "outcome"}, // applied, skipped, failed
	)

	// GatewayRequests tracks chain API requests by endpoint and status
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvxdomains_gateway_requests_total",
			Help: "The total number of requests to the MultiversX API",
		},
		[]string{"endpoint", "status"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvxdomains_database_operations_total",
			Help: "The total number of database operations",
		},
		[]string{"operation", "status"},
	)

	// WatermarkTimestamp tracks the last processed transaction timestamp
	WatermarkTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mvxdomains_watermark_timestamp",
		Help: "Timestamp of the last processed contract transaction",
	})

	// PriceRefreshes tracks EGLD price refresh attempts by status
	PriceRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvxdomains_price_refreshes_total",
			Help: "The total number of EGLD price refresh attempts",
		},
		[]string{"status"}, // success, failed, lock_held
	)
)

// RecordCycle records an ingestion cycle outcome
func RecordCycle(outcome string) {
	IngestCycles.WithLabelValues(outcome).Inc()
}

// RecordTransaction records a processed transaction
func RecordTransaction(action, outcome string) {
	TransactionsProcessed.WithLabelValues(action, outcome).Inc()
}

// RecordGatewayRequest records a chain API request
func RecordGatewayRequest(endpoint, status string) {
	GatewayRequests.WithLabelValues(endpoint, status).Inc()
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// SetWatermark updates the watermark gauge
func SetWatermark(timestamp int64) {
	WatermarkTimestamp.Set(float64(timestamp))
}

// RecordPriceRefresh records an EGLD price refresh attempt
func RecordPriceRefresh(status string) {
	PriceRefreshes.WithLabelValues(status).Inc()
}
