package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/mvxid/indexer/internal/cache"
	"github.com/mvxid/indexer/internal/gateway"
	"github.com/mvxid/indexer/internal/lock"
	"github.com/mvxid/indexer/internal/metrics"
	"github.com/rs/zerolog"
)

// lockNewTransactions serializes ingestion cycles across replicas
const lockNewTransactions = "newTransactions"

// lockTTL must outlive the slowest plausible cycle
const lockTTL = 30 * time.Second

// Gateway is the slice of the chain API the poller consumes
type Gateway interface {
	AccountTransactions(ctx context.Context, after int64) ([]gateway.Transaction, error)
}

// Poller periodically pulls new contract transactions and feeds them to the
// processor, tracking progress through a shared watermark
type Poller struct {
	gateway   Gateway
	processor *Processor
	cache     cache.KeyValue
	locker    lock.Locker
	interval  time.Duration
	logger    zerolog.Logger
}

// NewPoller creates a transaction poller
func NewPoller(gw Gateway, processor *Processor, kv cache.KeyValue, locker lock.Locker, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{
		gateway:   gw,
		processor: processor,
		cache:     kv,
		locker:    locker,
		interval:  interval,
		logger:    logger.With().Str("component", "poller").Logger(),
	}
}

// Run polls on a fixed interval until the context is cancelled. Cycle
// failures are logged and the next tick retries from the watermark.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info().Dur("interval", p.interval).Msg("Starting transaction poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Stopping transaction poller")
			return ctx.Err()
		case <-ticker.C:
			if err := p.runOnce(ctx); err != nil {
				p.logger.Error().Err(err).Msg("Ingestion cycle failed")
			}
		}
	}
}

// runOnce executes a single ingestion cycle under the shared lock
func (p *Poller) runOnce(ctx context.Context) error {
	started := time.Now()

	err := lock.WithLock(ctx, p.locker, lockNewTransactions, lockTTL, p.ingest)
	if errors.Is(err, lock.ErrNotAcquired) {
		metrics.RecordCycle("lock_held")
		return nil
	}
	if err != nil {
		metrics.RecordCycle("failed")
		return err
	}

	metrics.IngestCycleSeconds.Observe(time.Since(started).Seconds())
	return nil
}

func (p *Poller) ingest(ctx context.Context) error {
	// Without a spot price, registrations would be stored with zero prices.
	// Wait for the price watcher to populate the cache first.
	_, havePrice, err := cache.GetFloat(ctx, p.cache, cache.KeyEgldPrice)
	if err != nil {
		return err
	}
	if !havePrice {
		p.logger.Warn().Msg("No EGLD price cached, skipping cycle")
		metrics.RecordCycle("no_price")
		return nil
	}

	watermark, _, err := cache.GetInt64(ctx, p.cache, cache.KeyWatermark)
	if err != nil {
		return err
	}

	transactions, err := p.gateway.AccountTransactions(ctx, watermark)
	if err != nil {
		return err
	}

	for _, tx := range transactions {
		// Advance the watermark before applying so a transaction that keeps
		// failing cannot wedge the pipeline. Replay protection makes the
		// skipped window safe to revisit manually.
		if err := cache.SetInt64(ctx, p.cache, cache.KeyWatermark, tx.Timestamp, cache.SixMonths); err != nil {
			return err
		}
		metrics.SetWatermark(tx.Timestamp)

		p.processor.Process(ctx, tx)
	}

	p.logger.Debug().Int("count", len(transactions)).Msg("Ingestion cycle complete")
	metrics.RecordCycle("completed")
	return nil
}
