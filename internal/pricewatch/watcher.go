// Package pricewatch keeps the cached EGLD spot price fresh.
package pricewatch

import (
	"context"
	"errors"
	"time"

	"github.com/mvxid/indexer/internal/cache"
	"github.com/mvxid/indexer/internal/lock"
	"github.com/mvxid/indexer/internal/metrics"
	"github.com/rs/zerolog"
)

// lockGetEgldPrice serializes price refreshes across replicas
const lockGetEgldPrice = "getEgldPrice"

const lockTTL = 30 * time.Second

// PriceSource returns the current EGLD spot price in USD
type PriceSource interface {
	EgldPrice(ctx context.Context) (float64, error)
}

// Watcher refreshes the shared EGLD price cache entry on a fixed interval
type Watcher struct {
	source   PriceSource
	cache    cache.KeyValue
	locker   lock.Locker
	interval time.Duration
	logger   zerolog.Logger
}

// NewWatcher creates a price watcher
func NewWatcher(source PriceSource, kv cache.KeyValue, locker lock.Locker, interval time.Duration, logger zerolog.Logger) *Watcher {
	return &Watcher{
		source:   source,
		cache:    kv,
		locker:   locker,
		interval: interval,
		logger:   logger.With().Str("component", "pricewatch").Logger(),
	}
}

// Run refreshes the price immediately and then on every tick until the
// context is cancelled. Refresh failures leave the previous cached price in
// place.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("Starting price watcher")

	if err := w.refresh(ctx); err != nil {
		w.logger.Error().Err(err).Msg("Initial price refresh failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping price watcher")
			return ctx.Err()
		case <-ticker.C:
			if err := w.refresh(ctx); err != nil {
				w.logger.Error().Err(err).Msg("Price refresh failed")
			}
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) error {
	err := lock.WithLock(ctx, w.locker, lockGetEgldPrice, lockTTL, func(ctx context.Context) error {
		price, err := w.source.EgldPrice(ctx)
		if err != nil {
			return err
		}
		if err := cache.SetFloat(ctx, w.cache, cache.KeyEgldPrice, price, cache.SixMonths); err != nil {
			return err
		}
		w.logger.Debug().Float64("price", price).Msg("Refreshed EGLD price")
		return nil
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		metrics.RecordPriceRefresh("lock_held")
		return nil
	}
	if err != nil {
		metrics.RecordPriceRefresh("failed")
		return err
	}

	metrics.RecordPriceRefresh("success")
	return nil
}
