package cache

import (
	"context"
	"strconv"
	"time"
)

// Well-known keys shared between the cron loops and the read API
const (
	// KeyWatermark holds the timestamp of the last processed contract
	// transaction, used as the lower bound for the next fetch
	KeyWatermark = "last_transaction_time_stamp"

	// KeyEgldPrice holds the latest EGLD spot price in USD
	KeyEgldPrice = "egld_price"
)

// SixMonths is the expiry applied to both shared entries
const SixMonths = 6 * 30 * 24 * time.Hour

// KeyValue is the shared cache the ingestion pipeline reads its watermark and
// spot price from. The second return of Get reports whether the key exists.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// GetInt64 reads an integer entry. A missing key yields (0, false, nil).
func GetInt64(ctx context.Context, kv KeyValue, key string) (int64, bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// GetFloat reads a float entry. A missing key yields (0, false, nil).
func GetFloat(ctx context.Context, kv KeyValue, key string) (float64, bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// SetInt64 writes an integer entry
func SetInt64(ctx context.Context, kv KeyValue, key string, value int64, ttl time.Duration) error {
	return kv.Set(ctx, key, strconv.FormatInt(value, 10), ttl)
}

// SetFloat writes a float entry
func SetFloat(ctx context.Context, kv KeyValue, key string, value float64, ttl time.Duration) error {
	return kv.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64), ttl)
}
