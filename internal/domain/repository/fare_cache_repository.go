package repository

import (
	"context"
	"time"
)

// FareCacheRepository caches computed fare quotes keyed by the canonical
// station pair. The whole cache is flushed on any registry mutation.
type FareCacheRepository interface {
	// GetQuote returns the cached price and whether it was present.
	GetQuote(ctx context.Context, key string) (int, bool, error)

	// SetQuote stores a price with a TTL.
	SetQuote(ctx context.Context, key string, price int, ttl time.Duration) error

	// Flush drops all cached quotes.
	Flush(ctx context.Context) error
}
