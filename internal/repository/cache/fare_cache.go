package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/transit-ticketing-service/internal/domain/repository"
	"go.uber.org/zap"
)

const quoteKeyPrefix = "farequote:"

type fareCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewFareCacheRepository(redis *Redis) repository.FareCacheRepository {
	return &fareCacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *fareCacheRepository) GetQuote(ctx context.Context, key string) (int, bool, error) {
	price, err := r.client.Get(ctx, quoteKeyPrefix+key).Int()
	if err == redis.Nil {
		return 0, false, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get quote from cache", zap.String("key", key), zap.Error(err))
		return 0, false, fmt.Errorf("quote cache get error: %w", err)
	}

	r.logger.Debug("Quote cache hit", zap.String("key", key), zap.Int("price", price))
	return price, true, nil
}

func (r *fareCacheRepository) SetQuote(ctx context.Context, key string, price int, ttl time.Duration) error {
	err := r.client.Set(ctx, quoteKeyPrefix+key, price, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set quote cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("quote cache set error: %w", err)
	}

	r.logger.Debug("Quote cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Flush removes every cached quote. Called on any registry mutation; the
// fare table is small and quotes are cheap to recompute, so blanket
// invalidation beats tracking which segments a mutation touched.
func (r *fareCacheRepository) Flush(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, quoteKeyPrefix+"*", 100).Result()
		if err != nil {
			r.logger.Error("Failed to scan quote cache", zap.Error(err))
			return fmt.Errorf("quote cache flush error: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.logger.Error("Failed to delete quote cache keys", zap.Error(err))
				return fmt.Errorf("quote cache flush error: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
