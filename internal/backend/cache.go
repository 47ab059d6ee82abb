package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Clark-Hu/cinema-booking/internal/domain"
)

const cachePrefix = "catalog:"

// CachedClient caches the public catalog reads in Redis. Theater, showtime
// and booking calls always go to the backend so seat availability and
// pricing are never served stale.
type CachedClient struct {
	Client
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedClient wraps next with a Redis-backed catalog cache.
func NewCachedClient(next Client, rdb redis.UniversalClient, ttl time.Duration, logger *log.Logger) *CachedClient {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedClient{Client: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Movie returns the cached movie detail when available.
func (c *CachedClient) Movie(ctx context.Context, id string) (domain.Movie, error) {
	return cached(ctx, c, cachePrefix+"movie:"+id, func() (domain.Movie, error) {
		return c.Client.Movie(ctx, id)
	})
}

// GroupedShowtimes returns the cached showtime tree when available.
func (c *CachedClient) GroupedShowtimes(ctx context.Context) ([]domain.MovieShowtimes, error) {
	return cached(ctx, c, cachePrefix+"showtimes:grouped", func() ([]domain.MovieShowtimes, error) {
		return c.Client.GroupedShowtimes(ctx)
	})
}

// Foods returns the cached food catalog when available.
func (c *CachedClient) Foods(ctx context.Context) ([]domain.FoodItem, error) {
	return cached(ctx, c, cachePrefix+"foods", func() ([]domain.FoodItem, error) {
		return c.Client.Foods(ctx)
	})
}

// Invalidate drops every cached catalog entry.
func (c *CachedClient) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func cached[T any](ctx context.Context, c *CachedClient, key string, fetch func() (T, error)) (T, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hit T
		if err := json.Unmarshal(raw, &hit); err == nil {
			return hit, nil
		}
		c.logger.Printf("catalog cache: discarding undecodable entry %s", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Printf("catalog cache: get %s: %v", key, err)
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}
	if payload, err := json.Marshal(value); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Printf("catalog cache: set %s: %v", key, err)
		}
	}
	return value, nil
}
