package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	summaryPrefix     = "dashboard"
	generationKey     = summaryPrefix + ":generation"
	summaryDateLayout = "2006-01-02"
)

// SummaryCache stores rendered dashboard payloads per scope and calendar day.
// Every key embeds the current generation, so bumping the generation drops
// all entries at once without scanning; stale generations expire by TTL.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached payload for scope on day. A miss is (nil, false, nil).
func (c *SummaryCache) Get(ctx context.Context, scope string, day time.Time) ([]byte, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, err
	}

	data, err := c.client.Get(ctx, summaryKey(gen, scope, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get dashboard summary: %w", err)
	}
	return data, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, scope string, day time.Time, data []byte) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, summaryKey(gen, scope, day), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set dashboard summary: %w", err)
	}
	return nil
}

// Invalidate retires every cached summary.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump dashboard generation: %w", err)
	}
	return nil
}

func (c *SummaryCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dashboard generation: %w", err)
	}
	return gen, nil
}

func summaryKey(gen int64, scope string, day time.Time) string {
	return fmt.Sprintf("%s:%d:%s:%s", summaryPrefix, gen, scope, day.Format(summaryDateLayout))
}
