package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChartCache stores rendered chart JSON by chart ID.
//
// Key schema:
//
//	chart:{chartID}        - string holding the JSON payload
//	chart:short:{shortID}  - string holding the chart ID
type ChartCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewChartCache creates a ChartCache backed by the given Client.
func NewChartCache(c *Client) *ChartCache {
	return &ChartCache{rdb: c.Underlying(), ttl: c.TTL()}
}

func chartKey(chartID string) string      { return "chart:" + chartID }
func chartShortKey(shortID string) string { return "chart:short:" + shortID }

// GetChart returns the cached payload. ok is false on a miss.
func (c *ChartCache) GetChart(ctx context.Context, chartID string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, chartKey(chartID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis: get chart %s: %w", chartID, err)
	}
	return data, true, nil
}

// SetChart stores payload under chartID and indexes shortID.
func (c *ChartCache) SetChart(ctx context.Context, chartID, shortID string, payload []byte) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, chartKey(chartID), payload, c.ttl)
	if shortID != "" {
		pipe.Set(ctx, chartShortKey(shortID), chartID, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set chart %s: %w", chartID, err)
	}
	return nil
}

// ResolveShortID maps a short ID to its chart ID. ok is false on a miss.
func (c *ChartCache) ResolveShortID(ctx context.Context, shortID string) (string, bool, error) {
	id, err := c.rdb.Get(ctx, chartShortKey(shortID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: resolve short id %s: %w", shortID, err)
	}
	return id, true, nil
}
