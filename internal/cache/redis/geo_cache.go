package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/geo"
)

// GeoCache implements geo.PositionCache with a hash per place:
//
//	geo:{placeKey} - hash with fields "lat" and "lon"
type GeoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGeoCache creates a GeoCache backed by the given Client.
func NewGeoCache(c *Client) *GeoCache {
	return &GeoCache{rdb: c.Underlying(), ttl: c.TTL()}
}

var _ geo.PositionCache = (*GeoCache)(nil)

func geoKey(place string) string { return "geo:" + place }

// GetPosition returns the cached position for key.
func (c *GeoCache) GetPosition(ctx context.Context, key string) (domain.GeoPosition, bool, error) {
	vals, err := c.rdb.HMGet(ctx, geoKey(key), "lat", "lon").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.GeoPosition{}, false, nil
		}
		return domain.GeoPosition{}, false, fmt.Errorf("redis: get place %s: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return domain.GeoPosition{}, false, nil
	}

	lat, err := parseFloat(vals[0])
	if err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("redis: place %s latitude: %w", key, err)
	}
	lon, err := parseFloat(vals[1])
	if err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("redis: place %s longitude: %w", key, err)
	}
	return domain.GeoPosition{Latitude: lat, Longitude: lon}, true, nil
}

// SetPosition stores pos under key with the client TTL.
func (c *GeoCache) SetPosition(ctx context.Context, key string, pos domain.GeoPosition) error {
	k := geoKey(key)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, k,
		"lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64),
		"lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64),
	)
	pipe.Expire(ctx, k, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set place %s: %w", key, err)
	}
	return nil
}

func parseFloat(v interface{}) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	return strconv.ParseFloat(s, 64)
}
