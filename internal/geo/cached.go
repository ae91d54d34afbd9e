package geo

import (
	"context"
	"strings"

	"kundali-lab/internal/domain"
)

// PositionCache stores resolved places.
type PositionCache interface {
	GetPosition(ctx context.Context, key string) (domain.GeoPosition, bool, error)
	SetPosition(ctx context.Context, key string, pos domain.GeoPosition) error
}

// Cached puts a PositionCache in front of a Geocoder. Cache errors are
// reported through onError and never fail the lookup.
type Cached struct {
	next    Geocoder
	cache   PositionCache
	onError func(error)
}

var _ Geocoder = (*Cached)(nil)

// NewCached wraps next with cache. onError may be nil.
func NewCached(next Geocoder, cache PositionCache, onError func(error)) *Cached {
	if onError == nil {
		onError = func(error) {}
	}
	return &Cached{next: next, cache: cache, onError: onError}
}

// PlaceKey normalizes a place into a cache key.
func PlaceKey(city, state, country string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return norm(city) + "|" + norm(state) + "|" + norm(country)
}

// Geocode returns a cached position or resolves and stores it.
func (c *Cached) Geocode(ctx context.Context, city, state, country string) (domain.GeoPosition, error) {
	key := PlaceKey(city, state, country)
	pos, ok, err := c.cache.GetPosition(ctx, key)
	if err != nil {
		c.onError(err)
	} else if ok {
		return pos, nil
	}

	pos, err = c.next.Geocode(ctx, city, state, country)
	if err != nil {
		return domain.GeoPosition{}, err
	}
	if err := c.cache.SetPosition(ctx, key, pos); err != nil {
		c.onError(err)
	}
	return pos, nil
}
