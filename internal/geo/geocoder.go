// Package geo resolves birth places to coordinates and UTC offsets.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"kundali-lab/internal/domain"
)

// ErrPlaceNotFound is returned when no query in the fallback chain resolves.
var ErrPlaceNotFound = errors.New("place not found")

// Geocoder resolves a place to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city, state, country string) (domain.GeoPosition, error)
}

// Queries returns the lookup chain for a place, most specific first:
// city+state+country, city+country, state+country, country.
// Empty parts are skipped, as are duplicate queries.
func Queries(city, state, country string) []string {
	city, state, country = strings.TrimSpace(city), strings.TrimSpace(state), strings.TrimSpace(country)
	candidates := [][]string{
		{city, state, country},
		{city, country},
		{state, country},
		{country},
	}

	seen := make(map[string]bool)
	var out []string
	for _, parts := range candidates {
		var nonEmpty []string
		for _, p := range parts {
			if p != "" {
				nonEmpty = append(nonEmpty, p)
			}
		}
		if len(nonEmpty) == 0 {
			continue
		}
		q := strings.Join(nonEmpty, ", ")
		if seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

// NominatimOptions configures a Nominatim client.
type NominatimOptions struct {
	BaseURL     string        // e.g. https://nominatim.openstreetmap.org
	UserAgent   string        // required by the Nominatim usage policy
	Timeout     time.Duration // per request
	MinInterval time.Duration // minimum spacing between requests
	HTTPClient  *http.Client  // optional
}

// Nominatim is an OpenStreetMap Nominatim geocoder. Requests are paced to at
// most one per MinInterval across all callers.
type Nominatim struct {
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter // nil when MinInterval is unset
	httpClient *http.Client
}

var _ Geocoder = (*Nominatim)(nil)

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(opts NominatimOptions) *Nominatim {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	n := &Nominatim{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: client,
	}
	if opts.MinInterval > 0 {
		n.limiter = rate.NewLimiter(rate.Every(opts.MinInterval), 1)
	}
	return n
}

// Geocode walks the query chain and returns the first hit. Transport errors
// on one query move on to the next, as does an empty result.
func (n *Nominatim) Geocode(ctx context.Context, city, state, country string) (domain.GeoPosition, error) {
	queries := Queries(city, state, country)
	if len(queries) == 0 {
		return domain.GeoPosition{}, fmt.Errorf("geocode: empty place: %w", ErrPlaceNotFound)
	}

	var lastErr error
	for _, q := range queries {
		pos, ok, err := n.search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return domain.GeoPosition{}, fmt.Errorf("geocode %q: %w", q, ctx.Err())
			}
			lastErr = err
			continue
		}
		if ok {
			return pos, nil
		}
	}

	if lastErr != nil {
		return domain.GeoPosition{}, fmt.Errorf("geocode %s: %w (last error: %v)", strings.Join(queries, " | "), ErrPlaceNotFound, lastErr)
	}
	return domain.GeoPosition{}, fmt.Errorf("geocode %s: %w", strings.Join(queries, " | "), ErrPlaceNotFound)
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (n *Nominatim) search(ctx context.Context, query string) (domain.GeoPosition, bool, error) {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return domain.GeoPosition{}, false, fmt.Errorf("nominatim: rate limit: %w", err)
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: decode: %w", err)
	}
	if len(results) == 0 {
		return domain.GeoPosition{}, false, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: parse lat %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: parse lon %q: %w", results[0].Lon, err)
	}
	pos := domain.GeoPosition{Latitude: lat, Longitude: lon}
	if err := pos.Validate(); err != nil {
		return domain.GeoPosition{}, false, fmt.Errorf("nominatim: %w", err)
	}
	return pos, true, nil
}
