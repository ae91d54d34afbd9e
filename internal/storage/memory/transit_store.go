package memory

import (
	"context"
	"sort"
	"sync"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/storage"
)

type transitKey struct {
	calculatedAtMs int64
	planet         domain.Planet
}

// TransitStore is an in-memory implementation of storage.TransitStore.
type TransitStore struct {
	mu   sync.RWMutex
	data map[transitKey]*domain.TransitPoint
}

// NewTransitStore creates a new in-memory transit store.
func NewTransitStore() *TransitStore {
	return &TransitStore{
		data: make(map[transitKey]*domain.TransitPoint),
	}
}

// Compile-time interface check.
var _ storage.TransitStore = (*TransitStore)(nil)

// InsertBulk adds snapshot rows. Fails entire batch on duplicate (calculated_at_ms, planet).
func (s *TransitStore) InsertBulk(_ context.Context, points []*domain.TransitPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicates (intra-batch and against existing)
	seen := make(map[transitKey]struct{}, len(points))
	for _, p := range points {
		if p == nil || !p.Planet.Valid() {
			return storage.ErrInvalidInput
		}
		k := transitKey{p.CalculatedAtMs, p.Planet}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[transitKey{p.CalculatedAtMs, p.Planet}] = &pointCopy
	}
	return nil
}

// GetByTimeRange retrieves rows within [start, end] (inclusive).
func (s *TransitStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TransitPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransitPoint
	for k, p := range s.data {
		if k.calculatedAtMs >= start && k.calculatedAtMs <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}
	sortTransitPoints(result)
	return result, nil
}

// GetLatest returns the rows of the most recent snapshot. Returns ErrNotFound if empty.
func (s *TransitStore) GetLatest(ctx context.Context) ([]*domain.TransitPoint, error) {
	s.mu.RLock()
	if len(s.data) == 0 {
		s.mu.RUnlock()
		return nil, storage.ErrNotFound
	}
	var latest int64
	first := true
	for k := range s.data {
		if first || k.calculatedAtMs > latest {
			latest = k.calculatedAtMs
			first = false
		}
	}
	s.mu.RUnlock()

	return s.GetByTimeRange(ctx, latest, latest)
}

// sortTransitPoints orders by calculated_at_ms ASC, planet ASC.
func sortTransitPoints(points []*domain.TransitPoint) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].CalculatedAtMs != points[j].CalculatedAtMs {
			return points[i].CalculatedAtMs < points[j].CalculatedAtMs
		}
		return points[i].Planet < points[j].Planet
	})
}
