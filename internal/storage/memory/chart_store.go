package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/storage"
)

// ChartStore is an in-memory implementation of storage.ChartStore.
type ChartStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.ChartRecord // keyed by chart_id
	byShort map[string]string              // short_id -> chart_id
	last    int64 // most recent created_at
	now     func() int64
}

// NewChartStore creates a new in-memory chart store.
func NewChartStore() *ChartStore {
	return &ChartStore{
		data:    make(map[string]*domain.ChartRecord),
		byShort: make(map[string]string),
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Compile-time interface check.
var _ storage.ChartStore = (*ChartStore)(nil)

// Insert adds a new chart. Returns ErrDuplicateKey if chart_id or short_id exists.
func (s *ChartStore) Insert(_ context.Context, r *domain.ChartRecord) error {
	if r == nil || r.ChartID == "" || r.ShortID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ChartID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byShort[r.ShortID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recordCopy := copyRecord(r)
	// created_at is strictly increasing so ListRecent order is stable
	created := s.now()
	if created <= s.last {
		created = s.last + 1
	}
	s.last = created
	recordCopy.CreatedAt = created

	s.data[r.ChartID] = recordCopy
	s.byShort[r.ShortID] = r.ChartID
	return nil
}

// GetByID retrieves a chart by its ID. Returns ErrNotFound if not exists.
func (s *ChartStore) GetByID(_ context.Context, chartID string) (*domain.ChartRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[chartID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRecord(r), nil
}

// GetByShortID retrieves a chart by its short ID. Returns ErrNotFound if not exists.
func (s *ChartStore) GetByShortID(ctx context.Context, shortID string) (*domain.ChartRecord, error) {
	s.mu.RLock()
	id, exists := s.byShort[shortID]
	s.mu.RUnlock()
	if !exists {
		return nil, storage.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// ListRecent returns up to limit charts, newest first.
func (s *ChartStore) ListRecent(_ context.Context, limit int) ([]*domain.ChartRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ChartRecord, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRecord(r))
	}

	// Sort by created_at DESC
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyRecord(r *domain.ChartRecord) *domain.ChartRecord {
	c := *r
	c.Payload = append([]byte(nil), r.Payload...)
	return &c
}
