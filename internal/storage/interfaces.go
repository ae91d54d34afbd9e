package storage

import (
	"context"

	"kundali-lab/internal/domain"
)

// ChartStore provides access to charts storage.
type ChartStore interface {
	// Insert adds a new chart. Returns ErrDuplicateKey if chart_id or short_id exists.
	Insert(ctx context.Context, r *domain.ChartRecord) error

	// GetByID retrieves a chart by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, chartID string) (*domain.ChartRecord, error)

	// GetByShortID retrieves a chart by its short ID. Returns ErrNotFound if not exists.
	GetByShortID(ctx context.Context, shortID string) (*domain.ChartRecord, error)

	// ListRecent returns up to limit charts, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.ChartRecord, error)
}

// TransitStore provides access to transit_positions storage.
type TransitStore interface {
	// InsertBulk adds snapshot rows. Fails entire batch on duplicate (calculated_at_ms, planet).
	InsertBulk(ctx context.Context, points []*domain.TransitPoint) error

	// GetByTimeRange retrieves rows within [start, end] (inclusive),
	// ordered by calculated_at_ms ASC, planet ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransitPoint, error)

	// GetLatest returns the rows of the most recent snapshot. Returns ErrNotFound if empty.
	GetLatest(ctx context.Context) ([]*domain.TransitPoint, error)
}
