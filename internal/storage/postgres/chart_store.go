package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/storage"
)

// ChartStore implements storage.ChartStore using PostgreSQL.
type ChartStore struct {
	pool *Pool
}

// NewChartStore creates a new ChartStore.
func NewChartStore(pool *Pool) *ChartStore {
	return &ChartStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ChartStore = (*ChartStore)(nil)

const chartColumns = `chart_id, short_id, name, birth_utc_ms, latitude, longitude,
	tz_offset, correction, depth, payload, created_at`

// Insert adds a new chart. Returns ErrDuplicateKey if chart_id or short_id
// exists and ErrInvalidInput for rows the schema rejects.
// CreatedAt is set from the database default.
func (s *ChartStore) Insert(ctx context.Context, r *domain.ChartRecord) error {
	if r == nil || r.ChartID == "" || r.ShortID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO charts (
			chart_id, short_id, name, birth_utc_ms, latitude, longitude,
			tz_offset, correction, depth, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	var created time.Time
	err := s.pool.QueryRow(ctx, query,
		r.ChartID,
		r.ShortID,
		r.Name,
		r.BirthUTCMs,
		r.Latitude,
		r.Longitude,
		r.TZOffset,
		r.Correction,
		r.Depth,
		r.Payload,
	).Scan(&created)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isRejectedRowError(err) {
			return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
		}
		return fmt.Errorf("insert chart: %w", err)
	}
	r.CreatedAt = created.UnixMilli()
	return nil
}

// GetByID retrieves a chart by its ID. Returns ErrNotFound if not exists.
func (s *ChartStore) GetByID(ctx context.Context, chartID string) (*domain.ChartRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+chartColumns+` FROM charts WHERE chart_id = $1`, chartID)
	r, err := scanChart(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get chart by id: %w", err)
	}
	return r, nil
}

// GetByShortID retrieves a chart by its short ID. Returns ErrNotFound if not exists.
func (s *ChartStore) GetByShortID(ctx context.Context, shortID string) (*domain.ChartRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+chartColumns+` FROM charts WHERE short_id = $1`, shortID)
	r, err := scanChart(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get chart by short id: %w", err)
	}
	return r, nil
}

// ListRecent returns up to limit charts, newest first.
func (s *ChartStore) ListRecent(ctx context.Context, limit int) ([]*domain.ChartRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT ` + chartColumns + `
		FROM charts
		ORDER BY created_at DESC, chart_id ASC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent charts: %w", err)
	}
	defer rows.Close()

	var records []*domain.ChartRecord
	for rows.Next() {
		r, err := scanChart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chart rows: %w", err)
	}
	return records, nil
}

// scanChart scans a single row into a ChartRecord.
func scanChart(row pgx.Row) (*domain.ChartRecord, error) {
	var r domain.ChartRecord
	var created time.Time

	err := row.Scan(
		&r.ChartID,
		&r.ShortID,
		&r.Name,
		&r.BirthUTCMs,
		&r.Latitude,
		&r.Longitude,
		&r.TZOffset,
		&r.Correction,
		&r.Depth,
		&r.Payload,
		&created,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt = created.UnixMilli()
	return &r, nil
}
