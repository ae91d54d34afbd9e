package clickhouse

import (
	"context"
	"fmt"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/storage"
)

// TransitStore implements storage.TransitStore using ClickHouse.
type TransitStore struct {
	conn *Conn
}

// NewTransitStore creates a new TransitStore.
func NewTransitStore(conn *Conn) *TransitStore {
	return &TransitStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransitStore = (*TransitStore)(nil)

// InsertBulk adds snapshot rows. Fails entire batch on duplicate (calculated_at_ms, planet).
// MergeTree does not enforce keys, so duplicates are checked before the batch is sent.
func (s *TransitStore) InsertBulk(ctx context.Context, points []*domain.TransitPoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		calculatedAtMs int64
		planet         domain.Planet
	}
	seen := make(map[key]struct{}, len(points))
	instants := make(map[int64]struct{})
	for _, p := range points {
		if p == nil || !p.Planet.Valid() {
			return storage.ErrInvalidInput
		}
		k := key{p.CalculatedAtMs, p.Planet}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		instants[p.CalculatedAtMs] = struct{}{}
	}

	// One lookup per snapshot instant rather than per row.
	for ms := range instants {
		existing, err := s.planetsAt(ctx, ms)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, planet := range existing {
			if _, clash := seen[key{ms, planet}]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO transit_positions (
			calculated_at_ms, planet, longitude, sign, ayanamsa
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.CalculatedAtMs, string(p.Planet), p.Longitude, uint8(p.Sign), p.Ayanamsa,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves rows within [start, end] (inclusive).
func (s *TransitStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TransitPoint, error) {
	query := `
		SELECT calculated_at_ms, planet, longitude, sign, ayanamsa
		FROM transit_positions
		WHERE calculated_at_ms >= ? AND calculated_at_ms <= ?
		ORDER BY calculated_at_ms ASC, planet ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTransitPoints(rows)
}

// GetLatest returns the rows of the most recent snapshot. Returns ErrNotFound if empty.
func (s *TransitStore) GetLatest(ctx context.Context) ([]*domain.TransitPoint, error) {
	var count uint64
	var latest int64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*), max(calculated_at_ms) FROM transit_positions
	`).Scan(&count, &latest)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	if count == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetByTimeRange(ctx, latest, latest)
}

// planetsAt lists the planets already stored for a snapshot instant.
func (s *TransitStore) planetsAt(ctx context.Context, calculatedAtMs int64) ([]domain.Planet, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT planet FROM transit_positions WHERE calculated_at_ms = ?
	`, calculatedAtMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var planets []domain.Planet
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		planets = append(planets, domain.Planet(name))
	}
	return planets, rows.Err()
}

func scanTransitPoints(rows chRows) ([]*domain.TransitPoint, error) {
	var points []*domain.TransitPoint

	for rows.Next() {
		var p domain.TransitPoint
		var planet string
		var sign uint8

		if err := rows.Scan(&p.CalculatedAtMs, &planet, &p.Longitude, &sign, &p.Ayanamsa); err != nil {
			return nil, fmt.Errorf("scan transit row: %w", err)
		}
		p.Planet = domain.Planet(planet)
		p.Sign = domain.Sign(sign)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transit rows: %w", err)
	}
	return points, nil
}
