// Package reporting renders chart reports as Markdown and the dasha hierarchy
// as CSV.
package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kundali-lab/internal/kundali"
	"kundali-lab/internal/storage"
)

// Generator produces reports from generation results or stored charts.
type Generator struct {
	charts storage.ChartStore
	now    func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator. charts may be nil when only
// FromResult is used.
func NewGenerator(charts storage.ChartStore) *Generator {
	return &Generator{
		charts: charts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// FromResult builds a report from a fresh generation, including the current
// dasha and transits.
func (g *Generator) FromResult(res *kundali.Result) *Report {
	r := g.build(res.Natal())
	r.Current = res.Dasha.Current
	r.Transits = res.Transits
	return r
}

// Generate builds a report for a stored chart, looked up by chart ID first
// and short ID second.
func (g *Generator) Generate(ctx context.Context, id string) (*Report, error) {
	if g.charts == nil {
		return nil, fmt.Errorf("reporting: no chart store")
	}
	rec, err := g.charts.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		rec, err = g.charts.GetByShortID(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	var natal kundali.Natal
	if err := json.Unmarshal(rec.Payload, &natal); err != nil {
		return nil, fmt.Errorf("reporting: decode chart %s: %w", rec.ChartID, err)
	}
	return g.build(natal), nil
}

func (g *Generator) build(natal kundali.Natal) *Report {
	return &Report{
		GeneratedAt: g.now(),
		Natal:       natal,
		Dasha:       FlattenDasha(natal.Vimshottari),
	}
}
