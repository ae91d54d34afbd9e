package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/kundali"
	"kundali-lab/internal/storage"
)

// ErrChartNotFound is returned when a chart ID doesn't exist.
var ErrChartNotFound = errors.New("chart not found")

// ReplayVerifier implements Verifier by regenerating stored charts.
type ReplayVerifier struct {
	charts storage.ChartStore
	gen    Generator
}

var _ Verifier = (*ReplayVerifier)(nil)

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(charts storage.ChartStore, gen Generator) *ReplayVerifier {
	return &ReplayVerifier{charts: charts, gen: gen}
}

// VerifyChart verifies a single chart by chart ID or short ID.
func (v *ReplayVerifier) VerifyChart(ctx context.Context, id string) (*VerificationResult, error) {
	// 1. Load stored chart
	rec, err := v.charts.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		rec, err = v.charts.GetByShortID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrChartNotFound
		}
		return nil, err
	}
	return v.verify(ctx, rec)
}

// VerifyAll verifies up to limit recent charts. Per-chart failures are
// recorded as divergences rather than aborting the run.
func (v *ReplayVerifier) VerifyAll(ctx context.Context, limit int) (*VerificationReport, error) {
	recs, err := v.charts.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalCharts: len(recs),
		Results:     make([]VerificationResult, 0, len(recs)),
	}

	for _, rec := range recs {
		result, err := v.verify(ctx, rec)
		if err != nil {
			report.Results = append(report.Results, VerificationResult{
				ChartID: rec.ChartID,
				Match:   false,
				Divergences: []FieldDivergence{
					{Field: "error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentCharts++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedCharts++
		} else {
			report.DivergentCharts++
		}
	}

	return report, nil
}

func (v *ReplayVerifier) verify(ctx context.Context, rec *domain.ChartRecord) (*VerificationResult, error) {
	var stored kundali.Natal
	if err := json.Unmarshal(rec.Payload, &stored); err != nil {
		return nil, fmt.Errorf("decode stored chart %s: %w", rec.ChartID, err)
	}

	res, err := v.gen.Generate(ctx, RequestFor(rec))
	if err != nil {
		return nil, fmt.Errorf("regenerate chart %s: %w", rec.ChartID, err)
	}

	divs := CompareNatal(stored, res.Natal())
	return &VerificationResult{
		ChartID:     rec.ChartID,
		Match:       len(divs) == 0,
		Divergences: divs,
	}, nil
}

// RequestFor rebuilds the generation request recorded in rec. The civil
// birth time is recovered from the UTC instant and the stored offset.
func RequestFor(rec *domain.ChartRecord) kundali.Request {
	zone := domain.BirthMoment{UTCOffsetHours: rec.TZOffset}.Zone()
	local := time.UnixMilli(rec.BirthUTCMs).In(zone)
	lat, lon, off := rec.Latitude, rec.Longitude, rec.TZOffset
	transits := false

	return kundali.Request{
		Name:            rec.Name,
		BirthYear:       local.Year(),
		BirthMonth:      int(local.Month()),
		BirthDay:        local.Day(),
		BirthHour:       local.Hour(),
		BirthMinute:     local.Minute(),
		BirthSecond:     local.Second(),
		Latitude:        &lat,
		Longitude:       &lon,
		TimezoneOffset:  &off,
		IncludeTransits: &transits,
	}
}
