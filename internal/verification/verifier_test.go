package verification

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kundali-lab/internal/ayanamsa"
	"kundali-lab/internal/dasha"
	"kundali-lab/internal/domain"
	"kundali-lab/internal/ephemeris"
	"kundali-lab/internal/kundali"
	"kundali-lab/internal/storage/memory"
)

func newService(t *testing.T, correction float64, store *memory.ChartStore) *kundali.Service {
	t.Helper()
	corrector, err := ayanamsa.NewLahiri(correction)
	require.NoError(t, err)
	calc, err := dasha.NewCalculator(3)
	require.NoError(t, err)

	opts := kundali.Options{
		Provider:   ephemeris.NewAnalytic(),
		Corrector:  corrector,
		Calculator: calc,
		Clock:      func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) },
	}
	if store != nil {
		opts.ChartStore = store
	}
	svc, err := kundali.NewService(opts)
	require.NoError(t, err)
	return svc
}

func request() kundali.Request {
	lat, lon, off := 27.56, 80.67, 5.5
	return kundali.Request{
		Name: "Test", BirthYear: 1996, BirthMonth: 7, BirthDay: 4, BirthHour: 10, BirthMinute: 30, BirthSecond: 15,
		Latitude: &lat, Longitude: &lon, TimezoneOffset: &off,
	}
}

func TestCheckDeterminism(t *testing.T) {
	res, err := CheckDeterminism(context.Background(), newService(t, 0, nil), request(), 3)
	require.NoError(t, err)
	assert.True(t, res.Match, "%v", res.Divergences)
	assert.Len(t, res.ChartID, 64)
}

// flaky returns a different Moon longitude on every call.
type flaky struct {
	inner Generator
	calls int
}

func (f *flaky) Generate(ctx context.Context, req kundali.Request) (*kundali.Result, error) {
	res, err := f.inner.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	f.calls++
	res.Kundali.D1.Planets[1].Longitude += float64(f.calls)
	return res, nil
}

func TestCheckDeterminism_ReportsDivergence(t *testing.T) {
	res, err := CheckDeterminism(context.Background(), &flaky{inner: newService(t, 0, nil)}, request(), 2)
	require.NoError(t, err)
	assert.False(t, res.Match)
	require.NotEmpty(t, res.Divergences)
	assert.Equal(t, "d1.Moon.longitude", res.Divergences[0].Field)
	assert.Contains(t, res.Divergences[0].String(), "expected")
}

func TestCompareNatal(t *testing.T) {
	res, err := newService(t, 0, nil).Generate(context.Background(), request())
	require.NoError(t, err)
	base := res.Natal()

	assert.Empty(t, CompareNatal(base, base))

	// round trip through JSON as stored payloads do
	data, err := json.Marshal(base)
	require.NoError(t, err)
	var decoded kundali.Natal
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Empty(t, CompareNatal(base, decoded))

	other := decoded
	other.Kundali.Ascendant.Sign = "Nowhere"
	other.Vimshottari = append([]kundali.Mahadasha(nil), decoded.Vimshottari...)
	other.Vimshottari[0].End = "1900-01-01"
	other.BirthDetails.Place = "ignored"

	divs := CompareNatal(base, other)
	fields := make([]string, 0, len(divs))
	for _, d := range divs {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"ascendant.sign", "dasha[0].End"}, fields)
}

func TestRequestFor(t *testing.T) {
	rec := &domain.ChartRecord{
		Name:       "Test",
		BirthUTCMs: time.Date(1996, 7, 4, 5, 0, 15, 0, time.UTC).UnixMilli(),
		Latitude:   27.56,
		Longitude:  80.67,
		TZOffset:   5.5,
	}

	req := RequestFor(rec)
	assert.Equal(t, 1996, req.BirthYear)
	assert.Equal(t, 7, req.BirthMonth)
	assert.Equal(t, 4, req.BirthDay)
	assert.Equal(t, 10, req.BirthHour)
	assert.Equal(t, 30, req.BirthMinute)
	assert.Equal(t, 15, req.BirthSecond)
	assert.False(t, req.WantsTransits())
	require.NoError(t, req.Validate())
}

func TestReplayVerifier(t *testing.T) {
	ctx := context.Background()
	store := memory.NewChartStore()

	res, err := newService(t, 0, store).Generate(ctx, request())
	require.NoError(t, err)

	t.Run("same engine matches", func(t *testing.T) {
		v := NewReplayVerifier(store, newService(t, 0, nil))

		result, err := v.VerifyChart(ctx, res.ShortID)
		require.NoError(t, err)
		assert.True(t, result.Match, "%v", result.Divergences)

		report, err := v.VerifyAll(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, report.TotalCharts)
		assert.Equal(t, 1, report.MatchedCharts)
	})

	t.Run("different correction diverges", func(t *testing.T) {
		v := NewReplayVerifier(store, newService(t, -0.8, nil))

		result, err := v.VerifyChart(ctx, res.ChartID)
		require.NoError(t, err)
		assert.False(t, result.Match)

		var fields []string
		for _, d := range result.Divergences {
			fields = append(fields, d.Field)
		}
		joined := strings.Join(fields, ",")
		assert.Contains(t, joined, "chart_id")
		assert.Contains(t, joined, "birth.correction_degree")
	})

	t.Run("unknown chart", func(t *testing.T) {
		v := NewReplayVerifier(store, newService(t, 0, nil))
		_, err := v.VerifyChart(ctx, "missing")
		assert.ErrorIs(t, err, ErrChartNotFound)
	})

	t.Run("corrupt payload recorded as divergence", func(t *testing.T) {
		bad := memory.NewChartStore()
		require.NoError(t, bad.Insert(ctx, &domain.ChartRecord{ChartID: "c1", ShortID: "s1", Name: "x", Payload: []byte("{")}))

		report, err := NewReplayVerifier(bad, newService(t, 0, nil)).VerifyAll(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, report.DivergentCharts)
		assert.Equal(t, "error", report.Results[0].Divergences[0].Field)
	})
}
