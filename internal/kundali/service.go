// Package kundali validates generation requests and runs them through the
// engine: ephemeris, ayanamsa correction, chart, dasha and transits. It also
// persists generated charts and serves them back by ID.
package kundali

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"kundali-lab/internal/ayanamsa"
	"kundali-lab/internal/chart"
	"kundali-lab/internal/dasha"
	"kundali-lab/internal/domain"
	"kundali-lab/internal/ephemeris"
	"kundali-lab/internal/geo"
	"kundali-lab/internal/idhash"
	"kundali-lab/internal/observability"
	"kundali-lab/internal/storage"
	"kundali-lab/internal/transit"
)

// ErrChartNotFound is returned by Chart when no layer holds the ID.
var ErrChartNotFound = errors.New("chart not found")

// ChartCache is a read-through cache of natal payloads.
type ChartCache interface {
	GetChart(ctx context.Context, chartID string) ([]byte, bool, error)
	SetChart(ctx context.Context, chartID, shortID string, payload []byte) error
	ResolveShortID(ctx context.Context, shortID string) (string, bool, error)
}

// Archiver keeps durable copies of charts and transit snapshots.
type Archiver interface {
	PutChart(ctx context.Context, shortID string, payload []byte) error
	GetChart(ctx context.Context, shortID string) ([]byte, error)
	ArchiveTransits(ctx context.Context, points []*domain.TransitPoint) (string, error)
}

// Options wires a Service. Provider, Corrector and Calculator are required;
// everything else has a default or is optional.
type Options struct {
	Provider    ephemeris.Provider
	Corrector   *ayanamsa.Corrector
	Builder     *chart.Builder
	Calculator  *dasha.Calculator
	Snapshotter *transit.Snapshotter

	Geocoder   geo.Geocoder // nil disables place lookup
	TZResolver geo.TimezoneResolver

	ChartStore   storage.ChartStore   // nil disables persistence
	TransitStore storage.TransitStore // nil disables transit recording
	Cache        ChartCache
	Archiver     Archiver

	DefaultTransitTimezone string
	Clock                  func() time.Time
	Logger                 *zap.Logger
	Metrics                *observability.Metrics
}

// Service generates and serves charts.
type Service struct {
	provider    ephemeris.Provider
	corrector   *ayanamsa.Corrector
	builder     *chart.Builder
	calculator  *dasha.Calculator
	snapshotter *transit.Snapshotter
	geocoder    geo.Geocoder
	tz          geo.TimezoneResolver

	charts   storage.ChartStore
	transits storage.TransitStore
	cache    ChartCache
	archive  Archiver

	transitTZ string
	clock     func() time.Time
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewService validates opts and fills defaults.
func NewService(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("kundali: provider is required")
	}
	if opts.Corrector == nil {
		return nil, fmt.Errorf("kundali: corrector is required")
	}
	if opts.Calculator == nil {
		return nil, fmt.Errorf("kundali: dasha calculator is required")
	}

	s := &Service{
		provider:    opts.Provider,
		corrector:   opts.Corrector,
		builder:     opts.Builder,
		calculator:  opts.Calculator,
		snapshotter: opts.Snapshotter,
		geocoder:    opts.Geocoder,
		tz:          opts.TZResolver,
		charts:      opts.ChartStore,
		transits:    opts.TransitStore,
		cache:       opts.Cache,
		archive:     opts.Archiver,
		transitTZ:   opts.DefaultTransitTimezone,
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if s.builder == nil {
		s.builder = chart.NewBuilder()
	}
	if s.snapshotter == nil {
		s.snapshotter = transit.NewSnapshotter(s.provider, s.corrector)
	}
	if s.tz == nil {
		s.tz = geo.NewCountryResolver(geo.DefaultOffsetHours)
	}
	if s.transitTZ == "" {
		s.transitTZ = DefaultTransitTimezone
	}
	if _, err := transit.LoadZone(s.transitTZ); err != nil {
		return nil, fmt.Errorf("kundali: default transit timezone: %w", err)
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics("kundali", prometheus.NewRegistry())
	}
	return s, nil
}

// Generate computes the full response for req. Validation and location
// resolution happen before any ephemeris call. Persistence failures are
// logged and do not fail the request.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.generate(ctx, req)
	s.metrics.RecordGeneration(err, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.persist(ctx, res)
	return res, nil
}

func (s *Service) generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	transitTZ := req.TransitTimezone
	if transitTZ == "" {
		transitTZ = s.transitTZ
	}
	if req.WantsTransits() {
		if _, err := transit.LoadZone(transitTZ); err != nil {
			return nil, err
		}
	}

	pos, place, err := s.resolvePosition(ctx, req)
	if err != nil {
		return nil, err
	}

	birth := domain.BirthMoment{
		Year: req.BirthYear, Month: req.BirthMonth, Day: req.BirthDay,
		Hour: req.BirthHour, Minute: req.BirthMinute, Second: req.BirthSecond,
		UTCOffsetHours: s.resolveOffset(req),
		Position:       &pos,
	}
	if err := birth.Validate(); err != nil {
		return nil, err
	}
	birthMs := birth.UTCMs()
	zone := birth.Zone()

	stage := time.Now()
	tropical, err := s.provider.Positions(birthMs)
	if err != nil {
		return nil, err
	}
	ascTropical, err := s.provider.Ascendant(birthMs, pos)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStage(domain.StageEphemeris, time.Since(stage))

	sidereal := s.corrector.CorrectAll(tropical, birthMs)
	ascendant := s.corrector.Correct(ascTropical, birthMs)

	stage = time.Now()
	natal, err := s.builder.Build(sidereal, ascendant)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStage(domain.StageChart, time.Since(stage))

	stage = time.Now()
	timeline, err := s.calculator.Compute(sidereal[domain.Moon], birthMs)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStage(domain.StageDasha, time.Since(stage))

	ref, explicit := s.clock(), false
	if req.ReferenceTime != "" {
		ref, _ = req.referenceTime()
		explicit = true
	}
	refMs := ref.UnixMilli()

	var current *CurrentDasha
	cur, err := timeline.Lookup(refMs)
	switch {
	case err == nil:
		current = currentDashaView(cur, zone)
	case !explicit && errors.Is(err, domain.ErrOutOfCoverage):
		// the clock is past the 120-year cycle
	default:
		return nil, err
	}

	var transits *Transits
	if req.WantsTransits() {
		stage = time.Now()
		snap, err := s.snapshotter.Snapshot(refMs, transitTZ)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveStage(domain.StageTransit, time.Since(stage))
		transits = TransitsView(snap, s.corrector.CorrectionDegrees())
	}

	chartID := idhash.ComputeChartID(req.Name, birthMs, pos.Latitude, pos.Longitude,
		birth.UTCOffsetHours, s.corrector.CorrectionDegrees(), s.calculator.Depth())
	shortID, err := idhash.ShortChartID(chartID)
	if err != nil {
		return nil, err
	}

	return &Result{
		Name:    req.Name,
		ChartID: chartID,
		ShortID: shortID,
		BirthDetails: BirthDetails{
			BirthDate:        birth.Local().Format("2006-01-02T15:04:05"),
			BirthUTC:         birth.UTC().Format(time.RFC3339),
			BirthUTCMs:       birthMs,
			Latitude:         pos.Latitude,
			Longitude:        pos.Longitude,
			TimezoneOffset:   birth.UTCOffsetHours,
			Timezone:         zone.String(),
			Ayanamsa:         s.corrector.Value(birthMs),
			CorrectionDegree: s.corrector.CorrectionDegrees(),
			DashaDepth:       timeline.Depth(),
			Place:            place,
		},
		Kundali: kundaliView(natal),
		Dasha: Dasha{
			Vimshottari: dashaTree(timeline.Tree(), zone),
			Current:     current,
		},
		Transits: transits,
	}, nil
}

// resolvePosition returns explicit coordinates or geocodes the place.
func (s *Service) resolvePosition(ctx context.Context, req Request) (domain.GeoPosition, string, error) {
	if req.HasCoordinates() {
		pos := domain.GeoPosition{Latitude: *req.Latitude, Longitude: *req.Longitude}
		return pos, "", pos.Validate()
	}

	place := strings.Join(nonEmpty(req.City, req.State, req.Country), ", ")
	if s.geocoder == nil {
		return domain.GeoPosition{}, "", domain.Errorf(domain.ErrInputValidation, domain.StageGeocoding,
			"could not find coordinates for %s: geocoding is disabled, provide latitude and longitude", place)
	}

	stage := time.Now()
	pos, err := s.geocoder.Geocode(ctx, req.City, req.State, req.Country)
	s.metrics.ObserveStage(domain.StageGeocoding, time.Since(stage))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.GeoPosition{}, "", ctxErr
		}
		s.logger.Info("geocoding failed", zap.String("place", place), zap.Error(err))
		return domain.GeoPosition{}, "", domain.NewError(domain.ErrInputValidation, domain.StageGeocoding,
			fmt.Errorf("could not find coordinates for %s, provide latitude and longitude: %w", place, err))
	}
	return pos, place, nil
}

func (s *Service) resolveOffset(req Request) float64 {
	if req.TimezoneOffset != nil {
		return *req.TimezoneOffset
	}
	return s.tz.OffsetHours(req.Country)
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// persist writes the natal payload to the store, cache and archive.
func (s *Service) persist(ctx context.Context, res *Result) {
	if s.charts == nil && s.cache == nil && s.archive == nil {
		return
	}
	payload, err := json.Marshal(res.Natal())
	if err != nil {
		s.logger.Error("encode natal payload", zap.String("chart_id", res.ChartID), zap.Error(err))
		return
	}

	if s.charts != nil {
		rec := &domain.ChartRecord{
			ChartID:    res.ChartID,
			ShortID:    res.ShortID,
			Name:       res.Name,
			BirthUTCMs: res.BirthDetails.BirthUTCMs,
			Latitude:   res.BirthDetails.Latitude,
			Longitude:  res.BirthDetails.Longitude,
			TZOffset:   res.BirthDetails.TimezoneOffset,
			Correction: res.BirthDetails.CorrectionDegree,
			Depth:      res.BirthDetails.DashaDepth,
			Payload:    payload,
		}
		if err := s.charts.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			s.logger.Warn("store chart", zap.String("chart_id", res.ChartID), zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.SetChart(ctx, res.ChartID, res.ShortID, payload); err != nil {
			s.logger.Warn("cache chart", zap.String("chart_id", res.ChartID), zap.Error(err))
		}
	}
	if s.archive != nil {
		if err := s.archive.PutChart(ctx, res.ShortID, payload); err != nil {
			s.logger.Warn("archive chart", zap.String("short_id", res.ShortID), zap.Error(err))
		}
	}
}

// Chart returns a stored natal payload by chart ID or short ID, trying the
// cache, then the store, then the archive.
func (s *Service) Chart(ctx context.Context, id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrChartNotFound
	}
	full := isChartID(id)

	if payload, ok := s.cachedChart(ctx, id, full); ok {
		return payload, nil
	}

	if s.charts != nil {
		var rec *domain.ChartRecord
		var err error
		if full {
			rec, err = s.charts.GetByID(ctx, id)
		} else {
			rec, err = s.charts.GetByShortID(ctx, id)
		}
		switch {
		case err == nil:
			if s.cache != nil {
				if err := s.cache.SetChart(ctx, rec.ChartID, rec.ShortID, rec.Payload); err != nil {
					s.logger.Warn("cache chart", zap.String("chart_id", rec.ChartID), zap.Error(err))
				}
			}
			return rec.Payload, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}

	if s.archive != nil {
		shortID := id
		if full {
			var err error
			if shortID, err = idhash.ShortChartID(id); err != nil {
				return nil, ErrChartNotFound
			}
		}
		payload, err := s.archive.GetChart(ctx, shortID)
		if err == nil {
			return payload, nil
		}
		s.logger.Debug("archive lookup", zap.String("short_id", shortID), zap.Error(err))
	}
	return nil, ErrChartNotFound
}

func (s *Service) cachedChart(ctx context.Context, id string, full bool) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	chartID := id
	if !full {
		resolved, ok, err := s.cache.ResolveShortID(ctx, id)
		if err != nil || !ok {
			s.recordCache(err)
			return nil, false
		}
		chartID = resolved
	}
	payload, ok, err := s.cache.GetChart(ctx, chartID)
	if err != nil || !ok {
		s.recordCache(err)
		return nil, false
	}
	s.metrics.RecordCache("chart", "hit")
	return payload, true
}

func (s *Service) recordCache(err error) {
	if err != nil {
		s.logger.Warn("chart cache", zap.Error(err))
		s.metrics.RecordCache("chart", "error")
		return
	}
	s.metrics.RecordCache("chart", "miss")
}

func isChartID(id string) bool {
	if len(id) != 64 {
		return false
	}
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

// RecentCharts lists stored charts, newest first.
func (s *Service) RecentCharts(ctx context.Context, limit int) ([]*domain.ChartRecord, error) {
	if s.charts == nil {
		return nil, nil
	}
	return s.charts.ListRecent(ctx, limit)
}

// Transits returns the sidereal snapshot at at, displayed in timezone
// (the service default when empty).
func (s *Service) Transits(at time.Time, timezone string) (*Transits, error) {
	snap, err := s.snapshot(at, timezone)
	if err != nil {
		return nil, err
	}
	return TransitsView(snap, s.corrector.CorrectionDegrees()), nil
}

func (s *Service) snapshot(at time.Time, timezone string) (domain.TransitSnapshot, error) {
	if timezone == "" {
		timezone = s.transitTZ
	}
	return s.snapshotter.Snapshot(at.UnixMilli(), timezone)
}

// RecordTransit snapshots at and writes the rows to the transit store and
// the archive. A store failure is returned; an archive failure is logged. An
// instant that is already stored is neither rewritten nor archived again.
func (s *Service) RecordTransit(ctx context.Context, at time.Time) ([]*domain.TransitPoint, error) {
	snap, err := s.snapshot(at, "")
	if err != nil {
		s.metrics.RecordTransit("failed", at)
		return nil, err
	}
	rows := transit.Points(snap)
	points := make([]*domain.TransitPoint, len(rows))
	for i := range rows {
		points[i] = &rows[i]
	}

	if s.transits != nil {
		err := s.transits.InsertBulk(ctx, points)
		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			// slot already written, e.g. by a previous process
			s.metrics.RecordTransit("skipped", at)
			return points, nil
		case err != nil:
			s.metrics.RecordTransit("failed", at)
			return nil, fmt.Errorf("record transit: %w", err)
		}
		s.metrics.RecordTransit("recorded", at)
	}
	if s.archive != nil {
		if _, err := s.archive.ArchiveTransits(ctx, points); err != nil {
			s.logger.Warn("archive transit", zap.Int64("calculated_at_ms", snap.QueryMs), zap.Error(err))
		} else {
			s.metrics.RecordTransit("archived", at)
		}
	}
	return points, nil
}

// TransitHistory returns recorded rows within [start, end].
func (s *Service) TransitHistory(ctx context.Context, start, end time.Time) ([]*domain.TransitPoint, error) {
	if s.transits == nil {
		return nil, nil
	}
	if end.Before(start) {
		return nil, domain.Errorf(domain.ErrInputValidation, domain.StageTransit, "range end %s before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return s.transits.GetByTimeRange(ctx, start.UnixMilli(), end.UnixMilli())
}

// LatestTransit returns the most recently recorded snapshot rows.
func (s *Service) LatestTransit(ctx context.Context) ([]*domain.TransitPoint, error) {
	if s.transits == nil {
		return nil, storage.ErrNotFound
	}
	return s.transits.GetLatest(ctx)
}

// Metrics returns the metrics the service records into.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}
