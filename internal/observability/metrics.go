// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kundali-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Generation metrics
	ChartsGenerated    *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	EngineErrors       *prometheus.CounterVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Transit metrics
	TransitSnapshots     *prometheus.CounterVec
	TransitStreamClients prometheus.Gauge

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec

	// Health metrics
	LastTransitRecorded prometheus.Gauge
}

// NewMetrics registers all metrics with reg. A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "kundali"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ChartsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "charts_generated_total",
			Help:      "Total number of chart generations by status",
		}, []string{"status"}),
		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Chart generation duration in seconds by stage",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		EngineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Total number of engine errors by kind and stage",
		}, []string{"kind", "stage"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by cache and result (hit, miss, error)",
		}, []string{"cache", "result"}),

		TransitSnapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transit",
			Name:      "snapshots_total",
			Help:      "Transit snapshots by destination (recorded, archived, streamed, failed)",
		}, []string{"result"}),
		TransitStreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transit",
			Name:      "stream_clients",
			Help:      "Number of connected transit stream clients",
		}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),

		LastTransitRecorded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_transit_recorded_timestamp",
			Help:      "Unix timestamp of the last recorded transit snapshot",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor serves the metrics gathered by g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordGeneration records a finished generation. A nil err counts as success.
func (m *Metrics) RecordGeneration(err error, duration time.Duration) {
	m.GenerationDuration.WithLabelValues("total").Observe(duration.Seconds())
	if err == nil {
		m.ChartsGenerated.WithLabelValues("ok").Inc()
		return
	}
	m.ChartsGenerated.WithLabelValues("error").Inc()
	m.EngineErrors.WithLabelValues(errorKind(err), string(domain.StageOf(err))).Inc()
}

// ObserveStage records how long one engine stage took.
func (m *Metrics) ObserveStage(stage domain.Stage, duration time.Duration) {
	m.GenerationDuration.WithLabelValues(string(stage)).Observe(duration.Seconds())
}

// RecordCache records a cache lookup result: "hit", "miss" or "error".
func (m *Metrics) RecordCache(cache, result string) {
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}

// RecordTransit records a snapshot outcome.
func (m *Metrics) RecordTransit(result string, at time.Time) {
	m.TransitSnapshots.WithLabelValues(result).Inc()
	if result == "recorded" {
		m.LastTransitRecorded.Set(float64(at.Unix()))
	}
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(route, method, code string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(route, method, code).Observe(duration.Seconds())
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrInputValidation):
		return "input_validation"
	case errors.Is(err, domain.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, domain.ErrInvalidAscendant):
		return "invalid_ascendant"
	case errors.Is(err, domain.ErrOutOfCoverage):
		return "out_of_coverage"
	default:
		return "internal"
	}
}
