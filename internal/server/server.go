// Package server exposes the kundali service over HTTP: chart generation,
// stored chart lookup, transit snapshots and a live transit stream.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"kundali-lab/internal/kundali"
	"kundali-lab/internal/observability"
)

// Config holds the HTTP layer settings.
type Config struct {
	CORSOrigins    []string
	StreamInterval time.Duration
	MaxBodyBytes   int64

	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// Server routes HTTP requests to the kundali service.
type Server struct {
	cfg      Config
	svc      *kundali.Service
	metrics  *observability.Metrics
	stream   *TransitStream
	recorder *TransitRecorder
	logger   *zap.Logger

	mu      sync.Mutex
	started time.Time
}

// New creates a Server. recorder may be nil when no recorder runs.
func New(cfg Config, svc *kundali.Service, stream *TransitStream, recorder *TransitRecorder, logger *zap.Logger) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 16
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		svc:      svc,
		metrics:  svc.Metrics(),
		stream:   stream,
		recorder: recorder,
		logger:   logger,
		started:  time.Now().UTC(),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logging)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())

	r.Get("/generate", s.handleGenerateQuery)
	r.Post("/generate", s.handleGenerate)

	r.Get("/charts", s.handleRecentCharts)
	r.Get("/charts/{id}", s.handleChart)

	r.Get("/transits", s.handleTransits)
	r.Get("/transits/history", s.handleTransitHistory)
	r.Get("/transits/latest", s.handleLatestTransit)
	if s.stream != nil {
		r.Get("/ws/transits", s.stream.HandleWS)
	}

	return r
}

func (s *Server) metricsHandler() http.Handler {
	if s.cfg.Gatherer != nil {
		return observability.HandlerFor(s.cfg.Gatherer)
	}
	return observability.Handler()
}

func (s *Server) uptime() (time.Time, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, time.Since(s.started)
}
