package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/kundali"
	"kundali-lab/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	maxHistorySpan   = 31 * 24 * time.Hour
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Kundali API",
		"endpoints": map[string]string{
			"POST /generate":        "Generate a birth chart from a JSON body",
			"GET /generate":         "Generate a birth chart from query parameters",
			"GET /charts":           "List recently generated charts",
			"GET /charts/{id}":      "Fetch a stored chart by chart ID or short ID",
			"GET /transits":         "Current sidereal planetary positions",
			"GET /transits/history": "Recorded transit snapshots in a time range",
			"GET /transits/latest":  "Most recently recorded transit snapshot",
			"GET /ws/transits":      "Live transit stream (websocket)",
			"GET /health":           "Health check",
			"GET /status":           "Server status",
			"GET /metrics":          "Prometheus metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status        string          `json:"status"`
	Uptime        string          `json:"uptime"`
	Started       time.Time       `json:"started"`
	StreamClients int             `json:"stream_clients"`
	Recorder      *RecorderStatus `json:"recorder,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	started, uptime := s.uptime()
	resp := StatusResponse{
		Status:  "running",
		Uptime:  uptime.Truncate(time.Second).String(),
		Started: started,
	}
	if s.stream != nil {
		resp.StreamClients = s.stream.Clients()
	}
	if s.recorder != nil {
		st := s.recorder.Status()
		resp.Recorder = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req kundali.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, domain.NewError(domain.ErrInputValidation, domain.StageValidation, err))
		return
	}
	s.generate(w, r, req)
}

func (s *Server) handleGenerateQuery(w http.ResponseWriter, r *http.Request) {
	req, err := kundali.ParseQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.generate(w, r, req)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, req kundali.Request) {
	res, err := s.svc.Generate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	payload, err := s.svc.Chart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, kundali.ErrChartNotFound) {
			writeError(w, http.StatusNotFound, "chart not found")
			return
		}
		s.fail(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, payload)
}

// chartSummary lists a stored chart without its payload.
type chartSummary struct {
	ChartID    string `json:"chart_id"`
	ShortID    string `json:"short_id"`
	Name       string `json:"name"`
	BirthUTCMs int64  `json:"birth_utc_ms"`
	CreatedAt  int64  `json:"created_at"`
}

func (s *Server) handleRecentCharts(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	recs, err := s.svc.RecentCharts(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]chartSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, chartSummary{
			ChartID: rec.ChartID, ShortID: rec.ShortID, Name: rec.Name,
			BirthUTCMs: rec.BirthUTCMs, CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"charts": out})
}

func (s *Server) handleTransits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	at := time.Now()
	if v := q.Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.fail(w, r, domain.Errorf(domain.ErrInputValidation, domain.StageTransit, "at: %v", err))
			return
		}
		at = t
	}

	tr, err := s.svc.Transits(at, q.Get("timezone"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// transitRow is one recorded transit row.
type transitRow struct {
	CalculatedAtMs int64   `json:"calculated_at_ms"`
	Planet         string  `json:"planet"`
	Longitude      float64 `json:"longitude"`
	Sign           string  `json:"sign"`
	Ayanamsa       float64 `json:"ayanamsa"`
}

func transitRows(points []*domain.TransitPoint) []transitRow {
	out := make([]transitRow, 0, len(points))
	for _, p := range points {
		out = append(out, transitRow{
			CalculatedAtMs: p.CalculatedAtMs,
			Planet:         string(p.Planet),
			Longitude:      p.Longitude,
			Sign:           p.Sign.Name(),
			Ayanamsa:       p.Ayanamsa,
		})
	}
	return out
}

func (s *Server) handleTransitHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		s.fail(w, r, domain.Errorf(domain.ErrInputValidation, domain.StageTransit, "from: %v", err))
		return
	}
	to := time.Now()
	if v := q.Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			s.fail(w, r, domain.Errorf(domain.ErrInputValidation, domain.StageTransit, "to: %v", err))
			return
		}
	}
	if to.Sub(from) > maxHistorySpan {
		s.fail(w, r, domain.Errorf(domain.ErrInputValidation, domain.StageTransit,
			"range longer than %s", maxHistorySpan))
		return
	}

	points, err := s.svc.TransitHistory(r.Context(), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": transitRows(points)})
}

func (s *Server) handleLatestTransit(w http.ResponseWriter, r *http.Request) {
	points, err := s.svc.LatestTransit(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no transit recorded")
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": transitRows(points)})
}
