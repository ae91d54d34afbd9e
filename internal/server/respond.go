package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/kundali"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps engine failures to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInputValidation), errors.Is(err, domain.ErrInvalidAscendant):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOutOfRange), errors.Is(err, domain.ErrOutOfCoverage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, kundali.ErrChartNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func kindName(err error) string {
	switch domain.KindOf(err) {
	case domain.ErrInputValidation:
		return "input_validation"
	case domain.ErrOutOfRange:
		return "out_of_range"
	case domain.ErrInvalidAscendant:
		return "invalid_ascendant"
	case domain.ErrOutOfCoverage:
		return "out_of_coverage"
	}
	return ""
}

// fail writes err with its mapped status. Internal errors are logged and
// not echoed to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, status, "internal server error")
		return
	}
	writeJSON(w, status, errorBody{
		Error: err.Error(),
		Kind:  kindName(err),
		Stage: string(domain.StageOf(err)),
	})
}
