package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"kundali-lab/internal/kundali"
)

// RecorderStatus reports transit recorder activity.
type RecorderStatus struct {
	Interval  string    `json:"interval"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// TransitRecorder periodically writes transit snapshots through the service.
type TransitRecorder struct {
	svc      *kundali.Service
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu     sync.Mutex
	status RecorderStatus
}

// NewTransitRecorder creates a recorder snapshotting every interval.
func NewTransitRecorder(svc *kundali.Service, interval time.Duration, logger *zap.Logger) *TransitRecorder {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransitRecorder{
		svc:      svc,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		status:   RecorderStatus{Interval: interval.String()},
	}
}

// Run records one snapshot immediately and then on every tick until ctx is
// cancelled. Snapshot instants are truncated to the interval so restarts do
// not write near-duplicate rows.
func (r *TransitRecorder) Run(ctx context.Context) error {
	r.RecordOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RecordOnce(ctx)
		}
	}
}

// RecordOnce records the snapshot for the current interval slot.
func (r *TransitRecorder) RecordOnce(ctx context.Context) {
	at := r.now().UTC().Truncate(r.interval)
	points, err := r.svc.RecordTransit(ctx, at)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Runs++
	r.status.LastRun = at
	if err != nil {
		r.status.Failures++
		r.status.LastError = err.Error()
		r.logger.Warn("transit record failed", zap.Time("at", at), zap.Error(err))
		return
	}
	r.status.LastError = ""
	r.logger.Debug("transit recorded", zap.Time("at", at), zap.Int("rows", len(points)))
}

// Status returns a copy of the recorder status.
func (r *TransitRecorder) Status() RecorderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
