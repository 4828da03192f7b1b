package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds a single expired-session sweep.
const sweepTimeout = 30 * time.Second

// Janitor periodically removes expired sessions from the store.
// Expiry is already enforced on lookup; the janitor only reclaims rows
// for sessions nobody presents again.
type Janitor struct {
	sessions *SessionManager
	cron     *cron.Cron
	logger   Logger
	onSwept  func(deleted int64)
}

// NewJanitor schedules sweeps on a cron spec such as "@every 1h" or "0 3 * * *".
// onSwept, if non-nil, receives the number of rows removed by each sweep.
func NewJanitor(sessions *SessionManager, schedule string, onSwept func(deleted int64)) (*Janitor, error) {
	j := &Janitor{
		sessions: sessions,
		cron:     cron.New(),
		logger:   noopLogger{},
		onSwept:  onSwept,
	}

	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("parsing janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// SetLogger sets the logger for the janitor.
func (j *Janitor) SetLogger(logger Logger) {
	if logger != nil {
		j.logger = logger
	}
}

// Start begins running sweeps in the background.
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("session janitor started", "next_run", j.nextRun())
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.logger.Warn("session janitor stop timed out")
	}
}

// RunOnce performs a single sweep immediately.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweeping expired sessions: %w", err)
	}
	if j.onSwept != nil {
		j.onSwept(deleted)
	}
	return deleted, nil
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	deleted, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.Error("session janitor sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.Info("expired sessions removed", "count", deleted)
	}
}

func (j *Janitor) nextRun() time.Time {
	entries := j.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(time.Now())
}
