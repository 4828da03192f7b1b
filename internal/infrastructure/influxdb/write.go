package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementAuthEvents    = "auth_events"
	MeasurementSessionSweeps = "session_sweeps"
)

// WriteAuthEvent records one login attempt. kind is "user" or "admin";
// outcome is "success", "failure" or "error". Non-blocking.
func (c *Client) WriteAuthEvent(kind, outcome string, at time.Time) {
	if !c.active() {
		return
	}
	c.writeAPI.WritePoint(authEventPoint(kind, outcome, at))
}

// WriteSessionSweep records how many expired sessions a janitor run removed.
func (c *Client) WriteSessionSweep(deleted int64, at time.Time) {
	if !c.active() {
		return
	}
	c.writeAPI.WritePoint(sessionSweepPoint(deleted, at))
}

func authEventPoint(kind, outcome string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementAuthEvents,
		map[string]string{
			"kind":    kind,
			"outcome": outcome,
		},
		map[string]any{
			"count": 1,
		},
		at,
	)
}

func sessionSweepPoint(deleted int64, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementSessionSweeps,
		nil,
		map[string]any{
			"deleted": deleted,
		},
		at,
	)
}
