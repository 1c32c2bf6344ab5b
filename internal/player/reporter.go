package player

import "context"

// Metrics carries device-side counters sent with each heartbeat
type Metrics struct {
	ErrorCount    int   `json:"error_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// Status is the heartbeat payload describing what the device is doing
type Status struct {
	Status      string  `json:"status"`
	CurrentItem string  `json:"currentItem,omitempty"`
	Progress    float64 `json:"progress"`
	Metrics     Metrics `json:"performanceMetrics"`
}

// Reporter abstracts "tell the server this device is alive". Sends are
// fire-and-forget: a failed heartbeat must never pause playback or stop the
// heartbeat interval. The only visible effect of failures is the session's
// connectivity indicator.
type Reporter interface {
	Send(ctx context.Context, deviceID string, status Status) error
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(ctx context.Context, deviceID string, status Status) error

// Send implements Reporter
func (f ReporterFunc) Send(ctx context.Context, deviceID string, status Status) error {
	return f(ctx, deviceID, status)
}
