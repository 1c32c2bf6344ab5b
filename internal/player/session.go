// Package player implements the device playback engine: the state machine
// that owns what is currently shown, for how long, and what comes next. One
// Engine instance owns one Session; renderer adapters and host UIs only see
// read-only snapshots and callbacks.
package player

import (
	"time"

	"github.com/kwrenn/signet/internal/models"
)

// State represents the engine's playback state
type State string

// Playback state constants
const (
	StateIdle    State = "idle"    // No playlist assigned
	StateLoading State = "loading" // Item mount in progress
	StatePlaying State = "playing" // Item actively counted toward its duration
	StatePaused  State = "paused"  // Timer frozen, no advance
	StateError   State = "error"   // Current item failed, auto-recovers
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid checks if the state is a known valid value
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateLoading, StatePlaying, StatePaused, StateError:
		return true
	default:
		return false
	}
}

// Session is the live playback state for one connected device.
// It is created on Connect, mutated only by the owning Engine, and destroyed
// on Disconnect. It is never persisted.
type Session struct {
	DeviceID string           `json:"device_id"`
	Playlist *models.Playlist `json:"playlist,omitempty"`
	// Index is the position (0-based) of the current item within the
	// playlist's item slice, or -1 when nothing is mounted.
	Index    int   `json:"index"`
	State    State `json:"state"`
	Paused   bool  `json:"paused"`
	Finished bool  `json:"finished"`
	// Elapsed is the accumulated active playback time within the current
	// item. Frozen while paused.
	Elapsed time.Duration `json:"elapsed"`
	// Duration is the effective duration of the current item (0 for
	// natural-length kinds).
	Duration time.Duration `json:"duration"`
	// Progress is 0-100 within the current item.
	Progress        float64   `json:"progress"`
	ErrorCount      int       `json:"error_count"`
	Connected       bool      `json:"connected"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
	ConnectedAt     time.Time `json:"connected_at"`
}

// CurrentItem returns the playlist item at the session's index, or nil.
func (s *Session) CurrentItem() *models.PlaylistItem {
	if s.Playlist == nil || s.Index < 0 || s.Index >= len(s.Playlist.Items) {
		return nil
	}
	return s.Playlist.Items[s.Index]
}
