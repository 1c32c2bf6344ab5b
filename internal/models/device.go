package models

import (
	"time"

	"github.com/google/uuid"
)

// Connectivity states derived from heartbeat recency
const (
	DeviceStateOnline  = "online"
	DeviceStateOffline = "offline"
)

// Device represents a paired display device
type Device struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name        string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	PairingCode string    `json:"pairing_code" gorm:"type:text;not null;uniqueIndex;column:pairing_code"`
	APIToken    string    `json:"-" gorm:"type:text;not null;column:api_token"`
	// PlaylistID references the assigned playlist. Nil means unassigned.
	PlaylistID *uuid.UUID `json:"playlist_id,omitempty" gorm:"type:text;column:playlist_id"`
	// Status is the last playback status the device reported (idle, playing,
	// paused, error). Connectivity is tracked separately via State.
	Status     string     `json:"status" gorm:"type:text;not null;default:'idle';column:status"`
	State      string     `json:"state" gorm:"type:text;not null;default:'offline';column:state"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty" gorm:"type:datetime;column:last_seen_at"`
	CreatedAt  time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewDevice creates a new Device with generated UUID, token, and timestamps
func NewDevice(name, pairingCode string) *Device {
	now := time.Now().UTC()
	return &Device{
		ID:          uuid.New(),
		Name:        name,
		PairingCode: pairingCode,
		APIToken:    uuid.NewString(),
		Status:      "idle",
		State:       DeviceStateOffline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
