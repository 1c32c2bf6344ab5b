package models

import (
	"time"

	"github.com/google/uuid"
)

// Playlist represents an ordered collection of playlist items assigned to devices
type Playlist struct {
	ID              uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name            string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	LoopEnabled     bool      `json:"loop_enabled" gorm:"type:integer;not null;default:1;column:loop_enabled"`
	Shuffle         bool      `json:"shuffle" gorm:"type:integer;not null;default:0;column:shuffle"`
	BackgroundColor string    `json:"background_color" gorm:"type:text;not null;default:'#000000';column:background_color"`
	AutoAdvance     bool      `json:"auto_advance" gorm:"type:integer;not null;default:1;column:auto_advance"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`

	// Populated by joins, not stored in database
	Items []*PlaylistItem `json:"items,omitempty" gorm:"-"`
}

// NewPlaylist creates a new Playlist with generated UUID and timestamps
func NewPlaylist(name string, loopEnabled, shuffle bool) *Playlist {
	now := time.Now().UTC()
	return &Playlist{
		ID:              uuid.New(),
		Name:            name,
		LoopEnabled:     loopEnabled,
		Shuffle:         shuffle,
		BackgroundColor: "#000000",
		AutoAdvance:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
