package models

import (
	"time"

	"github.com/google/uuid"
)

// PlaylistItem binds a media record into a playlist sequence.
// Positions are 1-based and contiguous within a playlist.
type PlaylistItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlaylistID uuid.UUID `json:"playlist_id" gorm:"type:text;not null;column:playlist_id" validate:"required"`
	MediaID    uuid.UUID `json:"media_id" gorm:"type:text;not null;column:media_id" validate:"required"`
	Position   int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=1"`
	// Duration is the per-item override in seconds. Nil falls back to the
	// per-kind default at playback time.
	Duration       *int      `json:"duration,omitempty" gorm:"type:integer;column:duration"`
	TransitionType string    `json:"transition_type" gorm:"type:text;not null;default:'none';column:transition_type"`
	CreatedAt      time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`

	// Populated by joins, not stored in database
	Media *Media `json:"media,omitempty" gorm:"-"`
}

// NewPlaylistItem creates a new PlaylistItem with generated UUID and timestamp
func NewPlaylistItem(playlistID, mediaID uuid.UUID, position int) *PlaylistItem {
	return &PlaylistItem{
		ID:             uuid.New(),
		PlaylistID:     playlistID,
		MediaID:        mediaID,
		Position:       position,
		TransitionType: "none",
		CreatedAt:      time.Now().UTC(),
	}
}
