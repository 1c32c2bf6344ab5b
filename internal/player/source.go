package player

import (
	"context"

	"github.com/kwrenn/signet/internal/models"
)

// Source abstracts "fetch the playlist currently assigned to this device".
// A nil playlist with a nil error means no playlist is assigned; the engine
// treats that as idle, never as an error.
type Source interface {
	Fetch(ctx context.Context, deviceID string) (*models.Playlist, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context, deviceID string) (*models.Playlist, error)

// Fetch implements Source
func (f SourceFunc) Fetch(ctx context.Context, deviceID string) (*models.Playlist, error) {
	return f(ctx, deviceID)
}

// SamePlaylist reports whether two playlist snapshots are the same
// assignment for reassignment-detection purposes: same identity, same item
// count, same item-id sequence. Content-only edits (e.g. a duration change)
// compare as the same assignment so the engine can hot-apply them without
// resetting playback position.
func SamePlaylist(a, b *models.Playlist) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID {
		return false
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i].ID != b.Items[i].ID {
			return false
		}
	}
	return true
}
