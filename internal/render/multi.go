package render

import (
	"github.com/kwrenn/signet/internal/media"
	"github.com/kwrenn/signet/internal/models"
)

// Surface is the mount contract every adapter in this package satisfies.
// It is structurally identical to the engine's renderer interface.
type Surface interface {
	Mount(item *models.PlaylistItem, kind media.Kind)
	Unmount()
}

// Multi fans one mount out to several adapters, e.g. a subprocess viewer
// plus the dashboard preview. All adapters share the same event channel;
// the engine deduplicates repeated ready signals.
type Multi struct {
	surfaces []Surface
}

// NewMulti creates a fan-out renderer
func NewMulti(surfaces ...Surface) *Multi {
	return &Multi{surfaces: surfaces}
}

// Mount implements player.Renderer
func (m *Multi) Mount(item *models.PlaylistItem, kind media.Kind) {
	for _, s := range m.surfaces {
		s.Mount(item, kind)
	}
}

// Unmount implements player.Renderer
func (m *Multi) Unmount() {
	for _, s := range m.surfaces {
		s.Unmount()
	}
}
