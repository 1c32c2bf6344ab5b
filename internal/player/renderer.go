package player

import (
	"github.com/kwrenn/signet/internal/media"
	"github.com/kwrenn/signet/internal/models"
)

// Renderer is the narrow adapter contract each playback surface implements.
// The engine always calls Unmount for the previous item before mounting the
// next one; overlapping media elements are the adapter defect class this
// ordering guards against.
//
// Adapters feed completion and failure back into the engine through
// MediaReady, MediaEnded, MediaFailed, and MediaProgress. Adapters must not
// call back into the engine from inside Mount or Unmount while blocking the
// caller indefinitely; a synchronous callback is fine.
type Renderer interface {
	// Mount presents the given item. The kind decides which native element
	// or process the adapter uses.
	Mount(item *models.PlaylistItem, kind media.Kind)
	// Unmount tears the current presentation down fully: stop playback,
	// clear element state, kill subprocesses.
	Unmount()
}
