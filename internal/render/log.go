package render

import (
	"sync"
	"time"

	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/media"
	"github.com/kwrenn/signet/internal/models"
)

// Log is the headless renderer adapter: it logs what would be shown and
// readies every mount immediately. Natural-length kinds can be completed
// after a fixed duration (NaturalEndAfter) so headless players still cycle
// through video and audio items, or driven manually via SimulateEnd in
// tests.
type Log struct {
	// NaturalEndAfter simulates the natural end event for video/audio this
	// long after mount. Zero disables simulation.
	NaturalEndAfter time.Duration

	mu      sync.Mutex
	events  Events
	mounted bool
	current *models.PlaylistItem
	kind    media.Kind
	endTmr  *time.Timer
}

// NewLog creates a headless log renderer
func NewLog() *Log {
	return &Log{}
}

// Attach wires the renderer to the engine's event channel. Must be called
// before the engine connects.
func (l *Log) Attach(events Events) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = events
}

// Mount implements player.Renderer
func (l *Log) Mount(item *models.PlaylistItem, kind media.Kind) {
	l.mu.Lock()
	l.mounted = true
	l.current = item
	l.kind = kind
	events := l.events
	if kind.Natural() && l.NaturalEndAfter > 0 && events != nil {
		l.endTmr = time.AfterFunc(l.NaturalEndAfter, events.MediaEnded)
	}
	l.mu.Unlock()

	name := ""
	url := ""
	if item.Media != nil {
		name = item.Media.Name
		url = item.Media.URL
	}
	logger.Log.Info().
		Str("item_id", item.ID.String()).
		Str("kind", kind.String()).
		Str("name", name).
		Str("url", url).
		Msg("Showing item")

	if events != nil {
		events.MediaReady()
	}
}

// Unmount implements player.Renderer. Idempotent; cancels any pending
// simulated end so a stale timer can never fire into the next item.
func (l *Log) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.mounted {
		return
	}
	if l.endTmr != nil {
		l.endTmr.Stop()
		l.endTmr = nil
	}
	logger.Log.Debug().
		Str("item_id", l.current.ID.String()).
		Msg("Clearing item")
	l.mounted = false
	l.current = nil
}

// SimulateEnd fires the natural end event for the mounted item. Test hook.
func (l *Log) SimulateEnd() {
	l.mu.Lock()
	events := l.events
	mounted := l.mounted
	l.mu.Unlock()
	if mounted && events != nil {
		events.MediaEnded()
	}
}

// SimulateError fires a failure event for the mounted item. Test hook.
func (l *Log) SimulateError(err error) {
	l.mu.Lock()
	events := l.events
	l.mu.Unlock()
	if events != nil {
		events.MediaFailed(err)
	}
}
