package render

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/media"
	"github.com/kwrenn/signet/internal/models"
)

// URLPlaceholder is replaced with the item's playable URL in exec command
// arguments.
const URLPlaceholder = "{url}"

// Exec is the set-top renderer adapter: it presents each item by launching
// an external viewer process (video player, image viewer, browser in kiosk
// mode). Process exit maps to the natural end event for video/audio; a
// failed launch or non-zero exit maps to a media failure.
type Exec struct {
	// Commands maps a playback kind to the argv used to present it. The
	// first element is the binary; URLPlaceholder in any argument is
	// substituted with the item URL. Kinds without a command fail the item.
	Commands map[media.Kind][]string

	mu     sync.Mutex
	events Events
	gen    int
	cancel context.CancelFunc
	waitCh chan struct{}
}

// NewExec creates a subprocess renderer with the given per-kind commands
func NewExec(commands map[media.Kind][]string) *Exec {
	return &Exec{Commands: commands}
}

// Attach wires the renderer to the engine's event channel
func (x *Exec) Attach(events Events) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.events = events
}

// Mount implements player.Renderer
func (x *Exec) Mount(item *models.PlaylistItem, kind media.Kind) {
	url := ""
	if item.Media != nil {
		url = item.Media.URL
	}

	x.mu.Lock()
	events := x.events
	argv, ok := x.Commands[kind]
	x.mu.Unlock()

	if !ok || len(argv) == 0 {
		if events != nil {
			events.MediaFailed(fmt.Errorf("no viewer command configured for kind %s", kind))
		}
		return
	}

	args := make([]string, len(argv)-1)
	for i, a := range argv[1:] {
		args[i] = strings.ReplaceAll(a, URLPlaceholder, url)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], args...)

	if err := cmd.Start(); err != nil {
		cancel()
		logger.Log.Warn().
			Err(err).
			Str("binary", argv[0]).
			Str("kind", kind.String()).
			Msg("Failed to launch viewer process")
		if events != nil {
			events.MediaFailed(err)
		}
		return
	}

	x.mu.Lock()
	x.gen++
	gen := x.gen
	x.cancel = cancel
	waitCh := make(chan struct{})
	x.waitCh = waitCh
	x.mu.Unlock()

	logger.Log.Debug().
		Str("binary", argv[0]).
		Str("kind", kind.String()).
		Int("pid", cmd.Process.Pid).
		Msg("Viewer process started")

	if events != nil {
		events.MediaReady()
	}

	go func() {
		err := cmd.Wait()
		close(waitCh)

		// A stale exit (after Unmount) carries no event.
		x.mu.Lock()
		current := x.gen == gen && x.cancel != nil
		x.mu.Unlock()
		if !current || events == nil {
			return
		}

		if err != nil {
			events.MediaFailed(fmt.Errorf("viewer process exited: %w", err))
			return
		}
		if kind.Natural() {
			events.MediaEnded()
		}
		// Timed kinds keep the viewer up until Unmount; a clean early exit
		// just leaves the screen to the playlist background.
	}()
}

// Unmount implements player.Renderer: kills the viewer process and waits
// for it to be reaped. Idempotent.
func (x *Exec) Unmount() {
	x.mu.Lock()
	cancel := x.cancel
	waitCh := x.waitCh
	x.cancel = nil
	x.waitCh = nil
	x.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if waitCh != nil {
		<-waitCh
	}
}
