package player

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/media"
	"github.com/kwrenn/signet/internal/models"
)

// Default engine timings
const (
	DefaultTickInterval      = 100 * time.Millisecond
	DefaultPollInterval      = 5 * time.Second
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultErrorGrace        = 3 * time.Second
	DefaultSlidesReadyDelay  = 1 * time.Second
	defaultRequestTimeout    = 10 * time.Second
)

// Config holds engine timing configuration. Zero values fall back to the
// defaults; tests inject short intervals.
type Config struct {
	TickInterval      time.Duration
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	ErrorGrace        time.Duration
	SlidesReadyDelay  time.Duration
	RequestTimeout    time.Duration

	// Rand seeds shuffle traversal. Nil uses a time-seeded source.
	Rand *rand.Rand
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.ErrorGrace <= 0 {
		c.ErrorGrace = DefaultErrorGrace
	}
	if c.SlidesReadyDelay < 0 {
		c.SlidesReadyDelay = DefaultSlidesReadyDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}

// Callbacks is the event channel the engine exposes to host surfaces.
// All callbacks are invoked outside the engine lock. Nil callbacks are
// skipped.
type Callbacks struct {
	// OnItemChanged fires when a new item is mounted. Index is -1 with a
	// nil item when the engine goes idle (empty or unassigned playlist).
	OnItemChanged func(index int, item *models.PlaylistItem)
	// OnProgress fires on playback ticks with the current 0-100 progress.
	OnProgress func(progress float64)
	// OnError fires for classified playback errors.
	OnError func(err error)
}

// mountRequest describes a pending item mount computed under the engine
// lock and completed outside it. gen identifies the advance that prepared
// it; a completion whose gen is no longer current is dropped.
type mountRequest struct {
	gen       uint64
	index     int
	item      *models.PlaylistItem
	kind      media.Kind
	configErr *PlaybackError
}

// Engine is the playback state machine. It owns exactly one Session and
// runs three independent loops against it: the playback tick, the playlist
// reassignment poll, and the heartbeat. All three are torn down by a single
// idempotent Disconnect.
type Engine struct {
	cfg       Config
	source    Source
	reporter  Reporter
	renderer  Renderer
	callbacks Callbacks
	rng       *rand.Rand

	mu      sync.RWMutex
	started bool
	session *Session

	// Traversal order is a permutation of item indices; orderPos walks it.
	// Reshuffled once per pass when shuffle is enabled.
	order    []int
	orderPos int

	// mountGen counts prepared mounts; mountMu serializes renderer
	// mount/unmount sequences so completions apply in preparation order.
	mountGen uint64
	mountMu  sync.Mutex

	kind       media.Kind
	resumeAt   time.Time
	accum      time.Duration
	readyAt    time.Time
	errorUntil time.Time
	mediaPos   float64
	mediaDur   float64

	fetchInFlight atomic.Bool
	stopChan      chan struct{}
	tickDone      chan struct{}
	pollDone      chan struct{}
	heartbeatDone chan struct{}
}

// NewEngine creates a playback engine for one device session. Dependencies
// are passed explicitly so multiple engines can coexist in one process.
func NewEngine(cfg Config, source Source, reporter Reporter, renderer Renderer, callbacks Callbacks) *Engine {
	cfg = cfg.withDefaults()
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		cfg:       cfg,
		source:    source,
		reporter:  reporter,
		renderer:  renderer,
		callbacks: callbacks,
		rng:       rng,
	}
}

// Connect creates the session and starts the tick, poll, and heartbeat
// loops. The first playlist fetch and heartbeat happen immediately.
func (e *Engine) Connect(deviceID string) error {
	if deviceID == "" {
		return ErrEmptyDeviceID
	}

	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyConnected
	}
	e.started = true
	e.stopChan = make(chan struct{})
	e.tickDone = make(chan struct{})
	e.pollDone = make(chan struct{})
	e.heartbeatDone = make(chan struct{})
	e.fetchInFlight.Store(false)
	e.session = &Session{
		DeviceID:    deviceID,
		Index:       -1,
		State:       StateIdle,
		ConnectedAt: time.Now().UTC(),
	}
	e.order = nil
	e.orderPos = 0
	stop := e.stopChan
	e.mu.Unlock()

	go e.runTickLoop(stop, e.tickDone)
	go e.runPollLoop(stop, e.pollDone)
	go e.runHeartbeatLoop(stop, e.heartbeatDone)

	logger.Log.Info().
		Str("device_id", deviceID).
		Dur("tick_interval", e.cfg.TickInterval).
		Dur("poll_interval", e.cfg.PollInterval).
		Dur("heartbeat_interval", e.cfg.HeartbeatInterval).
		Msg("Playback engine connected")

	return nil
}

// Disconnect stops all loops and unmounts the renderer. Safe to call more
// than once; only the first call does any work.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	stop := e.stopChan
	tickDone, pollDone, heartbeatDone := e.tickDone, e.pollDone, e.heartbeatDone
	deviceID := e.session.DeviceID
	e.mu.Unlock()

	close(stop)
	<-tickDone
	<-pollDone
	<-heartbeatDone

	e.mountMu.Lock()
	e.renderer.Unmount()
	e.mountMu.Unlock()

	logger.Log.Info().
		Str("device_id", deviceID).
		Msg("Playback engine disconnected")
}

// Play resumes playback. A no-op unless the session is paused.
func (e *Engine) Play() {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	e.session.Paused = false
	if e.session.State == StatePaused {
		e.session.State = StatePlaying
		e.resumeAt = now
	}
}

// Pause freezes the playback timer. Autonomous device players never call
// this; it exists for the dashboard preview surface.
func (e *Engine) Pause() {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	e.session.Paused = true
	if e.session.State == StatePlaying {
		e.accum += now.Sub(e.resumeAt)
		e.session.Elapsed = e.accum
		e.session.State = StatePaused
	}
}

// Next advances to the next item manually, honoring loop semantics.
func (e *Engine) Next() {
	now := time.Now()
	e.mu.Lock()
	if !e.started || e.session == nil || len(e.order) == 0 {
		e.mu.Unlock()
		return
	}
	req := e.advanceLocked(now)
	e.mu.Unlock()
	if req != nil {
		e.completeMount(req)
	}
}

// Previous steps back to the previous item, wrapping only when the
// playlist loops.
func (e *Engine) Previous() {
	now := time.Now()
	e.mu.Lock()
	if !e.started || e.session == nil || len(e.order) == 0 {
		e.mu.Unlock()
		return
	}
	prev := e.orderPos - 1
	if prev < 0 {
		if e.session.Playlist != nil && e.session.Playlist.LoopEnabled {
			prev = len(e.order) - 1
		} else {
			prev = 0
		}
	}
	e.orderPos = prev
	req := e.prepareMountLocked(now)
	e.mu.Unlock()
	e.completeMount(req)
}

// Snapshot returns a read-only copy of the session state.
func (e *Engine) Snapshot() Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return Session{Index: -1, State: StateIdle}
	}
	s := *e.session
	if s.State == StatePlaying && !s.Finished {
		s.Elapsed = e.accum + time.Since(e.resumeAt)
	}
	return s
}

// MediaReady signals that the mounted media finished loading (image
// decoded, video/audio metadata available). Slides ignore this signal and
// use the fixed ready delay instead, since embed load events are
// unreliable.
func (e *Engine) MediaReady() {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.session == nil {
		return
	}
	if e.session.State != StateLoading || e.kind == media.KindSlides {
		return
	}
	e.readyAt = time.Time{}
	if e.session.Paused {
		e.session.State = StatePaused
	} else {
		e.session.State = StatePlaying
		e.resumeAt = now
	}
}

// MediaEnded signals the natural end of a video or audio item. Timed kinds
// ignore it; their advance is driven by the playback timer.
func (e *Engine) MediaEnded() {
	now := time.Now()
	e.mu.Lock()
	if !e.started || e.session == nil || e.session.Index < 0 || e.session.Finished || !e.kind.Natural() {
		e.mu.Unlock()
		return
	}
	if e.session.State != StatePlaying && e.session.State != StateLoading {
		e.mu.Unlock()
		return
	}
	req := e.advanceLocked(now)
	e.mu.Unlock()
	if req != nil {
		e.completeMount(req)
	}
}

// MediaFailed signals a load or decode failure for the current item. The
// engine records the error and auto-advances after the error grace period;
// one bad asset never blocks the loop.
func (e *Engine) MediaFailed(err error) {
	now := time.Now()
	e.mu.Lock()
	if !e.started || e.session == nil {
		e.mu.Unlock()
		return
	}
	// Stray events with nothing mounted (idle or terminal session) must not
	// put the engine into an error state it has no item to advance out of.
	if e.session.Index < 0 || e.session.State == StateIdle || e.session.Finished {
		e.mu.Unlock()
		return
	}
	pe, ok := err.(*PlaybackError)
	if !ok {
		pe = NewPlaybackError(ErrorTypeMedia, "media failed to load", err)
	}
	e.session.ErrorCount++
	e.session.State = StateError
	e.readyAt = time.Time{}
	e.errorUntil = now.Add(e.cfg.ErrorGrace)
	index := e.session.Index
	errorCount := e.session.ErrorCount
	cb := e.callbacks.OnError
	e.mu.Unlock()

	logger.Log.Warn().
		Err(pe).
		Int("index", index).
		Int("error_count", errorCount).
		Dur("grace", e.cfg.ErrorGrace).
		Msg("Media item failed, advancing after grace period")

	if cb != nil {
		cb(pe)
	}
}

// MediaProgress reports native playback position for video/audio items.
// Progress for these kinds comes from the element, not the engine timer.
func (e *Engine) MediaProgress(position, duration float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.session == nil || e.session.Index < 0 || !e.kind.Natural() {
		return
	}
	e.mediaPos = position
	e.mediaDur = duration
}

// runTickLoop drives timed advances, error recovery, and progress
// reporting at a fixed tick.
func (e *Engine) runTickLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			e.onTick(now)
		}
	}
}

func (e *Engine) onTick(now time.Time) {
	e.mu.Lock()
	if !e.started || e.session == nil {
		e.mu.Unlock()
		return
	}
	s := e.session
	var req *mountRequest
	var progress float64
	emitProgress := false

	switch s.State {
	case StateLoading:
		// Engine-scheduled readiness (slides grace delay).
		if !e.readyAt.IsZero() && !now.Before(e.readyAt) {
			e.readyAt = time.Time{}
			if s.Paused {
				s.State = StatePaused
			} else {
				s.State = StatePlaying
				e.resumeAt = now
			}
		}
	case StateError:
		if !now.Before(e.errorUntil) {
			req = e.advanceLocked(now)
		}
	case StatePlaying:
		if s.Finished {
			break
		}
		elapsed := e.accum + now.Sub(e.resumeAt)
		s.Elapsed = elapsed
		if e.kind.Timed() {
			if s.Duration > 0 && elapsed >= s.Duration {
				req = e.advanceLocked(now)
			} else {
				s.Progress = clampProgress(float64(elapsed) / float64(s.Duration) * 100)
			}
		} else if e.mediaDur > 0 {
			s.Progress = clampProgress(e.mediaPos / e.mediaDur * 100)
		} else {
			s.Progress = 0
		}
		if req == nil {
			progress = s.Progress
			emitProgress = true
		}
	}
	cb := e.callbacks.OnProgress
	e.mu.Unlock()

	if req != nil {
		e.completeMount(req)
		return
	}
	if emitProgress && cb != nil {
		cb(progress)
	}
}

// advanceLocked moves to the next item in traversal order. Returns nil when
// a non-looping playlist reaches its last item: the engine stays on it in a
// terminal playing state and no further timers fire.
func (e *Engine) advanceLocked(now time.Time) *mountRequest {
	s := e.session
	n := len(e.order)
	if n == 0 {
		return nil
	}

	next := e.orderPos + 1
	if next >= n {
		if s.Playlist != nil && s.Playlist.LoopEnabled {
			if s.Playlist.Shuffle {
				e.reshuffleLocked()
			}
			next = 0
		} else {
			s.Finished = true
			s.State = StatePlaying
			if e.kind.Timed() {
				s.Progress = 100
			}
			e.errorUntil = time.Time{}
			e.readyAt = time.Time{}
			return nil
		}
	}
	e.orderPos = next
	return e.prepareMountLocked(now)
}

// prepareMountLocked resets per-item state for the item at the current
// traversal position and returns the mount to complete outside the lock.
func (e *Engine) prepareMountLocked(now time.Time) *mountRequest {
	s := e.session
	idx := e.order[e.orderPos]
	item := s.Playlist.Items[idx]
	kind := media.ClassifyMedia(item.Media)

	s.Index = idx
	s.Finished = false
	s.Elapsed = 0
	s.Progress = 0
	s.Duration = media.EffectiveDuration(item.Duration, kind)
	e.kind = kind
	e.accum = 0
	e.mediaPos = 0
	e.mediaDur = 0
	e.errorUntil = time.Time{}
	e.readyAt = time.Time{}
	e.mountGen++

	req := &mountRequest{gen: e.mountGen, index: idx, item: item, kind: kind}

	if item.Media == nil || item.Media.URL == "" {
		req.configErr = NewPlaybackError(ErrorTypeConfiguration, "playlist item has no playable URL", nil)
		s.ErrorCount++
		s.State = StateError
		e.errorUntil = now.Add(e.cfg.ErrorGrace)
		return req
	}

	s.State = StateLoading
	if kind == media.KindSlides {
		e.readyAt = now.Add(e.cfg.SlidesReadyDelay)
	}
	return req
}

// completeMount performs the renderer side of a prepared mount: tear down
// the previous element, announce the item change, then mount (or report the
// configuration error). Completions are serialized under mountMu, and a
// request superseded by a newer advance is dropped so the renderer never
// lands on an older item than the session points at.
func (e *Engine) completeMount(req *mountRequest) {
	e.mountMu.Lock()
	defer e.mountMu.Unlock()

	e.mu.RLock()
	current := e.started && req.gen == e.mountGen
	itemCb := e.callbacks.OnItemChanged
	errCb := e.callbacks.OnError
	e.mu.RUnlock()
	if !current {
		return
	}

	e.renderer.Unmount()

	if itemCb != nil {
		itemCb(req.index, req.item)
	}

	if req.configErr != nil {
		logger.Log.Warn().
			Err(req.configErr).
			Int("index", req.index).
			Msg("Skipping unplayable item after grace period")
		if errCb != nil {
			errCb(req.configErr)
		}
		return
	}

	e.renderer.Mount(req.item, req.kind)
}

// runPollLoop polls the playlist source for reassignment at a fixed
// interval, starting with an immediate fetch.
func (e *Engine) runPollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	e.pollOnce()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.pollOnce()
		}
	}
}

// pollOnce triggers one playlist fetch unless one is still in flight. The
// fetch runs in its own goroutine so a slow or hung request never stalls
// the poll or tick loops.
func (e *Engine) pollOnce() {
	if !e.fetchInFlight.CompareAndSwap(false, true) {
		logger.Log.Debug().Msg("Playlist fetch already in flight, skipping poll tick")
		return
	}

	e.mu.RLock()
	var deviceID string
	if e.session != nil {
		deviceID = e.session.DeviceID
	}
	e.mu.RUnlock()
	if deviceID == "" {
		e.fetchInFlight.Store(false)
		return
	}

	go func() {
		defer e.fetchInFlight.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
		defer cancel()

		playlist, err := e.source.Fetch(ctx, deviceID)
		if err != nil {
			// Network errors are retried on the next poll tick and never
			// surface as playback errors.
			logger.Log.Warn().
				Err(err).
				Str("device_id", deviceID).
				Msg("Playlist fetch failed, will retry on next poll")
			return
		}
		e.applyAssignment(playlist)
	}()
}

// applyAssignment reconciles a fetched playlist with the current snapshot.
func (e *Engine) applyAssignment(playlist *models.Playlist) {
	now := time.Now()
	e.mu.Lock()
	if !e.started || e.session == nil {
		e.mu.Unlock()
		return
	}
	s := e.session

	if SamePlaylist(s.Playlist, playlist) {
		if playlist != nil {
			e.hotApplyLocked(playlist)
			e.mu.Unlock()
			return
		}
		// Unassigned and already idle: nothing to reconcile. Otherwise fall
		// through so a lingering non-idle state gets reset below.
		if s.State == StateIdle {
			e.mu.Unlock()
			return
		}
	}

	if playlist != nil {
		sortItems(playlist)
	}

	// Reassignment: replace the snapshot, reset to the first item, reset
	// the error counter, preserve the play/pause flag.
	s.Playlist = playlist
	s.ErrorCount = 0
	e.errorUntil = time.Time{}
	e.readyAt = time.Time{}

	if playlist == nil || len(playlist.Items) == 0 {
		wasMounted := s.Index >= 0 || s.State != StateIdle
		s.Index = -1
		s.State = StateIdle
		s.Finished = false
		s.Elapsed = 0
		s.Duration = 0
		s.Progress = 0
		e.order = nil
		e.orderPos = 0
		e.mountGen++
		cb := e.callbacks.OnItemChanged
		e.mu.Unlock()

		if wasMounted {
			e.mountMu.Lock()
			e.renderer.Unmount()
			e.mountMu.Unlock()
			if cb != nil {
				cb(-1, nil)
			}
		}
		logger.Log.Info().
			Str("device_id", s.DeviceID).
			Bool("assigned", playlist != nil).
			Msg("No playable content, engine idle")
		return
	}

	e.rebuildOrderLocked(playlist)
	e.orderPos = 0
	req := e.prepareMountLocked(now)
	e.mu.Unlock()

	logger.Log.Info().
		Str("device_id", s.DeviceID).
		Str("playlist_id", playlist.ID.String()).
		Int("items", len(playlist.Items)).
		Bool("loop", playlist.LoopEnabled).
		Bool("shuffle", playlist.Shuffle).
		Msg("Playlist assignment applied")

	e.completeMount(req)
}

// hotApplyLocked refreshes a same-identity snapshot in place: behavior
// flags and duration overrides take effect without resetting the playback
// position.
func (e *Engine) hotApplyLocked(playlist *models.Playlist) {
	sortItems(playlist)
	e.session.Playlist = playlist
	if item := e.session.CurrentItem(); item != nil && e.kind.Timed() {
		e.session.Duration = media.EffectiveDuration(item.Duration, e.kind)
	}
}

// rebuildOrderLocked computes the traversal order for a fresh snapshot:
// position order, or a full-pass permutation when shuffle is on.
func (e *Engine) rebuildOrderLocked(playlist *models.Playlist) {
	e.order = make([]int, len(playlist.Items))
	for i := range e.order {
		e.order[i] = i
	}
	if playlist.Shuffle {
		e.reshuffleLocked()
	}
}

func (e *Engine) reshuffleLocked() {
	e.rng.Shuffle(len(e.order), func(i, j int) {
		e.order[i], e.order[j] = e.order[j], e.order[i]
	})
}

// runHeartbeatLoop reports liveness at a fixed interval, with one
// immediate send on connect.
func (e *Engine) runHeartbeatLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	e.sendHeartbeat()

	ticker := time.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.sendHeartbeat()
		}
	}
}

func (e *Engine) sendHeartbeat() {
	e.mu.RLock()
	if e.session == nil {
		e.mu.RUnlock()
		return
	}
	s := e.session
	deviceID := s.DeviceID
	status := Status{
		Status:   string(s.State),
		Progress: s.Progress,
		Metrics: Metrics{
			ErrorCount:    s.ErrorCount,
			UptimeSeconds: int64(time.Since(s.ConnectedAt).Seconds()),
		},
	}
	if item := s.CurrentItem(); item != nil {
		status.CurrentItem = item.ID.String()
	}
	e.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RequestTimeout)
	defer cancel()

	err := e.reporter.Send(ctx, deviceID, status)

	e.mu.Lock()
	if e.session != nil {
		if err != nil {
			e.session.Connected = false
		} else {
			e.session.Connected = true
			e.session.LastHeartbeatAt = time.Now().UTC()
		}
	}
	e.mu.Unlock()

	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("device_id", deviceID).
			Msg("Heartbeat failed, playback unaffected")
	}
}

// sortItems orders playlist items by position so slice order is traversal
// order.
func sortItems(playlist *models.Playlist) {
	sort.SliceStable(playlist.Items, func(i, j int) bool {
		return playlist.Items[i].Position < playlist.Items[j].Position
	})
}

func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
