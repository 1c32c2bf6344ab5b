package render

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/media"
	"github.com/kwrenn/signet/internal/models"
)

const previewWriteTimeout = 10 * time.Second

// PreviewMessage is one frame of the preview websocket protocol. The
// adapter pushes mount/unmount frames to the browser; the browser, which
// hosts the real media element, reports ready/ended/error/progress frames
// back.
type PreviewMessage struct {
	Type      string               `json:"type"`
	Kind      string               `json:"kind,omitempty"`
	Item      *models.PlaylistItem `json:"item,omitempty"`
	Position  float64              `json:"position,omitempty"`
	Duration  float64              `json:"duration,omitempty"`
	Message   string               `json:"message,omitempty"`
	Timestamp int64                `json:"timestamp"`
}

// Preview is the dashboard-preview renderer adapter. It mirrors the
// engine's mount state to connected preview sockets and feeds the
// browser-reported media events back into the engine.
type Preview struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	events  Events
	conns   map[*websocket.Conn]bool
	current *PreviewMessage
}

// NewPreview creates a websocket preview renderer
func NewPreview() *Preview {
	return &Preview{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Preview sockets bind to localhost; the dashboard origin
				// varies per deployment.
				return true
			},
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// Attach wires the renderer to the engine's event channel
func (p *Preview) Attach(events Events) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = events
}

// Mount implements player.Renderer
func (p *Preview) Mount(item *models.PlaylistItem, kind media.Kind) {
	msg := &PreviewMessage{
		Type:      "mount",
		Kind:      kind.String(),
		Item:      item,
		Timestamp: time.Now().Unix(),
	}
	p.mu.Lock()
	p.current = msg
	p.mu.Unlock()
	p.broadcast(msg)
}

// Unmount implements player.Renderer
func (p *Preview) Unmount() {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.mu.Unlock()
	p.broadcast(&PreviewMessage{Type: "unmount", Timestamp: time.Now().Unix()})
}

// ClientCount returns the number of connected preview clients
func (p *Preview) ClientCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Handler returns the gin handler that upgrades preview connections
func (p *Preview) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := p.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to upgrade connection"})
			return
		}
		p.serve(conn)
	}
}

// serve registers a preview client, replays the current mount state, and
// pumps browser-reported media events into the engine until the socket
// closes.
func (p *Preview) serve(conn *websocket.Conn) {
	defer conn.Close() // nolint:errcheck

	p.mu.Lock()
	p.conns[conn] = true
	if p.current != nil {
		p.send(conn, p.current)
	}
	events := p.events
	p.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg PreviewMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Log.Debug().Err(err).Msg("Ignoring malformed preview message")
			continue
		}
		if events == nil {
			continue
		}
		switch msg.Type {
		case "ready":
			events.MediaReady()
		case "ended":
			events.MediaEnded()
		case "error":
			events.MediaFailed(NewPreviewError(msg.Message))
		case "progress":
			events.MediaProgress(msg.Position, msg.Duration)
		}
	}

	p.mu.Lock()
	delete(p.conns, conn)
	p.mu.Unlock()
}

func (p *Preview) broadcast(msg *PreviewMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for conn := range p.conns {
		p.send(conn, msg)
	}
}

// send writes a single frame. Callers must hold p.mu so frames are never
// interleaved on one socket.
func (p *Preview) send(conn *websocket.Conn, msg *PreviewMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(previewWriteTimeout)) // nolint:errcheck
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		logger.Log.Debug().Err(err).Msg("Preview client write failed")
	}
}

// PreviewError wraps a browser-reported media failure
type PreviewError struct {
	Message string
}

// NewPreviewError creates a PreviewError with the given message
func NewPreviewError(message string) *PreviewError {
	if message == "" {
		message = "media element reported an error"
	}
	return &PreviewError{Message: message}
}

// Error implements the error interface
func (e *PreviewError) Error() string {
	return "preview: " + e.Message
}
