//go:build !tinygo

package display

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ============================================================================
// Mirror fan-out
// ============================================================================
//
// Flushes publish one encoded frame to the hub; Run copies it into every
// viewer's outbound queue. A viewer whose queue is full is dropped rather than
// allowed to hold up the menu goroutine.
//
// ============================================================================

const (
	viewerWriteWait  = 5 * time.Second
	viewerPongWait   = 30 * time.Second
	viewerPingPeriod = 20 * time.Second

	defaultViewerQueue  = 16
	defaultPublishQueue = 64
)

// Hub tracks connected viewers and fans frames out to them.
type Hub struct {
	logger    *slog.Logger
	queueSize int
	frames    chan []byte

	mu      sync.Mutex
	viewers map[*viewer]struct{}
	stopped bool
}

// NewHub constructs a hub. Call Run to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SendBuf <= 0 {
		cfg.SendBuf = defaultViewerQueue
	}
	if cfg.BroadcastBuf <= 0 {
		cfg.BroadcastBuf = defaultPublishQueue
	}
	return &Hub{
		logger:    logger,
		queueSize: cfg.SendBuf,
		frames:    make(chan []byte, cfg.BroadcastBuf),
		viewers:   make(map[*viewer]struct{}),
	}
}

// Run fans published frames out until ctx is canceled, then disconnects every
// viewer.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Debug("mirror hub running")
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case frame := <-h.frames:
			h.fanOut(frame)
		}
	}
}

func (h *Hub) fanOut(frame []byte) {
	var full []*viewer
	h.mu.Lock()
	for v := range h.viewers {
		select {
		case v.out <- frame:
		default:
			full = append(full, v)
		}
	}
	h.mu.Unlock()

	for _, v := range full {
		h.leave(v, "queue_full")
	}
}

// BroadcastBytes publishes an encoded frame without blocking. The frame is
// dropped when the publish queue is full.
func (h *Hub) BroadcastBytes(frame []byte) {
	select {
	case h.frames <- frame:
	default:
		h.logger.Warn("mirror publish queue full, dropping frame", "bytes", len(frame))
	}
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// join adds v. It reports false once the hub has shut down.
func (h *Hub) join(v *viewer) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false
	}
	h.viewers[v] = struct{}{}
	n := len(h.viewers)
	h.mu.Unlock()
	h.logger.Info("mirror viewer connected", "remote_addr", v.addr, "viewers", n)
	return true
}

// leave removes v and ends its connection. Repeated calls are no-ops.
func (h *Hub) leave(v *viewer, reason string) {
	h.mu.Lock()
	_, ok := h.viewers[v]
	delete(h.viewers, v)
	n := len(h.viewers)
	h.mu.Unlock()
	if !ok {
		return
	}
	v.hangUp()
	h.logger.Info("mirror viewer disconnected", "remote_addr", v.addr, "reason", reason, "viewers", n)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	h.stopped = true
	gone := make([]*viewer, 0, len(h.viewers))
	for v := range h.viewers {
		gone = append(gone, v)
	}
	h.viewers = make(map[*viewer]struct{})
	h.mu.Unlock()

	for _, v := range gone {
		v.hangUp()
	}
	h.logger.Debug("mirror hub stopped", "disconnected", len(gone))
}

// ============================================================================
// Viewer connection
// ============================================================================

// viewer is one websocket connection. conn may be nil in tests.
type viewer struct {
	conn   *websocket.Conn
	addr   string
	out    chan []byte
	logger *slog.Logger
	once   sync.Once
}

func newViewer(h *Hub, conn *websocket.Conn, addr string) *viewer {
	return &viewer{
		conn:   conn,
		addr:   addr,
		out:    make(chan []byte, h.queueSize),
		logger: h.logger,
	}
}

// hangUp closes the outbound queue, which makes the writer send a close frame,
// and the connection itself.
func (v *viewer) hangUp() {
	v.once.Do(func() {
		close(v.out)
		if v.conn != nil {
			_ = v.conn.Close()
		}
	})
}

func (v *viewer) logEnd(side string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		v.logger.Debug("mirror viewer closed", "side", side, "remote_addr", v.addr, "code", ce.Code, "reason", ce.Text)
		return
	}
	v.logger.Debug("mirror viewer ended", "side", side, "remote_addr", v.addr, "error", err)
}

// writeFrames sends queued frames and keep-alive pings until the queue closes
// or a write fails.
func (v *viewer) writeFrames() {
	ping := time.NewTicker(viewerPingPeriod)
	defer ping.Stop()

	for {
		var err error
		select {
		case frame, ok := <-v.out:
			_ = v.conn.SetWriteDeadline(time.Now().Add(viewerWriteWait))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			err = v.conn.WriteMessage(websocket.TextMessage, frame)
		case <-ping.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(viewerWriteWait))
			err = v.conn.WriteMessage(websocket.PingMessage, nil)
		}
		if err != nil {
			v.logEnd("write", err)
			return
		}
	}
}

// readUntilGone discards anything the viewer sends, which keeps pong handling
// alive, and leaves the hub when the connection fails.
func (v *viewer) readUntilGone(h *Hub) {
	_ = v.conn.SetReadDeadline(time.Now().Add(viewerPongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(viewerPongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			v.logEnd("read", err)
			h.leave(v, "read_error")
			return
		}
	}
}
