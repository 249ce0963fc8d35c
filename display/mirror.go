//go:build !tinygo

package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// FrameMessage is the JSON text frame sent to mirror viewers.
//
//	{"type":"frame","ts":"...","data":{"columns":16,"rows":[{"text":"..."}]}}
//
// The first message after connecting has type "frame_init".
type FrameMessage struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data FrameData  `json:"data"`
}

// FrameData carries the full screen contents.
type FrameData struct {
	Columns int   `json:"columns"`
	Rows    []Row `json:"rows"`
}

// Mirror tees drawing to an optional inner display and publishes the whole
// screen to websocket viewers on every flush.
type Mirror struct {
	*Frame

	inner  Display
	hub    *Hub
	logger *slog.Logger
}

// NewMirror creates a mirror. inner may be nil for a headless mirror.
func NewMirror(inner Display, g Geometry, hub *Hub, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{Frame: NewFrame(g), inner: inner, hub: hub, logger: logger}
}

// WriteRow implements Display.
func (m *Mirror) WriteRow(text string, row int, inverted bool) error {
	if m.inner != nil {
		if err := m.inner.WriteRow(text, row, inverted); err != nil {
			return err
		}
	}
	return m.Frame.WriteRow(text, row, inverted)
}

// DrawRectangle implements Display.
func (m *Mirror) DrawRectangle(x1, y1, x2, y2 int, c Color, filled bool) error {
	if m.inner != nil {
		if err := m.inner.DrawRectangle(x1, y1, x2, y2, c, filled); err != nil {
			return err
		}
	}
	return m.Frame.DrawRectangle(x1, y1, x2, y2, c, filled)
}

// Flush implements Display. The inner display is flushed first; its error is
// returned after the frame has still been published.
func (m *Mirror) Flush() error {
	var innerErr error
	if m.inner != nil {
		innerErr = m.inner.Flush()
	}
	_ = m.Frame.Flush()

	msg, err := m.message("frame")
	if err != nil {
		m.logger.Warn("mirror frame encode failed", "error", err)
		return innerErr
	}
	m.hub.BroadcastBytes(msg)
	return innerErr
}

func (m *Mirror) message(kind string) ([]byte, error) {
	now := time.Now().UTC()
	return json.Marshal(FrameMessage{
		Type: kind,
		Ts:   &now,
		Data: FrameData{Columns: m.geom.Columns(), Rows: m.Snapshot()},
	})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Register installs the viewer endpoint on mux.
func (m *Mirror) Register(mux *http.ServeMux, path string) {
	mux.HandleFunc(path, m.handleViewer)
}

func (m *Mirror) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("mirror upgrade failed", "error", err)
		return
	}

	v := newViewer(m.hub, conn, r.RemoteAddr)

	// The current screen goes ahead of any broadcast frame.
	if msg, err := m.message("frame_init"); err == nil {
		v.out <- msg
	}
	if !m.hub.join(v) {
		v.hangUp()
		return
	}

	// Both loops outlive the request; the hub or a connection error ends them.
	go v.writeFrames()
	go v.readUntilGone(m.hub)
}

// ListenAndServe serves the viewer endpoint at path on addr until ctx is
// canceled, then shuts the server down gracefully.
func (m *Mirror) ListenAndServe(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	m.Register(mux, path)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// ErrServerClosed is the normal result of Shutdown.
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mirror server: %w", err)
			return
		}
		errCh <- nil
	}()
	m.logger.Info("mirror server listening", "addr", addr, "path", path)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mirror server shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
