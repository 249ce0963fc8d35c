package input

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrPinInUse is returned when a pin is registered twice.
var ErrPinInUse = errors.New("pin already registered")

// Handler is the closed set of input handlers the Router dispatches to:
// EncoderPhase and ButtonInput.
type Handler interface {
	handlerKind() string
}

// EncoderPhase routes edges on one phase pin of an encoder.
type EncoderPhase struct {
	Encoder *Encoder
}

func (EncoderPhase) handlerKind() string { return "encoder_phase" }

// ButtonInput routes edges on a button pin.
type ButtonInput struct {
	Button *Button
}

func (ButtonInput) handlerKind() string { return "button" }

type routeEntry struct {
	handler Handler
	enabled bool
}

// Router is the single entry point for raw edge notifications. It maps a pin to
// the handler registered for it and dispatches only while that handler is enabled.
//
// The router does not own handler instances; Rotary does. Unregister removes the
// entry, after which late notifications for the pin are dropped.
type Router struct {
	hw     Hardware
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Pin]*routeEntry
	retired  map[Pin]struct{}
}

// NewRouter creates a router bound to hw.
func NewRouter(hw Hardware, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		hw:       hw,
		logger:   logger,
		handlers: make(map[Pin]*routeEntry),
		retired:  make(map[Pin]struct{}),
	}
}

// Register installs h for pin and enables its edge notifications.
func (r *Router) Register(pin Pin, h Handler) error {
	switch h := h.(type) {
	case EncoderPhase:
		if h.Encoder == nil {
			return fmt.Errorf("register pin %d: nil encoder", pin)
		}
	case ButtonInput:
		if h.Button == nil {
			return fmt.Errorf("register pin %d: nil button", pin)
		}
		if h.Button.Pin() != pin {
			return fmt.Errorf("register pin %d: button is bound to pin %d", pin, h.Button.Pin())
		}
	default:
		return fmt.Errorf("register pin %d: unsupported handler %T", pin, h)
	}

	r.mu.Lock()
	if _, ok := r.handlers[pin]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrPinInUse, pin)
	}
	r.handlers[pin] = &routeEntry{handler: h, enabled: true}
	delete(r.retired, pin)
	r.mu.Unlock()

	switch h := h.(type) {
	case EncoderPhase:
		r.hw.EnableEdge(pin, EdgeBoth, r.Dispatch)
	case ButtonInput:
		h.Button.attach(r.Dispatch)
	}

	r.logger.Debug("input handler registered", "pin", pin, "kind", h.handlerKind())
	return nil
}

// Unregister masks the pin and removes its handler. Unknown pins are ignored.
func (r *Router) Unregister(pin Pin) {
	r.mu.Lock()
	_, ok := r.handlers[pin]
	if ok {
		delete(r.handlers, pin)
		r.retired[pin] = struct{}{}
	}
	r.mu.Unlock()

	if ok {
		r.hw.DisableEdge(pin, EdgeBoth)
		r.logger.Debug("input handler unregistered", "pin", pin)
	}
}

// SetEnabled gates dispatch for pin without touching the hardware mask.
func (r *Router) SetEnabled(pin Pin, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.handlers[pin]; ok {
		e.enabled = enabled
	}
}

// Registered reports whether pin has a handler.
func (r *Router) Registered(pin Pin) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[pin]
	return ok
}

// Dispatch delivers a raw edge notification. It is the EdgeFunc handed to the
// hardware layer.
//
// Edges on a pin that was never registered indicate broken wiring and panic.
func (r *Router) Dispatch(pin Pin, edge Edge) {
	r.mu.RLock()
	e, ok := r.handlers[pin]
	var (
		h       Handler
		enabled bool
	)
	if ok {
		h, enabled = e.handler, e.enabled
	}
	_, retired := r.retired[pin]
	r.mu.RUnlock()

	if !ok {
		if retired {
			return
		}
		panic(fmt.Sprintf("input: edge on unregistered pin %d", pin))
	}
	if !enabled {
		return
	}

	switch h := h.(type) {
	case EncoderPhase:
		h.Encoder.Triggered()
	case ButtonInput:
		h.Button.Triggered(edge)
	}
}
