package menu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rotarymenu/input"
)

const (
	DefaultFlashCount    = 7
	DefaultFlashInterval = 75 * time.Millisecond
)

// State is the controller state.
type State uint8

const (
	// Idle accepts rotation and presses.
	Idle State = iota
	// EnterHeld shows the selected entry engaged while the button is down.
	// Rotation is ignored.
	EnterHeld
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case EnterHeld:
		return "enter_held"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// EventSource supplies input events to a running menu. *input.Queue is one.
type EventSource interface {
	Next(ctx context.Context) (input.Event, error)
}

// Options tune a menu. Zero values select defaults.
type Options struct {
	Alignment     Alignment
	FlashCount    int
	FlashInterval time.Duration

	// OnLongPress runs on a long press regardless of state.
	OnLongPress Action

	Logger *slog.Logger

	// Sleep paces the activation flash. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

func (o Options) withDefaults() Options {
	if o.FlashCount <= 0 {
		o.FlashCount = DefaultFlashCount
	}
	if o.FlashInterval <= 0 {
		o.FlashInterval = DefaultFlashInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// Menu is the controller: it turns input events into model changes and row
// redraws. Handle, Draw and Run belong to one foreground goroutine; Close may
// be called from anywhere.
type Menu struct {
	name   string
	model  *Model
	r      *Renderer
	opts   Options
	logger *slog.Logger

	state State

	mu      sync.Mutex
	closing bool
	cancel  context.CancelFunc
}

// New creates a menu drawn through r.
func New(name string, r *Renderer, opts Options, entries ...Entry) (*Menu, error) {
	opts = opts.withDefaults()
	g := r.Geometry()
	model, err := NewModel(g.Columns(), g.Rows(), opts.Alignment, entries...)
	if err != nil {
		return nil, fmt.Errorf("menu %q: %w", name, err)
	}
	return &Menu{
		name:   name,
		model:  model,
		r:      r,
		opts:   opts,
		logger: opts.Logger.With("menu", name),
	}, nil
}

// Add appends entries to the menu.
func (m *Menu) Add(entries ...Entry) error {
	if err := m.model.Add(entries...); err != nil {
		return fmt.Errorf("menu %q: %w", m.name, err)
	}
	return nil
}

// Name returns the menu name.
func (m *Menu) Name() string { return m.name }

// Model exposes the entry model.
func (m *Menu) Model() *Model { return m.model }

// State returns the controller state.
func (m *Menu) State() State { return m.state }

// Draw writes every stale row and flushes if anything was written. It returns
// the number of rows written.
func (m *Menu) Draw() int {
	changes := m.model.Changes()
	for _, c := range changes {
		m.r.Row(c.Text, c.Row, c.Inverted)
	}
	if len(changes) > 0 {
		m.r.Flush()
	}
	return len(changes)
}

// Handle applies one input event.
func (m *Menu) Handle(ev input.Event) {
	switch ev {
	case input.EventClockwise:
		if m.state == Idle && m.model.Next() {
			m.Draw()
		}

	case input.EventCounterClockwise:
		if m.state == Idle && m.model.Prev() {
			m.Draw()
		}

	case input.EventPress:
		if m.state != Idle {
			return
		}
		m.state = EnterHeld
		row := m.model.SelectedRow()
		m.r.Row(m.model.SelectedText(), row, false)
		m.r.Highlight(row)
		m.r.Flush()

	case input.EventRelease:
		if m.state != EnterHeld {
			return
		}
		m.state = Idle
		m.flash()
		m.activate()

	case input.EventLongPress:
		// The release that ends the hold is still an ordinary release.
		if m.opts.OnLongPress != nil && m.opts.OnLongPress() == Close {
			m.Close()
		}

	default:
		m.logger.Debug("ignoring event", "event", ev)
	}
}

func (m *Menu) flash() {
	row := m.model.SelectedRow()
	text := m.model.SelectedText()
	for i := 0; i < m.opts.FlashCount; i++ {
		m.r.Row(text, row, i%2 == 0)
		m.r.Flush()
		m.opts.Sleep(m.opts.FlashInterval)
	}
	m.r.Row(text, row, true)
	m.r.Flush()
}

func (m *Menu) activate() {
	switch e := m.model.Selected().(type) {
	case *Button:
		m.logger.Debug("activating entry", "entry", e.Text())
		if e.Activate() == Close {
			m.Close()
		}
	case *Setting:
		v := e.Cycle()
		m.logger.Debug("setting changed", "entry", e.label, "value", v)
		m.model.Refresh(m.model.Selection())
		m.Draw()
	default:
		panic(fmt.Sprintf("menu %q: activated non-selectable %s entry", m.name, e.entryKind()))
	}
}

// Run shows the menu and handles events from src until the menu closes, which
// returns nil, or ctx ends, which returns its error.
func (m *Menu) Run(ctx context.Context, src EventSource) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.closing {
		// Closed before it was shown.
		m.closing = false
		m.mu.Unlock()
		return nil
	}
	m.cancel = cancel
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.closing = false
		m.cancel = nil
		m.mu.Unlock()
	}()

	m.state = Idle
	m.model.MarkAllDirty()
	m.Draw()

	for !m.isClosing() {
		ev, err := src.Next(ctx)
		if err != nil {
			if m.isClosing() {
				return nil
			}
			return err
		}
		m.Handle(ev)
	}
	return nil
}

// Close ends the current Run. A Close with no Run in progress makes the next
// Run return nil without showing the menu.
func (m *Menu) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closing = true
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Menu) isClosing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closing
}
