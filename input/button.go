package input

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultDebounceTicks is the number of consecutive agreeing polls required
	// before a button transition is committed.
	DefaultDebounceTicks = 5

	// DefaultPollInterval is the debounce polling period.
	DefaultPollInterval = time.Millisecond
)

// ErrZeroThreshold is returned for a button configured without a debounce threshold.
var ErrZeroThreshold = errors.New("debounce threshold must be > 0")

// ButtonState is the debounced state of a push button.
type ButtonState uint8

const (
	ButtonNotPressed ButtonState = iota
	ButtonPressed
)

func (s ButtonState) String() string {
	switch s {
	case ButtonNotPressed:
		return "not_pressed"
	case ButtonPressed:
		return "pressed"
	default:
		return fmt.Sprintf("ButtonState(%d)", uint8(s))
	}
}

// ButtonOwner is notified of committed button transitions.
type ButtonOwner interface {
	ButtonDown()
	ButtonUp()
}

// ButtonConfig configures a debounced button. The button is active low: a falling
// edge means pressed.
type ButtonConfig struct {
	Pin          Pin
	Threshold    uint8
	PollInterval time.Duration
}

// Button debounces a push button.
//
// The first raw edge masks further edge notifications on the pin and starts a
// repeating poll. Each poll compares the live level with the tentative state; a
// disagreeing read adopts the live level and restarts the count, an agreeing read
// advances it. Once Threshold agreeing polls are seen the tentative state is
// committed, polling stops and the edge for the opposite transition is re-armed.
// The effective debounce time is Threshold x PollInterval.
type Button struct {
	cfg   ButtonConfig
	hw    Hardware
	sched Scheduler
	owner ButtonOwner

	mu        sync.Mutex
	dispatch  EdgeFunc
	state     ButtonState
	tentative ButtonState
	count     uint8
	poll      Alarm
	gen       uint32
	closed    bool
}

// NewButton creates a debounced button. It does not listen for edges until it is
// registered with a Router.
func NewButton(cfg ButtonConfig, hw Hardware, sched Scheduler, owner ButtonOwner) (*Button, error) {
	if cfg.Threshold == 0 {
		return nil, ErrZeroThreshold
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if hw == nil || sched == nil || owner == nil {
		return nil, errors.New("button: hardware, scheduler and owner are required")
	}
	return &Button{cfg: cfg, hw: hw, sched: sched, owner: owner}, nil
}

// attach samples the current level without reporting it and arms the edge that
// leaves that state.
func (b *Button) attach(dispatch EdgeFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dispatch = dispatch
	b.state = levelState(b.hw.ReadLevel(b.cfg.Pin))
	b.tentative = b.state
	b.hw.EnableEdge(b.cfg.Pin, b.armEdge(), dispatch)
}

// Triggered handles a raw edge on the button pin.
func (b *Button) Triggered(edge Edge) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.hw.DisableEdge(b.cfg.Pin, EdgeBoth)

	switch edge {
	case EdgeFalling:
		b.tentative = ButtonPressed
	case EdgeRising:
		b.tentative = ButtonNotPressed
	default:
		b.tentative = levelState(b.hw.ReadLevel(b.cfg.Pin))
	}
	b.count = 0

	if b.poll == nil {
		b.gen++
		gen := b.gen
		b.poll = b.sched.ScheduleRepeating(b.cfg.PollInterval, func() bool {
			return b.pollTick(gen)
		})
	}
}

// pollTick runs one debounce step and reports whether polling continues.
func (b *Button) pollTick(gen uint32) bool {
	b.mu.Lock()
	if b.closed || gen != b.gen {
		b.mu.Unlock()
		return false
	}

	live := levelState(b.hw.ReadLevel(b.cfg.Pin))
	if live != b.tentative {
		b.tentative = live
		b.count = 0
		b.mu.Unlock()
		return true
	}

	b.count++
	if b.count < b.cfg.Threshold {
		b.mu.Unlock()
		return true
	}

	b.count = 0
	b.poll = nil
	changed := b.tentative != b.state
	b.state = b.tentative
	state := b.state
	b.hw.EnableEdge(b.cfg.Pin, b.armEdge(), b.dispatch)
	b.mu.Unlock()

	if changed {
		if state == ButtonPressed {
			b.owner.ButtonDown()
		} else {
			b.owner.ButtonUp()
		}
	}
	return false
}

// armEdge returns the edge that leaves the committed state. Callers hold b.mu.
func (b *Button) armEdge() Edge {
	if b.state == ButtonPressed {
		return EdgeRising
	}
	return EdgeFalling
}

// State returns the last committed state.
func (b *Button) State() ButtonState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Polling reports whether a debounce sequence is in progress.
func (b *Button) Polling() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.poll != nil
}

// Pin returns the button pin.
func (b *Button) Pin() Pin { return b.cfg.Pin }

// Close stops polling and masks the pin. The button ignores edges afterwards.
func (b *Button) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.gen++
	if b.poll != nil {
		b.poll.Cancel()
		b.poll = nil
	}
	b.hw.DisableEdge(b.cfg.Pin, EdgeBoth)
}

func levelState(level bool) ButtonState {
	if level {
		return ButtonNotPressed
	}
	return ButtonPressed
}
