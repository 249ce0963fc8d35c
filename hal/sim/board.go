// Package sim provides a deterministic simulated board: pin levels that raise
// edge notifications and a manual clock. It backs the interactive simulator and
// end-to-end tests.
package sim

import (
	"sort"
	"sync"
	"time"

	"rotarymenu/input"
)

// Board implements input.Hardware and input.Scheduler. Time only moves when
// Advance is called; callbacks run on the caller's goroutine.
type Board struct {
	mu     sync.Mutex
	levels map[input.Pin]bool
	masks  map[input.Pin]input.Edge
	fns    map[input.Pin]input.EdgeFunc

	now    time.Duration
	seq    uint64
	alarms []*alarm
}

var (
	_ input.Hardware  = (*Board)(nil)
	_ input.Scheduler = (*Board)(nil)
)

// NewBoard creates a board with every pin low.
func NewBoard() *Board {
	return &Board{
		levels: make(map[input.Pin]bool),
		masks:  make(map[input.Pin]input.Edge),
		fns:    make(map[input.Pin]input.EdgeFunc),
	}
}

// EnableEdge implements input.Hardware.
func (b *Board) EnableEdge(pin input.Pin, edge input.Edge, fn input.EdgeFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.masks[pin] |= edge
	b.fns[pin] = fn
}

// DisableEdge implements input.Hardware.
func (b *Board) DisableEdge(pin input.Pin, edge input.Edge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.masks[pin] &^= edge
}

// ReadLevel implements input.Hardware.
func (b *Board) ReadLevel(pin input.Pin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[pin]
}

// Mask returns the enabled edges of pin.
func (b *Board) Mask(pin input.Pin) input.Edge {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.masks[pin]
}

// Init sets a level without raising an edge. Use it for rest levels before the
// pins are registered.
func (b *Board) Init(pin input.Pin, level bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[pin] = level
}

// Set drives pin to level. A change raises the matching edge if it is enabled.
func (b *Board) Set(pin input.Pin, level bool) {
	b.mu.Lock()
	old := b.levels[pin]
	b.levels[pin] = level
	mask := b.masks[pin]
	fn := b.fns[pin]
	b.mu.Unlock()

	if old == level || fn == nil {
		return
	}
	edge := input.EdgeFalling
	if level {
		edge = input.EdgeRising
	}
	if mask&edge != 0 {
		fn(pin, edge)
	}
}

// ============================================================================
// Clock
// ============================================================================

type alarm struct {
	b        *Board
	seq      uint64
	due      time.Duration
	interval time.Duration
	once     func()
	repeat   func() bool
	canceled bool
}

func (a *alarm) Cancel() {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()
	a.canceled = true
	a.b.removeLocked(a)
}

// ScheduleOnce implements input.Scheduler.
func (b *Board) ScheduleOnce(delay time.Duration, fn func()) input.Alarm {
	return b.add(&alarm{due: delay, once: fn})
}

// ScheduleRepeating implements input.Scheduler.
func (b *Board) ScheduleRepeating(interval time.Duration, fn func() bool) input.Alarm {
	return b.add(&alarm{due: interval, interval: interval, repeat: fn})
}

func (b *Board) add(a *alarm) *alarm {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	a.b = b
	a.seq = b.seq
	a.due += b.now
	b.alarms = append(b.alarms, a)
	return a
}

func (b *Board) removeLocked(a *alarm) {
	for i, x := range b.alarms {
		if x == a {
			b.alarms = append(b.alarms[:i], b.alarms[i+1:]...)
			return
		}
	}
}

// Now returns the simulated time since the board was created.
func (b *Board) Now() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

// Pending returns the number of armed alarms.
func (b *Board) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.alarms)
}

// Advance moves the clock forward by d, firing every alarm that falls due in
// order of due time, then scheduling order.
func (b *Board) Advance(d time.Duration) {
	b.mu.Lock()
	target := b.now + d
	b.mu.Unlock()

	for {
		b.mu.Lock()
		sort.SliceStable(b.alarms, func(i, j int) bool {
			if b.alarms[i].due != b.alarms[j].due {
				return b.alarms[i].due < b.alarms[j].due
			}
			return b.alarms[i].seq < b.alarms[j].seq
		})
		if len(b.alarms) == 0 || b.alarms[0].due > target {
			b.now = target
			b.mu.Unlock()
			return
		}
		a := b.alarms[0]
		b.now = a.due
		if a.once != nil {
			b.removeLocked(a)
		}
		b.mu.Unlock()

		if a.once != nil {
			a.once()
			continue
		}

		more := a.repeat()
		b.mu.Lock()
		if more && !a.canceled {
			a.due += a.interval
		} else {
			b.removeLocked(a)
		}
		b.mu.Unlock()
	}
}
