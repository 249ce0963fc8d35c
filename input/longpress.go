package input

import (
	"sync"
	"time"
)

// DefaultLongPress is the hold duration that produces EventLongPress.
const DefaultLongPress = 1500 * time.Millisecond

// LongPress owns a Button and turns its transitions into press, release and
// long-press events.
//
// A press arms a one-shot alarm; a release before it fires cancels it. When the
// alarm fires EventLongPress is emitted once, and the release that follows is
// still reported. At most one alarm is outstanding.
type LongPress struct {
	duration time.Duration
	sched    Scheduler
	sink     Sink

	mu     sync.Mutex
	alarm  Alarm
	gen    uint32
	closed bool
}

// NewLongPress creates a long-press timer. A non-positive duration disables
// long-press detection; press and release are still emitted.
func NewLongPress(duration time.Duration, sched Scheduler, sink Sink) *LongPress {
	return &LongPress{duration: duration, sched: sched, sink: sink}
}

// ButtonDown implements ButtonOwner.
func (l *LongPress) ButtonDown() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.cancelLocked()
	if l.duration > 0 {
		gen := l.gen
		l.alarm = l.sched.ScheduleOnce(l.duration, func() { l.fire(gen) })
	}
	l.mu.Unlock()

	l.sink.Emit(EventPress)
}

// ButtonUp implements ButtonOwner.
func (l *LongPress) ButtonUp() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.cancelLocked()
	l.mu.Unlock()

	l.sink.Emit(EventRelease)
}

func (l *LongPress) fire(gen uint32) {
	l.mu.Lock()
	if l.closed || gen != l.gen || l.alarm == nil {
		// Canceled while the callback was already on its way.
		l.mu.Unlock()
		return
	}
	l.alarm = nil
	l.gen++
	l.mu.Unlock()

	l.sink.Emit(EventLongPress)
}

// cancelLocked drops the outstanding alarm and invalidates its generation.
func (l *LongPress) cancelLocked() {
	if l.alarm != nil {
		l.alarm.Cancel()
		l.alarm = nil
	}
	l.gen++
}

// Armed reports whether a long-press alarm is outstanding.
func (l *LongPress) Armed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.alarm != nil
}

// Close cancels any outstanding alarm. Button transitions that arrive after
// Close are dropped and never arm a new one.
func (l *LongPress) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.cancelLocked()
}
