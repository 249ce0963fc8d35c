package input

import (
	"sort"
	"sync"
	"time"
)

// fakeHardware is a test double for Hardware. Level changes made through set
// produce edge notifications when the pin's mask allows them.
type fakeHardware struct {
	mu     sync.Mutex
	levels map[Pin]bool
	masks  map[Pin]Edge
	fns    map[Pin]EdgeFunc

	enableCalls  int
	disableCalls int
}

func newFakeHardware() *fakeHardware {
	return &fakeHardware{
		levels: make(map[Pin]bool),
		masks:  make(map[Pin]Edge),
		fns:    make(map[Pin]EdgeFunc),
	}
}

func (h *fakeHardware) EnableEdge(pin Pin, edge Edge, fn EdgeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enableCalls++
	h.masks[pin] |= edge
	h.fns[pin] = fn
}

func (h *fakeHardware) DisableEdge(pin Pin, edge Edge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disableCalls++
	h.masks[pin] &^= edge
}

func (h *fakeHardware) ReadLevel(pin Pin) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.levels[pin]
}

// init sets a level without generating an edge.
func (h *fakeHardware) init(pin Pin, level bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.levels[pin] = level
}

// set changes a level and delivers the edge if it is enabled.
func (h *fakeHardware) set(pin Pin, level bool) {
	h.mu.Lock()
	old := h.levels[pin]
	h.levels[pin] = level
	mask := h.masks[pin]
	fn := h.fns[pin]
	h.mu.Unlock()

	if old == level || fn == nil {
		return
	}
	edge := EdgeFalling
	if level {
		edge = EdgeRising
	}
	if mask&edge != 0 {
		fn(pin, edge)
	}
}

func (h *fakeHardware) mask(pin Pin) Edge {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.masks[pin]
}

// fakeScheduler is a manual clock implementing Scheduler.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	alarms []*fakeAlarm
}

type fakeAlarm struct {
	s        *fakeScheduler
	seq      int
	due      time.Duration
	interval time.Duration
	once     func()
	repeat   func() bool
	canceled bool
}

func (a *fakeAlarm) Cancel() {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.canceled = true
	a.s.removeLocked(a)
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) ScheduleOnce(delay time.Duration, fn func()) Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	a := &fakeAlarm{s: s, seq: s.seq, due: s.now + delay, once: fn}
	s.alarms = append(s.alarms, a)
	return a
}

func (s *fakeScheduler) ScheduleRepeating(interval time.Duration, fn func() bool) Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	a := &fakeAlarm{s: s, seq: s.seq, due: s.now + interval, interval: interval, repeat: fn}
	s.alarms = append(s.alarms, a)
	return a
}

func (s *fakeScheduler) removeLocked(a *fakeAlarm) {
	for i, x := range s.alarms {
		if x == a {
			s.alarms = append(s.alarms[:i], s.alarms[i+1:]...)
			return
		}
	}
}

// advance moves the clock forward, firing due alarms in order.
func (s *fakeScheduler) advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.alarms, func(i, j int) bool {
			if s.alarms[i].due != s.alarms[j].due {
				return s.alarms[i].due < s.alarms[j].due
			}
			return s.alarms[i].seq < s.alarms[j].seq
		})
		if len(s.alarms) == 0 || s.alarms[0].due > target {
			s.now = target
			s.mu.Unlock()
			return
		}
		a := s.alarms[0]
		s.now = a.due
		if a.once != nil {
			s.removeLocked(a)
		}
		s.mu.Unlock()

		if a.once != nil {
			a.once()
			continue
		}
		more := a.repeat()
		s.mu.Lock()
		if more && !a.canceled {
			a.due += a.interval
		} else {
			s.removeLocked(a)
		}
		s.mu.Unlock()
	}
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alarms)
}

// recordSink collects emitted events.
type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordSink) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordSink) got() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recordSink) count(ev Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == ev {
			n++
		}
	}
	return n
}

// recordOwner counts button transitions.
type recordOwner struct {
	mu         sync.Mutex
	downs, ups int
}

func (o *recordOwner) ButtonDown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.downs++
}

func (o *recordOwner) ButtonUp() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ups++
}

func (o *recordOwner) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.downs, o.ups
}

func sameEvents(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
