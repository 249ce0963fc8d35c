package input

import (
	"context"
	"fmt"
	"sync/atomic"
)

// ============================================================================
// Event Types
// ============================================================================
// Events flow one way: decoders emit into a Sink, the foreground loop drains it.
// The enum is a plain byte so emission never allocates.
// ============================================================================

// Event is a decoded input event.
type Event uint8

const (
	EventNone Event = iota
	EventClockwise
	EventCounterClockwise
	EventPress
	EventRelease
	EventLongPress
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventClockwise:
		return "clockwise"
	case EventCounterClockwise:
		return "counterclockwise"
	case EventPress:
		return "press"
	case EventRelease:
		return "release"
	case EventLongPress:
		return "long_press"
	default:
		return fmt.Sprintf("Event(%d)", uint8(e))
	}
}

// Sink receives decoded events. Emit may be called from any goroutine and must not block.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// ============================================================================
// Queue
// ============================================================================

// DefaultQueueSize is the queue capacity used when none is configured.
const DefaultQueueSize = 32

// Queue is a bounded multi-producer, single-consumer event queue.
//
// Emit never blocks: when the queue is full the event is dropped and counted.
// Next blocks until an event arrives or ctx is done.
type Queue struct {
	ch      chan Event
	dropped atomic.Uint32
}

// NewQueue creates a queue with the given capacity. A non-positive size selects
// DefaultQueueSize.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Event, size)}
}

// Emit enqueues ev without blocking.
func (q *Queue) Emit(ev Event) {
	select {
	case q.ch <- ev:
	default:
		q.dropped.Add(1)
	}
}

// Next returns the oldest queued event, blocking until one is available.
func (q *Queue) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return EventNone, ctx.Err()
	case ev := <-q.ch:
		return ev, nil
	}
}

// TryNext returns the oldest queued event without blocking.
func (q *Queue) TryNext() (Event, bool) {
	select {
	case ev := <-q.ch:
		return ev, true
	default:
		return EventNone, false
	}
}

// Events exposes the receive side for select loops.
func (q *Queue) Events() <-chan Event { return q.ch }

// Len reports the number of queued events.
func (q *Queue) Len() int { return len(q.ch) }

// Dropped reports how many events were discarded because the queue was full.
func (q *Queue) Dropped() uint32 { return q.dropped.Load() }
