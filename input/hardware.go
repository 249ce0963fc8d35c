// Package input turns raw pin edges from a quadrature rotary encoder and its push
// button into debounced semantic events.
//
// Data flow:
//
//	hardware edge / timer callbacks -> Router -> Encoder | Button -> LongPress -> Sink
//
// Everything below the Sink may run on interrupt-like goroutines owned by the
// hardware backend or the Scheduler; the Sink (normally a Queue) is the hand-off
// point to the single foreground consumer.
package input

import (
	"fmt"
	"time"
)

// Pin identifies a physical input line. For Linux backends this is the line offset
// on the GPIO chip; on microcontrollers it is the machine pin number.
type Pin uint16

// Edge is a set of signal transitions.
type Edge uint8

const (
	EdgeFalling Edge = 1 << iota
	EdgeRising

	EdgeNone Edge = 0
	EdgeBoth      = EdgeFalling | EdgeRising
)

func (e Edge) String() string {
	switch e {
	case EdgeNone:
		return "none"
	case EdgeFalling:
		return "falling"
	case EdgeRising:
		return "rising"
	case EdgeBoth:
		return "both"
	default:
		return fmt.Sprintf("Edge(%d)", uint8(e))
	}
}

// EdgeFunc receives edge notifications. The edge argument holds exactly one of
// EdgeFalling or EdgeRising.
type EdgeFunc func(pin Pin, edge Edge)

// Hardware is the pin side of the hardware collaborator.
//
// EnableEdge adds edge kinds to the notification mask of pin and installs fn as its
// callback; DisableEdge removes edge kinds from the mask. Notifications for a pin are
// delivered in arrival order. Implementations must not hold internal locks while
// calling fn, since handlers call back into DisableEdge/EnableEdge, and none of the
// three methods may invoke a callback synchronously.
type Hardware interface {
	EnableEdge(pin Pin, edge Edge, fn EdgeFunc)
	DisableEdge(pin Pin, edge Edge)
	ReadLevel(pin Pin) bool
}

// Scheduler is the timer side of the hardware collaborator.
//
// ScheduleRepeating calls fn every interval until fn returns false or the alarm
// is canceled. Neither method may run fn before returning.
type Scheduler interface {
	ScheduleOnce(delay time.Duration, fn func()) Alarm
	ScheduleRepeating(interval time.Duration, fn func() bool) Alarm
}

// Alarm is a cancelable scheduled callback. Cancel is idempotent. A callback that
// is already running when Cancel is called may still complete.
type Alarm interface {
	Cancel()
}
