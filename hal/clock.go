// Package hal holds hardware-layer pieces shared by the concrete backends.
package hal

import (
	"sync"
	"time"

	"rotarymenu/input"
)

// Clock implements input.Scheduler on top of the runtime timers. One-shot alarms
// use time.AfterFunc; repeating alarms run a ticker goroutine each.
type Clock struct{}

var _ input.Scheduler = Clock{}

// ScheduleOnce runs fn once after delay on its own goroutine.
func (Clock) ScheduleOnce(delay time.Duration, fn func()) input.Alarm {
	return onceAlarm{t: time.AfterFunc(delay, fn)}
}

// ScheduleRepeating runs fn every interval until it returns false or the alarm is
// canceled. Calls are serialized on a single goroutine.
func (Clock) ScheduleRepeating(interval time.Duration, fn func() bool) input.Alarm {
	a := &repeatAlarm{stop: make(chan struct{})}
	go a.run(interval, fn)
	return a
}

type onceAlarm struct {
	t *time.Timer
}

func (a onceAlarm) Cancel() { a.t.Stop() }

type repeatAlarm struct {
	stop chan struct{}
	once sync.Once
}

func (a *repeatAlarm) run(interval time.Duration, fn func() bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			// Prefer a pending cancel over another tick.
			select {
			case <-a.stop:
				return
			default:
			}
			if !fn() {
				return
			}
		}
	}
}

func (a *repeatAlarm) Cancel() {
	a.once.Do(func() { close(a.stop) })
}
