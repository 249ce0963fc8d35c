package hal

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_ScheduleOnce(t *testing.T) {
	fired := make(chan struct{})
	Clock{}.ScheduleOnce(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("one-shot alarm did not fire")
	}
}

func TestClock_ScheduleOnceCanceled(t *testing.T) {
	var fired atomic.Bool
	a := Clock{}.ScheduleOnce(20*time.Millisecond, func() { fired.Store(true) })
	a.Cancel()
	a.Cancel()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestClock_RepeatingStopsWhenCallbackDeclines(t *testing.T) {
	var n atomic.Int32
	done := make(chan struct{})
	Clock{}.ScheduleRepeating(time.Millisecond, func() bool {
		if n.Add(1) == 3 {
			close(done)
			return false
		}
		return true
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("repeating alarm did not run three times")
	}
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(3), n.Load())
}

func TestClock_RepeatingCanceled(t *testing.T) {
	var n atomic.Int32
	a := Clock{}.ScheduleRepeating(time.Millisecond, func() bool {
		n.Add(1)
		return true
	})
	time.Sleep(10 * time.Millisecond)
	a.Cancel()
	time.Sleep(5 * time.Millisecond)
	after := n.Load()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, n.Load())
}
