package sim

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotarymenu/input"
)

func newRig(t *testing.T, cfg input.RotaryConfig) (*Knob, *input.Queue, *input.Rotary) {
	t.Helper()
	board := NewBoard()
	knob := NewKnob(board, cfg)
	q := input.NewQueue(64)
	rot, err := input.NewRotary(cfg, board, board, input.NewRouter(board, slog.Default()), q, slog.Default())
	require.NoError(t, err)
	return knob, q, rot
}

func drain(q *input.Queue) []input.Event {
	var out []input.Event
	for {
		ev, ok := q.TryNext()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestBoard_EdgesFollowMask(t *testing.T) {
	b := NewBoard()
	var got []input.Edge
	b.EnableEdge(4, input.EdgeFalling, func(_ input.Pin, e input.Edge) { got = append(got, e) })

	b.Set(4, true) // rising, not enabled
	b.Set(4, false)
	b.Set(4, false) // no change
	b.DisableEdge(4, input.EdgeBoth)
	b.Set(4, true)
	b.Set(4, false)

	assert.Equal(t, []input.Edge{input.EdgeFalling}, got)
}

func TestBoard_AdvanceOrdersAlarms(t *testing.T) {
	b := NewBoard()
	var order []string
	b.ScheduleOnce(3*time.Millisecond, func() { order = append(order, "once-3") })
	n := 0
	b.ScheduleRepeating(time.Millisecond, func() bool {
		n++
		order = append(order, "tick")
		return n < 2
	})
	canceled := b.ScheduleOnce(2*time.Millisecond, func() { order = append(order, "canceled") })
	canceled.Cancel()

	b.Advance(5 * time.Millisecond)

	assert.Equal(t, []string{"tick", "tick", "once-3"}, order)
	assert.Equal(t, 5*time.Millisecond, b.Now())
	assert.Zero(t, b.Pending())
}

func TestKnob_TurnClickHold(t *testing.T) {
	knob, q, _ := newRig(t, input.DefaultRotaryConfig())

	knob.Turn(2)
	knob.Turn(-1)
	knob.Jiggle()
	knob.Click()
	knob.Hold(2 * time.Second)

	assert.Equal(t, []input.Event{
		input.EventClockwise, input.EventClockwise, input.EventCounterClockwise,
		input.EventPress, input.EventRelease,
		input.EventPress, input.EventLongPress, input.EventRelease,
	}, drain(q))
}

func TestKnob_BounceCommitsOnePress(t *testing.T) {
	knob, q, rot := newRig(t, input.DefaultRotaryConfig())

	knob.Bounce()
	assert.Equal(t, []input.Event{input.EventPress}, drain(q))
	assert.Equal(t, input.ButtonPressed, rot.Button().State())

	knob.Release()
	knob.Settle()
	assert.Equal(t, []input.Event{input.EventRelease}, drain(q))
}

func TestKnob_ActiveLowEncoder(t *testing.T) {
	cfg := input.DefaultRotaryConfig()
	cfg.ActiveLow = true
	knob, q, _ := newRig(t, cfg)

	require.True(t, knob.Board.ReadLevel(cfg.PinA), "active-low phases rest high")
	knob.Turn(1)
	knob.Turn(-1)

	assert.Equal(t, []input.Event{input.EventClockwise, input.EventCounterClockwise}, drain(q))
}
