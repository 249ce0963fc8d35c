package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotarymenu/config"
	"rotarymenu/display"
	"rotarymenu/hal/sim"
	"rotarymenu/input"
	"rotarymenu/logging"
	"rotarymenu/menu"
)

type simRig struct {
	sh    *shell
	out   *bytes.Buffer
	frame *display.Frame
	nav   *menu.Navigator
}

func newSimRig(t *testing.T) *simRig {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Menu.FlashCount = 1
	cfg.Menu.FlashIntervalMS = 1
	logger := logging.Discard()

	rc := cfg.ToRotaryConfig()
	geom := cfg.ToGeometry()
	board := sim.NewBoard()
	knob := sim.NewKnob(board, rc)

	frame := display.NewFrame(geom)
	r, err := menu.NewRenderer(frame, geom, logger)
	require.NoError(t, err)
	nav, err := cfg.BuildNavigator(r, logger)
	require.NoError(t, err)

	queue := input.NewQueue(input.DefaultQueueSize)
	router := input.NewRouter(board, logger)
	rotary, err := input.NewRotary(rc, board, board, router, queue, logger)
	require.NoError(t, err)
	t.Cleanup(rotary.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = nav.Run(ctx, cfg.Menu.Root, queue)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	out := &bytes.Buffer{}
	return &simRig{
		sh:    &shell{out: out, knob: knob, nav: nav, queue: queue, frame: frame.Snapshot},
		out:   out,
		frame: frame,
		nav:   nav,
	}
}

func (r *simRig) selectedLine(row int) func() bool {
	return func() bool {
		lines := r.frame.Lines()
		return strings.HasPrefix(lines[row], ">")
	}
}

func TestShell_TurnMovesSelection(t *testing.T) {
	rig := newSimRig(t)

	require.Eventually(t, rig.selectedLine(1), time.Second, 5*time.Millisecond)

	assert.False(t, rig.sh.exec("cw 2"))
	require.Eventually(t, rig.selectedLine(3), time.Second, 5*time.Millisecond)
	assert.Contains(t, rig.frame.Lines()[3], "Three")

	rig.sh.exec("ccw")
	require.Eventually(t, rig.selectedLine(2), time.Second, 5*time.Millisecond)
}

func TestShell_ClickAndHoldNavigate(t *testing.T) {
	rig := newSimRig(t)
	require.Eventually(t, rig.selectedLine(1), time.Second, 5*time.Millisecond)

	rig.sh.exec("click")
	require.Eventually(t, func() bool { return rig.nav.Current() == "MENU 2" }, time.Second, 5*time.Millisecond)

	rig.sh.exec("hold 2000")
	require.Eventually(t, func() bool { return rig.nav.Current() == "MENU" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, rig.nav.Depth())
}

func TestShell_Errors(t *testing.T) {
	rig := newSimRig(t)

	rig.sh.exec("spin")
	assert.Contains(t, rig.out.String(), "Unknown command: spin")

	rig.out.Reset()
	rig.sh.exec("hold")
	assert.Contains(t, rig.out.String(), "Usage: hold <ms>")

	rig.out.Reset()
	rig.sh.exec("wait -5")
	assert.Contains(t, rig.out.String(), "Invalid duration")

	rig.out.Reset()
	rig.sh.exec("cw x")
	assert.Contains(t, rig.out.String(), "Invalid count")

	assert.False(t, rig.sh.exec("   "))
	assert.True(t, rig.sh.exec("quit"))
}

func TestShell_Status(t *testing.T) {
	rig := newSimRig(t)
	require.Eventually(t, rig.selectedLine(1), time.Second, 5*time.Millisecond)

	rig.sh.exec("wait 250")
	rig.sh.exec("status")
	assert.Contains(t, rig.out.String(), `menu="MENU"`)
	assert.Contains(t, rig.out.String(), "clock=250ms")
}
