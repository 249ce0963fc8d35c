package sim

import (
	"time"

	"rotarymenu/input"
)

// Knob drives a simulated rotary encoder with push button on a Board.
type Knob struct {
	Board *Board
	Cfg   input.RotaryConfig
}

// NewKnob puts the encoder phases and the button at rest on board.
func NewKnob(board *Board, cfg input.RotaryConfig) *Knob {
	k := &Knob{Board: board, Cfg: cfg}
	board.Init(cfg.PinA, k.level(false))
	board.Init(cfg.PinB, k.level(false))
	board.Init(cfg.PinButton, true)
	return k
}

func (k *Knob) level(active bool) bool { return active != k.Cfg.ActiveLow }

func (k *Knob) phases(a, b bool) {
	k.Board.Set(k.Cfg.PinA, k.level(a))
	k.Board.Set(k.Cfg.PinB, k.level(b))
}

// Turn rotates by steps detents: positive is clockwise.
func (k *Knob) Turn(steps int) {
	for ; steps > 0; steps-- {
		k.phases(true, false)
		k.phases(true, true)
		k.phases(false, true)
		k.phases(false, false)
	}
	for ; steps < 0; steps++ {
		k.phases(false, true)
		k.phases(true, true)
		k.phases(true, false)
		k.phases(false, false)
	}
}

// Jiggle moves phase A off the detent and back without completing a step.
func (k *Knob) Jiggle() {
	k.phases(true, false)
	k.phases(false, false)
}

// Press pulls the button low.
func (k *Knob) Press() { k.Board.Set(k.Cfg.PinButton, false) }

// Release lets the button float high.
func (k *Knob) Release() { k.Board.Set(k.Cfg.PinButton, true) }

// Settle advances the clock long enough for a debounce sequence to commit.
func (k *Knob) Settle() {
	k.Board.Advance(time.Duration(k.Cfg.DebounceTicks+1) * k.pollInterval())
}

// Bounce chatters the contact a few times before leaving it pressed, then settles.
func (k *Knob) Bounce() {
	for i := 0; i < 3; i++ {
		k.Press()
		k.Board.Advance(k.pollInterval())
		k.Release()
		k.Board.Advance(k.pollInterval())
	}
	k.Press()
	k.Settle()
}

// Click presses, settles, releases and settles.
func (k *Knob) Click() { k.Hold(0) }

// Hold keeps the button down for d beyond the debounce time, then releases it.
func (k *Knob) Hold(d time.Duration) {
	k.Press()
	k.Settle()
	k.Board.Advance(d)
	k.Release()
	k.Settle()
}

func (k *Knob) pollInterval() time.Duration {
	if k.Cfg.PollInterval > 0 {
		return k.Cfg.PollInterval
	}
	return input.DefaultPollInterval
}
