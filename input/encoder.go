package input

import (
	"errors"
	"fmt"
	"sync"
)

// EncoderState is the quadrature decoder state. Only the low nibble selects the
// table row; the top bits carry the direction marker of the last transition.
type EncoderState uint8

const (
	EncoderStart EncoderState = iota
	EncoderCWFinal
	EncoderCWBegin
	EncoderCWNext
	EncoderCCWBegin
	EncoderCCWFinal
	EncoderCCWNext
)

const (
	dirCW    EncoderState = 0x10
	dirCCW   EncoderState = 0x20
	dirMask  EncoderState = 0x30
	rowMask  EncoderState = 0x0f
	numState              = 7
)

func (s EncoderState) String() string {
	switch s & rowMask {
	case EncoderStart:
		return "start"
	case EncoderCWFinal:
		return "cw_final"
	case EncoderCWBegin:
		return "cw_begin"
	case EncoderCWNext:
		return "cw_next"
	case EncoderCCWBegin:
		return "ccw_begin"
	case EncoderCCWFinal:
		return "ccw_final"
	case EncoderCCWNext:
		return "ccw_next"
	default:
		return fmt.Sprintf("EncoderState(%d)", uint8(s))
	}
}

// transitions is the full-step table indexed by [state][A<<1|B]. The rest
// position is 00 and a direction is only reported when both phases return to it:
//
//	clockwise:         00 -> 10 -> 11 -> 01 -> 00
//	counter-clockwise: 00 -> 01 -> 11 -> 10 -> 00
var transitions = [numState][4]EncoderState{
	EncoderStart:    {EncoderStart, EncoderCCWBegin, EncoderCWBegin, EncoderStart},
	EncoderCWFinal:  {EncoderStart | dirCW, EncoderCWFinal, EncoderStart, EncoderCWNext},
	EncoderCWBegin:  {EncoderStart, EncoderStart, EncoderCWBegin, EncoderCWNext},
	EncoderCWNext:   {EncoderStart, EncoderCWFinal, EncoderCWBegin, EncoderCWNext},
	EncoderCCWBegin: {EncoderStart, EncoderCCWBegin, EncoderStart, EncoderCCWNext},
	EncoderCCWFinal: {EncoderStart | dirCCW, EncoderStart, EncoderCCWFinal, EncoderCCWNext},
	EncoderCCWNext:  {EncoderStart, EncoderCCWBegin, EncoderCCWFinal, EncoderCCWNext},
}

// ErrSamePin is returned when both encoder phases are configured on one pin.
var ErrSamePin = errors.New("encoder phase pins must differ")

// EncoderConfig describes the two phase pins of a quadrature encoder.
type EncoderConfig struct {
	PinA Pin
	PinB Pin

	// ActiveLow inverts both phases, for encoders wired to pull-ups whose detent
	// rest position reads 11.
	ActiveLow bool
}

// Encoder is a full-step quadrature decoder. It has no timing dependency: every
// call to Triggered samples both phases and advances the table by one step.
type Encoder struct {
	cfg  EncoderConfig
	hw   Hardware
	sink Sink

	mu    sync.Mutex
	state EncoderState
}

// NewEncoder creates a decoder that samples phase levels through hw and emits
// EventClockwise / EventCounterClockwise to sink.
func NewEncoder(cfg EncoderConfig, hw Hardware, sink Sink) (*Encoder, error) {
	if cfg.PinA == cfg.PinB {
		return nil, fmt.Errorf("%w: %d", ErrSamePin, cfg.PinA)
	}
	if hw == nil {
		return nil, errors.New("encoder: hardware is nil")
	}
	if sink == nil {
		return nil, errors.New("encoder: sink is nil")
	}
	return &Encoder{cfg: cfg, hw: hw, sink: sink}, nil
}

// Triggered is called whenever either phase pin changes level.
func (e *Encoder) Triggered() {
	// Sample under the lock so concurrent notifications apply in sampling order.
	e.mu.Lock()
	e.state = transitions[e.state&rowMask][e.pinState()]
	dir := e.state & dirMask
	e.mu.Unlock()

	switch dir {
	case dirCW:
		e.sink.Emit(EventClockwise)
	case dirCCW:
		e.sink.Emit(EventCounterClockwise)
	}
}

func (e *Encoder) pinState() uint8 {
	var s uint8
	if e.hw.ReadLevel(e.cfg.PinA) {
		s |= 2
	}
	if e.hw.ReadLevel(e.cfg.PinB) {
		s |= 1
	}
	if e.cfg.ActiveLow {
		s ^= 3
	}
	return s
}

// State returns the current table state without the direction marker.
func (e *Encoder) State() EncoderState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state & rowMask
}

// Pins returns the phase pins.
func (e *Encoder) Pins() (a, b Pin) { return e.cfg.PinA, e.cfg.PinB }
