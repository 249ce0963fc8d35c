//go:build tinygo

// Package mcu implements input.Hardware on microcontroller pins via TinyGo's
// machine package. Interrupt handlers only sample the pin and queue the edge;
// Run delivers edges to their callbacks on an ordinary goroutine.
package mcu

import (
	"context"
	"sync"

	"machine"

	"rotarymenu/input"
)

// DefaultEdgeBuffer is the number of edges that may wait between the interrupt
// handler and Run.
const DefaultEdgeBuffer = 64

type pinEdge struct {
	pin  input.Pin
	edge input.Edge
}

// Pins is a set of input pins configured with toggle interrupts.
type Pins struct {
	edges chan pinEdge

	mu      sync.Mutex
	pins    map[input.Pin]machine.Pin
	masks   map[input.Pin]input.Edge
	fns     map[input.Pin]input.EdgeFunc
	dropped uint32
}

var _ input.Hardware = (*Pins)(nil)

// New configures each pin as an input, with the internal pull-up when pullUp is
// set, and installs a toggle interrupt on it.
func New(pins []input.Pin, pullUp bool) (*Pins, error) {
	p := &Pins{
		edges: make(chan pinEdge, DefaultEdgeBuffer),
		pins:  make(map[input.Pin]machine.Pin, len(pins)),
		masks: make(map[input.Pin]input.Edge, len(pins)),
		fns:   make(map[input.Pin]input.EdgeFunc, len(pins)),
	}
	mode := machine.PinInput
	if pullUp {
		mode = machine.PinInputPullup
	}
	for _, id := range pins {
		mp := machine.Pin(id)
		mp.Configure(machine.PinConfig{Mode: mode})
		p.pins[id] = mp
		if err := mp.SetInterrupt(machine.PinToggle, p.isr(id)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// isr returns the interrupt handler for one pin. It must not block or allocate.
func (p *Pins) isr(id input.Pin) func(machine.Pin) {
	return func(mp machine.Pin) {
		edge := input.EdgeFalling
		if mp.Get() {
			edge = input.EdgeRising
		}
		select {
		case p.edges <- pinEdge{pin: id, edge: edge}:
		default:
			p.dropped++
		}
	}
}

// EnableEdge implements input.Hardware.
func (p *Pins) EnableEdge(pin input.Pin, edge input.Edge, fn input.EdgeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.masks[pin] |= edge
	p.fns[pin] = fn
}

// DisableEdge implements input.Hardware.
func (p *Pins) DisableEdge(pin input.Pin, edge input.Edge) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.masks[pin] &^= edge
}

// ReadLevel implements input.Hardware.
func (p *Pins) ReadLevel(pin input.Pin) bool {
	p.mu.Lock()
	mp, ok := p.pins[pin]
	p.mu.Unlock()
	if !ok {
		return true
	}
	return mp.Get()
}

// Dropped reports edges lost because Run fell behind.
func (p *Pins) Dropped() uint32 {
	return p.dropped
}

// Run delivers queued edges until ctx is done.
func (p *Pins) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-p.edges:
			p.mu.Lock()
			mask := p.masks[e.pin]
			fn := p.fns[e.pin]
			p.mu.Unlock()
			if fn != nil && mask&e.edge != 0 {
				fn(e.pin, e.edge)
			}
		}
	}
}

// Close removes the interrupt handlers.
func (p *Pins) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, mp := range p.pins {
		mp.SetInterrupt(0, nil)
	}
}
