//go:build linux

package gpiocdev

import (
	"errors"
	"testing"

	"github.com/warthog618/go-gpiocdev"

	"rotarymenu/input"
)

type fakeLines struct {
	vals   []int
	err    error
	closed bool
}

func (f *fakeLines) Values(v []int) error {
	if f.err != nil {
		return f.err
	}
	copy(v, f.vals)
	return nil
}

func (f *fakeLines) Close() error {
	f.closed = true
	return nil
}

func newTestChip(t *testing.T, pins ...input.Pin) (*Chip, *fakeLines) {
	t.Helper()
	c, err := newChip(pins, nil)
	if err != nil {
		t.Fatalf("newChip: %v", err)
	}
	fl := &fakeLines{vals: make([]int, len(pins))}
	for i := range fl.vals {
		fl.vals[i] = 1
	}
	c.lines = fl
	return c, fl
}

// TestChip_ReadLevelIsLive tests that levels come from the line values.
func TestChip_ReadLevelIsLive(t *testing.T) {
	c, fl := newTestChip(t, 16, 17, 18)

	if !c.ReadLevel(18) {
		t.Fatalf("pin 18 should read high")
	}
	fl.vals[2] = 0
	if c.ReadLevel(18) {
		t.Errorf("pin 18 should read low")
	}

	fl.err = errors.New("ebusy")
	if c.ReadLevel(18) {
		t.Errorf("failed read should return the last level")
	}
}

// TestChip_HandleMasksEdges tests software edge masking.
func TestChip_HandleMasksEdges(t *testing.T) {
	c, _ := newTestChip(t, 18)

	var got []input.Edge
	c.EnableEdge(18, input.EdgeFalling, func(_ input.Pin, e input.Edge) { got = append(got, e) })

	c.handle(gpiocdev.LineEvent{Offset: 18, Type: gpiocdev.LineEventFallingEdge})
	c.handle(gpiocdev.LineEvent{Offset: 18, Type: gpiocdev.LineEventRisingEdge})
	c.handle(gpiocdev.LineEvent{Offset: 5, Type: gpiocdev.LineEventFallingEdge})

	if len(got) != 1 || got[0] != input.EdgeFalling {
		t.Fatalf("edges = %v, want [falling]", got)
	}

	c.EnableEdge(18, input.EdgeRising, func(_ input.Pin, e input.Edge) { got = append(got, e) })
	c.DisableEdge(18, input.EdgeFalling)
	c.handle(gpiocdev.LineEvent{Offset: 18, Type: gpiocdev.LineEventFallingEdge})
	c.handle(gpiocdev.LineEvent{Offset: 18, Type: gpiocdev.LineEventRisingEdge})
	if len(got) != 2 || got[1] != input.EdgeRising {
		t.Fatalf("edges = %v, want [falling rising]", got)
	}
}

// TestChip_Close tests that lines are released once.
func TestChip_Close(t *testing.T) {
	c, fl := newTestChip(t, 16)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fl.closed {
		t.Errorf("lines not closed")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

// TestNewChip_DuplicatePin tests pin validation.
func TestNewChip_DuplicatePin(t *testing.T) {
	if _, err := newChip([]input.Pin{16, 16}, nil); !errors.Is(err, input.ErrPinInUse) {
		t.Errorf("err = %v, want ErrPinInUse", err)
	}
	if _, err := newChip(nil, nil); err == nil {
		t.Errorf("expected error for no pins")
	}
}
