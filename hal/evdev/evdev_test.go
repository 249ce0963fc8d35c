//go:build linux

package evdev

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"rotarymenu/input"
)

type edgeLog struct {
	mu    sync.Mutex
	edges []input.Edge
}

func (l *edgeLog) fn(_ input.Pin, e input.Edge) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.edges = append(l.edges, e)
}

func (l *edgeLog) snapshot() []input.Edge {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]input.Edge(nil), l.edges...)
}

func keyEvent(code uint16, value int32) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, inputEvent{Type: evKey, Code: code, Value: value})
	return buf.Bytes()
}

// TestDevice_HandleMasksEdges tests level tracking and edge masking.
func TestDevice_HandleMasksEdges(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer w.Close()
	d, err := newDevice(r, map[uint16]input.Pin{0x102: 18}, nil)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}
	defer d.Close()

	if !d.ReadLevel(18) {
		t.Fatalf("pin should rest high")
	}

	var log edgeLog
	d.EnableEdge(18, input.EdgeFalling, log.fn)

	d.handle(inputEvent{Type: evKey, Code: 0x102, Value: 1})
	if d.ReadLevel(18) {
		t.Errorf("key down should read low")
	}
	d.handle(inputEvent{Type: evKey, Code: 0x102, Value: 2}) // autorepeat
	d.handle(inputEvent{Type: evKey, Code: 0x102, Value: 0}) // rising, masked
	d.handle(inputEvent{Type: evKey, Code: 0x999, Value: 1}) // unmapped

	got := log.snapshot()
	if len(got) != 1 || got[0] != input.EdgeFalling {
		t.Fatalf("edges = %v, want [falling]", got)
	}

	d.DisableEdge(18, input.EdgeFalling)
	d.handle(inputEvent{Type: evKey, Code: 0x102, Value: 1})
	if n := len(log.snapshot()); n != 1 {
		t.Errorf("disabled edge delivered, have %d edges", n)
	}
}

// TestDevice_RunReadsEvents tests the epoll loop over a pipe.
func TestDevice_RunReadsEvents(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer w.Close()
	d, err := newDevice(r, map[uint16]input.Pin{0x100: 16, 0x101: 17}, nil)
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}
	defer d.Close()

	var log edgeLog
	d.EnableEdge(16, input.EdgeBoth, log.fn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for _, ev := range [][]byte{keyEvent(0x100, 1), keyEvent(0x101, 1), keyEvent(0x100, 0)} {
		if _, err := w.Write(ev); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(log.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := log.snapshot()
	if len(got) != 2 || got[0] != input.EdgeFalling || got[1] != input.EdgeRising {
		t.Fatalf("edges = %v, want [falling rising]", got)
	}
	if d.ReadLevel(17) {
		t.Errorf("pin 17 should read low after its key went down")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
}

// TestNewDevice_RejectsBadMaps tests key map validation.
func TestNewDevice_RejectsBadMaps(t *testing.T) {
	if _, err := newDevice(nil, nil, nil); err == nil {
		t.Errorf("expected error for empty map")
	}
	if _, err := newDevice(nil, map[uint16]input.Pin{1: 5, 2: 5}, nil); err == nil {
		t.Errorf("expected error for duplicate pin")
	}
	if _, err := newDevice(nil, map[uint16]input.Pin{keyMax + 1: 5}, nil); err == nil {
		t.Errorf("expected error for key code above KEY_MAX")
	}
	if _, err := newDevice(nil, map[uint16]input.Pin{0: 5}, nil); err == nil {
		t.Errorf("expected error for key code 0")
	}
}
