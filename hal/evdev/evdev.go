//go:build linux

// Package evdev reads encoder and button pins exposed by the kernel as keys of
// an input device, typically a gpio-keys node, and presents them as
// input.Hardware.
//
// A key value of 1 means the line is asserted, which for pull-up wiring is a
// low level. Encoders wired that way rest with both phases high and need
// ActiveLow.
package evdev

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"rotarymenu/input"
)

const (
	evKey  = 0x01
	keyMax = 0x2ff

	// _IOC direction bit for reads, generic ioctl layout.
	iocRead = 2

	// epoll_wait timeout so Run notices cancellation.
	pollTimeoutMS = 100
)

// inputEvent is struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// Device is an input device mapped onto pins.
type Device struct {
	f      *os.File
	logger *slog.Logger

	pins map[uint16]input.Pin
	keys map[input.Pin]uint16

	mu     sync.Mutex
	levels map[input.Pin]bool
	masks  map[input.Pin]input.Edge
	fns    map[input.Pin]input.EdgeFunc
}

var _ input.Hardware = (*Device)(nil)

// Open opens path and maps key codes to pins. Current key states are read so
// levels are right before the first event.
func Open(path string, keys map[uint16]input.Pin, logger *slog.Logger) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input device: %w", err)
	}
	d, err := newDevice(f, keys, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := d.syncLevels(); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func newDevice(f *os.File, keys map[uint16]input.Pin, logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(keys) == 0 {
		return nil, errors.New("no key codes mapped")
	}
	d := &Device{
		f:      f,
		logger: logger,
		pins:   make(map[uint16]input.Pin, len(keys)),
		keys:   make(map[input.Pin]uint16, len(keys)),
		levels: make(map[input.Pin]bool, len(keys)),
		masks:  make(map[input.Pin]input.Edge, len(keys)),
		fns:    make(map[input.Pin]input.EdgeFunc, len(keys)),
	}
	for code, pin := range keys {
		if code == 0 || code > keyMax {
			return nil, fmt.Errorf("key code %#x out of range", code)
		}
		if _, dup := d.keys[pin]; dup {
			return nil, fmt.Errorf("pin %d mapped to more than one key", pin)
		}
		d.pins[code] = pin
		d.keys[pin] = code
		d.levels[pin] = true
	}
	return d, nil
}

// syncLevels reads the key bitmap with EVIOCGKEY.
func (d *Device) syncLevels() error {
	var bits [keyMax/8 + 1]byte
	req := uintptr(iocRead<<30 | len(bits)<<16 | 'E'<<8 | 0x18)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), req, uintptr(unsafe.Pointer(&bits[0]))); errno != 0 {
		return fmt.Errorf("EVIOCGKEY: %w", errno)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for code, pin := range d.pins {
		pressed := bits[code/8]&(1<<(code%8)) != 0
		d.levels[pin] = !pressed
	}
	return nil
}

// EnableEdge implements input.Hardware.
func (d *Device) EnableEdge(pin input.Pin, edge input.Edge, fn input.EdgeFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.keys[pin]; !ok {
		d.logger.Warn("enable edge on unmapped pin", "pin", pin)
		return
	}
	d.masks[pin] |= edge
	d.fns[pin] = fn
}

// DisableEdge implements input.Hardware.
func (d *Device) DisableEdge(pin input.Pin, edge input.Edge) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.masks[pin] &^= edge
}

// ReadLevel implements input.Hardware.
func (d *Device) ReadLevel(pin input.Pin) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.levels[pin]
}

// handle applies one event and delivers the resulting edge, if enabled.
func (d *Device) handle(ev inputEvent) {
	// Value 2 is autorepeat.
	if ev.Type != evKey || ev.Value > 1 {
		return
	}
	d.mu.Lock()
	pin, ok := d.pins[ev.Code]
	if !ok {
		d.mu.Unlock()
		return
	}
	level := ev.Value == 0
	old := d.levels[pin]
	d.levels[pin] = level
	mask := d.masks[pin]
	fn := d.fns[pin]
	d.mu.Unlock()

	if old == level || fn == nil {
		return
	}
	edge := input.EdgeFalling
	if level {
		edge = input.EdgeRising
	}
	if mask&edge != 0 {
		fn(pin, edge)
	}
}

// Run reads events with epoll and delivers edges on the calling goroutine until
// ctx is canceled or the device fails.
func (d *Device) Run(ctx context.Context) error {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	fd := int(d.f.Fd())
	event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
	}

	d.logger.Info("evdev reader started", "device", d.f.Name(), "keys", len(d.pins))

	epollEvents := make([]unix.EpollEvent, 1)
	buf := make([]byte, binary.Size(inputEvent{}))
	reader := bytes.NewReader(buf)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := unix.EpollWait(epfd, epollEvents, pollTimeoutMS)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		if n == 0 {
			continue
		}
		if epollEvents[0].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			return fmt.Errorf("device error/hangup: %s", d.f.Name())
		}

		if _, err := d.f.Read(buf); err != nil {
			return fmt.Errorf("read from %s: %w", d.f.Name(), err)
		}
		reader.Reset(buf)
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}
		d.handle(ev)
	}
}

// Close closes the device.
func (d *Device) Close() error {
	return d.f.Close()
}
