//go:build linux

// Package gpiocdev implements input.Hardware on the Linux GPIO character
// device. All pins are requested together as inputs with both edges; edge
// masking is done in software.
package gpiocdev

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"rotarymenu/input"
)

// Config selects the chip and lines.
type Config struct {
	Chip     string
	Consumer string
	PullUp   bool
	Pins     []input.Pin
}

// lineValues is the part of *gpiocdev.Lines used for level reads.
type lineValues interface {
	Values(values []int) error
	Close() error
}

// Chip is a set of requested GPIO lines.
type Chip struct {
	logger *slog.Logger

	mu      sync.Mutex
	lines   lineValues
	offsets []int
	index   map[input.Pin]int
	levels  []bool
	masks   map[input.Pin]input.Edge
	fns     map[input.Pin]input.EdgeFunc
}

var _ input.Hardware = (*Chip)(nil)

// Open requests cfg.Pins on cfg.Chip.
func Open(cfg Config, logger *slog.Logger) (*Chip, error) {
	c, err := newChip(cfg.Pins, logger)
	if err != nil {
		return nil, err
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(c.handle),
	}
	if cfg.PullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	if cfg.Consumer != "" {
		opts = append(opts, gpiocdev.WithConsumer(cfg.Consumer))
	}

	lines, err := gpiocdev.RequestLines(cfg.Chip, c.offsets, opts...)
	if err != nil {
		return nil, fmt.Errorf("request lines %v on %s: %w", c.offsets, cfg.Chip, err)
	}

	c.mu.Lock()
	c.lines = lines
	c.mu.Unlock()
	if err := c.refresh(); err != nil {
		lines.Close()
		return nil, err
	}
	c.logger.Info("gpio lines requested", "chip", cfg.Chip, "offsets", c.offsets, "pull_up", cfg.PullUp)
	return c, nil
}

func newChip(pins []input.Pin, logger *slog.Logger) (*Chip, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(pins) == 0 {
		return nil, fmt.Errorf("no pins to request")
	}
	c := &Chip{
		logger:  logger,
		offsets: make([]int, len(pins)),
		index:   make(map[input.Pin]int, len(pins)),
		levels:  make([]bool, len(pins)),
		masks:   make(map[input.Pin]input.Edge, len(pins)),
		fns:     make(map[input.Pin]input.EdgeFunc, len(pins)),
	}
	for i, p := range pins {
		if _, dup := c.index[p]; dup {
			return nil, fmt.Errorf("%w: %d", input.ErrPinInUse, p)
		}
		c.offsets[i] = int(p)
		c.index[p] = i
		c.levels[i] = true
	}
	return c, nil
}

// refresh reads every line level.
func (c *Chip) refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lines == nil {
		return nil
	}
	vals := make([]int, len(c.offsets))
	if err := c.lines.Values(vals); err != nil {
		return fmt.Errorf("read line values: %w", err)
	}
	for i, v := range vals {
		c.levels[i] = v != 0
	}
	return nil
}

// EnableEdge implements input.Hardware.
func (c *Chip) EnableEdge(pin input.Pin, edge input.Edge, fn input.EdgeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[pin]; !ok {
		c.logger.Warn("enable edge on unrequested pin", "pin", pin)
		return
	}
	c.masks[pin] |= edge
	c.fns[pin] = fn
}

// DisableEdge implements input.Hardware.
func (c *Chip) DisableEdge(pin input.Pin, edge input.Edge) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.masks[pin] &^= edge
}

// ReadLevel implements input.Hardware. It reads the live line values and falls
// back to the last known level if that fails.
func (c *Chip) ReadLevel(pin input.Pin) bool {
	if err := c.refresh(); err != nil {
		c.logger.Warn("gpio read failed", "pin", pin, "error", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[pin]
	if !ok {
		return true
	}
	return c.levels[i]
}

// handle runs on the gpiocdev watcher goroutine.
func (c *Chip) handle(evt gpiocdev.LineEvent) {
	pin := input.Pin(evt.Offset)
	edge := input.EdgeFalling
	if evt.Type == gpiocdev.LineEventRisingEdge {
		edge = input.EdgeRising
	}

	c.mu.Lock()
	i, ok := c.index[pin]
	if !ok {
		c.mu.Unlock()
		return
	}
	c.levels[i] = edge == input.EdgeRising
	mask := c.masks[pin]
	fn := c.fns[pin]
	c.mu.Unlock()

	if fn != nil && mask&edge != 0 {
		fn(pin, edge)
	}
}

// Close releases the lines.
func (c *Chip) Close() error {
	c.mu.Lock()
	lines := c.lines
	c.lines = nil
	c.mu.Unlock()
	if lines == nil {
		return nil
	}
	return lines.Close()
}
