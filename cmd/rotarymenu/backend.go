//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"

	"rotarymenu/config"
	"rotarymenu/hal"
	"rotarymenu/hal/evdev"
	"rotarymenu/hal/gpiocdev"
	"rotarymenu/hal/sim"
	"rotarymenu/input"
)

// backend is an opened input backend.
type backend struct {
	hw    input.Hardware
	sched input.Scheduler

	// run, when set, pumps hardware events until ctx ends.
	run   func(ctx context.Context) error
	close func() error
}

// openBackend opens the configured input backend for the rotary wiring rc.
func openBackend(cfg *config.Config, rc input.RotaryConfig, logger *slog.Logger) (*backend, error) {
	pins := []input.Pin{rc.PinA, rc.PinB, rc.PinButton}

	switch cfg.Input.Backend {
	case config.BackendGPIOCDev:
		chip, err := gpiocdev.Open(gpiocdev.Config{
			Chip:     cfg.Input.Chip,
			Consumer: cfg.Input.Consumer,
			PullUp:   cfg.Input.PullUp,
			Pins:     pins,
		}, logger.With("backend", "gpiocdev"))
		if err != nil {
			return nil, err
		}
		return &backend{hw: chip, sched: hal.Clock{}, close: chip.Close}, nil

	case config.BackendEvdev:
		k := cfg.Input.Keys
		dev, err := evdev.Open(cfg.Input.Device, map[uint16]input.Pin{
			uint16(k.A):      rc.PinA,
			uint16(k.B):      rc.PinB,
			uint16(k.Button): rc.PinButton,
		}, logger.With("backend", "evdev"))
		if err != nil {
			return nil, err
		}
		return &backend{hw: dev, sched: hal.Clock{}, run: dev.Run, close: dev.Close}, nil

	case config.BackendSim:
		// Idle board: useful to exercise the display and mirror without
		// hardware. menusim drives a board interactively.
		board := sim.NewBoard()
		sim.NewKnob(board, rc)
		logger.Warn("sim backend has no input source; use menusim to drive it")
		return &backend{hw: board, sched: board, close: func() error { return nil }}, nil

	default:
		return nil, fmt.Errorf("unknown input backend %q", cfg.Input.Backend)
	}
}
