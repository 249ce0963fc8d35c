package input

import (
	"fmt"
	"log/slog"
	"time"
)

// RotaryConfig describes a rotary encoder with an integrated push button.
type RotaryConfig struct {
	PinA      Pin
	PinB      Pin
	PinButton Pin
	ActiveLow bool

	DebounceTicks uint8
	PollInterval  time.Duration
	LongPress     time.Duration
}

// DefaultRotaryConfig returns the stock wiring: phases on 16/17, button on 18.
func DefaultRotaryConfig() RotaryConfig {
	return RotaryConfig{
		PinA:          16,
		PinB:          17,
		PinButton:     18,
		DebounceTicks: DefaultDebounceTicks,
		PollInterval:  DefaultPollInterval,
		LongPress:     DefaultLongPress,
	}
}

// Rotary owns the handler instances for one encoder and its button and registers
// them with a Router. Close unregisters everything and cancels pending timers, so
// no callback reaches a discarded instance.
type Rotary struct {
	cfg    RotaryConfig
	router *Router
	logger *slog.Logger

	encoder   *Encoder
	button    *Button
	longPress *LongPress
}

// NewRotary builds the encoder, button and long-press timer, emitting into sink,
// and registers the three pins with router.
func NewRotary(cfg RotaryConfig, hw Hardware, sched Scheduler, router *Router, sink Sink, logger *slog.Logger) (*Rotary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PinButton == cfg.PinA || cfg.PinButton == cfg.PinB {
		return nil, fmt.Errorf("%w: button pin %d overlaps an encoder phase", ErrPinInUse, cfg.PinButton)
	}

	enc, err := NewEncoder(EncoderConfig{PinA: cfg.PinA, PinB: cfg.PinB, ActiveLow: cfg.ActiveLow}, hw, sink)
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}

	lp := NewLongPress(cfg.LongPress, sched, sink)
	btn, err := NewButton(ButtonConfig{
		Pin:          cfg.PinButton,
		Threshold:    cfg.DebounceTicks,
		PollInterval: cfg.PollInterval,
	}, hw, sched, lp)
	if err != nil {
		return nil, fmt.Errorf("create button: %w", err)
	}

	r := &Rotary{
		cfg:       cfg,
		router:    router,
		logger:    logger,
		encoder:   enc,
		button:    btn,
		longPress: lp,
	}

	regs := []struct {
		pin Pin
		h   Handler
	}{
		{cfg.PinA, EncoderPhase{Encoder: enc}},
		{cfg.PinB, EncoderPhase{Encoder: enc}},
		{cfg.PinButton, ButtonInput{Button: btn}},
	}
	for i, reg := range regs {
		if err := router.Register(reg.pin, reg.h); err != nil {
			for _, done := range regs[:i] {
				router.Unregister(done.pin)
			}
			return nil, err
		}
	}

	logger.Info("rotary encoder ready",
		"pin_a", cfg.PinA,
		"pin_b", cfg.PinB,
		"pin_button", cfg.PinButton,
		"active_low", cfg.ActiveLow,
		"debounce", time.Duration(cfg.DebounceTicks)*btn.cfg.PollInterval,
		"long_press", cfg.LongPress)
	return r, nil
}

// Encoder returns the quadrature decoder.
func (r *Rotary) Encoder() *Encoder { return r.encoder }

// Button returns the debounced button.
func (r *Rotary) Button() *Button { return r.button }

// Close unregisters all pins and cancels debounce and long-press timers.
func (r *Rotary) Close() {
	r.router.Unregister(r.cfg.PinA)
	r.router.Unregister(r.cfg.PinB)
	r.router.Unregister(r.cfg.PinButton)
	r.button.Close()
	r.longPress.Close()
	r.logger.Debug("rotary encoder closed")
}
