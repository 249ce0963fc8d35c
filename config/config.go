// Package config holds the YAML configuration of the rotary menu: input
// backend and wiring, encoder timing, display geometry, the mirror server, the
// menu tree and logging.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"rotarymenu/display"
	"rotarymenu/input"
	"rotarymenu/logging"
	"rotarymenu/menu"
)

// MaxKeyCode is the highest EV_KEY code the kernel reports (KEY_MAX).
const MaxKeyCode = 0x2ff

// Input backends.
const (
	BackendGPIOCDev = "gpiocdev"
	BackendEvdev    = "evdev"
	BackendSim      = "sim"
)

// Config is the top-level YAML configuration.
//
// Defaults, file values and flag overrides are layered in that order, then
// Validate runs once so the rest of the code can assume a well-formed config.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Encoder EncoderConfig `yaml:"encoder"`
	Display DisplayConfig `yaml:"display"`
	Mirror  MirrorConfig  `yaml:"mirror"`
	Menu    MenuConfig    `yaml:"menu"`
	Logging LoggingConfig `yaml:"logging"`
}

type InputConfig struct {
	Backend string `yaml:"backend"` // "gpiocdev", "evdev" or "sim"

	// gpiocdev
	Chip     string `yaml:"chip"`
	Consumer string `yaml:"consumer"`
	PullUp   bool   `yaml:"pull_up"`

	// evdev: a gpio-keys device reporting each pin as a key.
	Device string        `yaml:"device"`
	Keys   EvdevKeysConf `yaml:"keys"`
}

// EvdevKeysConf maps the encoder pins to EV_KEY codes.
type EvdevKeysConf struct {
	A      int `yaml:"a"`
	B      int `yaml:"b"`
	Button int `yaml:"button"`
}

type EncoderConfig struct {
	PinA      int  `yaml:"pin_a"`
	PinB      int  `yaml:"pin_b"`
	PinButton int  `yaml:"pin_button"`
	ActiveLow bool `yaml:"active_low"`

	DebounceTicks  int `yaml:"debounce_ticks"`
	PollIntervalUS int `yaml:"poll_interval_us"`
	LongPressMS    int `yaml:"long_press_ms"` // 0 disables long press
	QueueSize      int `yaml:"queue_size"`
}

type DisplayConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	FontWidth  int  `yaml:"font_width"`
	FontHeight int  `yaml:"font_height"`
	Terminal   bool `yaml:"terminal"` // render to stdout
	Clear      bool `yaml:"clear"`    // clear the terminal between frames
}

type MirrorConfig struct {
	Listen       string `yaml:"listen"` // empty disables the mirror
	Path         string `yaml:"path"`
	SendBuf      int    `yaml:"send_buf,omitempty"`
	BroadcastBuf int    `yaml:"broadcast_buf,omitempty"`
}

type MenuConfig struct {
	Root            string      `yaml:"root"`
	Alignment       string      `yaml:"alignment"`
	FlashCount      int         `yaml:"flash_count"`
	FlashIntervalMS int         `yaml:"flash_interval_ms"`
	Menus           []MenuEntry `yaml:"menus"`
}

// MenuEntry defines one named menu.
type MenuEntry struct {
	Name      string        `yaml:"name"`
	Titles    []string      `yaml:"titles"`
	LongPress string        `yaml:"long_press,omitempty"` // "", "none", "back" or "exit"
	Entries   []EntryConfig `yaml:"entries"`
}

// Entry actions.
const (
	ActionNone    = "none"
	ActionGoto    = "goto"
	ActionBack    = "back"
	ActionExit    = "exit"
	ActionMessage = "message"
)

// EntryConfig defines a button, or a setting when Options is set.
type EntryConfig struct {
	Label   string   `yaml:"label"`
	Action  string   `yaml:"action,omitempty"`
	Target  string   `yaml:"target,omitempty"`  // goto
	Message string   `yaml:"message,omitempty"` // message
	Options []string `yaml:"options,omitempty"` // setting values
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully populated Config: the stock wiring and timing
// and the two stock menus.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Backend:  BackendGPIOCDev,
			Chip:     "gpiochip0",
			Consumer: "rotarymenu",
			PullUp:   true,
			Device:   "/dev/input/by-path/platform-rotary-keys-event",
			Keys:     EvdevKeysConf{A: 0x100, B: 0x101, Button: 0x102},
		},
		Encoder: EncoderConfig{
			PinA:           16,
			PinB:           17,
			PinButton:      18,
			DebounceTicks:  input.DefaultDebounceTicks,
			PollIntervalUS: int(input.DefaultPollInterval / time.Microsecond),
			LongPressMS:    int(input.DefaultLongPress / time.Millisecond),
			QueueSize:      input.DefaultQueueSize,
		},
		Display: DisplayConfig{
			Width:      128,
			Height:     64,
			FontWidth:  8,
			FontHeight: 8,
			Terminal:   true,
			Clear:      true,
		},
		Mirror: MirrorConfig{
			Listen: "",
			Path:   "/ws",
		},
		Menu: MenuConfig{
			Root:            "MENU",
			Alignment:       "center",
			FlashCount:      menu.DefaultFlashCount,
			FlashIntervalMS: int(menu.DefaultFlashInterval / time.Millisecond),
			Menus: []MenuEntry{
				{
					Name:   "MENU",
					Titles: []string{"MENU"},
					Entries: []EntryConfig{
						{Label: "One", Action: ActionGoto, Target: "MENU 2"},
						{Label: "Two"},
						{Label: "Three"},
						{Label: "Four"},
					},
				},
				{
					Name:      "MENU 2",
					Titles:    []string{"MENU 2"},
					LongPress: ActionBack,
					Entries: []EntryConfig{
						{Label: "Say Hi", Action: ActionMessage, Message: "Hi"},
						{Label: "Say Ho", Action: ActionMessage, Message: "Ho"},
						{Label: "Say No", Action: ActionMessage, Message: "No"},
					},
				},
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file over the defaults.
//
// Unknown fields are rejected, and so is a second YAML document. A menus list
// in the file replaces the default menus as a whole.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults.
func Parse(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace and comments may follow the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides are command line overrides applied on top of a loaded config.
// Each non-nil pointer is applied, even when it holds a zero value.
type FlagOverrides struct {
	Backend     *string
	Chip        *string
	EvdevDevice *string
	ActiveLow   *bool

	MirrorListen *string
	Terminal     *bool

	Root     *string
	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Backend != nil {
		cfg.Input.Backend = *o.Backend
	}
	if o.Chip != nil {
		cfg.Input.Chip = *o.Chip
	}
	if o.EvdevDevice != nil {
		cfg.Input.Device = *o.EvdevDevice
	}
	if o.ActiveLow != nil {
		cfg.Encoder.ActiveLow = *o.ActiveLow
	}
	if o.MirrorListen != nil {
		cfg.Mirror.Listen = *o.MirrorListen
	}
	if o.Terminal != nil {
		cfg.Display.Terminal = *o.Terminal
	}
	if o.Root != nil {
		cfg.Menu.Root = *o.Root
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error. Call it
// after defaults, file and overrides are applied.
func (c *Config) Validate() error {
	// Input
	switch c.Input.Backend {
	case BackendGPIOCDev:
		if c.Input.Chip == "" {
			return errors.New("input.chip must not be empty for the gpiocdev backend")
		}
	case BackendEvdev:
		if c.Input.Device == "" {
			return errors.New("input.device must not be empty for the evdev backend")
		}
		k := c.Input.Keys
		for _, code := range []int{k.A, k.B, k.Button} {
			if code <= 0 || code > MaxKeyCode {
				return fmt.Errorf("input.keys code %#x out of range (1-%#x)", code, MaxKeyCode)
			}
		}
		if k.A == k.B || k.A == k.Button || k.B == k.Button {
			return errors.New("input.keys codes must be distinct")
		}
	case BackendSim:
	default:
		return fmt.Errorf("input.backend must be %q, %q or %q", BackendGPIOCDev, BackendEvdev, BackendSim)
	}

	// Encoder
	e := c.Encoder
	for name, pin := range map[string]int{"pin_a": e.PinA, "pin_b": e.PinB, "pin_button": e.PinButton} {
		if pin < 0 || pin > 0xFFFF {
			return fmt.Errorf("encoder.%s must be between 0 and 65535", name)
		}
	}
	if e.PinA == e.PinB || e.PinA == e.PinButton || e.PinB == e.PinButton {
		return errors.New("encoder pins must be distinct")
	}
	if e.DebounceTicks <= 0 || e.DebounceTicks > 255 {
		return errors.New("encoder.debounce_ticks must be between 1 and 255")
	}
	if e.PollIntervalUS <= 0 {
		return errors.New("encoder.poll_interval_us must be > 0")
	}
	if e.LongPressMS < 0 {
		return errors.New("encoder.long_press_ms must be >= 0")
	}
	if e.QueueSize <= 0 {
		return errors.New("encoder.queue_size must be > 0")
	}

	// Display
	if err := c.ToGeometry().Validate(); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	// Mirror
	if c.Mirror.Listen != "" && !strings.HasPrefix(c.Mirror.Path, "/") {
		return errors.New("mirror.path must start with /")
	}

	// Menu
	if _, err := menu.ParseAlignment(c.Menu.Alignment); err != nil {
		return fmt.Errorf("menu.alignment: %w", err)
	}
	if c.Menu.FlashCount < 0 || c.Menu.FlashIntervalMS < 0 {
		return errors.New("menu.flash_count and menu.flash_interval_ms must be >= 0")
	}
	if len(c.Menu.Menus) == 0 {
		return errors.New("menu.menus must not be empty")
	}
	names := make(map[string]bool, len(c.Menu.Menus))
	for i, m := range c.Menu.Menus {
		if m.Name == "" {
			return fmt.Errorf("menu.menus[%d].name is empty", i)
		}
		if names[m.Name] {
			return fmt.Errorf("menu.menus[%d]: duplicate name %q", i, m.Name)
		}
		names[m.Name] = true
	}
	if !names[c.Menu.Root] {
		return fmt.Errorf("menu.root %q does not name a menu", c.Menu.Root)
	}
	for i, m := range c.Menu.Menus {
		if len(m.Entries) == 0 {
			return fmt.Errorf("menu %q has no entries", m.Name)
		}
		switch m.LongPress {
		case "", ActionNone, ActionBack, ActionExit:
		default:
			return fmt.Errorf("menu.menus[%d].long_press must be none, back or exit", i)
		}
		for j, ent := range m.Entries {
			if err := ent.validate(names); err != nil {
				return fmt.Errorf("menu %q entry %d: %w", m.Name, j, err)
			}
		}
	}

	// Logging
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

func (e EntryConfig) validate(menus map[string]bool) error {
	if strings.TrimSpace(e.Label) == "" {
		return errors.New("label is empty")
	}
	if len(e.Options) > 0 {
		if e.Action != "" && e.Action != ActionNone {
			return errors.New("a setting with options cannot have an action")
		}
		return nil
	}
	switch e.Action {
	case "", ActionNone, ActionBack, ActionExit:
	case ActionGoto:
		if !menus[e.Target] {
			return fmt.Errorf("goto target %q does not name a menu", e.Target)
		}
	case ActionMessage:
		if e.Message == "" {
			return errors.New("message action needs a message")
		}
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}

// ToRotaryConfig converts the encoder section into the input wiring.
func (c *Config) ToRotaryConfig() input.RotaryConfig {
	return input.RotaryConfig{
		PinA:          input.Pin(c.Encoder.PinA),
		PinB:          input.Pin(c.Encoder.PinB),
		PinButton:     input.Pin(c.Encoder.PinButton),
		ActiveLow:     c.Encoder.ActiveLow,
		DebounceTicks: uint8(c.Encoder.DebounceTicks),
		PollInterval:  time.Duration(c.Encoder.PollIntervalUS) * time.Microsecond,
		LongPress:     time.Duration(c.Encoder.LongPressMS) * time.Millisecond,
	}
}

// ToGeometry converts the display section.
func (c *Config) ToGeometry() display.Geometry {
	return display.Geometry{
		Width:      c.Display.Width,
		Height:     c.Display.Height,
		FontWidth:  c.Display.FontWidth,
		FontHeight: c.Display.FontHeight,
	}
}

// ToHubConfig converts the mirror queue sizes.
func (c *Config) ToHubConfig() display.HubConfig {
	return display.HubConfig{SendBuf: c.Mirror.SendBuf, BroadcastBuf: c.Mirror.BroadcastBuf}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
