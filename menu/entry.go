// Package menu implements a scrollable text menu driven by rotary encoder
// events: the entry model with its viewport, the controller state machine and
// the renderer adapter that is its only path to the display.
package menu

import (
	"fmt"
	"strings"
	"sync"
)

// Alignment positions entry text within a row.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return fmt.Sprintf("alignment(%d)", uint8(a))
	}
}

// ParseAlignment parses "left", "center" or "right".
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	default:
		return 0, fmt.Errorf("invalid alignment %q (valid: left, center, right)", s)
	}
}

// align strips surrounding whitespace, cuts s to width runes and pads it.
// Center splits the padding with the odd column on the right.
func align(s string, width int, a Alignment) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > width {
		r = r[:width]
	}
	pad := width - len(r)
	switch a {
	case AlignRight:
		return strings.Repeat(" ", pad) + string(r)
	case AlignCenter:
		left := pad / 2
		return strings.Repeat(" ", left) + string(r) + strings.Repeat(" ", pad-left)
	default:
		return string(r) + strings.Repeat(" ", pad)
	}
}

// Outcome tells the menu what to do after an action ran.
type Outcome uint8

const (
	Stay Outcome = iota
	Close
)

func (o Outcome) String() string {
	if o == Close {
		return "close"
	}
	return "stay"
}

// Action runs when a button entry is activated or on a menu-level long press.
type Action func() Outcome

// Entry is one menu line. The set of entries is closed: *Title, *Button and
// *Setting.
type Entry interface {
	// Text is the unaligned content.
	Text() string
	// Selectable reports whether the selection may rest on the entry. Only
	// selectable entries scroll.
	Selectable() bool

	entryKind() string
}

// Title is a fixed heading line. Titles must come before every other entry and
// stay on screen while the rest scrolls.
type Title struct {
	label string
}

// NewTitle creates a title entry.
func NewTitle(label string) *Title { return &Title{label: label} }

func (t *Title) Text() string      { return t.label }
func (t *Title) Selectable() bool  { return false }
func (t *Title) entryKind() string { return "title" }

// Button runs an action when activated. A nil action does nothing.
type Button struct {
	label  string
	action Action
}

// NewButton creates a button entry.
func NewButton(label string, action Action) *Button {
	return &Button{label: label, action: action}
}

func (b *Button) Text() string      { return b.label }
func (b *Button) Selectable() bool  { return true }
func (b *Button) entryKind() string { return "button" }

// Activate runs the action.
func (b *Button) Activate() Outcome {
	if b.action == nil {
		return Stay
	}
	return b.action()
}

// Setting is a labelled value that cycles through its options each time it is
// activated.
type Setting struct {
	label    string
	options  []string
	onChange func(value string)

	mu    sync.Mutex
	index int
}

// NewSetting creates a setting showing options[0]. onChange may be nil.
func NewSetting(label string, options []string, onChange func(value string)) (*Setting, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("setting %q: no options", label)
	}
	return &Setting{label: label, options: append([]string(nil), options...), onChange: onChange}, nil
}

// Text renders "label value".
func (s *Setting) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label + " " + s.options[s.index]
}

func (s *Setting) Selectable() bool  { return true }
func (s *Setting) entryKind() string { return "setting" }

// Value returns the current option.
func (s *Setting) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options[s.index]
}

// Cycle moves to the next option, wrapping around, and reports it to onChange.
func (s *Setting) Cycle() string {
	s.mu.Lock()
	s.index = (s.index + 1) % len(s.options)
	v := s.options[s.index]
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(v)
	}
	return v
}
