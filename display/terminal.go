//go:build !tinygo

package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	termBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("241"))
	termNormal   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	termInverted = lipgloss.NewStyle().Reverse(true)
	termBoxed    = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("11"))
)

// Terminal renders the display as a bordered text panel on a writer. Drawing goes
// to an in-memory Frame; each Flush repaints the whole panel.
type Terminal struct {
	*Frame

	mu    sync.Mutex
	out   io.Writer
	clear bool
}

// NewTerminal creates a terminal display. With clear set, every flush moves the
// cursor home and clears the screen first.
func NewTerminal(out io.Writer, g Geometry, clear bool) *Terminal {
	return &Terminal{Frame: NewFrame(g), out: out, clear: clear}
}

// Flush implements Display.
func (t *Terminal) Flush() error {
	if err := t.Frame.Flush(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	if t.clear {
		b.WriteString("\x1b[H\x1b[2J")
	}
	b.WriteString(termBorder.Render(Render(t.Snapshot())))
	b.WriteString("\n")
	if _, err := io.WriteString(t.out, b.String()); err != nil {
		return fmt.Errorf("write terminal frame: %w", err)
	}
	return nil
}

// Render styles rows for a terminal, one line per row.
func Render(rows []Row) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		style := termNormal
		switch {
		case r.Boxed:
			style = termBoxed
		case r.Inverted:
			style = termInverted
		}
		lines[i] = style.Render(r.Text)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
