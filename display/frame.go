package display

import (
	"fmt"
	"strings"
	"sync"
)

// Row is one text row of a Frame.
type Row struct {
	Text     string `json:"text"`
	Inverted bool   `json:"inverted,omitempty"`
	Boxed    bool   `json:"boxed,omitempty"`
}

// Frame is an in-memory text framebuffer. It implements Display and is the
// shared state behind Terminal and Mirror.
type Frame struct {
	geom Geometry

	mu      sync.Mutex
	rows    []Row
	writes  int
	flushes int
}

var _ Display = (*Frame)(nil)

// NewFrame creates a blank frame.
func NewFrame(g Geometry) *Frame {
	f := &Frame{geom: g, rows: make([]Row, g.Rows())}
	blank := strings.Repeat(" ", g.Columns())
	for i := range f.rows {
		f.rows[i].Text = blank
	}
	return f
}

// Geometry returns the frame geometry.
func (f *Frame) Geometry() Geometry { return f.geom }

// WriteRow implements Display. Text is padded or cut to the column count.
func (f *Frame) WriteRow(text string, row int, inverted bool) error {
	if row < 0 || row >= len(f.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[row] = Row{Text: fit(text, f.geom.Columns()), Inverted: inverted}
	f.writes++
	return nil
}

// DrawRectangle implements Display. Rows touched by the rectangle are boxed, or
// inverted when filled with white.
func (f *Frame) DrawRectangle(x1, y1, x2, y2 int, c Color, filled bool) error {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	first, last := f.geom.RowAt(y1), f.geom.RowAt(y2)
	if first < 0 || last >= len(f.rows) {
		return fmt.Errorf("%w: rectangle rows %d..%d", ErrRowOutOfRange, first, last)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for r := first; r <= last; r++ {
		if filled {
			f.rows[r].Inverted = c == White
			continue
		}
		f.rows[r].Boxed = c == White
	}
	return nil
}

// Flush implements Display. It only counts flushes; wrappers publish the frame.
func (f *Frame) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
	return nil
}

// Snapshot returns a copy of the rows.
func (f *Frame) Snapshot() []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Row(nil), f.rows...)
}

// Writes returns the number of WriteRow calls so far.
func (f *Frame) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Flushes returns the number of Flush calls so far.
func (f *Frame) Flushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushes
}

// Lines renders the frame as plain text: inverted rows are wrapped in '>' '<'
// and boxed rows in '[' ']'.
func (f *Frame) Lines() []string {
	rows := f.Snapshot()
	out := make([]string, len(rows))
	for i, r := range rows {
		switch {
		case r.Boxed:
			out[i] = "[" + r.Text + "]"
		case r.Inverted:
			out[i] = ">" + r.Text + "<"
		default:
			out[i] = " " + r.Text + " "
		}
	}
	return out
}

func fit(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
