package menu

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoEntries         = errors.New("menu has no selectable entries")
	ErrTitleAfterEntries = errors.New("title entry after selectable entries")
	ErrNoViewport        = errors.New("no rows left below the title block")
)

// RowWrite is one pending display row update.
type RowWrite struct {
	Text     string
	Row      int
	Inverted bool
}

// Model is the entry list with its selection and viewport.
//
// Display rows [0, titleHeight) hold the title block. The remaining rows form
// the viewport, which shows entries [top, top+window). The model maintains
//
//	titleHeight <= top <= selection < top+window
//	selection < len(entries)
//
// Model is not safe for concurrent use; the menu owns it on one goroutine.
type Model struct {
	columns int
	rows    int
	align   Alignment

	entries     []Entry
	text        []string
	dirty       []bool
	titleHeight int

	selection int
	top       int
	// blanked marks viewport rows with no entry that have already been cleared.
	blanked []bool
}

// NewModel creates a model for a columns x rows display. At least one
// selectable entry must exist and rows must exceed the title block.
func NewModel(columns, rows int, a Alignment, entries ...Entry) (*Model, error) {
	if columns <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid display size %dx%d", columns, rows)
	}
	m := &Model{columns: columns, rows: rows, align: a}
	if err := m.append(entries); err != nil {
		return nil, err
	}
	if m.titleHeight == len(m.entries) {
		return nil, ErrNoEntries
	}
	m.selection = m.titleHeight
	m.top = m.titleHeight
	m.blanked = make([]bool, m.window())
	return m, nil
}

// Add appends entries. Titles may only be added while no selectable entry
// exists yet, which never holds after NewModel.
func (m *Model) Add(entries ...Entry) error {
	return m.append(entries)
}

func (m *Model) append(entries []Entry) error {
	for i, e := range entries {
		if e == nil {
			return fmt.Errorf("entry %d is nil", len(m.entries)+i)
		}
	}
	titles := m.titleHeight
	seenSelectable := titles < len(m.entries)
	for i, e := range entries {
		if e.Selectable() {
			seenSelectable = true
			continue
		}
		if seenSelectable {
			return fmt.Errorf("%w: %q at position %d", ErrTitleAfterEntries, e.Text(), len(m.entries)+i)
		}
		titles++
	}
	if m.rows-titles <= 0 {
		return fmt.Errorf("%w: %d title rows on a %d row display", ErrNoViewport, titles, m.rows)
	}

	for _, e := range entries {
		m.entries = append(m.entries, e)
		m.text = append(m.text, align(e.Text(), m.columns, m.align))
		m.dirty = append(m.dirty, true)
	}
	m.titleHeight = titles
	return nil
}

func (m *Model) window() int { return m.rows - m.titleHeight }

// Next moves the selection down one entry, scrolling the viewport with it when
// the selection sits on the last visible row. It reports whether anything moved.
func (m *Model) Next() bool {
	if m.selection >= len(m.entries)-1 {
		return false
	}
	if m.selection < m.top+m.window()-1 {
		m.dirty[m.selection] = true
		m.selection++
		m.dirty[m.selection] = true
	} else {
		m.top++
		m.selection++
		m.markWindowDirty()
	}
	m.check()
	return true
}

// Prev moves the selection up one entry, scrolling when it sits on the first
// visible row. It never moves into the title block.
func (m *Model) Prev() bool {
	if m.selection <= m.titleHeight {
		return false
	}
	if m.selection > m.top {
		m.dirty[m.selection] = true
		m.selection--
		m.dirty[m.selection] = true
	} else {
		m.top--
		m.selection--
		m.markWindowDirty()
	}
	m.check()
	return true
}

func (m *Model) check() {
	if m.top < m.titleHeight || m.selection < m.top || m.selection >= m.top+m.window() || m.selection >= len(m.entries) {
		panic(fmt.Sprintf("menu: selection %d outside viewport [%d,%d) of %d entries",
			m.selection, m.top, m.top+m.window(), len(m.entries)))
	}
}

func (m *Model) markWindowDirty() {
	for i := m.top; i < m.top+m.window() && i < len(m.entries); i++ {
		m.dirty[i] = true
	}
}

// MarkAllDirty forces every entry and every empty viewport row to be redrawn.
func (m *Model) MarkAllDirty() {
	for i := range m.dirty {
		m.dirty[i] = true
	}
	for k := range m.blanked {
		m.blanked[k] = false
	}
}

// Refresh realigns entry i from its current text and marks it dirty.
func (m *Model) Refresh(i int) {
	m.text[i] = align(m.entries[i].Text(), m.columns, m.align)
	m.dirty[i] = true
}

// Changes returns the row writes needed to bring the display up to date and
// marks them done. Selected rows are inverted; viewport rows with no entry are
// blanked once.
func (m *Model) Changes() []RowWrite {
	var out []RowWrite
	for i := 0; i < m.titleHeight; i++ {
		if m.dirty[i] {
			out = append(out, RowWrite{Text: m.text[i], Row: i})
			m.dirty[i] = false
		}
	}
	for k := 0; k < m.window(); k++ {
		i := m.top + k
		row := m.titleHeight + k
		if i >= len(m.entries) {
			if !m.blanked[k] {
				out = append(out, RowWrite{Text: strings.Repeat(" ", m.columns), Row: row})
				m.blanked[k] = true
			}
			continue
		}
		m.blanked[k] = false
		if m.dirty[i] {
			out = append(out, RowWrite{Text: m.text[i], Row: row, Inverted: i == m.selection})
			m.dirty[i] = false
		}
	}
	return out
}

// Selection returns the selected entry index.
func (m *Model) Selection() int { return m.selection }

// Selected returns the selected entry.
func (m *Model) Selected() Entry { return m.entries[m.selection] }

// SelectedRow returns the display row of the selected entry.
func (m *Model) SelectedRow() int { return m.titleHeight + m.selection - m.top }

// SelectedText returns the aligned text of the selected entry.
func (m *Model) SelectedText() string { return m.text[m.selection] }

// Top returns the index of the first entry in the viewport.
func (m *Model) Top() int { return m.top }

// TitleHeight returns the number of leading title entries.
func (m *Model) TitleHeight() int { return m.titleHeight }

// Window returns the number of viewport rows.
func (m *Model) Window() int { return m.window() }

// Len returns the number of entries.
func (m *Model) Len() int { return len(m.entries) }

// Entry returns entry i.
func (m *Model) Entry(i int) Entry { return m.entries[i] }

// AlignedText returns the aligned text of entry i.
func (m *Model) AlignedText(i int) string { return m.text[i] }
