package menu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buttons(labels ...string) []Entry {
	out := make([]Entry, len(labels))
	for i, l := range labels {
		out[i] = NewButton(l, nil)
	}
	return out
}

func withTitle(title string, rest ...Entry) []Entry {
	return append([]Entry{NewTitle(title)}, rest...)
}

func TestAlign(t *testing.T) {
	tests := []struct {
		in   string
		a    Alignment
		want string
	}{
		{"  One ", AlignLeft, "One     "},
		{"  One ", AlignCenter, "  One   "},
		{"  One ", AlignRight, "     One"},
		{"Four", AlignCenter, "  Four  "},
		{"ABCDEFGHIJ", AlignRight, "ABCDEFGH"},
		{"", AlignCenter, "        "},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, align(tt.in, 8, tt.a))
		})
	}
}

func TestParseAlignment(t *testing.T) {
	a, err := ParseAlignment(" Center ")
	require.NoError(t, err)
	assert.Equal(t, AlignCenter, a)

	a, err = ParseAlignment("right")
	require.NoError(t, err)
	assert.Equal(t, AlignRight, a)

	_, err = ParseAlignment("justify")
	assert.Error(t, err)
}

func TestNewModel_ConfigurationErrors(t *testing.T) {
	_, err := NewModel(8, 4, AlignLeft)
	assert.True(t, errors.Is(err, ErrNoEntries))

	_, err = NewModel(8, 4, AlignLeft, NewTitle("T"))
	assert.True(t, errors.Is(err, ErrNoEntries))

	_, err = NewModel(8, 4, AlignLeft, NewButton("A", nil), NewTitle("T"))
	assert.True(t, errors.Is(err, ErrTitleAfterEntries))

	_, err = NewModel(8, 2, AlignLeft, NewTitle("T1"), NewTitle("T2"), NewButton("A", nil))
	assert.True(t, errors.Is(err, ErrNoViewport))

	_, err = NewModel(0, 2, AlignLeft, NewButton("A", nil))
	assert.Error(t, err)

	_, err = NewModel(8, 2, AlignLeft, nil)
	assert.Error(t, err)
}

func TestModel_StartsOnFirstSelectable(t *testing.T) {
	m, err := NewModel(8, 4, AlignLeft, append([]Entry{NewTitle("T1"), NewTitle("T2")}, buttons("A", "B")...)...)
	require.NoError(t, err)
	assert.Equal(t, 2, m.TitleHeight())
	assert.Equal(t, 2, m.Selection())
	assert.Equal(t, 2, m.Top())
	assert.Equal(t, 2, m.Window())
	assert.Equal(t, 2, m.SelectedRow())
}

func TestModel_NextScrollsOnlyAtWindowEdge(t *testing.T) {
	m, err := NewModel(8, 4, AlignLeft, withTitle("T", buttons("1", "2", "3", "4", "5", "6")...)...)
	require.NoError(t, err)

	for step := 0; step < 10; step++ {
		sel, top := m.Selection(), m.Top()
		moved := m.Next()
		if sel == m.Len()-1 {
			assert.False(t, moved, "step %d: last entry", step)
			assert.Equal(t, sel, m.Selection())
			continue
		}
		require.True(t, moved, "step %d", step)
		assert.Equal(t, sel+1, m.Selection(), "step %d: selection advances by one", step)
		if sel == top+m.Window()-1 {
			assert.Equal(t, top+1, m.Top(), "step %d: scrolls at bottom row", step)
		} else {
			assert.Equal(t, top, m.Top(), "step %d: no scroll inside window", step)
		}
		assert.LessOrEqual(t, m.Top(), m.Selection())
		assert.Less(t, m.Selection(), m.Top()+m.Window())
	}
	assert.Equal(t, 6, m.Selection())
	assert.Equal(t, 4, m.Top())
}

func TestModel_PrevStopsAtTitleBlock(t *testing.T) {
	m, err := NewModel(8, 4, AlignLeft, withTitle("T", buttons("1", "2", "3", "4", "5")...)...)
	require.NoError(t, err)

	assert.False(t, m.Prev())
	assert.Equal(t, 1, m.Selection())
	assert.Equal(t, 1, m.Top())

	for m.Next() {
	}
	require.Equal(t, 5, m.Selection())
	require.Equal(t, 3, m.Top())

	// Up inside the window first, then scroll.
	require.True(t, m.Prev())
	require.True(t, m.Prev())
	assert.Equal(t, 3, m.Selection())
	assert.Equal(t, 3, m.Top())
	require.True(t, m.Prev())
	assert.Equal(t, 2, m.Selection())
	assert.Equal(t, 2, m.Top())

	for m.Prev() {
	}
	assert.Equal(t, 1, m.Selection())
	assert.Equal(t, 1, m.Top())
}

func TestModel_ChangesIdempotent(t *testing.T) {
	m, err := NewModel(8, 4, AlignCenter, withTitle("MENU", buttons("One", "Two", "Three", "Four")...)...)
	require.NoError(t, err)

	first := m.Changes()
	assert.Equal(t, []RowWrite{
		{Text: "  MENU  ", Row: 0},
		{Text: "  One   ", Row: 1, Inverted: true},
		{Text: "  Two   ", Row: 2},
		{Text: " Three  ", Row: 3},
	}, first)
	assert.Empty(t, m.Changes())

	require.True(t, m.Next())
	assert.Equal(t, []RowWrite{
		{Text: "  One   ", Row: 1},
		{Text: "  Two   ", Row: 2, Inverted: true},
	}, m.Changes())

	require.True(t, m.Next())
	require.True(t, m.Next()) // scrolls
	assert.Equal(t, []RowWrite{
		{Text: "  Two   ", Row: 1},
		{Text: " Three  ", Row: 2},
		{Text: "  Four  ", Row: 3, Inverted: true},
	}, m.Changes())
	assert.Empty(t, m.Changes())
}

func TestModel_BlankRowsClearedOnce(t *testing.T) {
	m, err := NewModel(4, 4, AlignLeft, withTitle("T", buttons("A")...)...)
	require.NoError(t, err)

	assert.Equal(t, []RowWrite{
		{Text: "T   ", Row: 0},
		{Text: "A   ", Row: 1, Inverted: true},
		{Text: "    ", Row: 2},
		{Text: "    ", Row: 3},
	}, m.Changes())
	assert.Empty(t, m.Changes())

	m.MarkAllDirty()
	assert.Len(t, m.Changes(), 4)

	require.NoError(t, m.Add(NewButton("B", nil)))
	assert.Equal(t, []RowWrite{{Text: "B   ", Row: 2}}, m.Changes())
}

func TestModel_AddRejectsLateTitle(t *testing.T) {
	m, err := NewModel(8, 4, AlignLeft, buttons("A")...)
	require.NoError(t, err)
	err = m.Add(NewTitle("late"))
	assert.True(t, errors.Is(err, ErrTitleAfterEntries))
	assert.Equal(t, 1, m.Len())
}

func TestSetting_Cycle(t *testing.T) {
	var got []string
	s, err := NewSetting("Vol", []string{"lo", "hi"}, func(v string) { got = append(got, v) })
	require.NoError(t, err)

	assert.Equal(t, "Vol lo", s.Text())
	assert.Equal(t, "hi", s.Cycle())
	assert.Equal(t, "lo", s.Cycle())
	assert.Equal(t, []string{"hi", "lo"}, got)

	_, err = NewSetting("Empty", nil, nil)
	assert.Error(t, err)
}
