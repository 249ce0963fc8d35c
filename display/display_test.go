package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallGeometry() Geometry {
	return Geometry{Width: 32, Height: 24, FontWidth: 8, FontHeight: 8}
}

func TestGeometry_Defaults(t *testing.T) {
	g := DefaultGeometry()
	require.NoError(t, g.Validate())
	assert.Equal(t, 16, g.Columns())
	assert.Equal(t, 8, g.Rows())
	assert.Equal(t, 2, g.RowAt(23))
}

func TestGeometry_Validate(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
	}{
		{"zero size", Geometry{FontWidth: 8, FontHeight: 8}},
		{"zero font", Geometry{Width: 128, Height: 64}},
		{"font larger than display", Geometry{Width: 4, Height: 64, FontWidth: 8, FontHeight: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.g.Validate())
		})
	}
}

func TestFrame_WriteRowFitsColumns(t *testing.T) {
	f := NewFrame(smallGeometry())

	require.NoError(t, f.WriteRow("ab", 0, false))
	require.NoError(t, f.WriteRow("toolong", 1, true))

	rows := f.Snapshot()
	assert.Equal(t, Row{Text: "ab  "}, rows[0])
	assert.Equal(t, Row{Text: "tool", Inverted: true}, rows[1])
	assert.Equal(t, "    ", rows[2].Text)
	assert.Equal(t, 2, f.Writes())
}

func TestFrame_RowOutOfRange(t *testing.T) {
	f := NewFrame(smallGeometry())
	err := f.WriteRow("x", 3, false)
	assert.True(t, errors.Is(err, ErrRowOutOfRange))

	err = f.DrawRectangle(0, 16, 31, 40, White, false)
	assert.True(t, errors.Is(err, ErrRowOutOfRange))
}

func TestFrame_RectangleBoxesRows(t *testing.T) {
	f := NewFrame(smallGeometry())
	require.NoError(t, f.WriteRow("one", 1, false))
	require.NoError(t, f.DrawRectangle(1, 8, 31, 15, White, false))

	assert.Equal(t, []string{"      ", "[one ]", "      "}, f.Lines())

	// Rewriting the row clears the box.
	require.NoError(t, f.WriteRow("one", 1, true))
	assert.Equal(t, ">one <", f.Lines()[1])

	require.NoError(t, f.DrawRectangle(0, 0, 31, 7, White, true))
	assert.True(t, f.Snapshot()[0].Inverted)
}
