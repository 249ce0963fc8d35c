// Package display holds the display collaborators driven by the menu renderer:
// an in-memory Frame, a lipgloss Terminal, a websocket Mirror and, under TinyGo,
// an SSD1306 OLED.
package display

import (
	"errors"
	"fmt"
)

// Color is a monochrome pixel color.
type Color uint8

const (
	Black Color = iota
	White
)

// Display is the text-row display the menu draws on.
//
// WriteRow replaces a whole text row. DrawRectangle takes pixel coordinates with
// inclusive corners. Flush pushes buffered changes to the device.
type Display interface {
	WriteRow(text string, row int, inverted bool) error
	DrawRectangle(x1, y1, x2, y2 int, c Color, filled bool) error
	Flush() error
}

// ErrRowOutOfRange is returned for a row index outside the display.
var ErrRowOutOfRange = errors.New("row out of range")

// Geometry describes a pixel display rendered with a fixed-cell font.
type Geometry struct {
	Width      int
	Height     int
	FontWidth  int
	FontHeight int
}

// DefaultGeometry is a 128x64 panel with an 8x8 font: 16 columns by 8 rows.
func DefaultGeometry() Geometry {
	return Geometry{Width: 128, Height: 64, FontWidth: 8, FontHeight: 8}
}

// Validate checks that the geometry yields at least one full text cell.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("display size must be positive, got %dx%d", g.Width, g.Height)
	}
	if g.FontWidth <= 0 || g.FontHeight <= 0 {
		return fmt.Errorf("font size must be positive, got %dx%d", g.FontWidth, g.FontHeight)
	}
	if g.FontWidth > g.Width || g.FontHeight > g.Height {
		return fmt.Errorf("font %dx%d does not fit display %dx%d", g.FontWidth, g.FontHeight, g.Width, g.Height)
	}
	return nil
}

// Columns is the number of text columns per row.
func (g Geometry) Columns() int { return g.Width / g.FontWidth }

// Rows is the number of text rows.
func (g Geometry) Rows() int { return g.Height / g.FontHeight }

// RowAt maps a pixel y coordinate to its text row.
func (g Geometry) RowAt(y int) int { return y / g.FontHeight }

// HubConfig sizes the hub queues. Zero values select defaults.
type HubConfig struct {
	// SendBuf is the outbound queue size of each viewer.
	SendBuf int

	// BroadcastBuf is the number of published frames waiting for fan-out.
	BroadcastBuf int
}
