package menu

import (
	"log/slog"

	"rotarymenu/display"
)

// Renderer is the menu's only path to the display. Display errors are logged
// and dropped; the menu has no error channel of its own.
type Renderer struct {
	d      display.Display
	geom   display.Geometry
	logger *slog.Logger
}

// NewRenderer wraps d, drawn with geometry g.
func NewRenderer(d display.Display, g display.Geometry, logger *slog.Logger) (*Renderer, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{d: d, geom: g, logger: logger}, nil
}

// Geometry returns the display geometry.
func (r *Renderer) Geometry() display.Geometry { return r.geom }

// Row writes one text row.
func (r *Renderer) Row(text string, row int, inverted bool) {
	if err := r.d.WriteRow(text, row, inverted); err != nil {
		r.logger.Warn("display write failed", "row", row, "error", err)
	}
}

// Highlight draws an outline around a row.
func (r *Renderer) Highlight(row int) {
	fh := r.geom.FontHeight
	if err := r.d.DrawRectangle(1, row*fh, r.geom.Width-1, (row+1)*fh-1, display.White, false); err != nil {
		r.logger.Warn("display rectangle failed", "row", row, "error", err)
	}
}

// Flush pushes buffered drawing to the device.
func (r *Renderer) Flush() {
	if err := r.d.Flush(); err != nil {
		r.logger.Warn("display flush failed", "error", err)
	}
}
