package display

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	oledBlack = color.RGBA{0, 0, 0, 0}
	oledWhite = color.RGBA{255, 255, 255, 255}
)

func (c Color) rgba() color.RGBA {
	if c == White {
		return oledWhite
	}
	return oledBlack
}

// OLED draws text rows on a pixel panel such as an SSD1306, using the proggy
// 8pt font. Nothing reaches the panel until Flush.
type OLED struct {
	dev  drivers.Displayer
	geom Geometry
	font *tinyfont.Font
}

var _ Display = (*OLED)(nil)

// NewOLED wraps a configured panel. The geometry must fit inside the panel.
func NewOLED(dev drivers.Displayer, g Geometry) (*OLED, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	w, h := dev.Size()
	if int(w) < g.Width || int(h) < g.Height {
		return nil, fmt.Errorf("panel %dx%d smaller than geometry %dx%d", w, h, g.Width, g.Height)
	}
	return &OLED{dev: dev, geom: g, font: &proggy.TinySZ8pt7b}, nil
}

// WriteRow implements Display. The row band is cleared, filled white when
// inverted, and the text drawn on top in the opposite color.
func (o *OLED) WriteRow(text string, row int, inverted bool) error {
	if row < 0 || row >= o.geom.Rows() {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	bg, fg := Black, White
	if inverted {
		bg, fg = White, Black
	}

	y := int16(row * o.geom.FontHeight)
	if err := tinydraw.FilledRectangle(o.dev, 0, y, int16(o.geom.Width), int16(o.geom.FontHeight), bg.rgba()); err != nil {
		return fmt.Errorf("clear row %d: %w", row, err)
	}

	text = fit(text, o.geom.Columns())
	// tinyfont positions text by baseline.
	baseline := y + int16(o.geom.FontHeight) - 1
	tinyfont.WriteLine(o.dev, o.font, 0, baseline, text, fg.rgba())
	return nil
}

// DrawRectangle implements Display.
func (o *OLED) DrawRectangle(x1, y1, x2, y2 int, c Color, filled bool) error {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	if y1 < 0 || y2 >= o.geom.Height {
		return fmt.Errorf("%w: rectangle y %d..%d", ErrRowOutOfRange, y1, y2)
	}
	w, h := int16(x2-x1+1), int16(y2-y1+1)
	if filled {
		return tinydraw.FilledRectangle(o.dev, int16(x1), int16(y1), w, h, c.rgba())
	}
	return tinydraw.Rectangle(o.dev, int16(x1), int16(y1), w, h, c.rgba())
}

// Flush implements Display.
func (o *OLED) Flush() error {
	if err := o.dev.Display(); err != nil {
		return fmt.Errorf("oled display: %w", err)
	}
	return nil
}
