//go:build tinygo

// Command firmware runs the stock menus on a microcontroller with an SSD1306
// 128x64 OLED on I2C0 and the encoder on pins 16 (A), 17 (B) and 18 (button).
//
//	tinygo flash -target pico ./cmd/firmware
package main

import (
	"context"
	"os"
	"time"

	"machine"

	"tinygo.org/x/drivers/ssd1306"

	"rotarymenu/config"
	"rotarymenu/display"
	"rotarymenu/hal"
	"rotarymenu/hal/mcu"
	"rotarymenu/input"
	"rotarymenu/logging"
	"rotarymenu/menu"
)

const oledAddress = 0x3C

func main() {
	// Give a serial console time to attach.
	time.Sleep(time.Second)

	logger := logging.New(logging.LevelInfo, os.Stdout)
	cfg := config.DefaultConfig()
	rc := cfg.ToRotaryConfig()
	geom := cfg.ToGeometry()

	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		logger.Error("i2c configure failed", "error", err)
		halt()
	}
	dev := ssd1306.NewI2C(machine.I2C0)
	dev.Configure(ssd1306.Config{
		Address:  oledAddress,
		Width:    int16(geom.Width),
		Height:   int16(geom.Height),
		VccState: ssd1306.SWITCHCAPVCC,
	})
	dev.ClearDisplay()

	oled, err := display.NewOLED(dev, geom)
	if err != nil {
		logger.Error("display setup failed", "error", err)
		halt()
	}
	r, err := menu.NewRenderer(oled, geom, logger)
	if err != nil {
		logger.Error("renderer setup failed", "error", err)
		halt()
	}
	nav, err := cfg.BuildNavigator(r, logger)
	if err != nil {
		logger.Error("menu setup failed", "error", err)
		halt()
	}

	// The encoder has no external resistors; use the internal pull-ups.
	pins, err := mcu.New([]input.Pin{rc.PinA, rc.PinB, rc.PinButton}, true)
	if err != nil {
		logger.Error("pin setup failed", "error", err)
		halt()
	}
	rc.ActiveLow = true

	queue := input.NewQueue(cfg.Encoder.QueueSize)
	router := input.NewRouter(pins, logger)
	if _, err := input.NewRotary(rc, pins, hal.Clock{}, router, queue, logger); err != nil {
		logger.Error("encoder setup failed", "error", err)
		halt()
	}

	ctx := context.Background()
	go pins.Run(ctx)

	for {
		if err := nav.Run(ctx, cfg.Menu.Root, queue); err != nil {
			logger.Error("menu stopped", "error", err)
		}
		// An exit action returns to the root menu; there is nowhere else to go.
	}
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
