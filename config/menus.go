package config

import (
	"fmt"
	"log/slog"
	"time"

	"rotarymenu/menu"
)

// BuildNavigator creates every configured menu, drawn through r, and
// registers them with a new navigator. The config must be valid.
func (c *Config) BuildNavigator(r *menu.Renderer, logger *slog.Logger) (*menu.Navigator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	alignment, err := menu.ParseAlignment(c.Menu.Alignment)
	if err != nil {
		return nil, fmt.Errorf("menu.alignment: %w", err)
	}

	nav := menu.NewNavigator(logger)
	for _, mc := range c.Menu.Menus {
		entries := make([]menu.Entry, 0, len(mc.Titles)+len(mc.Entries))
		for _, t := range mc.Titles {
			entries = append(entries, menu.NewTitle(t))
		}
		for _, ec := range mc.Entries {
			e, err := buildEntry(ec, nav, logger.With("menu", mc.Name))
			if err != nil {
				return nil, fmt.Errorf("menu %q entry %q: %w", mc.Name, ec.Label, err)
			}
			entries = append(entries, e)
		}

		opts := menu.Options{
			Alignment:     alignment,
			FlashCount:    c.Menu.FlashCount,
			FlashInterval: time.Duration(c.Menu.FlashIntervalMS) * time.Millisecond,
			OnLongPress:   navAction(mc.LongPress, "", nav),
			Logger:        logger,
		}
		m, err := menu.New(mc.Name, r, opts, entries...)
		if err != nil {
			return nil, err
		}
		if err := nav.Add(m); err != nil {
			return nil, err
		}
	}
	return nav, nil
}

func buildEntry(ec EntryConfig, nav *menu.Navigator, logger *slog.Logger) (menu.Entry, error) {
	if len(ec.Options) > 0 {
		label := ec.Label
		return menu.NewSetting(label, ec.Options, func(v string) {
			logger.Info("setting changed", "setting", label, "value", v)
		})
	}
	if ec.Action == ActionMessage {
		label, msg := ec.Label, ec.Message
		return menu.NewButton(label, func() menu.Outcome {
			logger.Info("menu message", "entry", label, "message", msg)
			return menu.Stay
		}), nil
	}
	return menu.NewButton(ec.Label, navAction(ec.Action, ec.Target, nav)), nil
}

// navAction maps a navigation action name to a menu action; other names map
// to nil.
func navAction(action, target string, nav *menu.Navigator) menu.Action {
	switch action {
	case ActionGoto:
		return nav.Goto(target)
	case ActionBack:
		return nav.Back()
	case ActionExit:
		return nav.Exit()
	default:
		return nil
	}
}
