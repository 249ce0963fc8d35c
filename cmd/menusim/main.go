// Command menusim runs the menu against a simulated encoder driven from an
// interactive prompt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"
	"golang.org/x/sync/errgroup"

	"rotarymenu/config"
	"rotarymenu/display"
	"rotarymenu/hal/sim"
	"rotarymenu/input"
	"rotarymenu/logging"
	"rotarymenu/menu"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML config file")
		mirrorListen = flag.String("mirror-listen", "", "Websocket mirror listen address (e.g. \":8090\")")
		root         = flag.String("root", "", "Name of the first menu shown")
		logLevelStr  = flag.String("log-level", "warn", "Log level: error, warn, info, debug")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	backend := config.BackendSim
	o := config.FlagOverrides{Backend: &backend, LogLevel: logLevelStr}
	if *mirrorListen != "" {
		o.MirrorListen = mirrorListen
	}
	if *root != "" {
		o.Root = root
	}
	o.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if err := run(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "knob> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := logging.New(level, rl.Stderr())

	rc := cfg.ToRotaryConfig()
	geom := cfg.ToGeometry()

	board := sim.NewBoard()
	knob := sim.NewKnob(board, rc)

	term := display.NewTerminal(rl.Stdout(), geom, false)
	var screen display.Display = term
	var hub *display.Hub
	var mirror *display.Mirror
	if cfg.Mirror.Listen != "" {
		hub = display.NewHub(logger, cfg.ToHubConfig())
		mirror = display.NewMirror(term, geom, hub, logger)
		screen = mirror
	}

	r, err := menu.NewRenderer(screen, geom, logger)
	if err != nil {
		return err
	}
	nav, err := cfg.BuildNavigator(r, logger)
	if err != nil {
		return err
	}

	queue := input.NewQueue(cfg.Encoder.QueueSize)
	router := input.NewRouter(board, logger)
	rotary, err := input.NewRotary(rc, board, board, router, queue, logger)
	if err != nil {
		return err
	}
	defer rotary.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return nav.Run(ctx, cfg.Menu.Root, queue)
	})
	if mirror != nil {
		g.Go(func() error {
			hub.Run(ctx)
			return nil
		})
		g.Go(func() error { return mirror.ListenAndServe(ctx, cfg.Mirror.Listen, cfg.Mirror.Path) })
	}

	sh := &shell{out: rl.Stdout(), knob: knob, nav: nav, queue: queue, frame: term.Snapshot}
	g.Go(func() error {
		defer cancel()
		sh.run(ctx, rl)
		return nil
	})
	g.Go(func() error {
		// Unblocks Readline when the menu tree exits.
		<-ctx.Done()
		rl.Close()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
