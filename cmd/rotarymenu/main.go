//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"rotarymenu/config"
	"rotarymenu/display"
	"rotarymenu/input"
	"rotarymenu/logging"
	"rotarymenu/menu"
)

const version = "0.3.0"

func printVersion() {
	fmt.Printf("rotarymenu v%s\n", version)
	fmt.Println("Menu daemon driven by a rotary encoder with push button")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  rotarymenu [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Reads a quadrature encoder and its button from GPIO (character device")
	fmt.Println("  or a gpio-keys input device), debounces them and drives a scrolling")
	fmt.Println("  menu rendered on the terminal and, optionally, mirrored to websocket")
	fmt.Println("  viewers.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (defaults are used when empty)")
	fmt.Println()
	fmt.Println("  -backend string")
	fmt.Println("        Input backend: gpiocdev, evdev or sim (default \"gpiocdev\")")
	fmt.Println()
	fmt.Println("  -chip string")
	fmt.Println("        GPIO chip for the gpiocdev backend (default \"gpiochip0\")")
	fmt.Println()
	fmt.Println("  -evdev-device string")
	fmt.Println("        Input device for the evdev backend")
	fmt.Println()
	fmt.Println("  -active-low")
	fmt.Println("        Encoder phases rest high (pull-up wiring)")
	fmt.Println()
	fmt.Println("  -mirror-listen string")
	fmt.Println("        Serve the screen to websocket viewers on this address (e.g. \":8090\")")
	fmt.Println()
	fmt.Println("  -terminal")
	fmt.Println("        Draw the screen on stdout (default true)")
	fmt.Println()
	fmt.Println("  -root string")
	fmt.Println("        Name of the first menu shown")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Encoder on gpiochip0 lines 16/17/18 with pull-ups")
	fmt.Println("  rotarymenu -active-low")
	fmt.Println()
	fmt.Println("  # gpio-keys device, mirrored for a remote viewer")
	fmt.Println("  rotarymenu -backend evdev -mirror-listen :8090")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Logs go to stderr while the terminal display is on")
	fmt.Println("  - Requires access to the GPIO chip or input device (gpio/input group)")
	fmt.Println()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath   = flag.String("config", "", "YAML config file")
		backendName  = flag.String("backend", "", "Input backend: gpiocdev, evdev or sim")
		chip         = flag.String("chip", "", "GPIO chip for the gpiocdev backend")
		evdevDevice  = flag.String("evdev-device", "", "Input device for the evdev backend")
		activeLow    = flag.Bool("active-low", false, "Encoder phases rest high")
		mirrorListen = flag.String("mirror-listen", "", "Websocket mirror listen address")
		terminal     = flag.Bool("terminal", true, "Draw the screen on stdout")
		root         = flag.String("root", "", "Name of the first menu shown")
		logLevelStr  = flag.String("log-level", "", "Log level: error, warn, info, debug")
		_            = flag.Bool("version", false, "Print version and exit")
		_            = flag.Bool("help", false, "Print help message")
	)
	flag.Usage = printUsage
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

	// Only flags given on the command line override the file.
	var o config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			o.Backend = backendName
		case "chip":
			o.Chip = chip
		case "evdev-device":
			o.EvdevDevice = evdevDevice
		case "active-low":
			o.ActiveLow = activeLow
		case "mirror-listen":
			o.MirrorListen = mirrorListen
		case "terminal":
			o.Terminal = terminal
		case "root":
			o.Root = root
		case "log-level":
			o.LogLevel = logLevelStr
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	var logOut io.Writer = os.Stdout
	if cfg.Display.Terminal {
		logOut = os.Stderr
	}
	logger := logging.New(level, logOut)

	logger.Debug("starting rotarymenu", "version", version)
	if err := run(&cfg, logger); err != nil {
		logger.Error("rotarymenu stopped", "error", err)
		os.Exit(1)
	}
}

// run wires input, menus and displays and blocks until a signal, an exit
// action or a component failure.
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()

	rc := cfg.ToRotaryConfig()
	geom := cfg.ToGeometry()

	be, err := openBackend(cfg, rc, logger)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Input.Backend, err)
	}
	defer be.close()

	// ------------------------------------------------------------------------
	// Display chain: terminal (or a plain frame) optionally behind a mirror
	// ------------------------------------------------------------------------
	var screen display.Display
	if cfg.Display.Terminal {
		screen = display.NewTerminal(os.Stdout, geom, cfg.Display.Clear)
	}
	var mirror *display.Mirror
	var hub *display.Hub
	if cfg.Mirror.Listen != "" {
		hub = display.NewHub(logger.With("component", "mirror"), cfg.ToHubConfig())
		mirror = display.NewMirror(screen, geom, hub, logger)
		screen = mirror
	}
	if screen == nil {
		screen = display.NewFrame(geom)
	}

	r, err := menu.NewRenderer(screen, geom, logger)
	if err != nil {
		return err
	}
	nav, err := cfg.BuildNavigator(r, logger)
	if err != nil {
		return err
	}

	// ------------------------------------------------------------------------
	// Input chain: backend -> router -> rotary -> queue
	// ------------------------------------------------------------------------
	queue := input.NewQueue(cfg.Encoder.QueueSize)
	router := input.NewRouter(be.hw, logger)
	rotary, err := input.NewRotary(rc, be.hw, be.sched, router, queue, logger)
	if err != nil {
		return err
	}
	defer rotary.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if be.run != nil {
		g.Go(func() error { return be.run(ctx) })
	}
	if mirror != nil {
		g.Go(func() error {
			hub.Run(ctx)
			return nil
		})
		g.Go(func() error { return mirror.ListenAndServe(ctx, cfg.Mirror.Listen, cfg.Mirror.Path) })
	}
	g.Go(func() error {
		// An exit action ends the daemon.
		defer cancel()
		return nav.Run(ctx, cfg.Menu.Root, queue)
	})

	logger.Info("rotarymenu running",
		"backend", cfg.Input.Backend,
		"root", cfg.Menu.Root,
		"menus", len(cfg.Menu.Menus),
		"mirror", cfg.Mirror.Listen)

	err = g.Wait()
	if dropped := queue.Dropped(); dropped > 0 {
		logger.Warn("input events dropped", "count", dropped)
	}
	if errors.Is(err, context.Canceled) {
		logger.Info("shutting down")
		return nil
	}
	return err
}
