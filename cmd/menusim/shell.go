package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"rotarymenu/display"
	"rotarymenu/hal/sim"
	"rotarymenu/input"
	"rotarymenu/menu"
)

// shell turns typed commands into knob movements on the simulated board.
// All board access happens on the shell goroutine.
type shell struct {
	out   io.Writer
	knob  *sim.Knob
	nav   *menu.Navigator
	queue *input.Queue
	frame func() []display.Row
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
Knob:
  cw [n]       - Turn clockwise n detents (default 1)
  ccw [n]      - Turn counter-clockwise n detents (default 1)
  jiggle       - Move off the detent and back without a step
  press        - Press the button and let it settle
  release      - Release the button and let it settle
  click        - Press and release
  hold <ms>    - Press, keep it down for ms, release
  bounce       - Chatter the contact, leaving it pressed

Clock:
  wait <ms>    - Advance the simulated clock

Other:
  show         - Print the screen
  status       - Show the current menu and queue counters
  help         - Show this help
  quit         - Exit`)
}

// run reads commands until quit, EOF or ctx ends.
func (s *shell) run(ctx context.Context, rl *readline.Instance) {
	s.printHelp()
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}
		if s.exec(line) {
			return
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "cw", "right", "r":
		s.knob.Turn(s.count(args))
	case "ccw", "left", "l":
		s.knob.Turn(-s.count(args))
	case "jiggle":
		s.knob.Jiggle()
	case "press", "p":
		s.knob.Press()
		s.knob.Settle()
	case "release", "u":
		s.knob.Release()
		s.knob.Settle()
	case "click", "c":
		s.knob.Click()
	case "hold", "h":
		d, ok := s.millis(args, "hold <ms>")
		if ok {
			s.knob.Hold(d)
		}
	case "bounce":
		s.knob.Bounce()
	case "wait", "w":
		d, ok := s.millis(args, "wait <ms>")
		if ok {
			s.knob.Board.Advance(d)
		}
	case "show":
		fmt.Fprintln(s.out, display.Render(s.frame()))
	case "status":
		fmt.Fprintf(s.out, "menu=%q depth=%d clock=%s queued=%d dropped=%d\n",
			s.nav.Current(), s.nav.Depth(), s.knob.Board.Now(), s.queue.Len(), s.queue.Dropped())
	case "help", "?":
		s.printHelp()
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *shell) count(args []string) int {
	if len(args) == 0 {
		return 1
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		fmt.Fprintf(s.out, "Invalid count: %s\n", args[0])
		return 0
	}
	return n
}

func (s *shell) millis(args []string, usage string) (time.Duration, bool) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage:", usage)
		return 0, false
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil || ms < 0 {
		fmt.Fprintf(s.out, "Invalid duration: %s\n", args[0])
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
