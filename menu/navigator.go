package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrUnknownMenu   = errors.New("unknown menu")
	ErrDuplicateMenu = errors.New("duplicate menu")
)

type navKind uint8

const (
	navNone navKind = iota
	navGoto
	navBack
	navExit
)

type navRequest struct {
	kind   navKind
	target string
}

// Navigator switches between named menus. Entry actions from Goto, Back and
// Exit close the running menu and leave a request that Run acts on. A menu
// that closes without a request is shown again.
type Navigator struct {
	logger *slog.Logger

	mu      sync.Mutex
	menus   map[string]*Menu
	stack   []string
	current string
	pending navRequest
}

// NewNavigator creates an empty navigator.
func NewNavigator(logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{logger: logger, menus: make(map[string]*Menu)}
}

// Add registers m under its name.
func (n *Navigator) Add(m *Menu) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.menus[m.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateMenu, m.Name())
	}
	n.menus[m.Name()] = m
	return nil
}

// Menu returns the menu registered under name.
func (n *Navigator) Menu(name string) (*Menu, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	m, ok := n.menus[name]
	return m, ok
}

// Goto returns an action that opens the named menu on top of the current one.
func (n *Navigator) Goto(name string) Action {
	return func() Outcome {
		if _, ok := n.Menu(name); !ok {
			n.logger.Error("goto unknown menu", "target", name)
			return Stay
		}
		n.request(navRequest{kind: navGoto, target: name})
		return Close
	}
}

// Back returns an action that returns to the previous menu. At the root menu
// it does nothing.
func (n *Navigator) Back() Action {
	return func() Outcome {
		if n.Depth() == 0 {
			return Stay
		}
		n.request(navRequest{kind: navBack})
		return Close
	}
}

// Exit returns an action that ends Run.
func (n *Navigator) Exit() Action {
	return func() Outcome {
		n.request(navRequest{kind: navExit})
		return Close
	}
}

func (n *Navigator) request(r navRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = r
}

func (n *Navigator) take() navRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	r := n.pending
	n.pending = navRequest{}
	return r
}

// Current returns the name of the menu on screen.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Depth returns the number of menus below the current one.
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack)
}

// Run shows root and follows navigation requests until an Exit action, which
// returns nil, or ctx ends.
func (n *Navigator) Run(ctx context.Context, root string, src EventSource) error {
	if _, ok := n.Menu(root); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMenu, root)
	}

	n.mu.Lock()
	n.stack = n.stack[:0]
	n.current = root
	n.pending = navRequest{}
	n.mu.Unlock()

	for {
		name := n.Current()
		m, _ := n.Menu(name)
		n.logger.Debug("showing menu", "menu", name, "depth", n.Depth())
		if err := m.Run(ctx, src); err != nil {
			return err
		}

		req := n.take()
		n.mu.Lock()
		switch req.kind {
		case navGoto:
			n.stack = append(n.stack, n.current)
			n.current = req.target
		case navBack:
			if len(n.stack) > 0 {
				n.current = n.stack[len(n.stack)-1]
				n.stack = n.stack[:len(n.stack)-1]
			}
		case navExit:
			n.mu.Unlock()
			n.logger.Info("menu navigation finished", "menu", name)
			return nil
		}
		n.mu.Unlock()
	}
}
