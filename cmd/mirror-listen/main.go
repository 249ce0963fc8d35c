// Command mirror-listen connects to a rotarymenu mirror and prints every frame
// it receives.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"rotarymenu/display"
)

const readWait = 60 * time.Second

var screenBox = lipgloss.NewStyle().Border(lipgloss.NormalBorder())

type options struct {
	url   string
	once  bool
	raw   bool
	retry time.Duration
}

func main() {
	var o options
	flag.StringVar(&o.url, "url", "ws://127.0.0.1:8090/ws", "Mirror websocket URL")
	flag.BoolVar(&o.once, "once", false, "Print the first frame and exit")
	flag.BoolVar(&o.raw, "raw", false, "Print frames as JSON instead of rendering them")
	flag.DurationVar(&o.retry, "retry", 0, "Reconnect after this delay when the connection drops (0 exits)")
	flag.Parse()

	if _, err := url.Parse(o.url); err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		err := watch(ctx, o, os.Stdout)
		switch {
		case err == nil, ctx.Err() != nil:
			return
		case o.retry <= 0:
			log.Fatalf("mirror: %v", err)
		}
		log.Printf("mirror: %v (reconnecting in %s)", err, o.retry)
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.retry):
		}
	}
}

// watch prints frames from one connection. It returns nil when ctx ends or,
// with once set, after the first frame.
func watch(ctx context.Context, o options, out io.Writer) error {
	d := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := d.DialContext(ctx, o.url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", o.url, err)
	}
	defer conn.Close()
	log.Printf("connected to %s", o.url)

	// The server pings; answering is automatic while reads are running.
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stopped:
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}
		if o.raw {
			fmt.Fprintf(out, "%s\n", msg)
		} else if err := printFrame(out, msg); err != nil {
			log.Printf("skipping message: %v", err)
		}
		if o.once {
			return nil
		}
	}
}

// printFrame renders one mirror message as a boxed text screen.
func printFrame(out io.Writer, msg []byte) error {
	var fm display.FrameMessage
	if err := json.Unmarshal(msg, &fm); err != nil {
		return err
	}
	if fm.Type == "" {
		return errors.New("not a frame message")
	}
	ts := "-"
	if fm.Ts != nil {
		ts = fm.Ts.Local().Format("15:04:05.000")
	}
	fmt.Fprintf(out, "%s %s (%d columns)\n", ts, fm.Type, fm.Data.Columns)
	fmt.Fprintln(out, screenBox.Render(display.Render(fm.Data.Rows)))
	return nil
}
