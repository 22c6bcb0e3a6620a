// Package console connects a session to a real terminal: raw-mode key input
// and full-screen redraws, or plain line input when stdin is not a terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/term"

	"github.com/stackvity/vterm/internal/session"
)

// fdFile is satisfied by *os.File.
type fdFile interface {
	Fd() uintptr
}

// Console drives a session from In and draws it on Out.
type Console struct {
	Session *session.Session
	In      io.Reader
	Out     io.Writer
	NoColor bool
	Logger  *slog.Logger
}

func New(sess *session.Session, in io.Reader, out io.Writer, noColor bool, logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Console{Session: sess, In: in, Out: out, NoColor: noColor, Logger: logger}
}

// Run blocks until input ends (Ctrl+D or EOF) or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	if fd, ok := terminalFd(c.In); ok {
		return c.runRaw(ctx, fd)
	}
	c.Logger.Debug("Input is not a terminal, reading lines")
	return c.runLines(ctx)
}

func terminalFd(r any) (int, bool) {
	f, ok := r.(fdFile)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// runLines submits one command per input line and prints only the transcript
// lines each command added.
func (c *Console) runLines(ctx context.Context) error {
	sc := bufio.NewScanner(c.In)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := len(c.Session.View().Lines)
		_ = c.Session.Submit(sc.Text())
		lines := c.Session.View().Lines
		if len(lines) < before {
			before = 0
		}
		for _, line := range lines[before:] {
			if _, err := fmt.Fprintln(c.Out, line); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

type keyEvent struct {
	key session.Key
	err error
}

func (c *Console) runRaw(ctx context.Context, fd int) error {
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() {
		if err := term.Restore(fd, prev); err != nil {
			c.Logger.Warn("Failed to restore terminal state", "error", err)
		}
	}()

	height := func() int { return defaultHeight }
	if outFd, ok := terminalFd(c.Out); ok {
		height = func() int {
			if _, h, err := term.GetSize(outFd); err == nil && h > 0 {
				return h
			}
			return defaultHeight
		}
	}
	renderer := NewRenderer(c.Out, height, c.NoColor)
	c.Session.OnRender(func(v session.View) {
		if err := renderer.Render(v); err != nil {
			c.Logger.Warn("Render failed", "error", err)
		}
	})
	defer c.Session.OnRender(nil)
	if err := renderer.Render(c.Session.View()); err != nil {
		return err
	}

	keys := make(chan keyEvent)
	dec := NewDecoder(c.In)
	go func() {
		for {
			k, err := dec.Next()
			select {
			case keys <- keyEvent{key: k, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(c.Out, crlf)
			return ctx.Err()
		case ev := <-keys:
			if ev.err != nil {
				fmt.Fprint(c.Out, crlf)
				if errors.Is(ev.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("failed to read key: %w", ev.err)
			}
			c.Session.HandleKey(ev.key)
		}
	}
}
