// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/jeranaias/soulforge/internal/commands"
	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/session"
	"github.com/jeranaias/soulforge/internal/util"
)

const chatPrompt = "soulforge> "

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input at a time.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// historyReader is a liner prompt whose history persists to a file.
type historyReader struct {
	*liner.State
	path string
}

// openHistoryReader starts line editing and loads history from path.
func openHistoryReader(path string) *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(path); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return &historyReader{State: line, path: path}
}

// Close writes the history (0600) and restores the terminal.
func (h *historyReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o700); err == nil {
		if f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = h.WriteHistory(f)
			f.Close()
		}
	}
	return h.State.Close()
}

// =============================================================================
// CHAT
// =============================================================================

// HandleChat runs the line-mode chat until /quit, Ctrl+D or Ctrl+C at the
// prompt.
func HandleChat(ctx context.Context, a Args, d Deps) error {
	// Reject bad flags before taking over the terminal.
	if _, err := resolveSettings(ctx, a, d); err != nil {
		return err
	}

	in := openHistoryReader(filepath.Join(d.Config.DataDir(), "chat_history"))
	defer in.Close()

	return NewREPL(in, a, d).Run(ctx)
}

// REPL is the line-mode front-end. It shares the slash commands and their
// message types with the TUI.
type REPL struct {
	in        LineReader
	d         Deps
	overrides Args

	sess    *session.Session
	printer *streamPrinter

	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context
}

// NewREPL creates a REPL reading from in. The flag overrides in a apply to
// every turn.
func NewREPL(in LineReader, a Args, d Deps) *REPL {
	printer := newStreamPrinter(d.Stdout)
	registry := commands.NewRegistry()
	return &REPL{
		in:        in,
		d:         d,
		overrides: a,
		sess: session.New(d.Adapter,
			session.WithUpdateFunc(printer.Update),
			session.WithLogger(d.logger()),
		),
		printer:  printer,
		registry: registry,
		parser:   commands.NewParser(registry),
		cmdCtx:   commands.NewContext(d.Settings),
	}
}

// Session returns the REPL's session.
func (r *REPL) Session() *session.Session {
	return r.sess
}

// Run reads lines until the user quits or input ends.
func (r *REPL) Run(ctx context.Context) error {
	r.show(prompts.Welcome)

	for {
		line, err := r.in.Prompt(chatPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.d.Stdout)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line = util.NormalizeInput(line)
		if line == "" {
			continue
		}
		r.in.AppendHistory(line)

		if r.Handle(ctx, line) {
			return nil
		}
	}
}

// Handle processes one line and reports whether the REPL should exit.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	if !commands.IsCommand(line) {
		r.send(ctx, line)
		return false
	}

	cmd := r.registry.Execute(r.cmdCtx, r.parser.Parse(line))
	if cmd == nil {
		return false
	}
	return r.apply(ctx, cmd())
}

func (r *REPL) apply(ctx context.Context, msg tea.Msg) bool {
	switch msg := msg.(type) {
	case tea.QuitMsg:
		return true

	case commands.OutputMsg:
		r.show(msg.Text)

	case commands.NewConversationMsg:
		r.sess.Reset()
		r.show(prompts.Welcome)

	case commands.SendPromptMsg:
		if msg.Label != "" {
			fmt.Fprintf(r.d.Stdout, "> %s\n\n", msg.Label)
		}
		r.send(ctx, msg.Text)

	case commands.SettingsChangedMsg:
		r.show(msg.Notice)

	case commands.ErrorMsg:
		fmt.Fprintf(r.d.Stderr, "Error: %v\n", msg.Err)
	}
	return false
}

// send runs one turn. Ctrl+C stops the reply and keeps what arrived.
func (r *REPL) send(ctx context.Context, text string) {
	s, err := resolveSettings(ctx, r.overrides, r.d)
	if err != nil {
		fmt.Fprintf(r.d.Stderr, "Error: %v\n", err)
		return
	}

	turnCtx, stop := interruptible(ctx)
	defer stop()

	reply, err := r.sess.Send(turnCtx, text, s.Snapshot(r.d.defaultKey()))
	switch {
	case errors.Is(err, session.ErrEmptyInput), errors.Is(err, session.ErrTurnActive):
		fmt.Fprintf(r.d.Stderr, "Error: %v\n", err)
		return
	case err != nil:
		r.d.logger().Warn("chat turn failed", "error", err)
	}

	r.printer.Finish()
	printCitations(r.d.Stdout, reply.Citations)
	fmt.Fprintln(r.d.Stdout)
}

// show prints markdown text: rendered on a terminal, wrapped otherwise.
func (r *REPL) show(text string) {
	if r.d.Interactive {
		if out, err := renderMarkdown(text, r.d.width()); err == nil {
			fmt.Fprint(r.d.Stdout, out)
			return
		}
	}
	fmt.Fprintln(r.d.Stdout, WrapText(text, r.d.wrapWidth()))
	fmt.Fprintln(r.d.Stdout)
}
