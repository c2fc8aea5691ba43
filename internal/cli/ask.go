// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/session"
	"github.com/jeranaias/soulforge/internal/settings"
	"github.com/jeranaias/soulforge/internal/util"
)

// =============================================================================
// ASK
// =============================================================================

// HandleAsk runs one turn for a.Query and writes the reply to d.Stdout.
// Provider failures arrive as reply text; only bad flags return an error.
func HandleAsk(ctx context.Context, a Args, d Deps) error {
	s, err := resolveSettings(ctx, a, d)
	if err != nil {
		return err
	}
	return ask(ctx, util.NormalizeInput(a.Query), s, a.Plain, d)
}

func ask(ctx context.Context, prompt string, s settings.Settings, plain bool, d Deps) error {
	cfg := s.Snapshot(d.defaultKey())
	d.logger().Debug("ask", "provider", cfg.Provider, "model", cfg.DisplayName(), "ue_version", cfg.TargetVersion)

	ctx, stop := interruptible(ctx)
	defer stop()

	printer := newStreamPrinter(d.Stdout)
	sess := session.New(d.Adapter,
		session.WithUpdateFunc(printer.Update),
		session.WithLogger(d.logger()),
	)

	reply, err := sess.Send(ctx, prompt, cfg)
	if err != nil {
		// The reply already carries the failure notice.
		d.logger().Warn("ask turn failed", "error", err)
	}

	if d.Interactive && !plain && !reply.IsEmpty() {
		rendered, rerr := renderMarkdown(reply.Content, d.width())
		if rerr == nil {
			eraseLines(d.Stdout, screenLines(printer.Printed(), d.width()))
			fmt.Fprint(d.Stdout, rendered)
			printCitations(d.Stdout, reply.Citations)
			return nil
		}
		d.logger().Debug("markdown render failed", "error", rerr)
	}

	printer.Finish()
	printCitations(d.Stdout, reply.Citations)
	return nil
}

// resolveSettings loads the stored settings and applies the per-call flag
// overrides. Overrides are never saved.
func resolveSettings(ctx context.Context, a Args, d Deps) (settings.Settings, error) {
	if d.Settings == nil {
		return settings.Settings{}, fmt.Errorf("settings store unavailable")
	}
	s, err := d.Settings.Load(ctx)
	if err != nil {
		return s, fmt.Errorf("load settings: %w", err)
	}

	overrides := []struct{ key, value string }{
		{"provider", a.Provider},
		{"version", a.Version},
		{"search", a.Search},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := s.Set(o.key, o.value); err != nil {
			return s, fmt.Errorf("%w: --%s: %v", ErrUsage, o.key, err)
		}
	}
	return s, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// renderMarkdown formats text for the terminal with glamour.
func renderMarkdown(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

func printCitations(w io.Writer, cites []model.Citation) {
	if len(cites) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, c := range cites {
		title := c.Title
		if title == "" {
			title = c.URI
		}
		fmt.Fprintf(w, "[%d] %s %s\n", i+1, title, c.URI)
	}
}

// streamPrinter writes the growth of a streaming reply. Session updates
// carry the whole message, so only the new suffix is written. If the content
// is replaced rather than extended (a failed turn), the replacement is
// written on a fresh line.
type streamPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	id      string
	content string // last content mirrored
	printed strings.Builder
}

func newStreamPrinter(w io.Writer) *streamPrinter {
	return &streamPrinter{w: w}
}

// Update is a session update func.
func (p *streamPrinter) Update(msg model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if msg.ID != p.id {
		p.id = msg.ID
		p.content = ""
		p.printed.Reset()
	}

	out := "\n" + msg.Content
	if strings.HasPrefix(msg.Content, p.content) {
		out = msg.Content[len(p.content):]
	}
	fmt.Fprint(p.w, out)
	p.printed.WriteString(out)
	p.content = msg.Content
}

// Printed returns everything written for the current reply.
func (p *streamPrinter) Printed() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed.String()
}

// Finish ends the current reply with a newline.
func (p *streamPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed.Len() > 0 {
		fmt.Fprintln(p.w)
	}
	p.id = ""
	p.content = ""
	p.printed.Reset()
}
