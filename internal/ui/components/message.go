// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/render"
	"github.com/jeranaias/soulforge/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer turns messages into styled terminal text. Completed
// messages never change, so their output is cached per width.
type MessageRenderer struct {
	theme *styles.Theme
	width int

	mu    sync.Mutex
	cache map[string]string
}

// NewMessageRenderer creates a renderer for the given theme.
func NewMessageRenderer(theme *styles.Theme) *MessageRenderer {
	return &MessageRenderer{
		theme: theme,
		width: 80,
		cache: make(map[string]string),
	}
}

// SetWidth sets the available width and drops cached output.
func (r *MessageRenderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width != r.width {
		r.width = width
		r.cache = make(map[string]string)
	}
}

// Forget drops all cached output, e.g. after a reset.
func (r *MessageRenderer) Forget() {
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}

// Render renders one message with its role label.
func (r *MessageRenderer) Render(msg model.Message) string {
	r.mu.Lock()
	width := r.width
	if !msg.Streaming {
		if out, ok := r.cache[msg.ID]; ok {
			r.mu.Unlock()
			return out
		}
	}
	r.mu.Unlock()

	out := r.render(msg, width)

	if !msg.Streaming {
		r.mu.Lock()
		r.cache[msg.ID] = out
		r.mu.Unlock()
	}
	return out
}

// RenderAll renders messages separated by blank lines.
func (r *MessageRenderer) RenderAll(msgs []model.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, r.Render(m))
	}
	return strings.Join(parts, "\n\n")
}

func (r *MessageRenderer) render(msg model.Message, width int) string {
	t := r.theme
	stamp := t.Timestamp.Render(msg.Timestamp.Format("15:04"))

	switch msg.Role {
	case model.RoleUser:
		label := t.UserLabel.Render(msg.Role.DisplayName()) + " " + stamp
		body := t.UserBubble.Width(bubbleWidth(width, 6)).Render(msg.Content)
		return label + "\n" + body

	case model.RoleNotice:
		body := r.renderSegments(render.Parse(msg.Content), bubbleWidth(width, 4))
		return t.NoticeBubble.Width(bubbleWidth(width, 2)).Render(body)

	default:
		label := t.AssistantLabel.Render(msg.Role.DisplayName()) + " " + stamp
		parser := render.Parser{ShowOpenFence: msg.Streaming}
		body := r.renderSegments(parser.Parse(msg.Content), bubbleWidth(width, 2))
		if msg.Streaming && body == "" {
			body = t.Hint.Render("…")
		}
		if len(msg.Citations) > 0 {
			body += "\n\n" + r.renderCitations(msg.Citations)
		}
		return label + "\n" + t.AssistantBody.Render(body)
	}
}

// renderSegments renders parsed segments: prose wrapped to width with
// strong spans highlighted, code through CodeBlock.
func (r *MessageRenderer) renderSegments(segs []render.Segment, width int) string {
	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg.Kind {
		case render.KindCode:
			parts = append(parts, CodeBlock{Segment: seg, MaxWidth: width, Theme: r.theme}.Render())
		default:
			lines := make([]string, 0, len(seg.Lines))
			for _, line := range seg.Lines {
				lines = append(lines, r.renderLine(line))
			}
			prose := strings.Trim(strings.Join(lines, "\n"), "\n")
			if prose != "" {
				parts = append(parts, lipgloss.NewStyle().Width(width).Render(prose))
			}
		}
	}
	return strings.Join(parts, "\n")
}

func (r *MessageRenderer) renderLine(line render.Line) string {
	var b strings.Builder
	for _, span := range line.Spans {
		if span.Strong {
			b.WriteString(r.theme.Strong.Render(span.Text))
		} else {
			b.WriteString(span.Text)
		}
	}
	return b.String()
}

func (r *MessageRenderer) renderCitations(cites []model.Citation) string {
	lines := []string{r.theme.Citation.Render("Sources:")}
	for i, c := range cites {
		title := c.Title
		if title == "" {
			title = c.URI
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			r.theme.Citation.Render(fmt.Sprintf("[%d]", i+1)),
			r.theme.CitationTitle.Render(title),
			r.theme.Citation.Render(c.URI)))
	}
	return strings.Join(lines, "\n")
}

func bubbleWidth(width, inset int) int {
	w := width - inset
	if w < 20 {
		w = 20
	}
	return w
}
