// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/soulforge/internal/commands"
)

// =============================================================================
// COMPLETION POPUP COMPONENT
// =============================================================================

// maxInline is how many candidates the inline view lists.
const maxInline = 4

// CompletionPopup holds slash-command completion candidates and the one
// Tab currently selects. Repeated Tab presses cycle through them.
type CompletionPopup struct {
	completions []commands.Completion
	selected    int
}

// NewCompletionPopup creates an empty popup.
func NewCompletionPopup() *CompletionPopup {
	return &CompletionPopup{}
}

// SetCompletions replaces the candidates and selects the first.
func (c *CompletionPopup) SetCompletions(completions []commands.Completion) {
	c.completions = completions
	c.selected = 0
}

// Next selects the next candidate, wrapping around.
func (c *CompletionPopup) Next() {
	if len(c.completions) == 0 {
		return
	}
	c.selected = (c.selected + 1) % len(c.completions)
}

// Selected returns the current candidate.
func (c *CompletionPopup) Selected() (commands.Completion, bool) {
	if c.selected < 0 || c.selected >= len(c.completions) {
		return commands.Completion{}, false
	}
	return c.completions[c.selected], true
}

// HasCompletions returns true if there are candidates to show.
func (c *CompletionPopup) HasCompletions() bool {
	return len(c.completions) > 0
}

// Clear drops all candidates.
func (c *CompletionPopup) Clear() {
	c.completions = nil
	c.selected = 0
}

// ViewInline renders the candidates on one line with the selection in
// brackets and its description after it. The result is unstyled so the
// status bar can truncate it safely.
func (c *CompletionPopup) ViewInline() string {
	if len(c.completions) == 0 {
		return ""
	}

	// Keep the selection inside the visible window.
	start := 0
	if c.selected >= maxInline {
		start = c.selected - maxInline + 1
	}
	end := min(start+maxInline, len(c.completions))

	parts := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		if i == c.selected {
			parts = append(parts, "["+c.completions[i].Value+"]")
			continue
		}
		parts = append(parts, c.completions[i].Value)
	}
	if rest := len(c.completions) - end; rest > 0 {
		parts = append(parts, fmt.Sprintf("…%d more", rest))
	}

	line := "Tab: " + strings.Join(parts, " | ")
	if desc := c.completions[c.selected].Description; desc != "" {
		line += " · " + desc
	}
	return line
}
