// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/jeranaias/soulforge/internal/util"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// interruptible returns a context cancelled by Ctrl+C. Call stop to restore
// the default signal behavior.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width used for wrapping.
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the width of stdout, or DefaultTerminalWidth if
// it cannot be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// =============================================================================
// TEXT LAYOUT
// =============================================================================

// WrapText wraps every line of text to width cells. CJK characters count as
// two cells. width < 1 returns text unchanged.
func WrapText(text string, width int) string {
	if width < 1 {
		return text
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, util.WrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

// screenLines counts the terminal rows text occupies at width, including
// soft wraps.
func screenLines(text string, width int) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, line := range strings.Split(text, "\n") {
		w := util.DisplayWidth(line)
		if width < 1 || w <= width {
			n++
			continue
		}
		n += (w + width - 1) / width
	}
	return n
}

// eraseLines clears the last n rows written to w, leaving the cursor at the
// start of the first cleared row.
func eraseLines(w io.Writer, n int) {
	if n <= 0 {
		return
	}
	out := termenv.NewOutput(w)
	out.ClearLines(n - 1)
	_, _ = out.WriteString("\r")
}
