// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// NormalizeInput prepares text typed or pasted by the user for sending:
// NFC normalization, CRLF folded to LF, surrounding whitespace removed.
// Inner whitespace and indentation are kept.
func NormalizeInput(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// DisplayWidth returns the terminal cell width of s. CJK characters count
// as two cells.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// WrapLine breaks a single line into pieces no wider than width cells.
// Breaks prefer spaces; runs without spaces (common in Chinese text) are cut
// at the cell limit. width < 1 returns the line unchanged.
func WrapLine(line string, width int) []string {
	if width < 1 || runewidth.StringWidth(line) <= width {
		return []string{line}
	}

	var out []string
	var cur strings.Builder
	curWidth := 0
	lastSpace := -1 // byte offset in cur just after the last space

	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if curWidth+w > width && cur.Len() > 0 {
			s := cur.String()
			if lastSpace > 0 && lastSpace < len(s) {
				out = append(out, strings.TrimRight(s[:lastSpace], " "))
				rest := s[lastSpace:]
				cur.Reset()
				cur.WriteString(rest)
				curWidth = runewidth.StringWidth(rest)
			} else {
				out = append(out, strings.TrimRight(s, " "))
				cur.Reset()
				curWidth = 0
			}
			lastSpace = -1
		}
		cur.WriteRune(r)
		curWidth += w
		if r == ' ' {
			lastSpace = cur.Len()
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// Truncate shortens s to at most width cells, adding an ellipsis when cut.
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
