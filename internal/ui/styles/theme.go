// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Header and status line
	Header    lipgloss.Style
	Brand     lipgloss.Style
	StatusBar lipgloss.Style

	// Message roles
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantBody  lipgloss.Style
	NoticeBubble   lipgloss.Style
	Timestamp      lipgloss.Style

	// Rendered content
	Strong        lipgloss.Style
	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style
	CodeOpen      lipgloss.Style
	Citation      lipgloss.Style
	CitationTitle lipgloss.Style

	// Input area
	InputContainer lipgloss.Style
	Hint           lipgloss.Style

	// Feedback
	Spinner lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
}

// NewTheme creates a theme. mode is "auto", "dark" or "light"; "auto"
// asks the terminal for its background.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// ChromaStyle names the syntax highlighting style matching the background.
func (t *Theme) ChromaStyle() string {
	if t.IsDark {
		return "monokai"
	}
	return "friendly"
}

// ChromaFormatter names the chroma formatter for the color profile.
func (t *Theme) ChromaFormatter() string {
	switch t.ColorProfile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.Ascii:
		return "noop"
	default:
		return "terminal256"
	}
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Ember).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Gold)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Steel)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Ember)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Steel).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBody = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Ember).
		PaddingLeft(1)

	t.NoticeBubble = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	t.Strong = lipgloss.NewStyle().Bold(true).Foreground(Gold)

	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CodeLangBadge = lipgloss.NewStyle().
		Bold(true).
		Foreground(Gold).
		Padding(0, 1)

	t.CodeLineNum = lipgloss.NewStyle().
		Foreground(TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	t.CodeOpen = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.Citation = lipgloss.NewStyle().Foreground(TextSecondary)
	t.CitationTitle = lipgloss.NewStyle().Foreground(Steel).Underline(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.Hint = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.Spinner = lipgloss.NewStyle().Foreground(Ember)
	t.Error = lipgloss.NewStyle().Foreground(Blood).Bold(true)
	t.Success = lipgloss.NewStyle().Foreground(Moss)
}
