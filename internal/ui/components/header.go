// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the SoulForge TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/soulforge/internal/provider"
	"github.com/jeranaias/soulforge/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar showing the active target and provider.
type Header struct {
	Width     int
	UEVersion string
	Provider  provider.Kind
	Busy      bool
	theme     *styles.Theme
}

// NewHeader creates a Header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Width: 80, theme: theme}
}

// StatusLine returns the unstyled target/mode line.
func StatusLine(ueVersion string, kind provider.Kind) string {
	return fmt.Sprintf("TARGET: UNREAL ENGINE %s | MODE: %s", ueVersion, strings.ToUpper(string(kind)))
}

// View renders the header across the full width.
func (h *Header) View() string {
	brand := h.theme.Brand.Render("SoulForge")
	status := StatusLine(h.UEVersion, h.Provider)
	if h.Busy {
		status += " | STREAMING"
	}
	gap := h.Width - lipgloss.Width(brand) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Width(h.Width).Render(brand + strings.Repeat(" ", gap) + status)
}
