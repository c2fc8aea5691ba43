// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the SoulForge TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Ember - Brand color, header, assistant accents
var Ember = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}

// Gold - Strong spans, code language badges
var Gold = lipgloss.AdaptiveColor{Light: "#A16207", Dark: "#FACC15"}

// Steel - User messages, commands
var Steel = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"}

// Blood - Errors
var Blood = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

// Moss - Success, saved-settings notices
var Moss = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1C1917"}

// SurfaceDim - Header, status bar and code block backgrounds
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F4", Dark: "#0C0A09"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#D6D3D1", Dark: "#44403C"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1C1917", Dark: "#E7E5E4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#57534E", Dark: "#A8A29E"}

// TextMuted - Hints, timestamps, line numbers
var TextMuted = lipgloss.AdaptiveColor{Light: "#A8A29E", Dark: "#78716C"}
