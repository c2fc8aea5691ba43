// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the SoulForge TUI.
//
// Colors are lipgloss.AdaptiveColor values, so the same palette works on
// dark and light terminals. Theme bundles the styles used by the chat view
// and picks chroma settings that match the terminal.
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	header := theme.Header.Render("TARGET: UNREAL ENGINE 5.4 | MODE: GEMINI")
package styles
