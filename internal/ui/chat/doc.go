// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the SoulForge TUI.
//
// The view owns no conversation state. It renders copies taken from the
// session and patches them with streaming snapshots. Snapshots arrive from
// the turn goroutine through a StreamingBuffer, which coalesces them so
// redraws stay under the configured frame rate.
//
// # Key Types
//
//   - Model: the Bubble Tea model (header, viewport, input, status line)
//   - StreamingBuffer: rate-limited snapshot coalescing
//   - KeyMap: key bindings
//
// # Usage
//
//	buf := chat.NewStreamingBuffer(cfg.UI.BatchSize, cfg.UI.MaxFPS)
//	sess := session.New(dispatcher, session.WithUpdateFunc(buf.Write))
//	m := chat.New(chat.Options{Session: sess, Buffer: buf, Settings: store, Theme: theme})
//	p := tea.NewProgram(m, tea.WithAltScreen())
package chat
