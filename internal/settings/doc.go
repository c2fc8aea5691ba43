// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings persists the user's provider settings.
//
// Settings are stored as one JSON record under a fixed key in a small
// SQLite key-value table. Loading merges the stored record over the
// configured defaults field by field, so records written by older versions
// keep working. A missing or unreadable record yields the defaults.
//
// # Usage
//
//	store, err := settings.Open(filepath.Join(cfg.DataDir(), "settings.db"), settings.FromDefaults(cfg.Defaults))
//	s, err := store.Load(ctx)
//	turnCfg := s.Snapshot(cfg.DefaultGeminiKey)
package settings
