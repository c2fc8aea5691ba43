// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the config, settings and UI
// layers: crash-safe file writes and text handling for mixed CJK/Latin
// input.
package util
