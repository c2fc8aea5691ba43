// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI entry points: one-shot ask, the
// line-mode chat, the module library, settings and version.
//
// Commands:
//
//	soulforge ask [--provider p] [--version v] "<prompt>"
//	soulforge chat
//	soulforge modules [<name>]
//	soulforge config show|set <key> <value>|path
//	soulforge version
//
// Provider failures are printed as reply text. Commands return an error
// wrapping ErrUsage for bad input, which callers map to exit status 2.
package cli
