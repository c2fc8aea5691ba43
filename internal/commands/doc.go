// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the line REPL.
//
// Handlers return a tea.Cmd. Running the command yields one of the message
// types in this package (or tea.QuitMsg); the TUI feeds it through its
// update loop and the REPL switches on it directly.
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /new: Start a new conversation
//   - /module <name>: Send a prompt from the module library
//   - /modules: List the module library
//   - /set <key> <value>: Change and save a setting
//   - /settings: Show current settings
//   - /quit: Exit
//
// # Usage
//
//	registry := commands.NewRegistry()
//	parser := commands.NewParser(registry)
//	if res := parser.Parse(input); res.IsCommand {
//	    cmd := registry.Execute(ctx, res)
//	    msg := cmd()
//	}
package commands
