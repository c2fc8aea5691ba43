// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders the pieces of the SoulForge chat view.

# Components

Header (header.go) - Engine target and provider mode, plus a streaming badge.
MessageRenderer (message.go) - User, assistant and notice messages. Completed
messages are cached by ID; a streaming reply is re-rendered on every flush.
CodeBlock (codeblock.go) - Chroma-highlighted code with a language badge and
line numbers. An open block (still streaming) ends with an ellipsis.
CompletionPopup (completion.go) - Tab completion candidates for slash commands.

All components take a *styles.Theme and render plain strings; the chat model
owns layout.
*/
package components
