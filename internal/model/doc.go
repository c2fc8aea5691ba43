// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: one chat message (role, content, streaming flag, citations)
//   - Role: who produced a message (user, assistant, system-notice)
//   - Conversation: ordered, chronological message history
//   - Citation: a web source attached to an assistant message by search grounding
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.NewUserMessage("Build a stamina component"))
//	reply := conv.Append(model.NewAssistantMessage())
//	reply.Content += "Sure."
//	for _, msg := range conv.Snapshot() {
//	    fmt.Println(msg.Role.DisplayName(), msg.Content)
//	}
//
// A Conversation is not safe for concurrent use; the session package owns the
// live history and hands out copies.
package model
