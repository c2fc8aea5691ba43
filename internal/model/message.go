// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleNotice marks UI-local annotations such as "settings saved".
	// Notices are shown to the user but never sent to a provider.
	RoleNotice Role = "system-notice"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "SoulForge"
	case RoleNotice:
		return "System"
	default:
		return string(r)
	}
}

// IsConversational reports whether messages with this role belong to the
// conversation sent upstream.
func (r Role) IsConversational() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Citation is a web source reported by search grounding.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Message represents a single message in a conversation.
//
// ID, Role and Timestamp never change after creation. Content and Streaming
// are only mutated by the session that owns the message.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming is true while the assistant reply is still arriving.
	Streaming bool `json:"-"`

	// Citations holds grounding sources, assistant messages only.
	Citations []Citation `json:"citations,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty assistant placeholder that is
// streaming.
func NewAssistantMessage() *Message {
	msg := NewMessage(RoleAssistant, "")
	msg.Streaming = true
	return msg
}

// NewNotice creates a UI-local notice message.
func NewNotice(content string) *Message {
	return NewMessage(RoleNotice, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Clone returns a deep copy safe to hand to other goroutines.
func (m *Message) Clone() Message {
	c := *m
	if m.Citations != nil {
		c.Citations = append([]Citation(nil), m.Citations...)
	}
	return c
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen || maxLen < 4 {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// generateID creates a unique message ID.
func generateID() string {
	return "msg_" + uuid.NewString()
}
