// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered message history of one chat session.
// Messages are kept in creation order.
type Conversation struct {
	messages []*Message
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{messages: make([]*Message, 0)}
}

// Append adds a message to the end of the history and returns it.
func (c *Conversation) Append(msg *Message) *Message {
	c.messages = append(c.messages, msg)
	return msg
}

// Find returns the message with the given ID, or nil.
func (c *Conversation) Find(id string) *Message {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			return c.messages[i]
		}
	}
	return nil
}

// Clear removes every message.
func (c *Conversation) Clear() {
	c.messages = make([]*Message, 0)
}

// Snapshot returns copies of all messages in order.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Conversational returns copies of the messages that may be sent to a
// provider. Notices are excluded.
func (c *Conversation) Conversational() []Message {
	out := make([]Message, 0, len(c.messages))
	for _, m := range c.messages {
		if !m.Role.IsConversational() {
			continue
		}
		out = append(out, m.Clone())
	}
	return out
}
