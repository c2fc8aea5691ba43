// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/jeranaias/soulforge/internal/model"
)

// =============================================================================
// PROVIDER KIND
// =============================================================================

// Kind selects a backend.
type Kind string

const (
	// KindHosted is the Gemini API through the official SDK.
	KindHosted Kind = "gemini"
	// KindCustom is any OpenAI-compatible chat completions endpoint.
	KindCustom Kind = "custom"
)

// ParseKind accepts the stored names plus a few aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gemini", "hosted", "google":
		return KindHosted, nil
	case "custom", "openai", "compat":
		return KindCustom, nil
	default:
		return "", fmt.Errorf("unknown provider %q (valid: gemini, custom)", s)
	}
}

// =============================================================================
// TURN CONFIG
// =============================================================================

// Config is the provider configuration for a single turn. It is a plain
// value: the session copies it when a turn starts, so edits made while a
// reply is streaming only affect the next turn.
type Config struct {
	Provider Kind

	// APIKey is the already-resolved credential for Provider. Any fallback
	// to a process-wide default happens before the snapshot is taken.
	APIKey string

	// BaseURL and Model apply to KindCustom only.
	BaseURL string
	Model   string

	// SearchEnabled turns on web-search grounding, KindHosted only.
	SearchEnabled bool

	// TargetVersion is the Unreal Engine version interpolated into the
	// system instruction.
	TargetVersion string
}

// DisplayName names the model core for notices and status lines.
func (c Config) DisplayName() string {
	if c.Provider == KindHosted {
		return "Gemini"
	}
	return c.Model
}

// =============================================================================
// STREAMING CAPABILITY
// =============================================================================

// Entry is one history item as sent upstream.
type Entry struct {
	Role    model.Role
	Content string
}

// EntriesFrom converts messages to history entries, dropping notices.
func EntriesFrom(msgs []model.Message) []Entry {
	out := make([]Entry, 0, len(msgs))
	for _, m := range msgs {
		if !m.Role.IsConversational() {
			continue
		}
		out = append(out, Entry{Role: m.Role, Content: m.Content})
	}
	return out
}

// Adapter produces the reply to message as an ordered fragment sequence.
// The sequence must terminate. Implementations must not retain history.
type Adapter interface {
	Stream(ctx context.Context, history []Entry, message string, cfg Config) iter.Seq2[string, error]
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(ctx context.Context, history []Entry, message string, cfg Config) iter.Seq2[string, error]

// Stream calls f.
func (f AdapterFunc) Stream(ctx context.Context, history []Entry, message string, cfg Config) iter.Seq2[string, error] {
	return f(ctx, history, message, cfg)
}

// Fragments returns a sequence yielding each of texts in order.
func Fragments(texts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, t := range texts {
			if !yield(t, nil) {
				return
			}
		}
	}
}
