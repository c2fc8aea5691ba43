// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider routes a chat turn to the configured LLM backend.
//
// Every backend is an Adapter that turns its own streaming mechanism into
// one lazy, ordered sequence of text fragments (iter.Seq2[string, error]).
// Adapters report expected failures (missing key, HTTP errors, network
// errors) as a final text fragment and end the sequence. A non-nil error
// from the sequence means something went wrong that no adapter anticipated.
//
// # Key Types
//
//   - Kind: which backend a Config targets (hosted Gemini or custom)
//   - Config: immutable per-turn snapshot of provider settings
//   - Entry: one read-only history item sent upstream
//   - Adapter: the streaming capability every backend implements
//   - Dispatcher: picks the adapter for a Config; no retries, no fallback
//
// # Usage
//
//	d := provider.NewDispatcher(gemini.New(), compat.New())
//	for fragment, err := range d.Stream(ctx, history, "Build a lock-on system", cfg) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(fragment)
//	}
//
// # Citations
//
// Adapters that receive web-search grounding report sources through
// ReportCitations. Callers opt in with WithCitations on the turn's context.
package provider
