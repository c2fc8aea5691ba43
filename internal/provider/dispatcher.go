// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"iter"
)

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher forwards a turn to the adapter matching Config.Provider.
// It is stateless. A failure in one provider is never retried against the
// other.
type Dispatcher struct {
	hosted Adapter
	custom Adapter
}

// NewDispatcher creates a dispatcher over the two backends.
func NewDispatcher(hosted, custom Adapter) *Dispatcher {
	return &Dispatcher{hosted: hosted, custom: custom}
}

// Stream implements Adapter.
func (d *Dispatcher) Stream(ctx context.Context, history []Entry, message string, cfg Config) iter.Seq2[string, error] {
	var a Adapter
	switch cfg.Provider {
	case KindHosted:
		a = d.hosted
	case KindCustom:
		a = d.custom
	}
	if a == nil {
		return Fragments(fmt.Sprintf("错误: 不支持的 AI 提供方 %q。", cfg.Provider))
	}
	return a.Stream(ctx, history, message, cfg)
}
