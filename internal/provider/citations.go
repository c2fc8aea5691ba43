// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"

	"github.com/jeranaias/soulforge/internal/model"
)

// CitationFunc receives grounding sources as they arrive. Calls happen on
// the goroutine consuming the stream, between fragments.
type CitationFunc func(cites []model.Citation)

type citationKey struct{}

// WithCitations returns a context whose adapters report grounding sources
// to fn.
func WithCitations(ctx context.Context, fn CitationFunc) context.Context {
	return context.WithValue(ctx, citationKey{}, fn)
}

// ReportCitations forwards cites to the CitationFunc installed on ctx, if
// any.
func ReportCitations(ctx context.Context, cites []model.Citation) {
	if len(cites) == 0 {
		return
	}
	if fn, ok := ctx.Value(citationKey{}).(CitationFunc); ok && fn != nil {
		fn(cites)
	}
}
