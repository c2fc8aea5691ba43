// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns chat message text into display segments.
//
// Parsing is a pure function of the text. It holds no state between calls,
// so a streaming message is simply re-parsed on every update and the same
// input always produces the same segments.
//
// # Key Types
//
//   - Segment: either a prose block (lines of spans) or a fenced code block
//   - Line: one display line of prose, made of Spans
//   - Span: a run of plain or strong (**bold**) text
//   - Parser: parse policy; the zero value drops unterminated fences
//
// # Usage
//
//	for _, seg := range render.Parse(msg.Content) {
//	    switch seg.Kind {
//	    case render.KindCode:
//	        fmt.Println(seg.Language, seg.Code)
//	    case render.KindProse:
//	        for _, line := range seg.Lines {
//	            fmt.Println(line.Text())
//	        }
//	    }
//	}
package render
