// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/soulforge/internal/render"
	"github.com/jeranaias/soulforge/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock renders one code segment.
type CodeBlock struct {
	Segment  render.Segment
	MaxWidth int
	Theme    *styles.Theme
}

// Render renders the code block with a language badge, line numbers and
// syntax highlighting. Open blocks get a trailing "streaming" marker.
func (c CodeBlock) Render() string {
	highlighted := Highlight(c.Segment.Code, c.Segment.Language, c.Theme.ChromaStyle(), c.Theme.ChromaFormatter())
	lines := strings.Split(highlighted, "\n")

	var b strings.Builder
	b.WriteString(c.Theme.CodeLangBadge.Render(c.Segment.Language))
	for i, line := range lines {
		b.WriteString("\n")
		b.WriteString(c.Theme.CodeLineNum.Render(strconv.Itoa(i + 1)))
		b.WriteString(line)
	}
	if c.Segment.Open {
		b.WriteString("\n")
		b.WriteString(c.Theme.CodeOpen.Render("…"))
	}

	maxWidth := c.MaxWidth - 2
	if maxWidth < 20 {
		maxWidth = 20
	}
	return c.Theme.CodeBlock.MaxWidth(maxWidth).Render(b.String())
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// Highlight applies chroma highlighting to code. Unknown languages are
// guessed from the content; any failure returns the code unchanged.
func Highlight(code, language, style, formatter string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	st := chromaStyles.Get(style)
	if st == nil {
		st = chromaStyles.Fallback
	}

	f := formatters.Get(formatter)
	if f == nil {
		f = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := f.Format(&buf, st, iterator); err != nil {
		return code
	}
	// Formatters may end with a reset sequence plus newline.
	return strings.TrimSuffix(buf.String(), "\n")
}
