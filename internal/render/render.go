// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"regexp"
	"strings"
)

// DefaultLanguage is used for fences that carry no language tag.
const DefaultLanguage = "cpp"

const fence = "```"

var (
	// Lazy so each opening fence pairs with the nearest closing one.
	fenceRe = regexp.MustCompile("(?s)```.*?```")

	// codeRe needs a line break right after the optional tag.
	codeRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")

	openCodeRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*)$")

	strongRe = regexp.MustCompile(`\*\*.*?\*\*`)
)

// =============================================================================
// SEGMENT TYPES
// =============================================================================

// Kind distinguishes prose segments from code segments.
type Kind int

const (
	KindProse Kind = iota
	KindCode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindProse:
		return "prose"
	case KindCode:
		return "code"
	default:
		return "unknown"
	}
}

// Span is a run of text with uniform emphasis.
type Span struct {
	Text   string
	Strong bool
}

// Line is one display line of prose. An empty Line is a blank line.
type Line struct {
	Spans []Span
}

// Text returns the line without emphasis markers.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Segment is one block of rendered output.
type Segment struct {
	Kind Kind

	// Prose
	Lines []Line

	// Code
	Language string
	Code     string

	// Open marks a code block whose closing fence has not arrived yet.
	// Only produced when Parser.ShowOpenFence is set.
	Open bool
}

// =============================================================================
// PARSER
// =============================================================================

// Parser holds the parse policy. The zero value is ready to use.
type Parser struct {
	// ShowOpenFence renders a trailing fence without a closing delimiter as
	// an open code segment instead of dropping it. Intended for messages
	// that are still streaming.
	ShowOpenFence bool
}

// Parse splits text into segments using the default policy, which drops
// unterminated and malformed fences.
func Parse(text string) []Segment {
	return Parser{}.Parse(text)
}

// Parse splits text into ordered segments.
func (p Parser) Parse(text string) []Segment {
	var segs []Segment

	last := 0
	for _, loc := range fenceRe.FindAllStringIndex(text, -1) {
		segs = appendProse(segs, text[last:loc[0]])
		if seg, ok := parseCode(text[loc[0]:loc[1]]); ok {
			segs = append(segs, seg)
		}
		last = loc[1]
	}

	// Only the tail can still hold an opening fence without a partner.
	tail := text[last:]
	if i := strings.Index(tail, fence); i >= 0 {
		segs = appendProse(segs, tail[:i])
		if p.ShowOpenFence {
			if seg, ok := parseOpenCode(tail[i:]); ok {
				segs = append(segs, seg)
			}
		}
		return segs
	}
	return appendProse(segs, tail)
}

func parseCode(part string) (Segment, bool) {
	m := codeRe.FindStringSubmatch(part)
	if m == nil {
		return Segment{}, false
	}
	return codeSegment(m[1], m[2], false), true
}

func parseOpenCode(part string) (Segment, bool) {
	m := openCodeRe.FindStringSubmatch(part)
	if m == nil {
		return Segment{}, false
	}
	return codeSegment(m[1], m[2], true), true
}

func codeSegment(lang, body string, open bool) Segment {
	if lang == "" {
		lang = DefaultLanguage
	}
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")
	return Segment{Kind: KindCode, Language: lang, Code: body, Open: open}
}

func appendProse(segs []Segment, part string) []Segment {
	if part == "" {
		return segs
	}
	raw := strings.Split(part, "\n")
	lines := make([]Line, len(raw))
	for i, l := range raw {
		lines[i] = parseLine(l)
	}
	return append(segs, Segment{Kind: KindProse, Lines: lines})
}

func parseLine(line string) Line {
	var spans []Span
	last := 0
	for _, loc := range strongRe.FindAllStringIndex(line, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Text: line[last:loc[0]]})
		}
		spans = append(spans, Span{Text: line[loc[0]+2 : loc[1]-2], Strong: true})
		last = loc[1]
	}
	if last < len(line) {
		spans = append(spans, Span{Text: line[last:]})
	}
	return Line{Spans: spans}
}
