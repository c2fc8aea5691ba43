// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestParse_CodeRoundTrip(t *testing.T) {
	segs := Parse("```lang\ncode\n```")

	require.Len(t, segs, 1)
	assert.Equal(t, KindCode, segs[0].Kind)
	assert.Equal(t, "lang", segs[0].Language)
	assert.Equal(t, "code", segs[0].Code)
	assert.False(t, segs[0].Open)
}

func TestParse_CodeDefaultLanguage(t *testing.T) {
	segs := Parse("```\ncode\n```")

	require.Len(t, segs, 1)
	assert.Equal(t, DefaultLanguage, segs[0].Language)
	assert.Equal(t, "code", segs[0].Code)
}

func TestParse_CodeTrimsExactlyOneNewline(t *testing.T) {
	segs := Parse("```cpp\n\nint X;\n\n```")

	require.Len(t, segs, 1)
	assert.Equal(t, "\nint X;\n", segs[0].Code)
}

func TestParse_CodeKeepsIndentation(t *testing.T) {
	segs := Parse("```cpp\n    UPROPERTY()\n    float Stamina;\n```")

	require.Len(t, segs, 1)
	assert.Equal(t, "    UPROPERTY()\n    float Stamina;", segs[0].Code)
}

func TestParse_MalformedFenceDropped(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no line break after tag", "```cpp int x;```"},
		{"non word tag", "```c++\nint x;\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Parse(tt.input))
		})
	}
}

func TestParse_UnterminatedFence(t *testing.T) {
	text := "Header.h:\n```cpp\nclass ASoulCharacter"

	t.Run("dropped by default", func(t *testing.T) {
		segs := Parse(text)
		require.Len(t, segs, 1)
		assert.Equal(t, KindProse, segs[0].Kind)
		assert.Equal(t, "Header.h:", segs[0].Lines[0].Text())
	})

	t.Run("shown as open block when streaming", func(t *testing.T) {
		segs := Parser{ShowOpenFence: true}.Parse(text)
		require.Len(t, segs, 2)
		assert.Equal(t, KindCode, segs[1].Kind)
		assert.True(t, segs[1].Open)
		assert.Equal(t, "cpp", segs[1].Language)
		assert.Equal(t, "class ASoulCharacter", segs[1].Code)
	})

	t.Run("open block without header line yields nothing", func(t *testing.T) {
		segs := Parser{ShowOpenFence: true}.Parse("```cp")
		assert.Empty(t, segs)
	})
}

// =============================================================================
// PROSE TESTS
// =============================================================================

func TestParse_StrongSpans(t *testing.T) {
	segs := Parse("Use **Enhanced Input** with **UE 5.4** today")

	require.Len(t, segs, 1)
	require.Len(t, segs[0].Lines, 1)
	assert.Equal(t, []Span{
		{Text: "Use "},
		{Text: "Enhanced Input", Strong: true},
		{Text: " with "},
		{Text: "UE 5.4", Strong: true},
		{Text: " today"},
	}, segs[0].Lines[0].Spans)
}

func TestParse_StrongDoesNotCrossLines(t *testing.T) {
	segs := Parse("**open\nclose**")

	require.Len(t, segs, 1)
	require.Len(t, segs[0].Lines, 2)
	for _, line := range segs[0].Lines {
		for _, span := range line.Spans {
			assert.False(t, span.Strong)
		}
	}
}

func TestParse_BlankLinesPreserved(t *testing.T) {
	segs := Parse("a\n\nb")

	require.Len(t, segs, 1)
	require.Len(t, segs[0].Lines, 3)
	assert.Empty(t, segs[0].Lines[1].Spans)
}

func TestParse_MixedOrder(t *testing.T) {
	text := "## 1. **项目结构**\n```cpp\n// Soul.h\n```\nthen\n```csharp\nPublicDependencyModuleNames.Add(\"EnhancedInput\");\n```"

	segs := Parse(text)

	kinds := make([]Kind, len(segs))
	for i, s := range segs {
		kinds[i] = s.Kind
	}
	assert.Equal(t, []Kind{KindProse, KindCode, KindProse, KindCode}, kinds)
	assert.Equal(t, "csharp", segs[3].Language)
	assert.Equal(t, "项目结构", segs[0].Lines[0].Spans[1].Text)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
}

// =============================================================================
// PURITY TESTS
// =============================================================================

func TestParse_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"**bold** and ```go\nx := 1\n``` after",
		"```\nunterminated",
		strings.Repeat("```a\nb\n```\n**c**\n", 20),
	}

	for _, in := range inputs {
		assert.Equal(t, Parse(in), Parse(in))
		p := Parser{ShowOpenFence: true}
		assert.Equal(t, p.Parse(in), p.Parse(in))
	}
}

func TestParse_StreamingPrefixesNeverPanic(t *testing.T) {
	full := "Intro **bold**\n```cpp\nvoid Attack();\n```\nDone."
	p := Parser{ShowOpenFence: true}
	for i := 0; i <= len(full); i++ {
		assert.NotPanics(t, func() { p.Parse(full[:i]) })
	}
}
