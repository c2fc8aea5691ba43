// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/soulforge/internal/commands"
	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/provider"
	"github.com/jeranaias/soulforge/internal/render"
	"github.com/jeranaias/soulforge/internal/ui/styles"
)

// plainTheme renders without escape sequences so output can be compared.
func plainTheme(t *testing.T) *styles.Theme {
	t.Helper()
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	th := styles.NewTheme("dark")
	th.ColorProfile = termenv.Ascii
	return th
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "TARGET: UNREAL ENGINE 5.4 | MODE: GEMINI", StatusLine("5.4", provider.KindHosted))
	assert.Equal(t, "TARGET: UNREAL ENGINE 5.1 | MODE: CUSTOM", StatusLine("5.1", provider.KindCustom))
}

func TestHeader_View(t *testing.T) {
	h := NewHeader(plainTheme(t))
	h.Width = 90
	h.UEVersion = "5.3"
	h.Provider = provider.KindCustom
	h.Busy = true

	out := h.View()

	assert.Contains(t, out, "SoulForge")
	assert.Contains(t, out, "TARGET: UNREAL ENGINE 5.3 | MODE: CUSTOM | STREAMING")
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestHighlight_PlainFormatterKeepsCode(t *testing.T) {
	code := "int main() {\n  return 0;\n}"

	out := Highlight(code, "cpp", "monokai", "noop")

	assert.Equal(t, code, out)
}

func TestHighlight_UnknownLanguageFallsBack(t *testing.T) {
	out := Highlight("plain words", "no-such-lang", "no-such-style", "noop")
	assert.Equal(t, "plain words", out)
}

func TestCodeBlock_Render(t *testing.T) {
	th := plainTheme(t)
	seg := render.Segment{Kind: render.KindCode, Language: "cpp", Code: "int a;\nint b;"}

	out := CodeBlock{Segment: seg, MaxWidth: 60, Theme: th}.Render()

	assert.Contains(t, out, "cpp")
	assert.Contains(t, out, "int a;")
	assert.Contains(t, out, "int b;")
	assert.NotContains(t, out, "…")

	seg.Open = true
	out = CodeBlock{Segment: seg, MaxWidth: 60, Theme: th}.Render()
	assert.Contains(t, out, "…")
}

// =============================================================================
// MESSAGE RENDERER TESTS
// =============================================================================

func TestMessageRenderer_AssistantSegments(t *testing.T) {
	r := NewMessageRenderer(plainTheme(t))
	msg := model.NewAssistantMessage()
	msg.Content = "Intro **bold** text\n```cpp\nint x;\n```\nOutro"
	msg.Streaming = false

	out := r.Render(msg.Clone())

	assert.Contains(t, out, "SoulForge")
	assert.Contains(t, out, "Intro bold text")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "```")
	assert.Contains(t, out, "int x;")
	assert.Contains(t, out, "Outro")
}

func TestMessageRenderer_StreamingShowsOpenFence(t *testing.T) {
	r := NewMessageRenderer(plainTheme(t))
	msg := model.NewAssistantMessage()
	msg.Content = "Here:\n```cpp\nvoid Tick("

	streaming := r.Render(msg.Clone())
	assert.Contains(t, streaming, "void Tick(")

	msg.Streaming = false
	done := r.Render(msg.Clone())
	assert.NotContains(t, done, "void Tick(")
	assert.Contains(t, done, "Here:")
}

func TestMessageRenderer_EmptyStreamingPlaceholder(t *testing.T) {
	r := NewMessageRenderer(plainTheme(t))
	out := r.Render(model.NewAssistantMessage().Clone())
	assert.Contains(t, out, "…")
}

func TestMessageRenderer_Citations(t *testing.T) {
	r := NewMessageRenderer(plainTheme(t))
	msg := model.NewAssistantMessage()
	msg.Content = "Answer"
	msg.Streaming = false
	msg.Citations = []model.Citation{{URI: "https://dev.epicgames.com/docs", Title: "UE Docs"}}

	out := r.Render(msg.Clone())

	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "UE Docs")
}

func TestMessageRenderer_CachesCompletedOnly(t *testing.T) {
	r := NewMessageRenderer(plainTheme(t))
	msg := model.NewAssistantMessage()
	msg.Content = "first"
	msg.Streaming = false
	first := r.Render(msg.Clone())

	msg.Content = "second"
	assert.Equal(t, first, r.Render(msg.Clone()), "completed output is cached by id")

	r.Forget()
	assert.Contains(t, r.Render(msg.Clone()), "second")
}

func TestMessageRenderer_WrapsCJK(t *testing.T) {
	r := NewMessageRenderer(plainTheme(t))
	r.SetWidth(30)
	msg := model.NewNotice(strings.Repeat("魂", 40))

	out := r.Render(msg.Clone())

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 30)
	}
}

func TestMessageRenderer_UserAndNotice(t *testing.T) {
	r := NewMessageRenderer(plainTheme(t))

	user := r.Render(model.NewUserMessage("build a dodge roll").Clone())
	assert.Contains(t, user, "You")
	assert.Contains(t, user, "build a dodge roll")

	notice := r.Render(model.NewNotice("**系统更新**: 配置已保存。").Clone())
	assert.Contains(t, notice, "系统更新")
	assert.NotContains(t, notice, "**")
}

// =============================================================================
// COMPLETION POPUP TESTS
// =============================================================================

func TestCompletionPopup_CyclesAndWraps(t *testing.T) {
	p := NewCompletionPopup()
	_, ok := p.Selected()
	assert.False(t, ok)
	assert.Equal(t, "", p.ViewInline())

	p.SetCompletions([]commands.Completion{
		{Value: "/module", Description: "Send a module prompt"},
		{Value: "/modules", Description: "List modules"},
	})
	sel, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, "/module", sel.Value)
	assert.Equal(t, "Tab: [/module] | /modules · Send a module prompt", p.ViewInline())

	p.Next()
	p.Next()
	sel, _ = p.Selected()
	assert.Equal(t, "/module", sel.Value)

	p.Clear()
	assert.False(t, p.HasCompletions())
}

func TestCompletionPopup_WindowFollowsSelection(t *testing.T) {
	p := NewCompletionPopup()
	var comps []commands.Completion
	for _, v := range []string{"a", "b", "c", "d", "e", "f"} {
		comps = append(comps, commands.Completion{Value: v})
	}
	p.SetCompletions(comps)
	assert.Equal(t, "Tab: [a] | b | c | d | …2 more", p.ViewInline())

	for range 4 {
		p.Next()
	}
	assert.Equal(t, "Tab: b | c | d | [e] | …1 more", p.ViewInline())
}
