// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"iter"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/soulforge/internal/commands"
	"github.com/jeranaias/soulforge/internal/config"
	"github.com/jeranaias/soulforge/internal/logging"
	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/provider"
	"github.com/jeranaias/soulforge/internal/session"
	"github.com/jeranaias/soulforge/internal/settings"
	"github.com/jeranaias/soulforge/internal/ui/styles"
)

type harness struct {
	sess  *session.Session
	store *settings.MemoryStore
	seen  []provider.Config
	model Model
}

func newHarness(t *testing.T, reply ...string) *harness {
	t.Helper()
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	h := &harness{store: settings.NewMemoryStore(settings.FromDefaults(config.Default().Defaults))}
	adapter := provider.AdapterFunc(func(_ context.Context, _ []provider.Entry, _ string, cfg provider.Config) iter.Seq2[string, error] {
		h.seen = append(h.seen, cfg)
		return provider.Fragments(reply...)
	})

	cfg := config.Default()
	buf := NewStreamingBuffer(cfg.UI.BatchSize, cfg.UI.MaxFPS)
	h.sess = session.New(adapter, session.WithUpdateFunc(buf.Write), session.WithLogger(logging.Discard()))
	h.model = New(Options{
		Session:          h.sess,
		Buffer:           buf,
		Settings:         h.store,
		DefaultGeminiKey: "env-key",
		Theme:            styles.NewTheme("dark"),
		UI:               cfg.UI,
		Logger:           logging.Discard(),
	})
	h.update(t, tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

func (h *harness) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

func (h *harness) typeAndEnter(t *testing.T, text string) tea.Cmd {
	t.Helper()
	h.model.input.SetValue(text)
	return h.update(t, tea.KeyMsg{Type: tea.KeyEnter})
}

func contents(msgs []model.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

// =============================================================================
// MODEL TESTS
// =============================================================================

func TestNew_ShowsWelcome(t *testing.T) {
	h := newHarness(t)

	require.Len(t, h.model.messages, 1)
	assert.Equal(t, model.RoleNotice, h.model.messages[0].Role)
	assert.Equal(t, prompts.Welcome, h.model.messages[0].Content)
	assert.Contains(t, h.model.View(), "TARGET: UNREAL ENGINE 5.4 | MODE: GEMINI")
}

func TestSubmit_RunsTurnAndShowsReply(t *testing.T) {
	h := newHarness(t, "Hello", ", Tarnished")

	cmd := h.typeAndEnter(t, "  build a parry system \r\n")
	require.NotNil(t, cmd)
	require.NotNil(t, h.model.turn)
	assert.True(t, h.sess.Busy())
	assert.Empty(t, h.model.input.Value())

	turn := h.model.turn
	require.NoError(t, turn.Run(context.Background()))
	h.update(t, StreamTickMsg{})
	assert.Equal(t, "Hello, Tarnished", h.model.messages[len(h.model.messages)-1].Content)

	h.update(t, TurnDoneMsg{Reply: turn.Reply()})
	assert.Nil(t, h.model.turn)
	assert.False(t, h.sess.Busy())
	assert.Equal(t, []string{prompts.Welcome, "build a parry system", "Hello, Tarnished"}, contents(h.model.messages))

	require.Len(t, h.seen, 1)
	assert.Equal(t, "env-key", h.seen[0].APIKey)
	assert.Equal(t, "5.4", h.seen[0].TargetVersion)
}

func TestSubmit_RejectedWhileStreaming(t *testing.T) {
	h := newHarness(t, "x")
	h.typeAndEnter(t, "first")
	require.NotNil(t, h.model.turn)

	cmd := h.typeAndEnter(t, "second")

	assert.Nil(t, cmd)
	assert.Equal(t, "second", h.model.input.Value())
	assert.Contains(t, h.model.status, "still streaming")
	assert.Len(t, h.sess.Messages(), 3)
}

func TestSubmit_BlankIgnored(t *testing.T) {
	h := newHarness(t)
	cmd := h.typeAndEnter(t, "   ")

	assert.Nil(t, cmd)
	assert.Nil(t, h.model.turn)
	assert.Len(t, h.sess.Messages(), 1)
}

func TestSlashSet_UpdatesHeaderAndNextTurn(t *testing.T) {
	h := newHarness(t, "ok")

	cmd := h.typeAndEnter(t, "/set version 5.1")
	require.NotNil(t, cmd)
	msg := cmd()
	changed, ok := msg.(commands.SettingsChangedMsg)
	require.True(t, ok, "got %T", msg)
	h.update(t, changed)

	assert.Contains(t, h.model.View(), "TARGET: UNREAL ENGINE 5.1 | MODE: GEMINI")
	last := h.model.messages[len(h.model.messages)-1]
	assert.Equal(t, model.RoleNotice, last.Role)
	assert.Contains(t, last.Content, "UE 5.1")

	h.typeAndEnter(t, "go")
	require.NoError(t, h.model.turn.Run(context.Background()))
	assert.Equal(t, "5.1", h.seen[0].TargetVersion)
}

func TestSlashNew_ResetsConversation(t *testing.T) {
	h := newHarness(t, "reply")
	h.typeAndEnter(t, "hello")
	turn := h.model.turn
	require.NoError(t, turn.Run(context.Background()))
	h.update(t, TurnDoneMsg{Reply: turn.Reply()})
	require.Len(t, h.sess.Messages(), 3)

	cmd := h.typeAndEnter(t, "/new")
	h.update(t, cmd())

	assert.Equal(t, []string{prompts.Welcome}, contents(h.model.messages))
	assert.Equal(t, session.StateIdle, h.sess.State())
}

func TestTurnDone_FromDetachedTurnKeepsCurrentTurn(t *testing.T) {
	h := newHarness(t, "reply")
	h.typeAndEnter(t, "first")
	first := h.model.turn
	require.NotNil(t, first)

	cmd := h.typeAndEnter(t, "/new")
	h.update(t, cmd())
	h.typeAndEnter(t, "second")
	second := h.model.turn
	require.NotNil(t, second)
	require.NotSame(t, first, second)

	// The first turn only notices the reset when it runs.
	assert.ErrorIs(t, first.Run(context.Background()), session.ErrTurnDetached)
	assert.Equal(t, first.ReplyID(), first.Reply().ID)
	h.update(t, TurnDoneMsg{Reply: first.Reply(), Err: session.ErrTurnDetached})

	assert.Same(t, second, h.model.turn)
	require.NotNil(t, h.model.cancel)
	assert.True(t, h.sess.Busy())
	assert.Equal(t, session.StateAwaiting, h.sess.State())

	require.NoError(t, second.Run(context.Background()))
	h.update(t, TurnDoneMsg{Reply: second.Reply()})
	assert.Nil(t, h.model.turn)
	assert.Equal(t, []string{prompts.Welcome, "second", "reply"}, contents(h.model.messages))
}

func TestStatusLine_FollowsTurnState(t *testing.T) {
	h := newHarness(t, "reply")
	h.typeAndEnter(t, "hello")
	assert.Contains(t, h.model.statusLine(), "is thinking")

	require.NoError(t, h.model.turn.Run(context.Background()))
	assert.Contains(t, h.model.statusLine(), "is writing")
}

func TestSendPromptMsg_StartsTurn(t *testing.T) {
	h := newHarness(t, "code")

	h.update(t, commands.SendPromptMsg{Label: "Boss AI", Text: "make a boss"})

	require.NotNil(t, h.model.turn)
	assert.Equal(t, "Boss AI", h.model.status)
}

func TestErrorMsg_ShownInStatus(t *testing.T) {
	h := newHarness(t)
	cmd := h.typeAndEnter(t, "/module fishing")
	h.update(t, cmd())

	assert.Error(t, h.model.lastError)
	assert.Contains(t, h.model.View(), "fishing")
}

func TestConfigReload_AppliesUI(t *testing.T) {
	h := newHarness(t)
	cfg := config.Default()
	cfg.UI.MaxFPS = 12
	cfg.UI.BatchSize = 3

	h.update(t, ConfigReloadedMsg{Config: cfg})

	assert.Equal(t, 3, h.model.buffer.batchSize)
	assert.Equal(t, 12, h.model.buffer.maxFPS)
}

func TestComplete_CommandName(t *testing.T) {
	h := newHarness(t)
	h.model.input.SetValue("/modu")
	h.update(t, tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "/module ", h.model.input.Value())
	assert.Contains(t, h.model.statusLine(), "[/module]")

	// A second Tab cycles to the next candidate.
	h.update(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "/modules ", h.model.input.Value())
	assert.Contains(t, h.model.statusLine(), "[/modules]")

	// Typing dismisses the candidates.
	h.update(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.NotContains(t, h.model.statusLine(), "Tab:")
}

func TestComplete_ModuleArgument(t *testing.T) {
	h := newHarness(t)
	h.model.input.SetValue("/module ai")
	h.update(t, tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "/module ai_boss ", h.model.input.Value())
}
