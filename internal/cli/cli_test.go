// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"io"
	"iter"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/soulforge/internal/config"
	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/provider"
	"github.com/jeranaias/soulforge/internal/settings"
)

// =============================================================================
// HARNESS
// =============================================================================

type call struct {
	history []provider.Entry
	message string
	cfg     provider.Config
}

type harness struct {
	mu     sync.Mutex
	calls  []call
	store  *settings.MemoryStore
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	deps   Deps
}

// newHarness answers every turn with fragments and reports cites.
func newHarness(t *testing.T, cites []model.Citation, fragments ...string) *harness {
	t.Helper()
	t.Setenv("SOULFORGE_HOME", t.TempDir())

	cfg := config.Default()
	cfg.DefaultGeminiKey = "env-key"

	h := &harness{
		store:  settings.NewMemoryStore(settings.FromDefaults(cfg.Defaults)),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	adapter := provider.AdapterFunc(func(ctx context.Context, history []provider.Entry, message string, c provider.Config) iter.Seq2[string, error] {
		h.mu.Lock()
		h.calls = append(h.calls, call{history: history, message: message, cfg: c})
		h.mu.Unlock()
		if len(cites) > 0 {
			provider.ReportCitations(ctx, cites)
		}
		return provider.Fragments(fragments...)
	})
	h.deps = Deps{
		Config:   cfg,
		Adapter:  adapter,
		Settings: h.store,
		Stdout:   h.stdout,
		Stderr:   h.stderr,
		Width:    80,
	}
	return h
}

func (h *harness) recorded() []call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]call(nil), h.calls...)
}

// scriptedReader feeds fixed lines, then io.EOF.
type scriptedReader struct {
	lines   []string
	history []string
	closed  bool
}

func (s *scriptedReader) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedReader) AppendHistory(item string) { s.history = append(s.history, item) }

func (s *scriptedReader) Close() error {
	s.closed = true
	return nil
}

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "flag with value",
			args: []string{"--provider", "custom", "hello"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "custom", p.Flag("provider"))
				assert.Equal(t, []string{"hello"}, p.PositionalFrom(0))
			},
		},
		{
			name: "flag with equals",
			args: []string{"--version=5.2", "hi"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "5.2", p.Flag("version"))
				assert.Equal(t, "hi", p.Positional(0))
			},
		},
		{
			name: "known boolean keeps next positional",
			args: []string{"--plain", "what", "is", "GAS"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("plain"))
				assert.Equal(t, "what is GAS", JoinPositionalArgs(p, 0))
			},
		},
		{
			name: "trailing flag is boolean",
			args: []string{"hello", "--verbose"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.HasFlag("verbose"))
				assert.Equal(t, 1, p.PositionalCount())
			},
		},
		{
			name: "double dash ends flags",
			args: []string{"--", "--not-a-flag", "x"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.HasFlag("not-a-flag"))
				assert.Equal(t, "--not-a-flag x", JoinPositionalArgs(p, 0))
			},
		},
		{
			name: "missing flag",
			args: []string{"x"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "", p.Flag("provider"))
				assert.Equal(t, "fallback", p.FlagOrDefault("provider", "fallback"))
				assert.Equal(t, "", p.Positional(5))
				assert.Empty(t, p.PositionalFrom(5))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, NewArgParser(tt.args, "plain"))
		})
	}
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		wantErr bool
		check   func(*testing.T, Args)
	}{
		{name: "no args starts tui", argv: nil, wantCmd: CmdTUI},
		{
			name:    "ask joins prompt",
			argv:    []string{"ask", "--provider", "custom", "make", "a", "boss"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "make a boss", a.Query)
				assert.Equal(t, "custom", a.Provider)
			},
		},
		{name: "ask without prompt", argv: []string{"ask", "--plain"}, wantCmd: CmdAsk, wantErr: true},
		{
			name:    "config defaults to show",
			argv:    []string{"config"},
			wantCmd: CmdConfig,
			check:   func(t *testing.T, a Args) { assert.Equal(t, "show", a.Subcommand) },
		},
		{
			name:    "config set operands",
			argv:    []string{"config", "set", "model", "gpt-4o-mini"},
			wantCmd: CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, []string{"model", "gpt-4o-mini"}, a.Operands)
			},
		},
		{
			name:    "help flag on a command",
			argv:    []string{"chat", "--help"},
			wantCmd: CmdHelp,
			check:   func(t *testing.T, a Args) { assert.Equal(t, "chat", a.Subcommand) },
		},
		{
			name:    "help topic",
			argv:    []string{"help", "ask"},
			wantCmd: CmdHelp,
			check:   func(t *testing.T, a Args) { assert.Equal(t, "ask", a.Subcommand) },
		},
		{name: "version alias", argv: []string{"--version"}, wantCmd: CmdVersion},
		{name: "unknown command", argv: []string{"frobnicate"}, wantCmd: CmdHelp, wantErr: true},
		{name: "unknown flag", argv: []string{"--frob"}, wantCmd: CmdHelp, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			assert.Equal(t, tt.wantCmd, cmd)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUsage)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestUsage(t *testing.T) {
	var b bytes.Buffer
	Usage(&b, "")
	assert.Contains(t, b.String(), "soulforge ask")

	b.Reset()
	Usage(&b, "config")
	assert.Contains(t, b.String(), "config set <key> <value>")
	assert.Contains(t, b.String(), "gemini_key")
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestHandleAsk_StreamsReply(t *testing.T) {
	h := newHarness(t, nil, "Hello", ", ", "Forge")

	err := HandleAsk(context.Background(), Args{Query: "  hi  "}, h.deps)
	require.NoError(t, err)

	assert.Equal(t, "Hello, Forge\n", h.stdout.String())
	calls := h.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "hi", calls[0].message)
	assert.Empty(t, calls[0].history)
	assert.Equal(t, provider.KindHosted, calls[0].cfg.Provider)
	assert.Equal(t, "env-key", calls[0].cfg.APIKey)
}

func TestHandleAsk_PrintsCitations(t *testing.T) {
	cites := []model.Citation{{URI: "https://dev.epicgames.com/a", Title: "Docs"}, {URI: "https://b.example"}}
	h := newHarness(t, cites, "answer")

	require.NoError(t, HandleAsk(context.Background(), Args{Query: "q"}, h.deps))

	out := h.stdout.String()
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "[1] Docs https://dev.epicgames.com/a")
	assert.Contains(t, out, "[2] https://b.example https://b.example")
}

func TestHandleAsk_OverridesAreNotSaved(t *testing.T) {
	h := newHarness(t, nil, "ok")

	a := Args{Query: "q", Provider: "custom", Version: "5.1", Search: "off"}
	require.NoError(t, HandleAsk(context.Background(), a, h.deps))

	calls := h.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, provider.KindCustom, calls[0].cfg.Provider)
	assert.Equal(t, "5.1", calls[0].cfg.TargetVersion)
	assert.False(t, calls[0].cfg.SearchEnabled)

	stored, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini", stored.Provider)
	assert.Equal(t, "5.4", stored.UEVersion)
}

func TestHandleAsk_BadOverrideIsUsageError(t *testing.T) {
	h := newHarness(t, nil, "never")

	err := HandleAsk(context.Background(), Args{Query: "q", Version: "4.27"}, h.deps)
	require.ErrorIs(t, err, ErrUsage)
	assert.Empty(t, h.recorded())
}

// =============================================================================
// MODULES / CONFIG / VERSION TESTS
// =============================================================================

func TestHandleModules_Lists(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, HandleModules(context.Background(), Args{}, h.deps))
	out := h.stdout.String()
	for _, key := range []string{"character_base", "combat_system", "ai_boss", "inventory"} {
		assert.Contains(t, out, key)
	}
	assert.Empty(t, h.recorded())
}

func TestHandleModules_SendsVersionedPrompt(t *testing.T) {
	h := newHarness(t, nil, "class ABoss;")

	a := Args{Subcommand: "ai", Operands: []string{"boss"}, Version: "5.2"}
	require.NoError(t, HandleModules(context.Background(), a, h.deps))

	calls := h.recorded()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasSuffix(calls[0].message, "\n(Target Engine Version: UE 5.2)"))
	assert.Contains(t, calls[0].message, "AIController")
	assert.Contains(t, h.stdout.String(), "Boss AI")
	assert.Contains(t, h.stdout.String(), "class ABoss;")
}

func TestHandleModules_Unknown(t *testing.T) {
	h := newHarness(t, nil)
	err := HandleModules(context.Background(), Args{Subcommand: "dragon"}, h.deps)
	require.ErrorIs(t, err, ErrUsage)
}

func TestHandleConfig_SetSavesAndPrintsNotice(t *testing.T) {
	h := newHarness(t, nil)

	a := Args{Subcommand: "set", Operands: []string{"version", "5.1"}}
	require.NoError(t, HandleConfig(context.Background(), a, h.deps))

	stored, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5.1", stored.UEVersion)
	assert.Contains(t, h.stdout.String(), "UE 5.1")
	assert.Contains(t, h.stdout.String(), "Gemini")
}

func TestHandleConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args Args
	}{
		{"missing value", Args{Subcommand: "set", Operands: []string{"version"}}},
		{"unknown key", Args{Subcommand: "set", Operands: []string{"colour", "red"}}},
		{"invalid value", Args{Subcommand: "set", Operands: []string{"provider", "ollama"}}},
		{"unknown subcommand", Args{Subcommand: "reset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			require.ErrorIs(t, HandleConfig(context.Background(), tt.args, h.deps), ErrUsage)
		})
	}
}

func TestHandleConfig_ShowMasksKeys(t *testing.T) {
	h := newHarness(t, nil)
	s, _ := h.store.Load(context.Background())
	require.NoError(t, s.Set("gemini_key", "AIzaSyVerySecretValue"))
	require.NoError(t, h.store.Save(context.Background(), s))

	require.NoError(t, HandleConfig(context.Background(), Args{Subcommand: "show"}, h.deps))
	out := h.stdout.String()
	assert.NotContains(t, out, "AIzaSyVerySecretValue")
	assert.Contains(t, out, "AIza")
	assert.Contains(t, out, config.Path())
}

func TestHandleConfig_Path(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, HandleConfig(context.Background(), Args{Subcommand: "path"}, h.deps))
	assert.Equal(t, filepath.Join(config.Dir(), "config.toml")+"\n", h.stdout.String())
}

func TestHandleVersion(t *testing.T) {
	var b bytes.Buffer
	HandleVersion(&b)
	assert.Contains(t, b.String(), "soulforge "+Version)
}

func TestRun_Dispatches(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, Run(context.Background(), CmdVersion, Args{}, h.deps))
	assert.Contains(t, h.stdout.String(), Version)

	assert.Error(t, Run(context.Background(), CmdTUI, Args{}, h.deps))
}

// =============================================================================
// REPL TESTS
// =============================================================================

func TestREPL_SendsTurnsWithHistory(t *testing.T) {
	h := newHarness(t, nil, "reply")
	in := &scriptedReader{lines: []string{"first", "", "second"}}

	repl := NewREPL(in, Args{}, h.deps)
	require.NoError(t, repl.Run(context.Background()))

	calls := h.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, "second", calls[1].message)
	require.Len(t, calls[1].history, 2)
	assert.Equal(t, "first", calls[1].history[0].Content)
	assert.Equal(t, "reply", calls[1].history[1].Content)
	assert.Equal(t, []string{"first", "second"}, in.history)
	assert.Contains(t, h.stdout.String(), "SoulForge")
}

func TestREPL_SlashCommands(t *testing.T) {
	h := newHarness(t, nil, "ok")
	in := &scriptedReader{lines: []string{
		"/set version 5.0",
		"hello",
		"/new",
		"/bogus",
		"/quit",
		"never sent",
	}}

	repl := NewREPL(in, Args{}, h.deps)
	require.NoError(t, repl.Run(context.Background()))

	calls := h.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "5.0", calls[0].cfg.TargetVersion)
	assert.Empty(t, repl.Session().Messages())
	assert.Contains(t, h.stdout.String(), "UE 5.0")
	assert.Contains(t, h.stderr.String(), "Error:")
	assert.Len(t, in.lines, 1)
}

func TestREPL_ModuleCommand(t *testing.T) {
	h := newHarness(t, nil, "class AInv;")
	repl := NewREPL(&scriptedReader{}, Args{}, h.deps)

	quit := repl.Handle(context.Background(), "/module inventory")
	assert.False(t, quit)

	calls := h.recorded()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].message, "UInventoryComponent")
	assert.Contains(t, h.stdout.String(), "Inventory")
}

func TestREPL_FlagOverridesApplyToEveryTurn(t *testing.T) {
	h := newHarness(t, nil, "ok")
	repl := NewREPL(&scriptedReader{}, Args{Provider: "custom"}, h.deps)

	repl.Handle(context.Background(), "one")
	repl.Handle(context.Background(), "two")

	for _, c := range h.recorded() {
		assert.Equal(t, provider.KindCustom, c.cfg.Provider)
	}
}

// =============================================================================
// OUTPUT TESTS
// =============================================================================

func TestStreamPrinter(t *testing.T) {
	var b bytes.Buffer
	p := newStreamPrinter(&b)

	p.Update(model.Message{ID: "a", Content: "He"})
	p.Update(model.Message{ID: "a", Content: "Hello"})
	p.Update(model.Message{ID: "a", Content: "Hello"})
	assert.Equal(t, "Hello", b.String())

	// Replaced content goes on a new line.
	p.Update(model.Message{ID: "a", Content: "failed"})
	assert.Equal(t, "Hello\nfailed", b.String())
	assert.Equal(t, "Hello\nfailed", p.Printed())

	p.Finish()
	p.Update(model.Message{ID: "b", Content: "next"})
	assert.Equal(t, "Hello\nfailed\nnext", b.String())
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "aaa bbb\nccc", WrapText("aaa bbb ccc", 8))
	assert.Equal(t, "line one\n\nline two", WrapText("line one\n\nline two", 0))
	assert.Equal(t, "虚幻\n引擎", WrapText("虚幻引擎", 4))
}

func TestScreenLines(t *testing.T) {
	assert.Equal(t, 0, screenLines("", 80))
	assert.Equal(t, 1, screenLines("short", 80))
	assert.Equal(t, 3, screenLines("a\nb\n", 80))
	assert.Equal(t, 2, screenLines(strings.Repeat("x", 81), 80))
	assert.Equal(t, 2, screenLines(strings.Repeat("虚", 41), 80))
}
