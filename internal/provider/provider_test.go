// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/soulforge/internal/model"
)

// collect drains seq and returns the concatenated text, stopping at the
// first error.
func collect(seq iter.Seq2[string, error]) (string, error) {
	var b strings.Builder
	for fragment, err := range seq {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(fragment)
	}
	return b.String(), nil
}

// recordingAdapter remembers its arguments and replies with fixed fragments.
type recordingAdapter struct {
	name    string
	calls   int
	history []Entry
	message string
	cfg     Config
}

func (r *recordingAdapter) Stream(_ context.Context, history []Entry, message string, cfg Config) iter.Seq2[string, error] {
	r.calls++
	r.history = history
	r.message = message
	r.cfg = cfg
	return Fragments(r.name)
}

// =============================================================================
// DISPATCHER TESTS
// =============================================================================

func TestDispatcher_RoutesByKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindHosted, "hosted"},
		{KindCustom, "custom"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			hosted := &recordingAdapter{name: "hosted"}
			custom := &recordingAdapter{name: "custom"}
			d := NewDispatcher(hosted, custom)

			got, err := collect(d.Stream(context.Background(), nil, "hi", Config{Provider: tt.kind}))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, hosted.calls+custom.calls)
		})
	}
}

func TestDispatcher_ForwardsArgumentsUnchanged(t *testing.T) {
	custom := &recordingAdapter{name: "custom"}
	d := NewDispatcher(&recordingAdapter{}, custom)
	history := []Entry{{Role: model.RoleUser, Content: "a"}, {Role: model.RoleAssistant, Content: "b"}}
	cfg := Config{Provider: KindCustom, APIKey: "sk-1", BaseURL: "http://x", Model: "m", TargetVersion: "5.1"}

	_, err := collect(d.Stream(context.Background(), history, "next", cfg))

	require.NoError(t, err)
	assert.Equal(t, history, custom.history)
	assert.Equal(t, "next", custom.message)
	assert.Equal(t, cfg, custom.cfg)
}

func TestDispatcher_NoFallbackBetweenProviders(t *testing.T) {
	failing := AdapterFunc(func(context.Context, []Entry, string, Config) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			yield("", errors.New("boom"))
		}
	})
	custom := &recordingAdapter{name: "custom"}
	d := NewDispatcher(failing, custom)

	_, err := collect(d.Stream(context.Background(), nil, "x", Config{Provider: KindHosted}))

	assert.Error(t, err)
	assert.Zero(t, custom.calls)
}

func TestDispatcher_UnknownKindYieldsFragment(t *testing.T) {
	d := NewDispatcher(&recordingAdapter{}, &recordingAdapter{})

	var fragments []string
	for f, err := range d.Stream(context.Background(), nil, "x", Config{Provider: "bogus"}) {
		require.NoError(t, err)
		fragments = append(fragments, f)
	}

	require.Len(t, fragments, 1)
	assert.Contains(t, fragments[0], "bogus")
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Gemini")
	require.NoError(t, err)
	assert.Equal(t, KindHosted, k)

	k, err = ParseKind("openai")
	require.NoError(t, err)
	assert.Equal(t, KindCustom, k)

	_, err = ParseKind("claude")
	assert.Error(t, err)
}

func TestEntriesFrom_DropsNotices(t *testing.T) {
	msgs := []model.Message{
		{Role: model.RoleNotice, Content: "saved"},
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "a"},
	}

	assert.Equal(t, []Entry{
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "a"},
	}, EntriesFrom(msgs))
}

func TestFragments_StopsWhenConsumerBreaks(t *testing.T) {
	var got []string
	for f := range Fragments("a", "b", "c") {
		got = append(got, f)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestReportCitations(t *testing.T) {
	var got []model.Citation
	ctx := WithCitations(context.Background(), func(c []model.Citation) { got = append(got, c...) })

	ReportCitations(ctx, []model.Citation{{URI: "https://docs.unrealengine.com"}})
	ReportCitations(context.Background(), []model.Citation{{URI: "ignored"}})

	require.Len(t, got, 1)
	assert.Equal(t, "https://docs.unrealengine.com", got[0].URI)
}

func TestConfig_DisplayName(t *testing.T) {
	assert.Equal(t, "Gemini", Config{Provider: KindHosted, Model: "x"}.DisplayName())
	assert.Equal(t, "deepseek-chat", Config{Provider: KindCustom, Model: "deepseek-chat"}.DisplayName())
}
