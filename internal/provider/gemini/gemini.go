// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini streams replies from the hosted Gemini API through the
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"iter"
	"log/slog"
	"net/http"

	"google.golang.org/genai"

	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/provider"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// ModelID is the hosted model used for every turn.
	ModelID = "gemini-2.5-flash"

	// Temperature is sent with every request.
	Temperature float32 = 0.7
)

const (
	// MissingKeyText is yielded instead of calling the API without a key.
	MissingKeyText = "错误: 未配置 Gemini API Key。请在设置中添加您的 Key。"

	errorPrefix      = "[Gemini 错误]: "
	fallbackErrorMsg = "连接失败"
)

// =============================================================================
// SDK SEAM
// =============================================================================

// Chat is the part of *genai.Chat this package uses.
type Chat interface {
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

// ChatFactory opens a chat with the given key, model, config and history.
type ChatFactory func(ctx context.Context, apiKey, modelID string, config *genai.GenerateContentConfig, history []*genai.Content) (Chat, error)

// SDKChatFactory returns a ChatFactory backed by the real SDK. A non-empty
// baseURL overrides the API endpoint.
func SDKChatFactory(httpClient *http.Client, baseURL string) ChatFactory {
	return func(ctx context.Context, apiKey, modelID string, config *genai.GenerateContentConfig, history []*genai.Content) (Chat, error) {
		cc := &genai.ClientConfig{
			APIKey:     apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: httpClient,
		}
		if baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, err
		}
		return client.Chats.Create(ctx, modelID, config, history)
	}
}

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter is the hosted provider adapter.
type Adapter struct {
	newChat ChatFactory
	logger  *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithChatFactory replaces how chats are opened.
func WithChatFactory(f ChatFactory) Option {
	return func(a *Adapter) { a.newChat = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// New creates an adapter using the SDK over a streaming HTTP client.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		newChat: SDKChatFactory(provider.NewStreamingHTTPClient(0), ""),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ provider.Adapter = (*Adapter)(nil)

// GenerateConfig builds the request configuration for cfg.
func GenerateConfig(cfg provider.Config) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompts.SystemInstruction(cfg.TargetVersion), genai.RoleUser),
		Temperature:       genai.Ptr(Temperature),
	}
	if cfg.SearchEnabled {
		gc.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return gc
}

// History maps session history onto Gemini roles. Users stay "user";
// everything else becomes "model". Empty entries are skipped because the
// API rejects content without parts.
func History(entries []provider.Entry) []*genai.Content {
	out := make([]*genai.Content, 0, len(entries))
	for _, e := range entries {
		if e.Content == "" {
			continue
		}
		role := genai.Role(genai.RoleModel)
		if e.Role == model.RoleUser {
			role = genai.RoleUser
		}
		out = append(out, genai.NewContentFromText(e.Content, role))
	}
	return out
}

// Stream implements provider.Adapter.
func (a *Adapter) Stream(ctx context.Context, history []provider.Entry, message string, cfg provider.Config) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if cfg.APIKey == "" {
			yield(MissingKeyText, nil)
			return
		}

		chat, err := a.newChat(ctx, cfg.APIKey, ModelID, GenerateConfig(cfg), History(history))
		if err != nil {
			a.fail(ctx, err, yield)
			return
		}

		a.logger.Debug("gemini streaming", "model", ModelID, "search", cfg.SearchEnabled, "history", len(history))
		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: message}) {
			if err != nil {
				a.fail(ctx, err, yield)
				return
			}
			provider.ReportCitations(ctx, Citations(resp))
			if text := ResponseText(resp); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func (a *Adapter) fail(ctx context.Context, err error, yield func(string, error) bool) {
	if ctx.Err() != nil {
		return
	}
	a.logger.Warn("gemini request failed", "error", err)
	yield(ErrorText(err), nil)
}

// ErrorText formats a failure as shown to the user.
func ErrorText(err error) string {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = fallbackErrorMsg
	}
	return errorPrefix + msg
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// ResponseText concatenates the visible text parts of the first candidate.
// Thought summaries are skipped.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var text string
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		text += p.Text
	}
	return text
}

// Citations extracts web grounding sources from the first candidate.
func Citations(resp *genai.GenerateContentResponse) []model.Citation {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	var out []model.Citation
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		out = append(out, model.Citation{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return out
}
