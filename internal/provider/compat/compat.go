// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package compat streams chat completions from any OpenAI-compatible
// endpoint (OpenAI, DeepSeek, local gateways) over server-sent events.
package compat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/provider"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// Temperature is sent with every request.
	Temperature = 0.7

	// maxErrorBody caps how much of a failed response is echoed back.
	maxErrorBody = 1 << 20

	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// MissingKeyText is yielded instead of calling the endpoint without a key.
const MissingKeyText = "错误: 未配置 Custom API Key。"

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is one message in the request body.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat completions request body.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

// StreamChunk is the JSON record carried by each data line.
type StreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// GetContent returns the first choice's delta content.
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is the OpenAI-compatible adapter. It holds no per-turn state and
// is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates an adapter.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: provider.NewStreamingHTTPClient(0),
		logger:     slog.Default(),
		userAgent:  "soulforge",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ provider.Adapter = (*Client)(nil)

// BuildMessages lays out the request messages: the system instruction, then
// the history, then the new user message.
func BuildMessages(history []provider.Entry, message string, cfg provider.Config) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(history)+2)
	msgs = append(msgs, ChatMessage{Role: "system", Content: prompts.SystemInstruction(cfg.TargetVersion)})
	for _, h := range history {
		msgs = append(msgs, ChatMessage{Role: wireRole(h.Role), Content: h.Content})
	}
	return append(msgs, ChatMessage{Role: "user", Content: message})
}

func wireRole(r model.Role) string {
	if r == model.RoleUser {
		return "user"
	}
	return "assistant"
}

// Stream implements provider.Adapter.
//
// Failures never surface as errors: a missing key, a non-2xx status and
// transport errors each become one final fragment. If ctx is cancelled the
// sequence ends quietly.
func (c *Client) Stream(ctx context.Context, history []provider.Entry, message string, cfg provider.Config) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if cfg.APIKey == "" {
			yield(MissingKeyText, nil)
			return
		}

		resp, err := c.send(ctx, BuildMessages(history, message, cfg), cfg)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("custom provider request failed", "base_url", cfg.BaseURL, "error", err)
			yield(connectionErrorText(err), nil)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			c.logger.Warn("custom provider returned error status", "status", resp.StatusCode, "model", cfg.Model)
			yield(fmt.Sprintf("[API Error %d]: %s", resp.StatusCode, string(body)), nil)
			return
		}

		c.logger.Debug("custom provider streaming", "model", cfg.Model)
		if err := readStream(resp.Body, yield); err != nil && ctx.Err() == nil {
			c.logger.Warn("custom provider stream aborted", "error", err)
			yield(connectionErrorText(err), nil)
		}
	}
}

func (c *Client) send(ctx context.Context, msgs []ChatMessage, cfg provider.Config) (*http.Response, error) {
	body, err := json.Marshal(ChatRequest{
		Model:       cfg.Model,
		Messages:    msgs,
		Stream:      true,
		Temperature: Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", c.userAgent)

	return c.httpClient.Do(req)
}

func connectionErrorText(err error) string {
	return "[连接错误]: " + err.Error()
}

// =============================================================================
// SSE PARSING
// =============================================================================

// errStop signals that the consumer stopped or the stream sent [DONE].
var errStop = errors.New("stop")

// readStream reads newline-delimited SSE data lines from body and yields
// each non-empty delta. A line split across reads is held in the reader's
// buffer until its newline arrives; a final line without a newline is
// processed at EOF. Returns nil on [DONE], EOF or when yield asks to stop.
func readStream(body io.Reader, yield func(string, error) bool) error {
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if perr := handleLine(line, yield); perr != nil {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// handleLine processes one complete line. It returns errStop when reading
// must end.
func handleLine(line []byte, yield func(string, error) bool) error {
	trimmed := bytes.TrimSpace(line)
	if !bytes.HasPrefix(trimmed, []byte(dataPrefix)) {
		return nil
	}
	data := trimmed[len(dataPrefix):]
	if string(data) == doneMarker {
		return errStop
	}

	var chunk StreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		// Records split or truncated by the transport are expected.
		return nil
	}
	if content := chunk.GetContent(); content != "" {
		if !yield(content, nil) {
			return errStop
		}
	}
	return nil
}
