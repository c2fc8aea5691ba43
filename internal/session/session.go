// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/provider"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput is returned by Begin for blank submissions.
	ErrEmptyInput = errors.New("empty message")

	// ErrTurnActive is returned by Begin while another turn is in progress.
	ErrTurnActive = errors.New("a reply is still streaming")

	// ErrTurnDetached is returned by Run when the session was reset under
	// the turn.
	ErrTurnDetached = errors.New("turn detached by reset")

	// ErrTurnStarted is returned when Run is called twice.
	ErrTurnStarted = errors.New("turn already running")
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of the most recent turn.
type State int

const (
	StateIdle State = iota
	StateAwaiting
	StateStreaming
	StateCompleted
	StateErrored
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting-first-fragment"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Active reports whether a turn in this state still holds the single-flight
// gate.
func (s State) Active() bool {
	return s == StateAwaiting || s == StateStreaming
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns the conversation history. All methods are safe for
// concurrent use; history leaves the session only as copies.
type Session struct {
	mu       sync.Mutex
	conv     *model.Conversation
	state    State
	active   *Turn
	gen      uint64 // bumped by Reset
	streamer provider.Adapter

	onUpdate func(model.Message)
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithUpdateFunc registers fn to receive a copy of the reply every time it
// changes. Calls for one turn are made in order from the goroutine running
// the turn, never while the session lock is held.
func WithUpdateFunc(fn func(model.Message)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New creates an idle session with empty history.
func New(streamer provider.Adapter, opts ...Option) *Session {
	s := &Session{
		conv:     model.NewConversation(),
		streamer: streamer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state of the most recent turn.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a turn is in progress.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// Messages returns copies of the history in order.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Snapshot()
}

// AddNotice appends a UI-local notice. Notices are never sent upstream.
func (s *Session) AddNotice(text string) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Append(model.NewNotice(text)).Clone()
}

// Reset clears the history. A turn in progress is detached and its context
// cancelled; the gate opens for a new turn right away.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.active != nil {
		if s.active.cancel != nil {
			s.active.cancel()
		}
		s.logger.Debug("turn detached by reset", "reply_id", s.active.replyID)
		s.active = nil
	}
	s.conv.Clear()
	s.state = StateIdle
}

// Begin starts a turn for text using the provider snapshot cfg. It appends
// the user message and an empty streaming reply before returning. The
// outbound history is captured here and excludes notices.
func (s *Session) Begin(text string, cfg provider.Config) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return nil, ErrTurnActive
	}

	history := provider.EntriesFrom(s.conv.Conversational())
	user := s.conv.Append(model.NewUserMessage(text))
	reply := s.conv.Append(model.NewAssistantMessage())

	t := &Turn{
		s:       s,
		gen:     s.gen,
		replyID: reply.ID,
		message: text,
		history: history,
		cfg:     cfg,
		last:    reply.Clone(),
	}
	s.active = t
	s.logger.Debug("turn started", "provider", cfg.Provider, "prompt", user.Preview(60))
	s.state = StateAwaiting
	return t, nil
}

// Send runs a whole turn and returns the final reply.
func (s *Session) Send(ctx context.Context, text string, cfg provider.Config) (model.Message, error) {
	t, err := s.Begin(text, cfg)
	if err != nil {
		return model.Message{}, err
	}
	err = t.Run(ctx)
	return t.Reply(), err
}

// =============================================================================
// TURN
// =============================================================================

// Turn binds one user message to its in-progress reply.
type Turn struct {
	s       *Session
	gen     uint64
	replyID string
	message string
	history []provider.Entry
	cfg     provider.Config

	// Guarded by s.mu.
	started bool
	cancel  context.CancelFunc
	last    model.Message
}

// ReplyID returns the ID of the assistant reply.
func (t *Turn) ReplyID() string { return t.replyID }

// Config returns the provider snapshot the turn runs with.
func (t *Turn) Config() provider.Config { return t.cfg }

// Reply returns the latest copy of the reply.
func (t *Turn) Reply() model.Message {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if m := t.s.conv.Find(t.replyID); m != nil && t.gen == t.s.gen {
		return m.Clone()
	}
	return t.last
}

// Run consumes the provider stream until it ends. It returns nil when the
// turn completes, the stream's error when it fails (the reply then holds the
// fixed failure notice), or ErrTurnDetached after a Reset.
func (t *Turn) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := t.start(cancel); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
			t.fail(err)
		}
	}()

	ctx = provider.WithCitations(ctx, t.addCitations)

	var content strings.Builder
	for fragment, serr := range t.s.streamer.Stream(ctx, t.history, t.message, t.cfg) {
		if serr != nil {
			t.fail(serr)
			return serr
		}
		// PERFORMANCE: Builder.String shares the buffer, no copy per fragment
		content.WriteString(fragment)
		if !t.update(StateStreaming, func(m *model.Message) {
			m.Content = content.String()
		}) {
			return ErrTurnDetached
		}
	}

	if !t.update(StateCompleted, func(m *model.Message) { m.Streaming = false }) {
		return ErrTurnDetached
	}
	t.s.logger.Info("turn completed",
		"provider", t.cfg.Provider,
		"chars", content.Len(),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (t *Turn) start(cancel context.CancelFunc) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.started {
		return ErrTurnStarted
	}
	t.started = true
	if t.gen != t.s.gen {
		return ErrTurnDetached
	}
	t.cancel = cancel
	return nil
}

func (t *Turn) fail(err error) {
	t.s.logger.Error("turn failed", "provider", t.cfg.Provider, "error", err)
	t.update(StateErrored, func(m *model.Message) {
		m.Content = prompts.TurnFailed
		m.Streaming = false
	})
}

func (t *Turn) addCitations(cites []model.Citation) {
	t.update(StateStreaming, func(m *model.Message) {
		m.Citations = appendUnique(m.Citations, cites)
	})
}

// update applies fn to the reply and moves the session to state. Terminal
// states release the single-flight gate. It reports false when the turn
// was detached, in which case nothing is changed.
func (t *Turn) update(state State, fn func(*model.Message)) bool {
	t.s.mu.Lock()
	if t.gen != t.s.gen {
		t.s.mu.Unlock()
		return false
	}
	m := t.s.conv.Find(t.replyID)
	if m == nil {
		t.s.mu.Unlock()
		return false
	}
	fn(m)
	t.s.state = state
	if !state.Active() {
		t.s.active = nil
	}
	snap := m.Clone()
	t.last = snap
	notify := t.s.onUpdate
	t.s.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
	return true
}

func appendUnique(dst, src []model.Citation) []model.Citation {
	for _, c := range src {
		dup := false
		for _, d := range dst {
			if d.URI == c.URI {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, c)
		}
	}
	return dst
}
