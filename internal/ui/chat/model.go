// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/soulforge/internal/commands"
	"github.com/jeranaias/soulforge/internal/config"
	"github.com/jeranaias/soulforge/internal/model"
	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/session"
	"github.com/jeranaias/soulforge/internal/settings"
	"github.com/jeranaias/soulforge/internal/ui/components"
	"github.com/jeranaias/soulforge/internal/ui/styles"
	"github.com/jeranaias/soulforge/internal/util"
)

// inputHeight is the number of text rows in the input box.
const inputHeight = 3

// =============================================================================
// OPTIONS
// =============================================================================

// Options wires the chat view to the rest of the application.
type Options struct {
	// Session holds the conversation. Its update func must feed Buffer.
	Session *session.Session
	Buffer  *StreamingBuffer

	// Settings persists provider settings; /set writes through it.
	Settings settings.Store

	// DefaultGeminiKey is the process-wide hosted credential.
	DefaultGeminiKey string

	Theme  *styles.Theme
	UI     config.UIConfig
	Logger *slog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	sess       *session.Session
	buffer     *StreamingBuffer
	store      settings.Store
	settings   settings.Settings
	defaultKey string
	logger     *slog.Logger

	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context

	// Tab completion: base is the input the candidates were computed
	// from, completed is the input after the last Tab.
	popup     *components.CompletionPopup
	base      string
	completed string

	theme    *styles.Theme
	ui       config.UIConfig
	renderer *components.MessageRenderer
	header   *components.Header
	keys     KeyMap

	// messages mirrors the session, patched by streaming snapshots.
	messages []model.Message

	// Active turn, nil when idle.
	turn   *session.Turn
	cancel context.CancelFunc

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	status    string
	lastError error
}

// New creates the chat model. Settings are loaded once here and then kept
// in sync with /set.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	buffer := opts.Buffer
	if buffer == nil {
		buffer = NewStreamingBuffer(opts.UI.BatchSize, opts.UI.MaxFPS)
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(opts.UI.Theme)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := opts.Settings.Load(ctx)
	if err != nil {
		logger.Warn("load settings", "error", err)
	}

	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "描述你要实现的系统，或输入 /help"
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Spinner

	registry := commands.NewRegistry()

	m := Model{
		sess:       opts.Session,
		buffer:     buffer,
		store:      opts.Settings,
		settings:   st,
		defaultKey: opts.DefaultGeminiKey,
		logger:     logger,
		registry:   registry,
		parser:     commands.NewParser(registry),
		cmdCtx:     commands.NewContext(opts.Settings),
		popup:      components.NewCompletionPopup(),
		theme:      theme,
		ui:         opts.UI,
		renderer:   components.NewMessageRenderer(theme),
		header:     components.NewHeader(theme),
		keys:       keys,
		viewport:   viewport.New(80, 20),
		input:      ta,
		spinner:    sp,
		width:      80,
		height:     24,
	}

	if len(m.sess.Messages()) == 0 {
		m.sess.AddNotice(prompts.Welcome)
	}
	m.syncMessages()
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.ready = true
		m.refreshViewport(true)
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case StreamTickMsg:
		if msgs, ok := m.buffer.Flush(); ok {
			m.apply(msgs)
		}
		if m.turn != nil {
			return m, streamTickCmd(m.buffer.Interval())
		}
		return m, nil

	case TurnDoneMsg:
		return m.finishTurn(msg)

	case spinner.TickMsg:
		if m.turn == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case commands.OutputMsg:
		m.sess.AddNotice(msg.Text)
		m.syncMessages()
		return m, nil

	case commands.NewConversationMsg:
		m.newConversation()
		return m, nil

	case commands.SendPromptMsg:
		m.status = msg.Label
		return m.submit(msg.Text)

	case commands.SettingsChangedMsg:
		m.settings = msg.Settings
		m.sess.AddNotice(msg.Notice)
		m.lastError = nil
		m.syncMessages()
		return m, nil

	case commands.ErrorMsg:
		m.lastError = msg.Err
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		return m, nil

	case ConfigErrorMsg:
		m.logger.Warn("config reload rejected", "error", msg.Err)
		m.lastError = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey processes the bindings the view owns. Everything else goes to
// the input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if !key.Matches(msg, m.keys.Complete) {
		m.popup.Clear()
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Stop):
		if m.cancel != nil {
			m.cancel()
			m.status = "stopped"
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Submit):
		text := util.NormalizeInput(m.input.Value())
		if text == "" {
			return m, nil, true
		}
		if commands.IsCommand(text) {
			m.input.Reset()
			res := m.parser.Parse(text)
			return m, m.registry.Execute(m.cmdCtx, res), true
		}
		next, cmd := m.submit(text)
		return next, cmd, true

	case key.Matches(msg, m.keys.Complete):
		m.complete()
		return m, nil, true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil, true
	}
	return m, nil, false
}

// submit starts a turn for text. The input is kept when the session is
// busy so nothing typed is lost.
func (m Model) submit(text string) (Model, tea.Cmd) {
	cfg := m.settings.Snapshot(m.defaultKey)
	turn, err := m.sess.Begin(text, cfg)
	if err != nil {
		if errors.Is(err, session.ErrTurnActive) {
			m.status = "a reply is still streaming"
		} else {
			m.lastError = err
		}
		return m, nil
	}

	m.input.Reset()
	m.lastError = nil
	m.turn = turn
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.syncMessages()

	run := func() tea.Msg {
		err := turn.Run(ctx)
		return TurnDoneMsg{Reply: turn.Reply(), Err: err}
	}
	return m, tea.Batch(run, streamTickCmd(m.buffer.Interval()), m.spinner.Tick)
}

// finishTurn ends the current turn. A turn detached by /new can finish
// after the next one started; its message only refreshes the view.
func (m Model) finishTurn(msg TurnDoneMsg) (Model, tea.Cmd) {
	if m.turn == nil || msg.Reply.ID != m.turn.ReplyID() {
		m.syncMessages()
		return m, nil
	}

	turn := m.turn
	if m.cancel != nil {
		m.cancel()
	}
	m.turn = nil
	m.cancel = nil
	m.buffer.ForceFlush()

	switch {
	case msg.Err == nil, errors.Is(msg.Err, session.ErrTurnDetached):
	default:
		m.logger.Warn("turn ended with error", "provider", turn.Config().Provider, "error", msg.Err)
	}
	m.status = ""
	m.syncMessages()
	return m, nil
}

func (m *Model) newConversation() {
	if m.cancel != nil {
		m.cancel()
	}
	m.sess.Reset()
	m.turn = nil
	m.cancel = nil
	m.buffer.Reset()
	m.renderer.Forget()
	m.status = ""
	m.lastError = nil
	m.sess.AddNotice(prompts.Welcome)
	m.syncMessages()
}

// complete replaces the command or argument being typed with the first
// completion.
func (m *Model) complete() {
	value := m.input.Value()
	if m.popup.HasCompletions() && value == m.completed {
		m.popup.Next()
	} else {
		m.base = value
		m.popup.SetCompletions(m.registry.Complete(value))
	}

	choice, ok := m.popup.Selected()
	if !ok {
		return
	}
	m.input.SetValue(completeInput(m.base, choice.Value))
	m.completed = m.input.Value()
}

// completeInput replaces the word being typed in base with choice.
func completeInput(base, choice string) string {
	if commands.GetPartialCommand(base) != "" {
		return choice + " "
	}
	if i := strings.LastIndexAny(base, " \t"); i >= 0 {
		return base[:i+1] + choice + " "
	}
	return base
}

func (m *Model) applyConfig(cfg *config.Config) {
	m.buffer.SetMaxFPS(cfg.UI.MaxFPS)
	m.buffer.SetBatchSize(cfg.UI.BatchSize)
	if cfg.UI.Theme != m.ui.Theme {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.renderer = components.NewMessageRenderer(m.theme)
		m.header = components.NewHeader(m.theme)
		m.spinner.Style = m.theme.Spinner
		m.layout()
	}
	m.ui = cfg.UI
	m.refreshViewport(false)
}

// =============================================================================
// MESSAGE SYNC
// =============================================================================

// syncMessages replaces the local copy with the session's.
func (m *Model) syncMessages() {
	m.messages = m.sess.Messages()
	m.refreshViewport(true)
}

// apply patches streamed snapshots into the local copy.
func (m *Model) apply(snapshots []model.Message) {
	for _, snap := range snapshots {
		for i := range m.messages {
			if m.messages[i].ID == snap.ID {
				m.messages[i] = snap
				break
			}
		}
	}
	m.refreshViewport(false)
}

// refreshViewport re-renders the conversation. The view follows new output
// only when it was already at the bottom, unless force is set.
func (m *Model) refreshViewport(force bool) {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderer.RenderAll(m.messages))
	if force || atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) layout() {
	m.header.Width = m.width
	m.renderer.SetWidth(m.width - 2)
	m.input.SetWidth(m.width - 2)

	// header + input border + input + status
	chrome := 1 + 1 + inputHeight + 1
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}
