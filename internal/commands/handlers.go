// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/settings"
)

// storeTimeout bounds settings reads and writes made by handlers.
const storeTimeout = 5 * time.Second

// =============================================================================
// CONTEXT
// =============================================================================

// Context provides access to application state for command handlers.
// Handlers that need a nil field report an ErrorMsg.
type Context struct {
	// Settings persists the user's provider settings.
	Settings settings.Store
}

// NewContext creates a command context.
func NewContext(store settings.Store) *Context {
	return &Context{Settings: store}
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// OutputMsg carries informational text (help, lists, settings) to display.
type OutputMsg struct {
	Text string
}

// NewConversationMsg asks the front-end to reset the session.
type NewConversationMsg struct{}

// SendPromptMsg asks the front-end to send Text as a user turn.
type SendPromptMsg struct {
	// Label names the source, e.g. a module title.
	Label string
	Text  string
}

// SettingsChangedMsg reports saved settings and the notice to show.
type SettingsChangedMsg struct {
	Settings settings.Settings
	Notice   string
}

// ErrorMsg reports a command failure.
type ErrorMsg struct {
	Err error
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return ErrorMsg{Err: err} }
}

// =============================================================================
// HANDLERS
// =============================================================================

func (r *Registry) handleHelp(_ *Context, args []string) tea.Cmd {
	if len(args) > 0 {
		name := args[0]
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		if cmd := r.Get(name); cmd != nil {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			text := fmt.Sprintf("%s\n  %s", usage, cmd.Description)
			if len(cmd.Aliases) > 0 {
				text += "\n  aliases: " + strings.Join(cmd.Aliases, ", ")
			}
			if cmd.Name == "/set" {
				text += "\n" + settingsKeysHelp()
			}
			return func() tea.Msg { return OutputMsg{Text: text} }
		}
	}
	text := r.HelpText()
	return func() tea.Msg { return OutputMsg{Text: text} }
}

// HandleQuit exits the application.
func HandleQuit(*Context, []string) tea.Cmd {
	return tea.Quit
}

// HandleNew starts a new conversation.
func HandleNew(*Context, []string) tea.Cmd {
	return func() tea.Msg { return NewConversationMsg{} }
}

// HandleModule sends a module template, tagged with the current engine
// version.
func HandleModule(ctx *Context, args []string) tea.Cmd {
	name := strings.Join(args, "_")
	mod, ok := prompts.LookupModule(name)
	if !ok {
		return errorCmd(fmt.Errorf("unknown module %q (available: %s)", name, strings.Join(prompts.ModuleKeys(), ", ")))
	}
	return func() tea.Msg {
		s, err := loadSettings(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SendPromptMsg{
			Label: mod.Title,
			Text:  prompts.VersionedPrompt(mod.Prompt, s.UEVersion),
		}
	}
}

// HandleModules lists the module library.
func HandleModules(*Context, []string) tea.Cmd {
	return func() tea.Msg { return OutputMsg{Text: ModulesText()} }
}

// ModulesText renders the module library as a list.
func ModulesText() string {
	var b strings.Builder
	for _, m := range prompts.Modules() {
		fmt.Fprintf(&b, "- **%s** `%s`\n  %s\n", m.Title, strings.ToLower(m.Key), m.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// HandleSet validates and saves one setting. The remaining arguments are
// joined so values may contain spaces.
func HandleSet(ctx *Context, args []string) tea.Cmd {
	key, value := args[0], strings.Join(args[1:], " ")
	return func() tea.Msg {
		if ctx == nil || ctx.Settings == nil {
			return ErrorMsg{Err: fmt.Errorf("settings store unavailable")}
		}
		c, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		s, err := ctx.Settings.Load(c)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		if err := s.Set(key, value); err != nil {
			return ErrorMsg{Err: err}
		}
		if err := ctx.Settings.Save(c, s); err != nil {
			return ErrorMsg{Err: err}
		}
		return SettingsChangedMsg{Settings: s, Notice: s.SavedNotice()}
	}
}

// HandleSettings shows the current settings with keys masked.
func HandleSettings(ctx *Context, _ []string) tea.Cmd {
	return func() tea.Msg {
		s, err := loadSettings(ctx)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return OutputMsg{Text: SettingsText(s)}
	}
}

// SettingsText renders s as an aligned key/value list.
func SettingsText(s settings.Settings) string {
	var b strings.Builder
	for _, kv := range s.Display() {
		fmt.Fprintf(&b, "  %-12s %s\n", kv[0], kv[1])
	}
	return strings.TrimRight(b.String(), "\n")
}

func settingsKeysHelp() string {
	var b strings.Builder
	for _, k := range settings.Keys() {
		fmt.Fprintf(&b, "  %-12s %s\n", k, settings.Help(k))
	}
	return strings.TrimRight(b.String(), "\n")
}

func loadSettings(ctx *Context) (settings.Settings, error) {
	if ctx == nil || ctx.Settings == nil {
		return settings.Settings{}, fmt.Errorf("settings store unavailable")
	}
	c, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	return ctx.Settings.Load(c)
}
