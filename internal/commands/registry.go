// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/settings"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/module <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Description string

	// Values are offered by completion. They are hints, not a whitelist:
	// handlers accept aliases.
	Values []string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Execute validates res and returns the handler's command. Unknown commands
// and invalid arguments produce an ErrorMsg.
func (r *Registry) Execute(ctx *Context, res ParseResult) tea.Cmd {
	if res.Command == nil {
		return errorCmd(fmt.Errorf("unknown command %s (try /help)", res.CommandName))
	}
	if err := ValidateArgs(res.Command, res.Args); err != nil {
		return errorCmd(err)
	}
	return res.Command.Handler(ctx, res.Args)
}

// HelpText renders every command grouped by category.
func (r *Registry) HelpText() string {
	groups := make(map[string][]*Command)
	var order []string
	for _, cmd := range r.All() {
		cat := cmd.Category
		if cat == "" {
			cat = "General"
		}
		if _, ok := groups[cat]; !ok {
			order = append(order, cat)
		}
		groups[cat] = append(groups[cat], cmd)
	}
	sort.Strings(order)

	var b strings.Builder
	for i, cat := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "**%s**\n", cat)
		for _, cmd := range groups[cat] {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&b, "  %-22s %s\n", usage, cmd.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// =============================================================================
// COMPLETION
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value to insert
	Value string

	// Description shown alongside
	Description string
}

// Complete returns completions for a partially typed command line: command
// names while the name is incomplete, then enumerated argument values.
func (r *Registry) Complete(input string) []Completion {
	if partial := GetPartialCommand(input); partial != "" {
		var out []Completion
		for _, cmd := range r.All() {
			if strings.HasPrefix(cmd.Name, strings.ToLower(partial)) {
				out = append(out, Completion{Value: cmd.Name, Description: cmd.Description})
			}
		}
		return out
	}

	cmd := r.Get(ExtractCommandName(input))
	if cmd == nil {
		return nil
	}
	idx, prefix := GetPartialArg(input)
	if idx >= len(cmd.Args) {
		return nil
	}
	var out []Completion
	for _, v := range cmd.Args[idx].Values {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			out = append(out, Completion{Value: v, Description: cmd.Args[idx].Description})
		}
	}
	return out
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Category:    "Navigation",
		Handler:     r.handleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit SoulForge",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})

	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n", "/clear"},
		Description: "Start a new conversation",
		Category:    "Conversation",
		Handler:     HandleNew,
	})

	r.Register(&Command{
		Name:        "/module",
		Aliases:     []string{"/m"},
		Description: "Generate code from a module template",
		Usage:       "/module <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Description: "module name", Values: prompts.ModuleKeys()},
		},
		Category: "Conversation",
		Handler:  HandleModule,
	})

	r.Register(&Command{
		Name:        "/modules",
		Description: "List module templates",
		Category:    "Conversation",
		Handler:     HandleModules,
	})

	r.Register(&Command{
		Name:        "/set",
		Description: "Change and save a setting",
		Usage:       "/set <key> <value>",
		Args: []ArgDef{
			{Name: "key", Required: true, Description: "setting key", Values: settings.Keys()},
			{Name: "value", Required: true, Description: "new value"},
		},
		Category: "Settings",
		Handler:  HandleSet,
	})

	r.Register(&Command{
		Name:        "/settings",
		Aliases:     []string{"/config"},
		Description: "Show current settings",
		Category:    "Settings",
		Handler:     HandleSettings,
	})
}
