// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jeranaias/soulforge/internal/config"
	"github.com/jeranaias/soulforge/internal/provider"
	"github.com/jeranaias/soulforge/internal/settings"
)

// Version information, overridden at build time with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ErrUsage marks errors caused by bad command-line input.
var ErrUsage = errors.New("usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// =============================================================================
// COMMANDS
// =============================================================================

// Command is the top-level command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdModules
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdModules:
		return "modules"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

var commandNames = map[string]Command{
	"ask":       CmdAsk,
	"a":         CmdAsk,
	"chat":      CmdChat,
	"c":         CmdChat,
	"modules":   CmdModules,
	"module":    CmdModules,
	"m":         CmdModules,
	"config":    CmdConfig,
	"version":   CmdVersion,
	"--version": CmdVersion,
	"-V":        CmdVersion,
	"help":      CmdHelp,
	"--help":    CmdHelp,
	"-h":        CmdHelp,
}

// boolFlags are the flags that never take a value.
var boolFlags = []string{"plain", "help", "h"}

// Args holds parsed CLI arguments.
type Args struct {
	// Per-invocation overrides of the stored settings.
	Provider string
	Version  string
	Search   string

	// Plain disables markdown re-rendering of ask output.
	Plain bool

	// Query is the prompt for ask.
	Query string

	// Subcommand and its operands, for modules and config.
	Subcommand string
	Operands   []string
}

// Parse maps argv (without the program name) to a command. No arguments
// starts the TUI.
func Parse(argv []string) (Command, Args, error) {
	if len(argv) == 0 {
		return CmdTUI, Args{}, nil
	}

	cmd, ok := commandNames[argv[0]]
	if !ok {
		if strings.HasPrefix(argv[0], "-") {
			return CmdHelp, Args{}, usageErrorf("unknown flag %q", argv[0])
		}
		return CmdHelp, Args{}, usageErrorf("unknown command %q", argv[0])
	}

	p := NewArgParser(argv[1:], boolFlags...)
	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, Args{Subcommand: cmd.String()}, nil
	}

	args := Args{
		Provider:   p.Flag("provider"),
		Version:    p.FlagOrDefault("version", p.Flag("v")),
		Search:     p.Flag("search"),
		Plain:      p.BoolFlag("plain"),
		Subcommand: p.Positional(0),
		Operands:   p.PositionalFrom(1),
	}

	switch cmd {
	case CmdAsk:
		args.Query = JoinPositionalArgs(p, 0)
		args.Subcommand, args.Operands = "", nil
		if strings.TrimSpace(args.Query) == "" {
			return cmd, args, usageErrorf("ask needs a prompt")
		}
	case CmdConfig:
		if args.Subcommand == "" {
			args.Subcommand = "show"
		}
	}
	return cmd, args, nil
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps carries what the subcommands need. Interactive enables terminal
// rendering (glamour, line erasing) and is normally IsStdoutTTY().
type Deps struct {
	Config   *config.Config
	Adapter  provider.Adapter
	Settings settings.Store
	Logger   *slog.Logger

	Stdout io.Writer
	Stderr io.Writer

	Interactive bool
	Width       int
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) defaultKey() string {
	if d.Config == nil {
		return ""
	}
	return d.Config.DefaultGeminiKey
}

func (d Deps) width() int {
	if d.Width > 0 {
		return d.Width
	}
	return DefaultTerminalWidth
}

// wrapWidth is the prose width for plain output: the configured word wrap,
// capped by the terminal.
func (d Deps) wrapWidth() int {
	w := d.width()
	if d.Config != nil && d.Config.UI.WordWrap > 0 && d.Config.UI.WordWrap < w {
		w = d.Config.UI.WordWrap
	}
	return w
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `soulforge - Unreal Engine architect for Soulslike games

Usage:
  soulforge                          Start the terminal UI
  soulforge ask [flags] "<prompt>"   Ask one question and stream the answer
  soulforge chat [flags]             Line-mode chat with slash commands
  soulforge modules                  List the module library
  soulforge modules <name> [flags]   Send a module prompt
  soulforge config [show]            Show settings and file locations
  soulforge config set <key> <value> Change a setting
  soulforge config path              Print the config file path
  soulforge version                  Print version information
  soulforge help [command]           Show help

Flags (ask, chat, modules):
  --provider gemini|custom   Use this provider for the invocation
  --version <v>              Target Unreal Engine version (5.0 - 5.5)
  --search on|off            Web search grounding (gemini only)
  --plain                    Do not re-render markdown (ask, modules)

Environment:
  GEMINI_API_KEY             Default Gemini key when none is saved
  SOULFORGE_HOME             Config and data directory (default ~/.soulforge)
`

var commandHelp = map[string]string{
	"ask": `soulforge ask [--provider p] [--version v] [--search on|off] [--plain] "<prompt>"

Streams one reply to stdout. On a terminal the finished reply is re-rendered
as markdown unless --plain is given. Flags apply to this call only.
`,
	"chat": `soulforge chat [--provider p] [--version v] [--search on|off]

Line-mode chat with history. Lines starting with / are commands; /help
lists them. Ctrl+C stops a reply, Ctrl+D or /quit exits.
`,
	"modules": `soulforge modules [<name>] [--version v] [--plain]

Without a name, lists the module library. With a name, sends that module's
prompt tagged with the target engine version.
`,
	"config": `soulforge config show
soulforge config set <key> <value>
soulforge config path

Settings keys:
`,
	"version": "soulforge version\n",
}

// Usage writes help for topic, or the general usage when topic is empty or
// unknown.
func Usage(w io.Writer, topic string) {
	if cmd, ok := commandNames[topic]; ok {
		topic = cmd.String()
	}
	text, ok := commandHelp[topic]
	if !ok {
		fmt.Fprint(w, usageText)
		return
	}
	fmt.Fprint(w, text)
	if topic == "config" {
		for _, k := range settings.Keys() {
			fmt.Fprintf(w, "  %-12s %s\n", k, settings.Help(k))
		}
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes every command except CmdTUI, which the caller owns.
func Run(ctx context.Context, cmd Command, a Args, d Deps) error {
	switch cmd {
	case CmdAsk:
		return HandleAsk(ctx, a, d)
	case CmdChat:
		return HandleChat(ctx, a, d)
	case CmdModules:
		return HandleModules(ctx, a, d)
	case CmdConfig:
		return HandleConfig(ctx, a, d)
	case CmdVersion:
		HandleVersion(d.Stdout)
		return nil
	case CmdHelp:
		Usage(d.Stdout, a.Subcommand)
		return nil
	default:
		return fmt.Errorf("command %s cannot run from the CLI dispatcher", cmd)
	}
}
