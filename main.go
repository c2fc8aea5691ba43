// SoulForge - Unreal Engine architect for Soulslike games, in the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/soulforge/internal/cli"
	"github.com/jeranaias/soulforge/internal/config"
	"github.com/jeranaias/soulforge/internal/logging"
	"github.com/jeranaias/soulforge/internal/provider"
	"github.com/jeranaias/soulforge/internal/provider/compat"
	"github.com/jeranaias/soulforge/internal/provider/gemini"
	"github.com/jeranaias/soulforge/internal/session"
	"github.com/jeranaias/soulforge/internal/settings"
	"github.com/jeranaias/soulforge/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cli.Usage(os.Stderr, args.Subcommand)
		return 2
	}
	if cmd == cli.CmdVersion || cmd == cli.CmdHelp {
		return exitCode(cli.Run(context.Background(), cmd, args, cli.Deps{Stdout: os.Stdout, Stderr: os.Stderr}))
	}

	cfg := loadConfig()

	logger, closeLog, err := logging.Setup(cfg.LogFile(), cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		logger, closeLog = logging.Discard(), func() error { return nil }
	}
	defer closeLog()
	logger.Info("starting", "version", Version, "command", cmd.String())

	store := openSettings(cfg, logger)
	defer store.Close()

	adapter := newDispatcher(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if cmd == cli.CmdTUI {
		if err := runTUI(ctx, cfg, adapter, store, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	deps := cli.Deps{
		Config:      cfg,
		Adapter:     adapter,
		Settings:    store,
		Logger:      logger,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Interactive: cli.IsStdoutTTY(),
		Width:       cli.GetTerminalWidth(),
	}
	return exitCode(cli.Run(ctx, cmd, args, deps))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

// loadConfig loads config.toml. An unreadable or invalid file is reported
// and replaced by the defaults, with .env and environment overrides still
// applied.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.Default()
		config.LoadDotEnv(config.Dir())
		cfg.ApplyEnvOverrides()
	}
	config.SetGlobal(cfg)
	return cfg
}

// openSettings opens the SQLite settings store, falling back to an
// in-memory store so the session still works without persistence.
func openSettings(cfg *config.Config, logger *slog.Logger) settings.Store {
	defaults := settings.FromDefaults(cfg.Defaults)
	path := filepath.Join(cfg.DataDir(), "settings.db")

	store, err := settings.Open(path, defaults, settings.WithLogger(logger))
	if err != nil {
		logger.Error("settings store unavailable, changes will not persist", "path", path, "error", err)
		fmt.Fprintf(os.Stderr, "Warning: settings will not be saved: %v\n", err)
		return settings.NewMemoryStore(defaults)
	}
	return store
}

func newDispatcher(cfg *config.Config, logger *slog.Logger) *provider.Dispatcher {
	httpClient := provider.NewStreamingHTTPClient(cfg.ConnectTimeout())

	hosted := gemini.New(
		gemini.WithChatFactory(gemini.SDKChatFactory(httpClient, "")),
		gemini.WithLogger(logger),
	)
	custom := compat.New(
		compat.WithHTTPClient(httpClient),
		compat.WithLogger(logger),
		compat.WithUserAgent("soulforge/"+Version),
	)
	return provider.NewDispatcher(hosted, custom)
}

func runTUI(ctx context.Context, cfg *config.Config, adapter provider.Adapter, store settings.Store, logger *slog.Logger) error {
	buffer := chat.NewStreamingBuffer(cfg.UI.BatchSize, cfg.UI.MaxFPS)
	sess := session.New(adapter,
		session.WithUpdateFunc(buffer.Write),
		session.WithLogger(logger),
	)

	m := chat.New(chat.Options{
		Session:          sess,
		Buffer:           buffer,
		Settings:         store,
		DefaultGeminiKey: cfg.DefaultGeminiKey,
		UI:               cfg.UI,
		Logger:           logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	watcher, err := config.Watch(config.Path(),
		func(c *config.Config) {
			config.SetGlobal(c)
			p.Send(chat.ConfigReloadedMsg{Config: c})
		},
		func(err error) {
			p.Send(chat.ConfigErrorMsg{Err: err})
		},
	)
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
