// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/soulforge/internal/commands"
	"github.com/jeranaias/soulforge/internal/config"
)

// HandleConfig implements `config show|set|path`.
func HandleConfig(ctx context.Context, a Args, d Deps) error {
	switch a.Subcommand {
	case "show", "list":
		return configShow(ctx, d)
	case "set":
		if len(a.Operands) < 2 {
			return usageErrorf("config set needs <key> <value>")
		}
		return configSet(ctx, a.Operands[0], strings.Join(a.Operands[1:], " "), d)
	case "path":
		fmt.Fprintln(d.Stdout, config.Path())
		return nil
	default:
		return usageErrorf("unknown config subcommand %q (valid: show, set, path)", a.Subcommand)
	}
}

func configShow(ctx context.Context, d Deps) error {
	if d.Settings == nil {
		return fmt.Errorf("settings store unavailable")
	}
	s, err := d.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	fmt.Fprintln(d.Stdout, "Settings:")
	fmt.Fprintln(d.Stdout, commands.SettingsText(s))
	fmt.Fprintln(d.Stdout)
	fmt.Fprintf(d.Stdout, "  %-12s %s\n", "config", config.Path())
	if d.Config != nil {
		fmt.Fprintf(d.Stdout, "  %-12s %s\n", "data", d.Config.DataDir())
		fmt.Fprintf(d.Stdout, "  %-12s %s\n", "log", d.Config.LogFile())
	}
	return nil
}

func configSet(ctx context.Context, key, value string, d Deps) error {
	if d.Settings == nil {
		return fmt.Errorf("settings store unavailable")
	}
	s, err := d.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := s.Set(key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := d.Settings.Save(ctx, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	d.logger().Info("setting changed", "key", key)
	fmt.Fprintln(d.Stdout, WrapText(s.SavedNotice(), d.wrapWidth()))
	return nil
}
