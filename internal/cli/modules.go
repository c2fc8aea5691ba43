// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/soulforge/internal/commands"
	"github.com/jeranaias/soulforge/internal/prompts"
)

// HandleModules lists the module library, or sends one module as an ask
// when a name is given.
func HandleModules(ctx context.Context, a Args, d Deps) error {
	if a.Subcommand == "" {
		fmt.Fprintln(d.Stdout, WrapText(commands.ModulesText(), d.wrapWidth()))
		return nil
	}

	name := strings.Join(append([]string{a.Subcommand}, a.Operands...), "_")
	mod, ok := prompts.LookupModule(name)
	if !ok {
		return usageErrorf("unknown module %q (available: %s)", name, strings.Join(prompts.ModuleKeys(), ", "))
	}

	s, err := resolveSettings(ctx, a, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(d.Stdout, "> %s\n\n", mod.Title)
	return ask(ctx, prompts.VersionedPrompt(mod.Prompt, s.UEVersion), s, a.Plain, d)
}
