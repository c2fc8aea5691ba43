// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides process configuration loading and management for
// SoulForge.
//
// Process configuration covers where data lives, logging, network and UI
// tuning, and the defaults that user settings are merged over. The user's
// provider settings themselves (keys, engine version, provider choice) live
// in the settings store.
//
// # Key Types
//
//   - Config: main configuration structure
//   - DefaultsConfig: defaults for the user settings record
//   - ValidateErrors: every problem found by Validate
//   - Watcher: reloads config.toml when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SOULFORGE_*, GEMINI_API_KEY, API_KEY)
//   - .env in the working directory, then ~/.soulforge/.env
//   - ~/.soulforge/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.DataDir(), cfg.Logging.Level)
//
// Watch for edits:
//
//	w, err := config.Watch(config.Path(), func(cfg *config.Config) {
//	    config.SetGlobal(cfg)
//	}, nil)
//	defer w.Close()
package config
