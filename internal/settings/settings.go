// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/soulforge/internal/config"
	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/provider"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid value")
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the user-editable provider configuration.
type Settings struct {
	UEVersion       string `json:"ueVersion"`
	Provider        string `json:"provider"`
	GeminiAPIKey    string `json:"geminiApiKey"`
	CustomAPIKey    string `json:"customApiKey"`
	CustomBaseURL   string `json:"customBaseUrl"`
	CustomModelName string `json:"customModelName"`
	UseSearch       bool   `json:"useSearch"`
}

// FromDefaults builds the initial settings from the process defaults. Keys
// always start empty.
func FromDefaults(d config.DefaultsConfig) Settings {
	return Settings{
		UEVersion:       d.UEVersion,
		Provider:        d.Provider,
		CustomBaseURL:   d.CustomBaseURL,
		CustomModelName: d.CustomModel,
		UseSearch:       d.UseSearch,
	}
}

// Kind returns the selected provider, falling back to the hosted one when
// the stored name is not recognised.
func (s Settings) Kind() provider.Kind {
	k, err := provider.ParseKind(s.Provider)
	if err != nil {
		return provider.KindHosted
	}
	return k
}

// Snapshot resolves the settings into the configuration for one turn. An
// empty hosted key falls back to defaultGeminiKey.
func (s Settings) Snapshot(defaultGeminiKey string) provider.Config {
	cfg := provider.Config{
		Provider:      s.Kind(),
		BaseURL:       s.CustomBaseURL,
		Model:         s.CustomModelName,
		SearchEnabled: s.UseSearch,
		TargetVersion: s.UEVersion,
	}
	switch cfg.Provider {
	case provider.KindHosted:
		cfg.APIKey = s.GeminiAPIKey
		if cfg.APIKey == "" {
			cfg.APIKey = defaultGeminiKey
		}
	case provider.KindCustom:
		cfg.APIKey = s.CustomAPIKey
	}
	return cfg
}

// SavedNotice is the notice shown after settings are saved.
func (s Settings) SavedNotice() string {
	return prompts.SettingsSaved(s.UEVersion, s.Snapshot("").DisplayName())
}

// =============================================================================
// KEYED ACCESS
// =============================================================================

// field describes one settable key.
type field struct {
	help string
	get  func(s *Settings) string
	set  func(s *Settings, v string) error
	// secret values are masked by Display.
	secret bool
}

var fields = map[string]field{
	"version": {
		help: "target Unreal Engine version (" + strings.Join(prompts.UEVersions, ", ") + ")",
		get:  func(s *Settings) string { return s.UEVersion },
		set: func(s *Settings, v string) error {
			if !prompts.IsKnownUEVersion(v) {
				return fmt.Errorf("%w: version must be one of %s", ErrInvalidValue, strings.Join(prompts.UEVersions, ", "))
			}
			s.UEVersion = v
			return nil
		},
	},
	"provider": {
		help: "gemini or custom",
		get:  func(s *Settings) string { return s.Provider },
		set: func(s *Settings, v string) error {
			k, err := provider.ParseKind(v)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			s.Provider = string(k)
			return nil
		},
	},
	"gemini_key": {
		help:   "Gemini API key (empty uses GEMINI_API_KEY)",
		get:    func(s *Settings) string { return s.GeminiAPIKey },
		set:    func(s *Settings, v string) error { s.GeminiAPIKey = v; return nil },
		secret: true,
	},
	"custom_key": {
		help:   "API key for the custom endpoint",
		get:    func(s *Settings) string { return s.CustomAPIKey },
		set:    func(s *Settings, v string) error { s.CustomAPIKey = v; return nil },
		secret: true,
	},
	"base_url": {
		help: "OpenAI-compatible base URL, e.g. https://api.deepseek.com/v1",
		get:  func(s *Settings) string { return s.CustomBaseURL },
		set: func(s *Settings, v string) error {
			u, err := url.Parse(v)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("%w: base_url must be an http(s) URL", ErrInvalidValue)
			}
			s.CustomBaseURL = v
			return nil
		},
	},
	"model": {
		help: "model name for the custom endpoint",
		get:  func(s *Settings) string { return s.CustomModelName },
		set: func(s *Settings, v string) error {
			if v == "" {
				return fmt.Errorf("%w: model must not be empty", ErrInvalidValue)
			}
			s.CustomModelName = v
			return nil
		},
	},
	"search": {
		help: "web search grounding for Gemini (on/off)",
		get:  func(s *Settings) string { return onOff(s.UseSearch) },
		set: func(s *Settings, v string) error {
			b, err := parseSwitch(v)
			if err != nil {
				return err
			}
			s.UseSearch = b
			return nil
		},
	},
}

var aliases = map[string]string{
	"ue":         "version",
	"ue_version": "version",
	"engine":     "version",
	"key":        "gemini_key",
	"api_key":    "gemini_key",
	"url":        "base_url",
	"endpoint":   "base_url",
	"model_name": "model",
}

// Keys returns the settable keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Help returns a one-line description of key.
func Help(key string) string {
	return fields[canonical(key)].help
}

func canonical(key string) string {
	key = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(key, "-", "_")))
	if a, ok := aliases[key]; ok {
		return a
	}
	return key
}

// Set validates value and assigns it to key.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[canonical(key)]
	if !ok {
		return fmt.Errorf("%w %q (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	return f.set(s, strings.TrimSpace(value))
}

// Get returns the raw value of key.
func (s Settings) Get(key string) (string, error) {
	f, ok := fields[canonical(key)]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return f.get(&s), nil
}

// Display returns key/value pairs in key order with secrets masked.
func (s Settings) Display() [][2]string {
	out := make([][2]string, 0, len(fields))
	for _, k := range Keys() {
		f := fields[k]
		v := f.get(&s)
		if f.secret {
			v = maskSecret(v)
		}
		out = append(out, [2]string{k, v})
	}
	return out
}

func maskSecret(v string) string {
	switch {
	case v == "":
		return "(unset)"
	case len(v) <= 8:
		return "****"
	default:
		return v[:4] + "…" + v[len(v)-4:]
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: expected on or off, got %q", ErrInvalidValue, v)
	}
	return b, nil
}
