// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/soulforge/internal/prompts"
	"github.com/jeranaias/soulforge/internal/provider"
	"github.com/jeranaias/soulforge/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete process configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Defaults DefaultsConfig `toml:"defaults"`
	Network  NetworkConfig  `toml:"network"`
	UI       UIConfig       `toml:"ui"`
	Logging  LoggingConfig  `toml:"logging"`

	// DefaultGeminiKey is the process-wide fallback credential for the
	// hosted provider. It only comes from the environment and is never
	// written to disk.
	DefaultGeminiKey string `toml:"-"`
}

// GeneralConfig contains general settings.
type GeneralConfig struct {
	// DataDir holds the settings database, logs and REPL history.
	// Empty means the config directory.
	DataDir string `toml:"data_dir"`
}

// DefaultsConfig holds the values user settings start from. A stored
// settings record is merged over these field by field.
type DefaultsConfig struct {
	UEVersion     string `toml:"ue_version"`
	Provider      string `toml:"provider"`
	CustomBaseURL string `toml:"custom_base_url"`
	CustomModel   string `toml:"custom_model"`
	UseSearch     bool   `toml:"use_search"`
}

// NetworkConfig contains transport settings.
type NetworkConfig struct {
	// ConnectTimeoutSecs bounds dialing and TLS. Streams have no overall
	// timeout.
	ConnectTimeoutSecs int `toml:"connect_timeout_secs"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
	// MaxFPS caps how often a streaming reply is redrawn.
	MaxFPS int `toml:"max_fps"`
	// BatchSize flushes buffered fragments early once this many arrived.
	BatchSize int `toml:"batch_size"`
	// WordWrap is the prose wrap width for non-TUI output; 0 disables.
	WordWrap int `toml:"word_wrap"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`
	// File is the log path. Empty means soulforge.log in the data dir.
	File string `toml:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			UEVersion:     prompts.DefaultUEVersion,
			Provider:      string(provider.KindHosted),
			CustomBaseURL: "https://api.openai.com/v1",
			CustomModel:   "gpt-4o",
			UseSearch:     true,
		},
		Network: NetworkConfig{ConnectTimeoutSecs: 10},
		UI: UIConfig{
			Theme:     "auto",
			MaxFPS:    30,
			BatchSize: 15,
			WordWrap:  80,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// DataDir returns the resolved data directory.
func (c *Config) DataDir() string {
	if c.General.DataDir != "" {
		return expandHome(c.General.DataDir)
	}
	return Dir()
}

// LogFile returns the resolved log file path.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	return filepath.Join(c.DataDir(), "soulforge.log")
}

// ConnectTimeout returns the connect timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Network.ConnectTimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the configuration directory: $SOULFORGE_HOME, or ~/.soulforge.
func Dir() string {
	if dir := os.Getenv("SOULFORGE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".soulforge"
	}
	return filepath.Join(home, ".soulforge")
}

// Path returns the path of config.toml.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// ensureSecurePermissions tightens a config file to 0600.
// SECURITY: the file may hold paths to key material; keep it owner-only
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from Path, .env files and the environment.
// A missing config file is not an error.
// CONFIG: every loaded configuration is validated
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads configuration from the TOML file at path. The file is
// decoded over Default, so absent keys keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	LoadDotEnv(filepath.Dir(path))
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory and then from dir.
// Variables already set in the environment win.
func LoadDotEnv(dir string) {
	for _, p := range []string{".env", filepath.Join(dir, ".env")} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", p, err)
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to Path.
func Save(cfg *Config) error {
	return SaveTo(cfg, Path())
}

// SaveTo writes cfg as TOML to path atomically with 0600 permissions.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# SoulForge configuration file\n")
	buf.WriteString("# Provider keys and engine version live in the settings store;\n")
	buf.WriteString("# see `soulforge config show`.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validThemes = map[string]bool{"auto": true, "dark": true, "light": true}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if !prompts.IsKnownUEVersion(c.Defaults.UEVersion) {
		errs = append(errs, ValidationError{"defaults.ue_version",
			fmt.Sprintf("must be one of %s", strings.Join(prompts.UEVersions, ", "))})
	}
	if _, err := provider.ParseKind(c.Defaults.Provider); err != nil {
		errs = append(errs, ValidationError{"defaults.provider", err.Error()})
	}
	if u, err := url.Parse(c.Defaults.CustomBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"defaults.custom_base_url", "must be an absolute http(s) URL"})
	}
	if strings.TrimSpace(c.Defaults.CustomModel) == "" {
		errs = append(errs, ValidationError{"defaults.custom_model", "must not be empty"})
	}
	if c.Network.ConnectTimeoutSecs < 1 || c.Network.ConnectTimeoutSecs > 300 {
		errs = append(errs, ValidationError{"network.connect_timeout_secs", "must be between 1 and 300"})
	}
	if !validThemes[c.UI.Theme] {
		errs = append(errs, ValidationError{"ui.theme", "must be auto, dark or light"})
	}
	if c.UI.MaxFPS < 1 || c.UI.MaxFPS > 120 {
		errs = append(errs, ValidationError{"ui.max_fps", "must be between 1 and 120"})
	}
	if c.UI.BatchSize < 1 {
		errs = append(errs, ValidationError{"ui.batch_size", "must be positive"})
	}
	if c.UI.WordWrap < 0 {
		errs = append(errs, ValidationError{"ui.word_wrap", "must not be negative"})
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{"logging.level", "must be debug, info, warn or error"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SOULFORGE_DATA_DIR: overrides general.data_dir
//   - SOULFORGE_UE_VERSION: overrides defaults.ue_version
//   - SOULFORGE_PROVIDER: overrides defaults.provider
//   - SOULFORGE_BASE_URL: overrides defaults.custom_base_url
//   - SOULFORGE_MODEL: overrides defaults.custom_model
//   - SOULFORGE_SEARCH: "1"/"true" or "0"/"false", overrides defaults.use_search
//   - SOULFORGE_LOG_LEVEL: overrides logging.level
//   - GEMINI_API_KEY, then API_KEY: the default hosted credential
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SOULFORGE_DATA_DIR"); v != "" {
		c.General.DataDir = v
	}
	if v := os.Getenv("SOULFORGE_UE_VERSION"); v != "" {
		c.Defaults.UEVersion = v
	}
	if v := os.Getenv("SOULFORGE_PROVIDER"); v != "" {
		c.Defaults.Provider = v
	}
	if v := os.Getenv("SOULFORGE_BASE_URL"); v != "" {
		c.Defaults.CustomBaseURL = v
	}
	if v := os.Getenv("SOULFORGE_MODEL"); v != "" {
		c.Defaults.CustomModel = v
	}
	if v := os.Getenv("SOULFORGE_SEARCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Defaults.UseSearch = b
		}
	}
	if v := os.Getenv("SOULFORGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	c.DefaultGeminiKey = os.Getenv("GEMINI_API_KEY")
	if c.DefaultGeminiKey == "" {
		c.DefaultGeminiKey = os.Getenv("API_KEY")
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A load failure falls back to defaults with a warning.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
