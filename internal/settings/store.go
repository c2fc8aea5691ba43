// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// RecordKey is the key the settings record is stored under.
const RecordKey = "soulforge_settings"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT 0
) WITHOUT ROWID;
`

// Store loads and saves the settings record.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Close() error
}

// decode merges a stored JSON record over defaults. Fields absent from the
// record keep their default values.
func decode(raw []byte, defaults Settings) (Settings, error) {
	s := defaults
	if err := json.Unmarshal(raw, &s); err != nil {
		return defaults, err
	}
	return s, nil
}

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore keeps settings in a SQLite key-value table.
type SQLiteStore struct {
	db       *sql.DB
	defaults Settings
	logger   *slog.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for recoverable problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *SQLiteStore) { s.logger = l }
}

// Open opens (creating if needed) the settings database at path.
func Open(path string, defaults Settings, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	// The record holds API keys.
	if err := os.Chmod(path, 0600); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to secure settings database: %w", err)
	}

	s := &SQLiteStore{db: db, defaults: defaults, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load returns the stored settings merged over the defaults. A corrupt
// record is logged and ignored.
func (s *SQLiteStore) Load(ctx context.Context) (Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", RecordKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaults, nil
	}
	if err != nil {
		return s.defaults, fmt.Errorf("load settings: %w", err)
	}

	out, err := decode([]byte(raw), s.defaults)
	if err != nil {
		s.logger.Warn("stored settings unreadable, using defaults", "error", err)
		return s.defaults, nil
	}
	return out, nil
}

// Save replaces the stored record.
func (s *SQLiteStore) Save(ctx context.Context, st Settings) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		RecordKey, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps the encoded record in memory. It is used when the data
// directory is unavailable and in tests.
type MemoryStore struct {
	mu       sync.Mutex
	raw      []byte
	defaults Settings
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(defaults Settings) *MemoryStore {
	return &MemoryStore{defaults: defaults}
}

// Load returns the stored settings merged over the defaults.
func (m *MemoryStore) Load(context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raw == nil {
		return m.defaults, nil
	}
	s, err := decode(m.raw, m.defaults)
	if err != nil {
		return m.defaults, nil
	}
	return s, nil
}

// Save replaces the stored record.
func (m *MemoryStore) Save(_ context.Context, s Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.raw = raw
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
