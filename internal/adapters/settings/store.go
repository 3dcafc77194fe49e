// Package settings provides the SQLite-backed store for durable settings.
// The last selected project path is the only value kept across runs.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brianly1003/codexdesk/internal/domain"
	"github.com/brianly1003/codexdesk/internal/domain/ports"
	"github.com/brianly1003/codexdesk/internal/sync"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// schemaVersion is incremented when the settings table changes shape.
const schemaVersion = 1

const keyLastProjectPath = "last_project_path"

// Store is a key/value settings table in a SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string

	mu     sync.Mutex
	closed bool
}

// Open opens (creating if needed) the settings database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create settings schema: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("settings store opened")

	return &Store{db: db, dbPath: dbPath}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS metadata (key TEXT PRIMARY KEY, value TEXT)`)
	if err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'")
	if err := row.Scan(&currentVersion); err != nil {
		currentVersion = 0
	}

	if currentVersion > 0 && currentVersion < schemaVersion {
		log.Info().
			Int("old_version", currentVersion).
			Int("new_version", schemaVersion).
			Msg("settings schema version changed, rebuilding")
		_, _ = db.Exec("DROP TABLE IF EXISTS settings")
	}

	schema := `
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	_, err = db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)`, schemaVersion)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Get returns the value stored under key, or domain.ErrSettingNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// LastProjectPath returns the last selected project path, or "" when none.
func (s *Store) LastProjectPath(ctx context.Context) (string, error) {
	path, err := s.Get(ctx, keyLastProjectPath)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return "", nil
	}
	return path, err
}

// SetLastProjectPath records the project path. An empty path clears it.
func (s *Store) SetLastProjectPath(ctx context.Context, path string) error {
	if path == "" {
		return s.Delete(ctx, keyLastProjectPath)
	}
	return s.Set(ctx, keyLastProjectPath, path)
}

// Close closes the database. Repeat calls are no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ensure Store implements ports.SettingsStore.
var _ ports.SettingsStore = (*Store)(nil)
