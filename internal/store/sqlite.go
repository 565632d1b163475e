// Package store persists session state to a local SQLite database. Each
// collection is stored as one JSON payload keyed by name; a missing or
// malformed payload loads as an empty collection so a damaged database never
// blocks startup.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_state (
	name    TEXT PRIMARY KEY,
	payload BLOB NOT NULL
);`

const (
	keyScanResults = "scan_results"
	keyChatHistory = "chat_history"
	keyAssets      = "assets"
)

// Config locates the database file.
type Config struct {
	// Path is the SQLite file location. Parent directories are created.
	Path string `yaml:"path"`
}

func DefaultConfig() Config {
	return Config{Path: "pagelens.db"}
}

// SQLiteStore satisfies the session's persistence contract.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

func New(cfg Config, logger logging.Logger) (*SQLiteStore, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "store"}),
	}, nil
}

// Save writes the full snapshot. Collections are replaced wholesale inside
// one transaction.
func (s *SQLiteStore) Save(snapshot model.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := saveCollection(tx, keyScanResults, snapshot.ScanResults); err != nil {
		return err
	}
	if err := saveCollection(tx, keyChatHistory, snapshot.ChatHistory); err != nil {
		return err
	}
	if err := saveCollection(tx, keyAssets, snapshot.Assets); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func saveCollection(tx *sql.Tx, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	_, err = tx.Exec(
		`INSERT INTO session_state (name, payload) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
		name, payload)
	if err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

// Load reads the snapshot back. Each collection degrades independently: a
// row that is absent or fails to decode yields that collection empty.
func (s *SQLiteStore) Load() (model.Snapshot, error) {
	var snapshot model.Snapshot
	loadCollection(s, keyScanResults, &snapshot.ScanResults)
	loadCollection(s, keyChatHistory, &snapshot.ChatHistory)
	loadCollection(s, keyAssets, &snapshot.Assets)
	return snapshot, nil
}

func loadCollection[T any](s *SQLiteStore, name string, dst *T) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM session_state WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return
	}
	if err != nil {
		s.logger.Warn("could not read stored collection",
			logging.Field{Key: "collection", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		s.logger.Warn("stored collection is malformed, ignoring it",
			logging.Field{Key: "collection", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
		var zero T
		*dst = zero
	}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
