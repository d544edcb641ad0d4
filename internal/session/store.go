// File path: internal/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/levnertech/gapcheck/internal/common"
)

// Store persists sessions, clause positions, recorded verdicts, open-ended
// responses, and evidence analyses in SQLite.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store at the given path, overriding the environment
// configuration. The schema is migrated on first use.
func Open(path string) (*Store, error) {
	cfg := LoadConfig()
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store from an explicit configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	cfg.applyDefaults()
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("session db path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve session db path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BusyTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	common.Logger().Info("session: store ready", "path", abs)
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`PRAGMA journal_mode = WAL;`,
	`CREATE TABLE IF NOT EXISTS sessions (
                id TEXT PRIMARY KEY,
                mode TEXT NOT NULL,
                created_at TEXT NOT NULL,
                updated_at TEXT NOT NULL
        );`,
	`CREATE TABLE IF NOT EXISTS positions (
                session_id TEXT NOT NULL,
                clause TEXT NOT NULL,
                step TEXT NOT NULL,
                terminal INTEGER NOT NULL DEFAULT 0,
                PRIMARY KEY(session_id, clause),
                FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS verdicts (
                session_id TEXT NOT NULL,
                clause TEXT NOT NULL,
                payload TEXT NOT NULL,
                details TEXT NOT NULL DEFAULT '{}',
                created_at TEXT NOT NULL,
                PRIMARY KEY(session_id, clause),
                FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS open_responses (
                session_id TEXT NOT NULL,
                clause TEXT NOT NULL,
                body TEXT NOT NULL,
                PRIMARY KEY(session_id, clause),
                FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS evidence (
                session_id TEXT NOT NULL,
                clause TEXT NOT NULL,
                body TEXT NOT NULL,
                PRIMARY KEY(session_id, clause),
                FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
        );`,
}
