package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultStateDir = ".crms"
	defaultStateDB  = "state.db"
)

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DefaultStatePath returns ~/.crms/state.db.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve user home: %w", err)
	}
	return filepath.Join(home, defaultStateDir, defaultStateDB), nil
}

// OpenStateDB opens (or creates) the SQLite file backing client storage.
func OpenStateDB(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("session: state path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("session: create state dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open state db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: set WAL mode: %w", err)
	}
	return db, nil
}

// SQLiteStorage is a Storage kept in one table of a SQLite database.
type SQLiteStorage struct {
	db    *sql.DB
	table string
}

// NewSQLiteStorage creates table if needed. Use separate tables for local
// and session storage.
func NewSQLiteStorage(db *sql.DB, table string) (*SQLiteStorage, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("session: invalid table name %q", table)
	}
	schema := `CREATE TABLE IF NOT EXISTS ` + table + ` (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("session: create %s: %w", table, err)
	}
	return &SQLiteStorage{db: db, table: table}, nil
}

func (s *SQLiteStorage) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM `+s.table+` WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO `+s.table+` (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("session: write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM `+s.table+` WHERE key = ?`, key); err != nil {
		return fmt.Errorf("session: delete %s: %w", key, err)
	}
	return nil
}
