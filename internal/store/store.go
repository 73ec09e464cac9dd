// Package store provides the transactional local persistence layer: the
// outbox sync queue, derived analytics events, the activity cache, and
// the serialized profile blob. All collections live in a single SQLite
// database that survives process restarts.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const dbFile = ".lx/progress.db"

// ErrUnavailable signals that the persistence layer is inaccessible.
// Callers see it via errors.Is on any failed store operation.
var ErrUnavailable = errors.New("storage unavailable")

// Store wraps the database connection
type Store struct {
	conn    *sql.DB
	baseDir string
}

// Open opens an existing store and runs any pending migrations
func Open(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("store not found: run 'lx init' first")
	}

	return open(baseDir, dbPath)
}

// Initialize creates the store database and runs migrations
func Initialize(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	return open(baseDir, dbPath)
}

func open(baseDir, dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrUnavailable, err)
	}

	// WAL allows concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: enable WAL mode: %v", ErrUnavailable, err)
	}

	// Busy timeout as fallback protection, matches the write lock timeout
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: set busy timeout: %v", ErrUnavailable, err)
	}

	conn.Exec("PRAGMA synchronous=NORMAL")

	s := &Store{conn: conn, baseDir: baseDir}

	if err := s.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying *sql.DB for callers that need transactions
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// withWriteLock executes fn while holding an exclusive cross-process
// write lock. The lock is released when fn returns.
func (s *Store) withWriteLock(fn func() error) error {
	if s.baseDir == "" {
		return fn() // in-memory store (tests), no cross-process writers
	}
	locker := newWriteLocker(s.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// runMigrations applies the base schema and any versioned migrations
func (s *Store) runMigrations() error {
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("%w: apply schema: %v", ErrUnavailable, err)
	}

	current, err := s.schemaVersion()
	if err != nil {
		return err
	}

	for v := current + 1; v <= SchemaVersion; v++ {
		stmts, ok := migrations[v]
		if !ok {
			continue
		}
		for _, stmt := range stmts {
			if _, err := s.conn.Exec(stmt); err != nil {
				return fmt.Errorf("%w: migration %d: %v", ErrUnavailable, v, err)
			}
		}
	}

	_, err = s.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", SchemaVersion))
	if err != nil {
		return fmt.Errorf("%w: set schema version: %v", ErrUnavailable, err)
	}
	return nil
}

// schemaVersion returns the stored schema version, 0 if unset
func (s *Store) schemaVersion() (int, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM schema_info WHERE key = 'version'`).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, nil // table may not exist yet
	}
	var v int
	fmt.Sscanf(value, "%d", &v)
	return v, nil
}

// parseTimestamp tries common SQLite timestamp formats.
func parseTimestamp(ts string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05.999999999-07:00",
	} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &time.ParseError{Layout: "2006-01-02 15:04:05", Value: ts}
}
