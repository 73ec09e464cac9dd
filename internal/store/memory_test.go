package store

import (
	"database/sql"
	"encoding/json"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hartley/lx/internal/models"
)

// newMemoryStore builds a store over an in-memory database with no
// lock file, for tests that hammer the queue without filesystem setup.
func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	s := &Store{conn: conn}
	if err := s.runMigrations(); err != nil {
		t.Fatalf("runMigrations: %v", err)
	}
	return s
}

func TestMemoryStoreQueueChurn(t *testing.T) {
	s := newMemoryStore(t)

	const n = 200
	for i := 0; i < n; i++ {
		if _, err := s.EnqueueItem(models.KindActivity, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	items, err := s.PendingItems("")
	if err != nil {
		t.Fatalf("PendingItems: %v", err)
	}
	if len(items) != n {
		t.Fatalf("expected %d items, got %d", n, len(items))
	}

	// Drain half, verify the survivors keep their order
	for i := 0; i < n/2; i++ {
		if err := s.DeleteItem(items[i].ID); err != nil {
			t.Fatalf("delete %d: %v", items[i].ID, err)
		}
	}

	rest, err := s.PendingItems("")
	if err != nil {
		t.Fatalf("PendingItems: %v", err)
	}
	if len(rest) != n/2 {
		t.Fatalf("expected %d left, got %d", n/2, len(rest))
	}
	if rest[0].ID != items[n/2].ID {
		t.Errorf("order broken after deletes: got %d want %d", rest[0].ID, items[n/2].ID)
	}
}

func TestMemoryStoreMigrationsIdempotent(t *testing.T) {
	s := newMemoryStore(t)

	// A second pass over the same connection must be a no-op
	if err := s.runMigrations(); err != nil {
		t.Fatalf("repeat runMigrations: %v", err)
	}

	v, err := s.schemaVersion()
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("expected version %d, got %d", SchemaVersion, v)
	}
}
