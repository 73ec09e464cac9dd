package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hartley/lx/internal/models"
)

// EnqueueItem appends a new queue item and returns it with its assigned
// id. Ids are monotonic, so reading back in id order preserves enqueue
// order.
func (s *Store) EnqueueItem(kind models.QueueKind, payload json.RawMessage) (*models.QueueItem, error) {
	if !models.IsValidKind(kind) {
		return nil, fmt.Errorf("enqueue: invalid kind %q", kind)
	}

	item := &models.QueueItem{
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}

	err := s.withWriteLock(func() error {
		res, err := s.conn.Exec(`
			INSERT INTO sync_queue (kind, payload, enqueued_at, delivered)
			VALUES (?, ?, ?, 0)
		`, string(item.Kind), string(item.Payload), item.EnqueuedAt)
		if err != nil {
			return fmt.Errorf("%w: insert queue item: %v", ErrUnavailable, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("%w: last insert id: %v", ErrUnavailable, err)
		}
		item.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// PendingItems returns all undelivered queue items in enqueue order.
// If kind is non-empty only items of that kind are returned.
func (s *Store) PendingItems(kind models.QueueKind) ([]models.QueueItem, error) {
	query := `
		SELECT id, kind, payload, enqueued_at, delivered
		FROM sync_queue
		WHERE delivered = 0`
	args := []any{}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY id ASC`

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query queue: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var items []models.QueueItem
	for rows.Next() {
		var (
			item      models.QueueItem
			payload   string
			ts        string
			delivered int
		)
		if err := rows.Scan(&item.ID, &item.Kind, &payload, &ts, &delivered); err != nil {
			return nil, fmt.Errorf("%w: scan queue item: %v", ErrUnavailable, err)
		}
		parsed, parseErr := parseTimestamp(ts)
		if parseErr != nil {
			return nil, parseErr
		}
		item.EnqueuedAt = parsed
		item.Payload = json.RawMessage(payload)
		item.Delivered = delivered != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteItem removes a queue item after confirmed remote acceptance.
// Deleting an absent id is a no-op, not an error: a retry can race a
// prior successful delete.
func (s *Store) DeleteItem(id int64) error {
	return s.withWriteLock(func() error {
		if _, err := s.conn.Exec(`DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
			return fmt.Errorf("%w: delete queue item %d: %v", ErrUnavailable, id, err)
		}
		return nil
	})
}

// CountPending returns the number of undelivered queue items. The outbox
// manager recomputes its pending count from this after every mutation.
func (s *Store) CountPending() (int, error) {
	var count int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM sync_queue WHERE delivered = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count pending: %v", ErrUnavailable, err)
	}
	return count, nil
}
