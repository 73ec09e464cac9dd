package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hartley/lx/internal/models"
)

// profileKey is the fixed row key: one profile blob per device
const profileKey = "local"

// LoadProfile reads the profile blob, or nil if none has been saved yet
func (s *Store) LoadProfile() (*models.Profile, error) {
	var data string
	err := s.conn.QueryRow(`SELECT data FROM profile WHERE id = ?`, profileKey).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %v", ErrUnavailable, err)
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

// SaveProfile overwrites the profile blob. Called after every recorded
// activity; the write either fully applies or not at all.
func (s *Store) SaveProfile(p *models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	return s.withWriteLock(func() error {
		_, err := s.conn.Exec(`
			INSERT OR REPLACE INTO profile (id, data, updated_at)
			VALUES (?, ?, ?)
		`, profileKey, string(data), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("%w: save profile: %v", ErrUnavailable, err)
		}
		return nil
	})
}
