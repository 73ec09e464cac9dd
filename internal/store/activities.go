package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hartley/lx/internal/models"
)

// CacheActivity inserts or replaces an activity record keyed by its
// activity id. xpGained is stored alongside so leaderboard scope windows
// can be summed without re-deriving XP.
func (s *Store) CacheActivity(rec *models.ActivityRecord, xpGained int) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal activity record: %w", err)
	}

	return s.withWriteLock(func() error {
		_, err := s.conn.Exec(`
			INSERT OR REPLACE INTO activity_cache
				(activity_id, subject, raw_score, total_units, correct_units, elapsed_seconds, difficulty, xp_gained, completed_at, record)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ActivityID, rec.Subject, rec.RawScore, rec.TotalUnits, rec.CorrectUnits,
			rec.ElapsedSeconds, string(rec.Difficulty), xpGained, rec.CompletedAt.UTC(), string(data))
		if err != nil {
			return fmt.Errorf("%w: cache activity: %v", ErrUnavailable, err)
		}
		return nil
	})
}

// HasActivity reports whether an activity id has already been consumed
func (s *Store) HasActivity(activityID string) (bool, error) {
	var count int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM activity_cache WHERE activity_id = ?`, activityID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: check activity: %v", ErrUnavailable, err)
	}
	return count > 0, nil
}

// SubjectScores returns all historical raw scores for a subject in
// completion order. Subject averages are full recomputations over this
// history, not running averages.
func (s *Store) SubjectScores(subject string) ([]int, error) {
	rows, err := s.conn.Query(`
		SELECT raw_score FROM activity_cache
		WHERE subject = ?
		ORDER BY completed_at ASC
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: query subject scores: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("%w: scan score: %v", ErrUnavailable, err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// XPSince sums xp_gained over activities completed at or after the
// cutoff. A zero cutoff sums the full history.
func (s *Store) XPSince(cutoff time.Time) (int, error) {
	var total int
	var err error
	if cutoff.IsZero() {
		err = s.conn.QueryRow(`SELECT COALESCE(SUM(xp_gained), 0) FROM activity_cache`).Scan(&total)
	} else {
		err = s.conn.QueryRow(`
			SELECT COALESCE(SUM(xp_gained), 0) FROM activity_cache WHERE completed_at >= ?
		`, cutoff.UTC()).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: sum xp: %v", ErrUnavailable, err)
	}
	return total, nil
}

// RecentActivities returns cached records ordered newest first
func (s *Store) RecentActivities(limit int) ([]models.ActivityRecord, error) {
	rows, err := s.conn.Query(`
		SELECT record FROM activity_cache
		ORDER BY completed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query activities: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: scan activity: %v", ErrUnavailable, err)
		}
		var rec models.ActivityRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal activity record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteActivity removes a cached record; absent ids are a no-op
func (s *Store) DeleteActivity(activityID string) error {
	return s.withWriteLock(func() error {
		if _, err := s.conn.Exec(`DELETE FROM activity_cache WHERE activity_id = ?`, activityID); err != nil {
			return fmt.Errorf("%w: delete activity %s: %v", ErrUnavailable, activityID, err)
		}
		return nil
	})
}

// CountActivities returns the number of cached activity records
func (s *Store) CountActivities() (int, error) {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM activity_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count activities: %v", ErrUnavailable, err)
	}
	return count, nil
}

// PutAnalytics inserts or replaces a derived analytics event
func (s *Store) PutAnalytics(ev *models.AnalyticsEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal analytics event: %w", err)
	}

	return s.withWriteLock(func() error {
		_, err := s.conn.Exec(`
			INSERT OR REPLACE INTO analytics (id, activity_id, subject, payload, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, ev.ID, ev.ActivityID, ev.Subject, string(data), ev.CompletedAt.UTC())
		if err != nil {
			return fmt.Errorf("%w: put analytics: %v", ErrUnavailable, err)
		}
		return nil
	})
}

// AnalyticsSince returns analytics events created at or after the
// cutoff, oldest first. If subject is non-empty results are filtered.
func (s *Store) AnalyticsSince(cutoff time.Time, subject string) ([]models.AnalyticsEvent, error) {
	query := `SELECT payload FROM analytics WHERE created_at >= ?`
	args := []any{cutoff.UTC()}
	if subject != "" {
		query += ` AND subject = ?`
		args = append(args, subject)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query analytics: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var events []models.AnalyticsEvent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("%w: scan analytics: %v", ErrUnavailable, err)
		}
		var ev models.AnalyticsEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal analytics event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
