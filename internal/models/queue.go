package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueKind tags the payload variant carried by a queue item
type QueueKind string

const (
	KindActivity         QueueKind = "activity"
	KindAnalytics        QueueKind = "analytics"
	KindProgressSnapshot QueueKind = "progress-snapshot"
)

// IsValidKind checks if a queue kind is valid
func IsValidKind(k QueueKind) bool {
	switch k {
	case KindActivity, KindAnalytics, KindProgressSnapshot:
		return true
	}
	return false
}

// QueueItem is one buffered outbound write awaiting remote delivery.
// An item is removed from the store only after the remote collaborator
// acknowledged receipt, never speculatively.
type QueueItem struct {
	ID         int64           `json:"id"`
	Kind       QueueKind       `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Delivered  bool            `json:"delivered"`
}

// AnalyticsEvent is the derived per-activity summary forwarded to the
// remote analytics endpoint.
type AnalyticsEvent struct {
	ID          string    `json:"id"`
	ActivityID  string    `json:"activity_id"`
	Subject     string    `json:"subject"`
	RawScore    int       `json:"raw_score"`
	Accuracy    float64   `json:"accuracy"`
	XPGained    int       `json:"xp_gained"`
	Level       int       `json:"level"`
	StreakDays  int       `json:"streak_days"`
	DurationSec int       `json:"duration_sec"`
	CompletedAt time.Time `json:"completed_at"`
}

// ProgressSnapshot captures profile milestones (level changes, unlocks)
// for the remote progress mirror.
type ProgressSnapshot struct {
	ProfileID      string    `json:"profile_id"`
	DisplayName    string    `json:"display_name"`
	TotalXP        int       `json:"total_xp"`
	Level          int       `json:"level"`
	StreakDays     int       `json:"streak_days"`
	AchievementIDs []string  `json:"achievement_ids,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

// DecodePayload decodes a queue item payload into its concrete variant.
// The switch is exhaustive over QueueKind so new kinds cannot be added
// without a decode path.
func DecodePayload(kind QueueKind, raw json.RawMessage) (any, error) {
	switch kind {
	case KindActivity:
		var rec ActivityRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode activity payload: %w", err)
		}
		return &rec, nil
	case KindAnalytics:
		var ev AnalyticsEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode analytics payload: %w", err)
		}
		return &ev, nil
	case KindProgressSnapshot:
		var snap ProgressSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("decode progress snapshot payload: %w", err)
		}
		return &snap, nil
	default:
		return nil, fmt.Errorf("unknown queue kind %q", kind)
	}
}
