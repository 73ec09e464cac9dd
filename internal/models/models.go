package models

import (
	"fmt"
	"time"
)

// DifficultyTier represents the difficulty of a completed activity
type DifficultyTier string

const (
	DifficultyLow  DifficultyTier = "low"
	DifficultyMid  DifficultyTier = "mid"
	DifficultyHigh DifficultyTier = "high"
)

// IsValidDifficulty checks if a difficulty tier is valid
func IsValidDifficulty(d DifficultyTier) bool {
	switch d {
	case DifficultyLow, DifficultyMid, DifficultyHigh:
		return true
	}
	return false
}

// Multiplier returns the XP multiplier for a difficulty tier.
// Unknown tiers fall back to 1.0.
func (d DifficultyTier) Multiplier() float64 {
	switch d {
	case DifficultyMid:
		return 1.5
	case DifficultyHigh:
		return 2.0
	default:
		return 1.0
	}
}

// UnitOutcome records the result of a single unit (question) within an activity
type UnitOutcome struct {
	UnitID         string `json:"unit_id"`
	ChosenOption   string `json:"chosen_option"`
	ExpectedOption string `json:"expected_option"`
	Correct        bool   `json:"correct"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
}

// ActivityRecord is an immutable fact describing one completed learning
// interaction. It is created once at completion time and never mutated.
type ActivityRecord struct {
	ActivityID     string         `json:"activity_id"`
	Subject        string         `json:"subject"`
	Topic          string         `json:"topic,omitempty"` // defaults to subject when empty
	RawScore       int            `json:"raw_score"`       // 0-100
	TotalUnits     int            `json:"total_units"`
	CorrectUnits   int            `json:"correct_units"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	Difficulty     DifficultyTier `json:"difficulty"`
	CompletedAt    time.Time      `json:"completed_at"`
	Outcomes       []UnitOutcome  `json:"outcomes,omitempty"`
}

// Validate checks structural invariants on an activity record
func (r *ActivityRecord) Validate() error {
	if r.ActivityID == "" {
		return fmt.Errorf("activity record: empty activity_id")
	}
	if r.Subject == "" {
		return fmt.Errorf("activity record: empty subject")
	}
	if r.RawScore < 0 || r.RawScore > 100 {
		return fmt.Errorf("activity record: raw_score %d out of range 0-100", r.RawScore)
	}
	if r.TotalUnits <= 0 {
		return fmt.Errorf("activity record: total_units must be positive")
	}
	if r.CorrectUnits < 0 || r.CorrectUnits > r.TotalUnits {
		return fmt.Errorf("activity record: correct_units %d out of range 0-%d", r.CorrectUnits, r.TotalUnits)
	}
	if !IsValidDifficulty(r.Difficulty) {
		return fmt.Errorf("activity record: invalid difficulty %q", r.Difficulty)
	}
	return nil
}

// AchievementCategory classifies what kind of milestone an achievement marks
type AchievementCategory string

const (
	CategoryActivityCount  AchievementCategory = "activity-count"
	CategoryStreak         AchievementCategory = "streak"
	CategorySubjectMastery AchievementCategory = "subject-mastery"
	CategoryLevelThreshold AchievementCategory = "level-threshold"
)

// Achievement is a one-time unlockable milestone. Once appended to a
// profile it is never removed or re-ordered; ids are unique per profile.
type Achievement struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	UnlockedAt  time.Time           `json:"unlocked_at"`
	Category    AchievementCategory `json:"category"`
}

// SubjectStats holds per-subject aggregates on a profile
type SubjectStats struct {
	QuizzesCompleted int      `json:"quizzes_completed"`
	AverageScore     float64  `json:"average_score"`
	SubjectXP        int      `json:"subject_xp"`
	WeakTopics       []string `json:"weak_topics,omitempty"`
	StrongTopics     []string `json:"strong_topics,omitempty"`
}

// XPPerLevel is the amount of XP required to advance one level
const XPPerLevel = 500

// LevelForXP computes the level for a total XP amount: floor(xp/500)+1
func LevelForXP(totalXP int) int {
	return totalXP/XPPerLevel + 1
}

// Profile is the durable per-user aggregate. It is owned exclusively by
// the local device and mutated only by the progress engine.
type Profile struct {
	ID           string                   `json:"id"`
	DisplayName  string                   `json:"display_name"`
	TotalXP      int                      `json:"total_xp"`
	Level        int                      `json:"level"`
	StreakDays   int                      `json:"streak_days"`
	LastActive   *time.Time               `json:"last_active,omitempty"`
	Subjects     map[string]*SubjectStats `json:"subjects,omitempty"`
	Achievements []Achievement            `json:"achievements,omitempty"`
}

// NewProfile creates an empty profile at level 1
func NewProfile(id, displayName string) *Profile {
	return &Profile{
		ID:          id,
		DisplayName: displayName,
		Level:       1,
		Subjects:    make(map[string]*SubjectStats),
	}
}

// HasAchievement reports whether the profile already unlocked the given id
func (p *Profile) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// SubjectFor returns the stats bucket for a subject, creating it if needed
func (p *Profile) SubjectFor(subject string) *SubjectStats {
	if p.Subjects == nil {
		p.Subjects = make(map[string]*SubjectStats)
	}
	s, ok := p.Subjects[subject]
	if !ok {
		s = &SubjectStats{}
		p.Subjects[subject] = s
	}
	return s
}

// Clone returns an independent copy of the profile for readers. The
// engine remains the single writer of the original.
func (p *Profile) Clone() *Profile {
	c := *p
	if p.LastActive != nil {
		t := *p.LastActive
		c.LastActive = &t
	}
	c.Subjects = make(map[string]*SubjectStats, len(p.Subjects))
	for subject, s := range p.Subjects {
		sc := *s
		sc.WeakTopics = append([]string(nil), s.WeakTopics...)
		sc.StrongTopics = append([]string(nil), s.StrongTopics...)
		c.Subjects[subject] = &sc
	}
	c.Achievements = append([]Achievement(nil), p.Achievements...)
	return &c
}

// RecordResult summarises the outcome of recording one activity
type RecordResult struct {
	XPGained   int           `json:"xp_gained"`
	NewTotalXP int           `json:"new_total_xp"`
	NewLevel   int           `json:"new_level"`
	Unlocked   []Achievement `json:"unlocked,omitempty"`
	Duplicate  bool          `json:"duplicate,omitempty"`
}

// SyncStatusSnapshot is the full, read-only state of the outbox manager
// handed to observers on every transition.
type SyncStatusSnapshot struct {
	Online         bool       `json:"online"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	PendingCount   int        `json:"pending_count"`
	SyncInProgress bool       `json:"sync_in_progress"`
}

// LeaderboardScope selects the XP window for leaderboard ranking
type LeaderboardScope string

const (
	ScopeAllTime LeaderboardScope = "all-time"
	ScopeWeekly  LeaderboardScope = "weekly"
	ScopeMonthly LeaderboardScope = "monthly"
)

// IsValidScope checks if a leaderboard scope is valid
func IsValidScope(s LeaderboardScope) bool {
	switch s {
	case ScopeAllTime, ScopeWeekly, ScopeMonthly:
		return true
	}
	return false
}

// PeerEntry is reference peer data merged into leaderboards (read-only,
// supplied by an external collaborator).
type PeerEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AllTimeXP   int    `json:"all_time_xp"`
	WeeklyXP    int    `json:"weekly_xp"`
	MonthlyXP   int    `json:"monthly_xp"`
}

// XPForScope returns the peer's XP within the given scope window
func (p PeerEntry) XPForScope(scope LeaderboardScope) int {
	switch scope {
	case ScopeWeekly:
		return p.WeeklyXP
	case ScopeMonthly:
		return p.MonthlyXP
	default:
		return p.AllTimeXP
	}
}

// Config is the per-device configuration persisted under .lx/
type Config struct {
	ServerURL   string `json:"server_url,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AutoSync    *bool  `json:"auto_sync,omitempty"` // nil means enabled
	PeersFile   string `json:"peers_file,omitempty"`
}

// LeaderboardEntry is one ranked row of a composed leaderboard
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	XP          int    `json:"xp"`
	Local       bool   `json:"local,omitempty"`
}
