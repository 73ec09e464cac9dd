// Package progress owns the gamification state machine: XP, levels,
// streaks, per-subject mastery and achievements. All mutations run
// through RecordActivity so derived state can never drift from the
// activity history.
package progress

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/store"
)

// Speed bonus thresholds, in elapsed seconds per activity.
const (
	fastThreshold   = 300
	mediumThreshold = 600
)

const (
	baseXPPerUnit   = 10
	perfectBonus    = 50
	streakBonusStep = 5
	streakBonusCap  = 100
	accuracyBonusAt = 30 // full-accuracy bonus, scaled linearly

	weakTopicThreshold   = 0.5 // wrong fraction above this marks a topic weak
	strongTopicThreshold = 0.2 // wrong fraction below this marks a topic strong
)

// Forwarder hands freshly recorded state to the outbox for eventual
// remote delivery. Enqueue failures are recoverable: local state is
// already durable when forwarding happens.
type Forwarder interface {
	EnqueueValue(kind models.QueueKind, payload any) (*models.QueueItem, error)
}

// Engine is the single writer of the local profile. Reads hand out
// clones so callers can never mutate engine-owned state.
type Engine struct {
	store   *store.Store
	forward Forwarder

	mu      sync.Mutex
	profile *models.Profile

	now func() time.Time
}

// New loads the persisted profile, creating a fresh one on first run.
func New(st *store.Store, forward Forwarder, profileID, displayName string) (*Engine, error) {
	p, err := st.LoadProfile()
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		p = models.NewProfile(profileID, displayName)
		if err := st.SaveProfile(p); err != nil {
			return nil, fmt.Errorf("save initial profile: %w", err)
		}
	}
	return &Engine{
		store:   st,
		forward: forward,
		profile: p,
		now:     time.Now,
	}, nil
}

// Profile returns a copy of the current profile.
func (e *Engine) Profile() *models.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// RecordActivity applies one completed activity to the profile: XP and
// level, streak, subject aggregates, topic mastery and achievements,
// then persists the profile and forwards the results to the outbox.
// Re-submitting an activity id that was already consumed is a no-op
// reported via RecordResult.Duplicate.
func (e *Engine) RecordActivity(rec *models.ActivityRecord) (*models.RecordResult, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	seen, err := e.store.HasActivity(rec.ActivityID)
	if err != nil {
		return nil, err
	}
	if seen {
		slog.Debug("progress: duplicate activity ignored", "activity_id", rec.ActivityID)
		return &models.RecordResult{
			NewTotalXP: e.profile.TotalXP,
			NewLevel:   e.profile.Level,
			Duplicate:  true,
		}, nil
	}

	p := e.profile
	now := e.now()

	// Streak bonus uses the streak as it stood before this activity.
	xpGained := computeXP(rec, p.StreakDays)

	prevLevel := p.Level
	p.TotalXP += xpGained
	p.Level = models.LevelForXP(p.TotalXP)

	updateStreak(p, now)

	// The cache write must land before the average recompute so the
	// history it reads includes this activity.
	if err := e.store.CacheActivity(rec, xpGained); err != nil {
		return nil, err
	}

	stats := p.SubjectFor(rec.Subject)
	stats.QuizzesCompleted++
	stats.SubjectXP += xpGained
	scores, err := e.store.SubjectScores(rec.Subject)
	if err != nil {
		return nil, err
	}
	stats.AverageScore = meanScore(scores)

	updateTopicMastery(stats, rec)

	unlocked := evaluateAchievements(p, rec, prevLevel, now)

	if err := e.store.SaveProfile(p); err != nil {
		return nil, err
	}

	e.forwardResults(rec, xpGained, unlocked, prevLevel, now)

	return &models.RecordResult{
		XPGained:   xpGained,
		NewTotalXP: p.TotalXP,
		NewLevel:   p.Level,
		Unlocked:   unlocked,
	}, nil
}

// forwardResults queues the activity, its derived analytics event and,
// when a milestone moved, a progress snapshot. Failures here never fail
// the record: the activity is already durable locally.
func (e *Engine) forwardResults(rec *models.ActivityRecord, xpGained int, unlocked []models.Achievement, prevLevel int, now time.Time) {
	if e.forward == nil {
		return
	}
	p := e.profile

	if _, err := e.forward.EnqueueValue(models.KindActivity, rec); err != nil {
		slog.Warn("progress: enqueue activity", "activity_id", rec.ActivityID, "err", err)
	}

	ev := &models.AnalyticsEvent{
		ID:          uuid.New().String(),
		ActivityID:  rec.ActivityID,
		Subject:     rec.Subject,
		RawScore:    rec.RawScore,
		Accuracy:    float64(rec.CorrectUnits) / float64(rec.TotalUnits),
		XPGained:    xpGained,
		Level:       p.Level,
		StreakDays:  p.StreakDays,
		DurationSec: rec.ElapsedSeconds,
		CompletedAt: rec.CompletedAt,
	}
	if err := e.store.PutAnalytics(ev); err != nil {
		slog.Warn("progress: cache analytics", "activity_id", rec.ActivityID, "err", err)
	}
	if _, err := e.forward.EnqueueValue(models.KindAnalytics, ev); err != nil {
		slog.Warn("progress: enqueue analytics", "activity_id", rec.ActivityID, "err", err)
	}

	if p.Level == prevLevel && len(unlocked) == 0 {
		return
	}
	ids := make([]string, 0, len(p.Achievements))
	for _, a := range p.Achievements {
		ids = append(ids, a.ID)
	}
	snap := &models.ProgressSnapshot{
		ProfileID:      p.ID,
		DisplayName:    p.DisplayName,
		TotalXP:        p.TotalXP,
		Level:          p.Level,
		StreakDays:     p.StreakDays,
		AchievementIDs: ids,
		CapturedAt:     now.UTC(),
	}
	if _, err := e.forward.EnqueueValue(models.KindProgressSnapshot, snap); err != nil {
		slog.Warn("progress: enqueue snapshot", "err", err)
	}
}

// computeXP derives the XP award for one activity. streakDays is the
// streak before this activity was applied.
func computeXP(rec *models.ActivityRecord, streakDays int) int {
	base := float64(rec.CorrectUnits*baseXPPerUnit) * rec.Difficulty.Multiplier()

	speed := 0
	switch {
	case rec.ElapsedSeconds < fastThreshold:
		speed = 20
	case rec.ElapsedSeconds < mediumThreshold:
		speed = 10
	}

	perfect := 0
	if rec.CorrectUnits == rec.TotalUnits {
		perfect = perfectBonus
	}

	streak := streakDays * streakBonusStep
	if streak > streakBonusCap {
		streak = streakBonusCap
	}

	accuracy := int(math.Round(float64(rec.CorrectUnits) / float64(rec.TotalUnits) * accuracyBonusAt))

	return int(math.Round(base)) + speed + perfect + streak + accuracy
}

// updateStreak advances the calendar-day streak: consecutive-day
// activity extends it, a gap resets it to 1, and repeat activity on the
// same day leaves it untouched.
func updateStreak(p *models.Profile, now time.Time) {
	today := dayOf(now)
	if p.LastActive != nil {
		last := dayOf(*p.LastActive)
		switch {
		case last.Equal(today):
			// Already counted today.
		case last.Equal(today.AddDate(0, 0, -1)):
			p.StreakDays++
		default:
			p.StreakDays = 1
		}
	} else {
		p.StreakDays = 1
	}
	t := now.UTC()
	p.LastActive = &t
}

// dayOf truncates a time to its UTC calendar day.
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func meanScore(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// updateTopicMastery reclassifies the topic covered by this activity
// from the per-unit outcomes. More than half the units wrong marks the
// topic weak, fewer than a fifth marks it strong, anything between
// leaves both sets. When the record carries no outcomes the unit counts
// stand in for them.
func updateTopicMastery(stats *models.SubjectStats, rec *models.ActivityRecord) {
	topic := rec.Topic
	if topic == "" {
		topic = rec.Subject
	}

	total := len(rec.Outcomes)
	wrong := 0
	for _, o := range rec.Outcomes {
		if !o.Correct {
			wrong++
		}
	}
	if total == 0 {
		total = rec.TotalUnits
		wrong = rec.TotalUnits - rec.CorrectUnits
	}

	frac := float64(wrong) / float64(total)
	switch {
	case frac > weakTopicThreshold:
		stats.WeakTopics = addTopic(stats.WeakTopics, topic)
		stats.StrongTopics = removeTopic(stats.StrongTopics, topic)
	case frac < strongTopicThreshold:
		stats.StrongTopics = addTopic(stats.StrongTopics, topic)
		stats.WeakTopics = removeTopic(stats.WeakTopics, topic)
	}
}

func addTopic(topics []string, topic string) []string {
	for _, t := range topics {
		if t == topic {
			return topics
		}
	}
	return append(topics, topic)
}

func removeTopic(topics []string, topic string) []string {
	for i, t := range topics {
		if t == topic {
			return append(topics[:i], topics[i+1:]...)
		}
	}
	return topics
}
