package progress

import (
	"fmt"
	"time"

	"github.com/hartley/lx/internal/models"
)

// achievementRule inspects post-update state and yields an unlock, or
// nil. Rules run in declaration order on every recorded activity and
// unlock at most once per id.
type achievementRule func(p *models.Profile, rec *models.ActivityRecord, prevLevel int) *models.Achievement

// achievementRules is the fixed evaluation order. Order matters for the
// unlock sequence reported to the caller, so append only.
var achievementRules = []achievementRule{
	firstActivityInSubject,
	perfectScore,
	weekStreak,
	levelFive,
}

// evaluateAchievements runs every rule against the updated profile and
// appends the unlocks. An id already on the profile is never unlocked
// again.
func evaluateAchievements(p *models.Profile, rec *models.ActivityRecord, prevLevel int, now time.Time) []models.Achievement {
	var unlocked []models.Achievement
	for _, rule := range achievementRules {
		a := rule(p, rec, prevLevel)
		if a == nil || p.HasAchievement(a.ID) {
			continue
		}
		a.UnlockedAt = now.UTC()
		p.Achievements = append(p.Achievements, *a)
		unlocked = append(unlocked, *a)
	}
	return unlocked
}

func firstActivityInSubject(p *models.Profile, rec *models.ActivityRecord, _ int) *models.Achievement {
	if p.SubjectFor(rec.Subject).QuizzesCompleted != 1 {
		return nil
	}
	return &models.Achievement{
		ID:          "first-" + rec.Subject,
		Name:        fmt.Sprintf("First Steps: %s", rec.Subject),
		Description: fmt.Sprintf("Completed your first %s activity", rec.Subject),
		Category:    models.CategoryActivityCount,
	}
}

func perfectScore(_ *models.Profile, rec *models.ActivityRecord, _ int) *models.Achievement {
	if rec.CorrectUnits != rec.TotalUnits {
		return nil
	}
	return &models.Achievement{
		ID:          "perfect-score",
		Name:        "Perfectionist",
		Description: "Answered every unit in an activity correctly",
		Category:    models.CategorySubjectMastery,
	}
}

func weekStreak(p *models.Profile, _ *models.ActivityRecord, _ int) *models.Achievement {
	if p.StreakDays != 7 {
		return nil
	}
	return &models.Achievement{
		ID:          "streak-7",
		Name:        "Week Warrior",
		Description: "Practiced seven days in a row",
		Category:    models.CategoryStreak,
	}
}

func levelFive(p *models.Profile, _ *models.ActivityRecord, prevLevel int) *models.Achievement {
	// A single large award can jump past level 5, so trigger on the
	// crossing rather than an exact match.
	if prevLevel >= 5 || p.Level < 5 {
		return nil
	}
	return &models.Achievement{
		ID:          "level-5",
		Name:        "Rising Scholar",
		Description: "Reached level 5",
		Category:    models.CategoryLevelThreshold,
	}
}
