package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/store"
)

type forwarded struct {
	kind    models.QueueKind
	payload any
}

type fakeForwarder struct {
	mu    sync.Mutex
	items []forwarded
}

func (f *fakeForwarder) EnqueueValue(kind models.QueueKind, payload any) (*models.QueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, forwarded{kind: kind, payload: payload})
	return &models.QueueItem{ID: int64(len(f.items))}, nil
}

func (f *fakeForwarder) kinds() []models.QueueKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.QueueKind, len(f.items))
	for i, it := range f.items {
		out[i] = it.kind
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *fakeForwarder) {
	t.Helper()
	st, err := store.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fwd := &fakeForwarder{}
	e, err := New(st, fwd, "dev-1", "Hart")
	if err != nil {
		t.Fatalf("New engine: %v", err)
	}
	return e, fwd
}

func activity(id string, correct, total, elapsed int, diff models.DifficultyTier) *models.ActivityRecord {
	return &models.ActivityRecord{
		ActivityID:     id,
		Subject:        "math",
		RawScore:       correct * 100 / total,
		TotalUnits:     total,
		CorrectUnits:   correct,
		ElapsedSeconds: elapsed,
		Difficulty:     diff,
		CompletedAt:    time.Now().UTC(),
	}
}

func TestComputeXP(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		elapsed int
		diff    models.DifficultyTier
		streak  int
		want    int
	}{
		// base 8*10*1.5=120, speed 20, accuracy round(0.8*30)=24
		{"mid fast", 8, 10, 240, models.DifficultyMid, 0, 164},
		// base 5*10*2.0=100, speed 10, perfect 50, accuracy 30
		{"high perfect medium speed", 5, 5, 400, models.DifficultyHigh, 0, 190},
		// base 40, no speed, accuracy round(0.4*30)=12
		{"low slow", 4, 10, 900, models.DifficultyLow, 0, 52},
		// streak bonus 3*5=15 on top of mid fast
		{"streak bonus", 8, 10, 240, models.DifficultyMid, 3, 179},
		// streak bonus capped at 100
		{"streak cap", 8, 10, 240, models.DifficultyMid, 40, 264},
		// zero correct still gets speed bonus only
		{"all wrong", 0, 10, 100, models.DifficultyHigh, 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := activity("x", tt.correct, tt.total, tt.elapsed, tt.diff)
			if got := computeXP(rec, tt.streak); got != tt.want {
				t.Errorf("computeXP = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecordActivityUpdatesProfile(t *testing.T) {
	e, fwd := newTestEngine(t)

	res, err := e.RecordActivity(activity("act-1", 8, 10, 240, models.DifficultyMid))
	if err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	if res.XPGained != 164 {
		t.Errorf("XPGained: got %d want 164", res.XPGained)
	}
	if res.NewTotalXP != 164 || res.NewLevel != 1 {
		t.Errorf("totals: %+v", res)
	}

	p := e.Profile()
	if p.StreakDays != 1 {
		t.Errorf("streak: got %d want 1", p.StreakDays)
	}
	stats := p.Subjects["math"]
	if stats == nil || stats.QuizzesCompleted != 1 || stats.SubjectXP != 164 {
		t.Errorf("subject stats: %+v", stats)
	}
	if stats.AverageScore != 80 {
		t.Errorf("average: got %.1f want 80", stats.AverageScore)
	}

	// Activity and analytics always forwarded; first-subject unlock
	// also produces a snapshot
	kinds := fwd.kinds()
	if len(kinds) != 3 {
		t.Fatalf("expected 3 forwarded items, got %v", kinds)
	}
	if kinds[0] != models.KindActivity || kinds[1] != models.KindAnalytics || kinds[2] != models.KindProgressSnapshot {
		t.Errorf("forward order: %v", kinds)
	}
}

func TestRecordActivityDuplicate(t *testing.T) {
	e, fwd := newTestEngine(t)

	rec := activity("dup-1", 8, 10, 240, models.DifficultyMid)
	first, err := e.RecordActivity(rec)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	forwardedBefore := len(fwd.kinds())

	second, err := e.RecordActivity(rec)
	if err != nil {
		t.Fatalf("duplicate record: %v", err)
	}

	if !second.Duplicate {
		t.Error("expected Duplicate flag")
	}
	if second.XPGained != 0 {
		t.Errorf("duplicate must not award XP, got %d", second.XPGained)
	}
	if second.NewTotalXP != first.NewTotalXP {
		t.Errorf("total changed on duplicate: %d -> %d", first.NewTotalXP, second.NewTotalXP)
	}
	if got := len(fwd.kinds()); got != forwardedBefore {
		t.Errorf("duplicate must not forward, %d -> %d", forwardedBefore, got)
	}
}

func TestAverageIsFullRecomputation(t *testing.T) {
	e, _ := newTestEngine(t)

	a := activity("avg-1", 6, 10, 400, models.DifficultyLow)
	a.RawScore = 60
	b := activity("avg-2", 10, 10, 400, models.DifficultyLow)
	b.RawScore = 100

	if _, err := e.RecordActivity(a); err != nil {
		t.Fatalf("record a: %v", err)
	}
	if _, err := e.RecordActivity(b); err != nil {
		t.Fatalf("record b: %v", err)
	}

	stats := e.Profile().Subjects["math"]
	if stats.AverageScore != 80 {
		t.Errorf("average: got %.1f want 80", stats.AverageScore)
	}
}

func TestStreakCalendarLogic(t *testing.T) {
	e, _ := newTestEngine(t)

	day := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return day }

	e.RecordActivity(activity("s-1", 5, 10, 400, models.DifficultyLow))
	if got := e.Profile().StreakDays; got != 1 {
		t.Fatalf("first day streak: got %d want 1", got)
	}

	// Same day: unchanged
	e.now = func() time.Time { return day.Add(5 * time.Hour) }
	e.RecordActivity(activity("s-2", 5, 10, 400, models.DifficultyLow))
	if got := e.Profile().StreakDays; got != 1 {
		t.Errorf("same-day streak: got %d want 1", got)
	}

	// Next day: increment
	e.now = func() time.Time { return day.AddDate(0, 0, 1) }
	e.RecordActivity(activity("s-3", 5, 10, 400, models.DifficultyLow))
	if got := e.Profile().StreakDays; got != 2 {
		t.Errorf("next-day streak: got %d want 2", got)
	}

	// Gap: reset to 1
	e.now = func() time.Time { return day.AddDate(0, 0, 5) }
	e.RecordActivity(activity("s-4", 5, 10, 400, models.DifficultyLow))
	if got := e.Profile().StreakDays; got != 1 {
		t.Errorf("post-gap streak: got %d want 1", got)
	}
}

func TestStreakBonusUsesPreUpdateStreak(t *testing.T) {
	e, _ := newTestEngine(t)

	day := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// Build a 2-day streak
	for i := 0; i < 2; i++ {
		d := day.AddDate(0, 0, i)
		e.now = func() time.Time { return d }
		if _, err := e.RecordActivity(activity(d.Format("2006-01-02"), 0, 10, 900, models.DifficultyLow)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	// Day 3: streak is 2 when XP is computed, 3 afterwards
	d := day.AddDate(0, 0, 2)
	e.now = func() time.Time { return d }
	res, err := e.RecordActivity(activity("bonus-day", 0, 10, 900, models.DifficultyLow))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	// 0 correct, slow: only the streak bonus remains, 2*5=10
	if res.XPGained != 10 {
		t.Errorf("XPGained: got %d want 10 (pre-update streak)", res.XPGained)
	}
	if got := e.Profile().StreakDays; got != 3 {
		t.Errorf("streak after: got %d want 3", got)
	}
}

func TestLevelBoundary(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1}, {499, 1}, {500, 2}, {1999, 4}, {2000, 5}, {2500, 6},
	}
	for _, c := range cases {
		if got := models.LevelForXP(c.xp); got != c.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestAchievementFirstSubjectAndPerfect(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.RecordActivity(activity("a-1", 10, 10, 200, models.DifficultyLow))
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if len(res.Unlocked) != 2 {
		t.Fatalf("expected 2 unlocks, got %+v", res.Unlocked)
	}
	if res.Unlocked[0].ID != "first-math" {
		t.Errorf("first unlock: got %s want first-math", res.Unlocked[0].ID)
	}
	if res.Unlocked[1].ID != "perfect-score" {
		t.Errorf("second unlock: got %s want perfect-score", res.Unlocked[1].ID)
	}

	// Idempotent: a second perfect run unlocks nothing new
	res2, _ := e.RecordActivity(activity("a-2", 10, 10, 200, models.DifficultyLow))
	if len(res2.Unlocked) != 0 {
		t.Errorf("repeat unlocks: %+v", res2.Unlocked)
	}

	p := e.Profile()
	if len(p.Achievements) != 2 {
		t.Errorf("profile achievements: %d", len(p.Achievements))
	}
}

func TestAchievementWeekStreak(t *testing.T) {
	e, _ := newTestEngine(t)

	day := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	var sawStreak bool
	for i := 0; i < 8; i++ {
		d := day.AddDate(0, 0, i)
		e.now = func() time.Time { return d }
		res, err := e.RecordActivity(activity(d.Format("2006-01-02"), 3, 10, 900, models.DifficultyLow))
		if err != nil {
			t.Fatalf("record day %d: %v", i, err)
		}
		for _, a := range res.Unlocked {
			if a.ID == "streak-7" {
				if i != 6 {
					t.Errorf("streak-7 unlocked on day %d, want day 7", i+1)
				}
				sawStreak = true
			}
		}
	}
	if !sawStreak {
		t.Error("streak-7 never unlocked")
	}
}

func TestAchievementLevelFiveOnCrossing(t *testing.T) {
	e, _ := newTestEngine(t)

	// Just below the boundary
	e.mu.Lock()
	e.profile.TotalXP = 1999
	e.profile.Level = models.LevelForXP(1999)
	e.mu.Unlock()

	res, err := e.RecordActivity(activity("lvl-1", 8, 10, 240, models.DifficultyMid))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if res.NewLevel != 5 {
		t.Fatalf("level: got %d want 5", res.NewLevel)
	}

	found := false
	for _, a := range res.Unlocked {
		if a.ID == "level-5" {
			found = true
		}
	}
	if !found {
		t.Error("level-5 should unlock on the crossing call")
	}

	// Subsequent records at level >= 5 do not re-unlock
	res2, _ := e.RecordActivity(activity("lvl-2", 8, 10, 240, models.DifficultyMid))
	for _, a := range res2.Unlocked {
		if a.ID == "level-5" {
			t.Error("level-5 unlocked twice")
		}
	}
}

func TestTopicMastery(t *testing.T) {
	e, _ := newTestEngine(t)

	wrongOutcomes := []models.UnitOutcome{
		{UnitID: "u1", Correct: false},
		{UnitID: "u2", Correct: false},
		{UnitID: "u3", Correct: true},
	}
	rec := activity("t-1", 1, 3, 400, models.DifficultyLow)
	rec.Topic = "fractions"
	rec.Outcomes = wrongOutcomes

	if _, err := e.RecordActivity(rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats := e.Profile().Subjects["math"]
	if len(stats.WeakTopics) != 1 || stats.WeakTopics[0] != "fractions" {
		t.Fatalf("weak topics: %v", stats.WeakTopics)
	}

	// A near-perfect follow-up moves the topic to strong
	goodOutcomes := []models.UnitOutcome{
		{UnitID: "u1", Correct: true},
		{UnitID: "u2", Correct: true},
		{UnitID: "u3", Correct: true},
	}
	rec2 := activity("t-2", 3, 3, 400, models.DifficultyLow)
	rec2.Topic = "fractions"
	rec2.Outcomes = goodOutcomes

	if _, err := e.RecordActivity(rec2); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats = e.Profile().Subjects["math"]
	if len(stats.WeakTopics) != 0 {
		t.Errorf("weak topics should be empty: %v", stats.WeakTopics)
	}
	if len(stats.StrongTopics) != 1 || stats.StrongTopics[0] != "fractions" {
		t.Errorf("strong topics: %v", stats.StrongTopics)
	}
}

func TestValidateRejectsBadRecords(t *testing.T) {
	e, _ := newTestEngine(t)

	bad := activity("", 8, 10, 240, models.DifficultyMid)
	if _, err := e.RecordActivity(bad); err == nil {
		t.Error("expected error for empty activity id")
	}

	bad = activity("b-1", 11, 10, 240, models.DifficultyMid)
	if _, err := e.RecordActivity(bad); err == nil {
		t.Error("expected error for correct > total")
	}

	bad = activity("b-2", 8, 10, 240, "extreme")
	if _, err := e.RecordActivity(bad); err == nil {
		t.Error("expected error for unknown difficulty")
	}
}

func TestProfilePersistsAcrossEngines(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	e1, err := New(st, &fakeForwarder{}, "dev-1", "Hart")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e1.RecordActivity(activity("p-1", 8, 10, 240, models.DifficultyMid))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	st.Close()

	st2, err := store.Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	e2, err := New(st2, &fakeForwarder{}, "dev-1", "Hart")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := e2.Profile().TotalXP; got != res.NewTotalXP {
		t.Errorf("persisted XP: got %d want %d", got, res.NewTotalXP)
	}
}
