package progress

import (
	"testing"
	"time"

	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/store"
)

func TestLeaderboardAllTimeLimit(t *testing.T) {
	e, _ := newTestEngine(t)

	e.mu.Lock()
	e.profile.TotalXP = 5000
	e.profile.Level = models.LevelForXP(5000)
	e.mu.Unlock()

	entries, err := e.Leaderboard(models.ScopeAllTime, 3, DefaultPeers)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// chen 6100, local 5000, aria 4200
	wantXP := []int{6100, 5000, 4200}
	for i, want := range wantXP {
		if entries[i].XP != want {
			t.Errorf("entry %d XP: got %d want %d", i, entries[i].XP, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("entry %d rank: got %d want %d", i, entries[i].Rank, i+1)
		}
	}
	if !entries[1].Local {
		t.Error("second entry should be the local profile")
	}
}

func TestLeaderboardDescendingNoGaps(t *testing.T) {
	e, _ := newTestEngine(t)

	entries, err := e.Leaderboard(models.ScopeAllTime, 0, DefaultPeers)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != len(DefaultPeers)+1 {
		t.Fatalf("expected %d entries, got %d", len(DefaultPeers)+1, len(entries))
	}
	for i := range entries {
		if entries[i].Rank != i+1 {
			t.Errorf("rank gap at %d: got %d", i, entries[i].Rank)
		}
		if i > 0 && entries[i].XP > entries[i-1].XP {
			t.Errorf("not descending at %d: %d > %d", i, entries[i].XP, entries[i-1].XP)
		}
	}
}

func TestLeaderboardTiesKeepInputOrder(t *testing.T) {
	e, _ := newTestEngine(t)

	peers := StaticPeers{
		{ID: "peer-1", DisplayName: "One", AllTimeXP: 100},
		{ID: "peer-2", DisplayName: "Two", AllTimeXP: 100},
	}

	// Local profile ties at 100 as well; it is appended after the
	// peers, so it sorts last among the tie.
	e.mu.Lock()
	e.profile.TotalXP = 100
	e.mu.Unlock()

	entries, err := e.Leaderboard(models.ScopeAllTime, 0, peers)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	wantIDs := []string{"peer-1", "peer-2", e.Profile().ID}
	for i, want := range wantIDs {
		if entries[i].ID != want {
			t.Errorf("tie order %d: got %s want %s", i, entries[i].ID, want)
		}
	}
}

func TestLeaderboardScopeWindows(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	e, err := New(st, &fakeForwarder{}, "dev-1", "Hart")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// One activity 3 days ago, one 20 days ago
	recent := activity("win-1", 8, 10, 240, models.DifficultyMid)
	recent.CompletedAt = time.Now().UTC().AddDate(0, 0, -3)
	old := activity("win-2", 8, 10, 240, models.DifficultyMid)
	old.CompletedAt = time.Now().UTC().AddDate(0, 0, -20)

	r1, err := e.RecordActivity(recent)
	if err != nil {
		t.Fatalf("record recent: %v", err)
	}
	r2, err := e.RecordActivity(old)
	if err != nil {
		t.Fatalf("record old: %v", err)
	}

	localXP := func(entries []models.LeaderboardEntry) int {
		for _, en := range entries {
			if en.Local {
				return en.XP
			}
		}
		t.Fatal("no local entry")
		return 0
	}

	weekly, err := e.Leaderboard(models.ScopeWeekly, 0, nil)
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	if got := localXP(weekly); got != r1.XPGained {
		t.Errorf("weekly XP: got %d want %d", got, r1.XPGained)
	}

	monthly, err := e.Leaderboard(models.ScopeMonthly, 0, nil)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if got := localXP(monthly); got != r1.XPGained+r2.XPGained {
		t.Errorf("monthly XP: got %d want %d", got, r1.XPGained+r2.XPGained)
	}

	allTime, err := e.Leaderboard(models.ScopeAllTime, 0, nil)
	if err != nil {
		t.Fatalf("all-time: %v", err)
	}
	if got := localXP(allTime); got != e.Profile().TotalXP {
		t.Errorf("all-time XP: got %d want %d", got, e.Profile().TotalXP)
	}
}

func TestLeaderboardNilPeerProvider(t *testing.T) {
	e, _ := newTestEngine(t)

	entries, err := e.Leaderboard(models.ScopeAllTime, 10, nil)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 1 || !entries[0].Local || entries[0].Rank != 1 {
		t.Errorf("expected lone local entry at rank 1, got %+v", entries)
	}
}
