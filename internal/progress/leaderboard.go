package progress

import (
	"sort"
	"time"

	"github.com/hartley/lx/internal/models"
)

// PeerProvider supplies reference peer data for leaderboard
// composition. Peer entries are read-only external data; only the
// local profile is ever mutated.
type PeerProvider interface {
	Peers() ([]models.PeerEntry, error)
}

// StaticPeers is a fixed in-memory PeerProvider.
type StaticPeers []models.PeerEntry

func (s StaticPeers) Peers() ([]models.PeerEntry, error) {
	return []models.PeerEntry(s), nil
}

// DefaultPeers is the bundled reference cohort used when no peers file
// has been configured.
var DefaultPeers = StaticPeers{
	{ID: "peer-aria", DisplayName: "Aria", AllTimeXP: 4200, WeeklyXP: 310, MonthlyXP: 980},
	{ID: "peer-bo", DisplayName: "Bo", AllTimeXP: 2750, WeeklyXP: 120, MonthlyXP: 540},
	{ID: "peer-chen", DisplayName: "Chen", AllTimeXP: 6100, WeeklyXP: 450, MonthlyXP: 1320},
	{ID: "peer-dara", DisplayName: "Dara", AllTimeXP: 1500, WeeklyXP: 90, MonthlyXP: 260},
	{ID: "peer-emre", DisplayName: "Emre", AllTimeXP: 3900, WeeklyXP: 280, MonthlyXP: 700},
}

// scopeCutoff returns the inclusive lower bound of a scope window, or
// zero for the full history.
func scopeCutoff(scope models.LeaderboardScope, now time.Time) time.Time {
	switch scope {
	case models.ScopeWeekly:
		return now.AddDate(0, 0, -7)
	case models.ScopeMonthly:
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}

// Leaderboard merges the local profile with the peer cohort, ranks by
// XP within the scope window and returns at most limit rows. Sorting is
// stable, so ties keep their input order; ranks are dense and 1-based.
func (e *Engine) Leaderboard(scope models.LeaderboardScope, limit int, peers PeerProvider) ([]models.LeaderboardEntry, error) {
	e.mu.Lock()
	p := e.profile.Clone()
	now := e.now()
	e.mu.Unlock()

	localXP := p.TotalXP
	if cutoff := scopeCutoff(scope, now); !cutoff.IsZero() {
		var err error
		localXP, err = e.store.XPSince(cutoff)
		if err != nil {
			return nil, err
		}
	}

	var cohort []models.PeerEntry
	if peers != nil {
		var err error
		cohort, err = peers.Peers()
		if err != nil {
			return nil, err
		}
	}

	entries := make([]models.LeaderboardEntry, 0, len(cohort)+1)
	for _, peer := range cohort {
		entries = append(entries, models.LeaderboardEntry{
			ID:          peer.ID,
			DisplayName: peer.DisplayName,
			XP:          peer.XPForScope(scope),
		})
	}
	entries = append(entries, models.LeaderboardEntry{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		XP:          localXP,
		Local:       true,
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].XP > entries[j].XP
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
