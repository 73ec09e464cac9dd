package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hartley/lx/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id, subject string, score int) *models.ActivityRecord {
	return &models.ActivityRecord{
		ActivityID:     id,
		Subject:        subject,
		RawScore:       score,
		TotalUnits:     10,
		CorrectUnits:   8,
		ElapsedSeconds: 240,
		Difficulty:     models.DifficultyMid,
		CompletedAt:    time.Now().UTC(),
	}
}

func TestOpenRequiresInit(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir); err == nil {
		t.Fatal("Open on uninitialized dir should fail")
	}

	s, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	s.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("Open after Initialize failed: %v", err)
	}
	s2.Close()
}

func TestSchemaVersionRecorded(t *testing.T) {
	s := newTestStore(t)

	v, err := s.schemaVersion()
	if err != nil {
		t.Fatalf("schemaVersion: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, v)
	}
}

func TestQueueOrderAndCount(t *testing.T) {
	s := newTestStore(t)

	kinds := []models.QueueKind{models.KindActivity, models.KindAnalytics, models.KindActivity}
	var ids []int64
	for i, k := range kinds {
		item, err := s.EnqueueItem(k, json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)))
		if err != nil {
			t.Fatalf("EnqueueItem %d: %v", i, err)
		}
		ids = append(ids, item.ID)
	}

	// Ids are monotonic
	if !(ids[0] < ids[1] && ids[1] < ids[2]) {
		t.Errorf("ids not monotonic: %v", ids)
	}

	items, err := s.PendingItems("")
	if err != nil {
		t.Fatalf("PendingItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(items))
	}
	for i := range items {
		if items[i].ID != ids[i] {
			t.Errorf("item %d out of enqueue order: got id %d want %d", i, items[i].ID, ids[i])
		}
	}

	count, err := s.CountPending()
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestPendingItemsKindFilter(t *testing.T) {
	s := newTestStore(t)

	s.EnqueueItem(models.KindActivity, json.RawMessage(`{}`))
	s.EnqueueItem(models.KindAnalytics, json.RawMessage(`{}`))
	s.EnqueueItem(models.KindProgressSnapshot, json.RawMessage(`{}`))

	items, err := s.PendingItems(models.KindAnalytics)
	if err != nil {
		t.Fatalf("PendingItems: %v", err)
	}
	if len(items) != 1 || items[0].Kind != models.KindAnalytics {
		t.Errorf("kind filter failed: %+v", items)
	}
}

func TestEnqueueRejectsInvalidKind(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.EnqueueItem("bogus", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}

func TestDeleteItemIdempotent(t *testing.T) {
	s := newTestStore(t)

	item, err := s.EnqueueItem(models.KindActivity, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("EnqueueItem: %v", err)
	}

	if err := s.DeleteItem(item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	// Deleting again must be a no-op
	if err := s.DeleteItem(item.ID); err != nil {
		t.Fatalf("repeat DeleteItem should not error: %v", err)
	}

	count, _ := s.CountPending()
	if count != 0 {
		t.Errorf("expected empty queue, got %d", count)
	}
}

func TestActivityCacheDedup(t *testing.T) {
	s := newTestStore(t)

	rec := testRecord("act-1", "math", 80)
	if err := s.CacheActivity(rec, 150); err != nil {
		t.Fatalf("CacheActivity: %v", err)
	}

	seen, err := s.HasActivity("act-1")
	if err != nil {
		t.Fatalf("HasActivity: %v", err)
	}
	if !seen {
		t.Error("expected act-1 to be cached")
	}

	seen, _ = s.HasActivity("act-2")
	if seen {
		t.Error("act-2 should not be cached")
	}

	// Re-caching the same id replaces, never duplicates
	if err := s.CacheActivity(rec, 150); err != nil {
		t.Fatalf("repeat CacheActivity: %v", err)
	}
	count, _ := s.CountActivities()
	if count != 1 {
		t.Errorf("expected 1 cached activity, got %d", count)
	}
}

func TestSubjectScoresHistory(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, score := range []int{60, 80, 100} {
		rec := testRecord(fmt.Sprintf("act-%d", i), "math", score)
		rec.CompletedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.CacheActivity(rec, 100); err != nil {
			t.Fatalf("CacheActivity: %v", err)
		}
	}
	other := testRecord("act-z", "physics", 50)
	if err := s.CacheActivity(other, 100); err != nil {
		t.Fatalf("CacheActivity: %v", err)
	}

	scores, err := s.SubjectScores("math")
	if err != nil {
		t.Fatalf("SubjectScores: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	for i, want := range []int{60, 80, 100} {
		if scores[i] != want {
			t.Errorf("score %d: got %d want %d", i, scores[i], want)
		}
	}
}

func TestXPSinceWindows(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	old := testRecord("old", "math", 70)
	old.CompletedAt = now.Add(-40 * 24 * time.Hour)
	recent := testRecord("recent", "math", 90)
	recent.CompletedAt = now.Add(-2 * 24 * time.Hour)

	if err := s.CacheActivity(old, 100); err != nil {
		t.Fatalf("CacheActivity: %v", err)
	}
	if err := s.CacheActivity(recent, 60); err != nil {
		t.Fatalf("CacheActivity: %v", err)
	}

	weekly, err := s.XPSince(now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("XPSince: %v", err)
	}
	if weekly != 60 {
		t.Errorf("weekly XP: got %d want 60", weekly)
	}

	all, err := s.XPSince(time.Time{})
	if err != nil {
		t.Fatalf("XPSince zero cutoff: %v", err)
	}
	if all != 160 {
		t.Errorf("all-time XP: got %d want 160", all)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)

	p, err := s.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p != nil {
		t.Fatal("expected nil profile before first save")
	}

	saved := models.NewProfile("dev-1", "Hart")
	saved.TotalXP = 1234
	saved.Level = models.LevelForXP(saved.TotalXP)
	saved.SubjectFor("math").QuizzesCompleted = 2

	if err := s.SaveProfile(saved); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	loaded, err := s.LoadProfile()
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected profile after save")
	}
	if loaded.TotalXP != 1234 || loaded.DisplayName != "Hart" {
		t.Errorf("profile mismatch: %+v", loaded)
	}
	if loaded.Subjects["math"].QuizzesCompleted != 2 {
		t.Errorf("subject stats lost: %+v", loaded.Subjects)
	}
}

func TestAnalyticsSinceSubjectFilter(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	events := []*models.AnalyticsEvent{
		{ID: "ev-1", ActivityID: "a1", Subject: "math", CompletedAt: now.Add(-time.Hour)},
		{ID: "ev-2", ActivityID: "a2", Subject: "physics", CompletedAt: now.Add(-30 * time.Minute)},
		{ID: "ev-3", ActivityID: "a3", Subject: "math", CompletedAt: now},
	}
	for _, ev := range events {
		if err := s.PutAnalytics(ev); err != nil {
			t.Fatalf("PutAnalytics: %v", err)
		}
	}

	got, err := s.AnalyticsSince(now.Add(-2*time.Hour), "math")
	if err != nil {
		t.Fatalf("AnalyticsSince: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 math events, got %d", len(got))
	}
	if got[0].ID != "ev-1" || got[1].ID != "ev-3" {
		t.Errorf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestErrUnavailableWrapping(t *testing.T) {
	s := newTestStore(t)
	s.Close()

	_, err := s.CountPending()
	if err == nil {
		t.Fatal("expected error on closed store")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
