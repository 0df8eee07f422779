package stats

import (
	"context"
	"errors"
	"testing"
	"time"
)

// 2026-10-14 星期三中午，不会命中时段或周末徽章
var weekdayNoon = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func plainSessions(n int) []ClosedSession {
	out := make([]ClosedSession, n)
	for i := range out {
		out[i] = closed(1, weekdayNoon.Add(time.Duration(i)*time.Minute), 10, 5)
	}
	return out
}

func newTestEvaluator(store UnlockStore) *Evaluator {
	e := NewEvaluator(store, time.UTC)
	e.Now = func() time.Time { return testNow }
	return e
}

func keys(ks ...BadgeKey) map[BadgeKey]bool {
	m := make(map[BadgeKey]bool, len(ks))
	for _, k := range ks {
		m[k] = true
	}
	return m
}

func assertUnlocked(t *testing.T, got []BadgeKey, want ...BadgeKey) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("unlocked = %v want %v", got, want)
	}
	set := keys(got...)
	for _, k := range want {
		if !set[k] {
			t.Fatalf("unlocked = %v, missing %s", got, k)
		}
	}
}

func TestEvaluateFiveSessions(t *testing.T) {
	store := NewMemoryStore()
	got, err := newTestEvaluator(store).Evaluate(context.Background(), 1, plainSessions(5), UserCounters{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertUnlocked(t, got, BadgeFirstSession, BadgeFiveSessions)
	if len(store.Notifications) != 2 {
		t.Fatalf("notifications = %d want 2", len(store.Notifications))
	}
}

func TestEvaluateTenSessionsAfterFive(t *testing.T) {
	store := NewMemoryStore()
	e := newTestEvaluator(store)
	ctx := context.Background()

	if _, err := e.Evaluate(ctx, 1, plainSessions(5), UserCounters{}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got, err := e.Evaluate(ctx, 1, plainSessions(10), UserCounters{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertUnlocked(t, got, BadgeTenSessions)

	fresh := NewMemoryStore()
	got, err = newTestEvaluator(fresh).Evaluate(ctx, 1, plainSessions(10), UserCounters{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertUnlocked(t, got, BadgeFirstSession, BadgeFiveSessions, BadgeTenSessions)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	e := newTestEvaluator(store)
	ctx := context.Background()
	sessions := append(plainSessions(12), closed(1, time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC), 4000, 10))
	counters := UserCounters{CurrentStreak: 7, LongestStreak: 7}

	first, err := e.Evaluate(ctx, 1, sessions, counters)
	if err != nil || len(first) == 0 {
		t.Fatalf("first Evaluate = %v, %v", first, err)
	}
	second, err := e.Evaluate(ctx, 1, sessions, counters)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second Evaluate unlocked %v want none", second)
	}
	if len(store.Notifications) != len(first) {
		t.Fatalf("notifications = %d want %d", len(store.Notifications), len(first))
	}
}

func TestEvaluateTimeWindowBadgesOncePerBadge(t *testing.T) {
	first := closed(1, time.Date(2026, 10, 13, 2, 0, 0, 0, time.UTC), 10, 5)
	second := closed(1, time.Date(2026, 10, 14, 3, 0, 0, 0, time.UTC), 10, 5)
	early := closed(1, time.Date(2026, 10, 15, 6, 59, 0, 0, time.UTC), 10, 5)
	edge := closed(1, time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC), 10, 5)

	store := NewMemoryStore()
	got, err := newTestEvaluator(store).Evaluate(context.Background(), 1, []ClosedSession{first, second, early, edge}, UserCounters{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertUnlocked(t, got, BadgeFirstSession, BadgeNightOwl, BadgeEarlyBird)

	for _, u := range store.Unlocks() {
		if u.Badge == BadgeNightOwl && u.Metadata["sessionId"] != first.ID {
			t.Fatalf("night_owl metadata = %v want session %s", u.Metadata, first.ID)
		}
		if u.Badge == BadgeEarlyBird && u.Metadata["sessionId"] != early.ID {
			t.Fatalf("early_bird metadata = %v want session %s", u.Metadata, early.ID)
		}
	}
}

func TestEvaluateThresholds(t *testing.T) {
	saturday := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	var weekend []ClosedSession
	for i := 0; i < 10; i++ {
		weekend = append(weekend, closed(1, saturday.Add(time.Duration(i)*time.Minute), 10, 5))
	}
	var maxed []ClosedSession
	for i := 0; i < 10; i++ {
		maxed = append(maxed, closed(1, weekdayNoon.Add(time.Duration(i)*time.Minute), 10, 10))
	}

	tests := []struct {
		name     string
		sessions []ClosedSession
		counters UserCounters
		want     []BadgeKey
	}{
		{
			name:     "one hour total",
			sessions: []ClosedSession{closed(1, weekdayNoon, 3600, 5)},
			want:     []BadgeKey{BadgeFirstSession, BadgeOneHour},
		},
		{
			name:     "just under one hour",
			sessions: []ClosedSession{closed(1, weekdayNoon, 3599, 5)},
			want:     []BadgeKey{BadgeFirstSession},
		},
		{
			name:     "streak read from counters",
			counters: UserCounters{CurrentStreak: 7, LongestStreak: 9},
			want:     []BadgeKey{BadgeThreeDayStreak, BadgeSevenDayStreak},
		},
		{
			name:     "longest streak alone does not count",
			counters: UserCounters{CurrentStreak: 2, LongestStreak: 40},
			want:     nil,
		},
		{
			name:     "max intensity",
			sessions: maxed,
			want:     []BadgeKey{BadgeFirstSession, BadgeFiveSessions, BadgeTenSessions, BadgeMaxIntensity, BadgeTenMaxSessions},
		},
		{
			name:     "weekend warrior",
			sessions: weekend,
			want:     []BadgeKey{BadgeFirstSession, BadgeFiveSessions, BadgeTenSessions, BadgeWeekendWarrior},
		},
		{
			name:     "nine weekend sessions",
			sessions: weekend[:9],
			want:     []BadgeKey{BadgeFirstSession, BadgeFiveSessions},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestEvaluator(NewMemoryStore()).Evaluate(context.Background(), 1, tt.sessions, tt.counters)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			assertUnlocked(t, got, tt.want...)
		})
	}
}

func TestEvaluateUnlockPrecedesNotification(t *testing.T) {
	store := &recordingStore{MemoryStore: NewMemoryStore()}
	_, err := newTestEvaluator(store).Evaluate(context.Background(), 1, plainSessions(1), UserCounters{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []string{"unlock:first_session", "notify"}
	if len(store.calls) != len(want) {
		t.Fatalf("calls = %v want %v", store.calls, want)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Fatalf("calls = %v want %v", store.calls, want)
		}
	}
	n := store.Notifications[0]
	if n.Type != NotificationTypeAchievement || n.Message != "🎯 First Goon! 🎯: Complete your first session" {
		t.Fatalf("notification = %+v", n)
	}
}

func TestEvaluateLostRaceIsNotReported(t *testing.T) {
	store := &racingStore{MemoryStore: NewMemoryStore(), taken: keys(BadgeFirstSession)}
	got, err := newTestEvaluator(store).Evaluate(context.Background(), 1, plainSessions(5), UserCounters{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertUnlocked(t, got, BadgeFiveSessions)
	if len(store.Notifications) != 1 {
		t.Fatalf("notifications = %d want 1", len(store.Notifications))
	}
}

func TestEvaluateStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := newTestEvaluator(&failingStore{loadErr: boom}).Evaluate(context.Background(), 1, plainSessions(1), UserCounters{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v want boom", err)
	}
	_, err = newTestEvaluator(&failingStore{insertErr: boom}).Evaluate(context.Background(), 1, plainSessions(1), UserCounters{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v want boom", err)
	}
}

func TestBadgeTable(t *testing.T) {
	badges := Badges()
	if len(badges) != 17 {
		t.Fatalf("badges = %d want 17", len(badges))
	}
	seen := make(map[BadgeKey]bool)
	for _, b := range badges {
		if seen[b.Key] {
			t.Fatalf("duplicate badge %s", b.Key)
		}
		seen[b.Key] = true
		if (b.Met == nil) == (b.Window == nil) {
			t.Fatalf("badge %s needs exactly one predicate", b.Key)
		}
		if got, ok := LookupBadge(b.Key); !ok || got.Name != b.Name {
			t.Fatalf("LookupBadge(%s) = %+v, %v", b.Key, got, ok)
		}
	}
	badges[0].Name = "mutated"
	if b, _ := LookupBadge(BadgeFirstSession); b.Name == "mutated" {
		t.Fatal("Badges() exposed the shared table")
	}
	if _, ok := LookupBadge("nope"); ok {
		t.Fatal("LookupBadge(nope) ok")
	}
}

func TestComputeProgressTotalHours(t *testing.T) {
	p := ComputeProgress([]ClosedSession{closed(1, weekdayNoon, 5399, 10)}, UserCounters{CurrentStreak: 2, LongestStreak: 4}, time.UTC)
	if p.TotalHours != 1.4 || p.MaxIntensitySessions != 1 || p.Sessions != 1 || p.LongestStreak != 4 {
		t.Fatalf("progress = %+v", p)
	}
}

type recordingStore struct {
	*MemoryStore
	calls []string
}

func (s *recordingStore) InsertUnlockIfAbsent(ctx context.Context, u Unlock) (bool, error) {
	s.calls = append(s.calls, "unlock:"+string(u.Badge))
	return s.MemoryStore.InsertUnlockIfAbsent(ctx, u)
}

func (s *recordingStore) InsertNotification(ctx context.Context, n Notification) error {
	s.calls = append(s.calls, "notify")
	return s.MemoryStore.InsertNotification(ctx, n)
}

// racingStore 模拟另一个并发调用在读取之后抢先写入
type racingStore struct {
	*MemoryStore
	taken map[BadgeKey]bool
}

func (s *racingStore) InsertUnlockIfAbsent(ctx context.Context, u Unlock) (bool, error) {
	if s.taken[u.Badge] {
		return false, nil
	}
	return s.MemoryStore.InsertUnlockIfAbsent(ctx, u)
}

type failingStore struct {
	loadErr, insertErr error
}

func (s *failingStore) UnlockedBadges(ctx context.Context, ownerID uint) ([]BadgeKey, error) {
	return nil, s.loadErr
}

func (s *failingStore) InsertUnlockIfAbsent(ctx context.Context, u Unlock) (bool, error) {
	return false, s.insertErr
}

func (s *failingStore) InsertNotification(ctx context.Context, n Notification) error {
	return nil
}
