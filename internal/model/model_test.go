package model

import (
	"testing"
	"time"
)

func TestSessionVariants(t *testing.T) {
	start := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	open := Session{UUIDBase: UUIDBase{ID: "s1"}, UserID: 3, StartTime: start, Intensity: 6, Tags: []string{"a"}}

	if _, ok := open.Closed(); ok {
		t.Fatal("open session converted to closed")
	}
	o, ok := open.Open()
	if !ok || o.ID != "s1" || o.OwnerID != 3 {
		t.Fatalf("Open() = %+v, %v", o, ok)
	}

	end := start.Add(90 * time.Second)
	dur := int64(90)
	done := open
	done.EndTime, done.Duration, done.Notes = &end, &dur, "n"
	c, ok := done.Closed()
	if !ok || c.DurationSeconds != 90 || !c.EndTime.Equal(end) || c.Notes != "n" {
		t.Fatalf("Closed() = %+v, %v", c, ok)
	}

	// 只有一半字段的记录视为进行中
	half := open
	half.EndTime = &end
	if got := ClosedSessions([]Session{open, done, half}); len(got) != 1 {
		t.Fatalf("ClosedSessions len = %d want 1", len(got))
	}
}

func TestSettings(t *testing.T) {
	s := DefaultSettings(7)
	if !s.Notifications.AchievementUnlocks || s.Privacy.AnonymousMode {
		t.Fatalf("defaults = %+v", s)
	}
	if !s.SetPrivacy("anonymousMode", true) || !s.Privacy.AnonymousMode {
		t.Fatal("SetPrivacy(anonymousMode) failed")
	}
	if !s.SetNotification("achievementUnlocks", false) || s.Notifications.AchievementUnlocks {
		t.Fatal("SetNotification(achievementUnlocks) failed")
	}
	if s.SetNotification("anonymousMode", true) || s.SetPrivacy("bogus", true) {
		t.Fatal("unknown key accepted")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{Name: "Ada", Username: "ada", Email: "ada@example.com"}, "Ada"},
		{User{Username: "ada", Email: "ada@example.com"}, "ada"},
		{User{Email: "ada@example.com"}, "ada"},
		{User{}, ""},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q want %q", tt.user, got, tt.want)
		}
	}
}
