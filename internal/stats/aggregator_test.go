package stats

import (
	"testing"
	"time"
)

// 2026-10-18 是星期日
var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func closed(owner uint, start time.Time, dur int64, intensity int) ClosedSession {
	return ClosedSession{
		SessionInfo: SessionInfo{
			ID:        start.Format(time.RFC3339Nano),
			OwnerID:   owner,
			StartTime: start,
			Intensity: intensity,
		},
		EndTime:         start.Add(time.Duration(dur) * time.Second),
		DurationSeconds: dur,
	}
}

func newTestAggregator() *Aggregator {
	a := NewAggregator(DefaultGoals, time.UTC)
	a.Now = func() time.Time { return testNow }
	return a
}

func TestSummarizeEmpty(t *testing.T) {
	got := newTestAggregator().Summarize(1, nil, UserCounters{})

	want := Summary{PeakDay: PeakDayNone}
	if got.Summary != want {
		t.Fatalf("summary = %+v want %+v", got.Summary, want)
	}
	d := got.Distribution
	for _, b := range []BucketShare{d.Under30, d.ThirtyTo60, d.SixtyTo90, d.Over90} {
		if b.Count != 0 || b.Percentage != 0 {
			t.Fatalf("bucket = %+v want zero", b)
		}
	}
	if got.Goals.WeeklyGoal.Progress != 0 || got.Goals.Streak.Progress != 0 || got.Goals.TotalSessions.Progress != 0 {
		t.Fatalf("goals = %+v want zero progress", got.Goals)
	}
	if len(got.WeeklyData) != 7 {
		t.Fatalf("weekly data len = %d want 7", len(got.WeeklyData))
	}
}

func TestSummarizeWindows(t *testing.T) {
	sessions := []ClosedSession{
		closed(1, testNow.Add(-1*time.Hour), 100, 8),
		closed(1, testNow.Add(-25*time.Hour), 40, 6),
		closed(1, testNow.Add(-26*time.Hour), 20, 0),
		closed(1, testNow.Add(-8*24*time.Hour), 50, 5),
		closed(1, testNow.Add(-30*24*time.Hour), 10, 5),
	}
	got := newTestAggregator().Summarize(1, sessions, UserCounters{TotalSessions: 5, CurrentStreak: 2})

	want := Summary{
		ThisWeekMinutes: 160,
		WeekChange:      220,
		AvgDuration:     53,
		PeakDay:         "Sunday",
		PeakDayMinutes:  100,
		Consistency:     29,
		ActiveDays:      2,
	}
	if got.Summary != want {
		t.Fatalf("summary = %+v want %+v", got.Summary, want)
	}

	dist := got.Distribution
	if dist.Under30 != (BucketShare{2, 40}) || dist.ThirtyTo60 != (BucketShare{2, 40}) ||
		dist.SixtyTo90 != (BucketShare{0, 0}) || dist.Over90 != (BucketShare{1, 20}) {
		t.Fatalf("distribution = %+v", dist)
	}

	if got.Goals.WeeklyGoal != (GoalProgress{Target: 500, Current: 160, Progress: 32}) {
		t.Fatalf("weekly goal = %+v", got.Goals.WeeklyGoal)
	}
	if got.Goals.Streak != (GoalProgress{Target: 30, Current: 2, Progress: 7}) {
		t.Fatalf("streak goal = %+v", got.Goals.Streak)
	}
	if got.Goals.TotalSessions != (GoalProgress{Target: 100, Current: 5, Progress: 5}) {
		t.Fatalf("total goal = %+v", got.Goals.TotalSessions)
	}

	sat := got.WeeklyData[time.Saturday]
	if sat.Day != "Sat" || sat.Duration != 60 || sat.Intensity != 5.5 {
		t.Fatalf("saturday bucket = %+v", sat)
	}
}

func TestSummarizePeakDayTieUsesSundayFirstOrder(t *testing.T) {
	sessions := []ClosedSession{
		closed(1, testNow.Add(-1*24*time.Hour), 30, 5), // Saturday
		closed(1, testNow.Add(-6*24*time.Hour), 30, 5), // Monday
	}
	got := newTestAggregator().Summarize(1, sessions, UserCounters{})
	if got.Summary.PeakDay != "Monday" || got.Summary.PeakDayMinutes != 30 {
		t.Fatalf("peak = %s/%d want Monday/30", got.Summary.PeakDay, got.Summary.PeakDayMinutes)
	}
}

func TestSummarizeWeekChange(t *testing.T) {
	tests := []struct {
		name       string
		this, last int64
		want       int64
	}{
		{"no prior week", 100, 0, 0},
		{"drop", 15, 20, -25},
		{"flat", 20, 20, 0},
		{"increase", 3, 2, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sessions []ClosedSession
			if tt.this > 0 {
				sessions = append(sessions, closed(1, testNow.Add(-time.Hour), tt.this, 5))
			}
			if tt.last > 0 {
				sessions = append(sessions, closed(1, testNow.Add(-10*24*time.Hour), tt.last, 5))
			}
			got := newTestAggregator().Summarize(1, sessions, UserCounters{})
			if got.Summary.WeekChange != tt.want {
				t.Fatalf("weekChange = %d want %d", got.Summary.WeekChange, tt.want)
			}
		})
	}
}

func TestGoalsAreClipped(t *testing.T) {
	sessions := []ClosedSession{closed(1, testNow.Add(-time.Hour), 5000, 5)}
	got := newTestAggregator().Summarize(1, sessions, UserCounters{TotalSessions: 250, CurrentStreak: 45})
	for name, g := range map[string]GoalProgress{
		"weekly": got.Goals.WeeklyGoal,
		"streak": got.Goals.Streak,
		"total":  got.Goals.TotalSessions,
	} {
		if g.Progress != 100 {
			t.Errorf("%s progress = %d want 100", name, g.Progress)
		}
	}
}

func TestDistributionPercentagesSumTo100(t *testing.T) {
	durations := []int64{0, 29, 30, 59, 60, 89, 90, 3600, 12, 45, 75}
	for n := 1; n <= len(durations); n++ {
		var sessions []ClosedSession
		for i := 0; i < n; i++ {
			sessions = append(sessions, closed(1, testNow.Add(-time.Duration(i)*time.Hour), durations[i], 5))
		}
		d := Distribute(sessions)
		sum := d.Under30.Percentage + d.ThirtyTo60.Percentage + d.SixtyTo90.Percentage + d.Over90.Percentage
		if sum < 99 || sum > 101 {
			t.Fatalf("n=%d percentages sum = %d want 100±1", n, sum)
		}
		count := d.Under30.Count + d.ThirtyTo60.Count + d.SixtyTo90.Count + d.Over90.Count
		if count != n {
			t.Fatalf("n=%d bucket counts = %d", n, count)
		}
	}
}

func TestDistributionBoundaries(t *testing.T) {
	sessions := []ClosedSession{
		closed(1, testNow, 29, 5),
		closed(1, testNow, 30, 5),
		closed(1, testNow, 60, 5),
		closed(1, testNow, 90, 5),
	}
	d := Distribute(sessions)
	if d.Under30.Count != 1 || d.ThirtyTo60.Count != 1 || d.SixtyTo90.Count != 1 || d.Over90.Count != 1 {
		t.Fatalf("distribution = %+v want one per bucket", d)
	}
}
