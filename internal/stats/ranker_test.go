package stats

import (
	"errors"
	"testing"
	"time"
)

func newTestRanker() *Ranker {
	r := NewRanker(time.UTC)
	r.Now = func() time.Time { return testNow }
	return r
}

func account(owner uint, totals ...int64) AccountSessions {
	acc := AccountSessions{OwnerID: owner}
	for i, d := range totals {
		acc.Sessions = append(acc.Sessions, closed(owner, testNow.Add(-time.Duration(i+1)*time.Hour), d, 5))
	}
	return acc
}

func TestParsePeriod(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly"} {
		if p, err := ParsePeriod(s); err != nil || string(p) != s {
			t.Fatalf("ParsePeriod(%q) = %q, %v", s, p, err)
		}
	}
	for _, s := range []string{"", "yearly", "Weekly", "all_time"} {
		if _, err := ParsePeriod(s); !errors.Is(err, ErrInvalidPeriod) {
			t.Fatalf("ParsePeriod(%q) err = %v want ErrInvalidPeriod", s, err)
		}
	}
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodDaily, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)},
		{PeriodWeekly, testNow.Add(-7 * 24 * time.Hour)},
		{PeriodMonthly, testNow.Add(-30 * 24 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			got := tt.period.WindowStart(testNow, time.UTC)
			if !got.Equal(tt.want) {
				t.Fatalf("WindowStart = %v want %v", got, tt.want)
			}
		})
	}
}

func TestRankExample(t *testing.T) {
	accounts := []AccountSessions{
		account(3, 251*60),
		account(1, 287*60),
		account(2, 264*60),
	}
	got := newTestRanker().Rank(PeriodWeekly, accounts)

	want := []struct {
		owner      uint
		rank       int
		percentile int64
	}{
		{1, 1, 33},
		{2, 2, 67},
		{3, 3, 100},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].OwnerID != w.owner || got[i].Rank != w.rank || got[i].Percentile != w.percentile {
			t.Errorf("entry %d = %+v want owner %d rank %d percentile %d", i, got[i], w.owner, w.rank, w.percentile)
		}
	}
}

func TestRankExcludesInactiveAccounts(t *testing.T) {
	stale := AccountSessions{OwnerID: 9, Sessions: []ClosedSession{
		closed(9, testNow.Add(-40*24*time.Hour), 1000, 5),
	}}
	accounts := []AccountSessions{account(1, 100), stale, {OwnerID: 7}}

	for _, p := range []Period{PeriodDaily, PeriodWeekly, PeriodMonthly} {
		got := newTestRanker().Rank(p, accounts)
		for _, e := range got {
			if e.OwnerID == 9 || e.OwnerID == 7 {
				t.Fatalf("%s: inactive account %d ranked", p, e.OwnerID)
			}
		}
		if len(got) != 1 {
			t.Fatalf("%s: len = %d want 1", p, len(got))
		}
	}
}

func TestRankTiesKeepEnumerationOrder(t *testing.T) {
	accounts := []AccountSessions{account(5, 100), account(2, 100), account(8, 300)}
	got := newTestRanker().Rank(PeriodWeekly, accounts)

	wantOwners := []uint{8, 5, 2}
	for i, owner := range wantOwners {
		if got[i].OwnerID != owner || got[i].Rank != i+1 {
			t.Fatalf("entry %d = %+v want owner %d rank %d", i, got[i], owner, i+1)
		}
	}
}

func TestRankWindowBounds(t *testing.T) {
	acc := AccountSessions{OwnerID: 1, Sessions: []ClosedSession{
		// 窗口起点包含，当前时刻不包含
		closed(1, testNow.Add(-7*24*time.Hour), 10, 5),
		closed(1, testNow, 20, 5),
		closed(1, testNow.Add(-7*24*time.Hour-time.Second), 40, 5),
	}}
	got := newTestRanker().Rank(PeriodWeekly, []AccountSessions{acc})
	if len(got) != 1 || got[0].TotalDuration != 10 || got[0].SessionCount != 1 {
		t.Fatalf("got %+v want total 10 from 1 session", got)
	}

	daily := AccountSessions{OwnerID: 1, Sessions: []ClosedSession{
		closed(1, time.Date(2026, 10, 18, 0, 30, 0, 0, time.UTC), 10, 5),
		closed(1, time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC), 20, 5),
	}}
	got = newTestRanker().Rank(PeriodDaily, []AccountSessions{daily})
	if len(got) != 1 || got[0].TotalDuration != 10 {
		t.Fatalf("daily got %+v want total 10", got)
	}
}

func TestRankAverageIntensityDefaultsMissingToFive(t *testing.T) {
	acc := AccountSessions{OwnerID: 1, Sessions: []ClosedSession{
		closed(1, testNow.Add(-time.Hour), 10, 10),
		closed(1, testNow.Add(-2*time.Hour), 10, 0),
	}}
	got := newTestRanker().Rank(PeriodWeekly, []AccountSessions{acc})
	if got[0].AverageIntensity != 7.5 {
		t.Fatalf("average intensity = %v want 7.5", got[0].AverageIntensity)
	}
}

func TestRankOf(t *testing.T) {
	accounts := []AccountSessions{account(1, 300), account(2, 200), account(3, 60, 40), {OwnerID: 4}}

	tests := []struct {
		name  string
		owner uint
		want  RankResult
	}{
		{"leader", 1, RankResult{Rank: 1, TotalDuration: 300, SessionCount: 1, AverageIntensity: 5, GapToNextRank: 0, TotalCompetitors: 3}},
		{"last active", 3, RankResult{Rank: 3, TotalDuration: 100, SessionCount: 2, AverageIntensity: 5, GapToNextRank: 100, TotalCompetitors: 3}},
		{"no sessions", 4, RankResult{Rank: 4, TotalDuration: 0, GapToNextRank: 100, TotalCompetitors: 3}},
		{"unknown account", 99, RankResult{Rank: 4, TotalDuration: 0, GapToNextRank: 100, TotalCompetitors: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestRanker().RankOf(tt.owner, PeriodWeekly, accounts)
			if got != tt.want {
				t.Fatalf("RankOf(%d) = %+v want %+v", tt.owner, got, tt.want)
			}
		})
	}
}

func TestRankOfTiesShareRank(t *testing.T) {
	accounts := []AccountSessions{account(1, 100), account(2, 100)}
	for _, owner := range []uint{1, 2} {
		got := newTestRanker().RankOf(owner, PeriodWeekly, accounts)
		if got.Rank != 1 || got.GapToNextRank != 0 {
			t.Fatalf("RankOf(%d) = %+v want rank 1 gap 0", owner, got)
		}
	}
}

func TestRankMonotonicWhenAddingDuration(t *testing.T) {
	base := []AccountSessions{account(1, 500), account(2, 300), account(3, 200), account(4, 100)}
	r := newTestRanker()

	before := r.RankOf(4, PeriodWeekly, base)
	for _, extra := range []int64{1, 100, 150, 250, 1000} {
		grown := make([]AccountSessions, len(base))
		copy(grown, base)
		grown[3] = account(4, 100, extra)

		after := r.RankOf(4, PeriodWeekly, grown)
		if after.Rank > before.Rank {
			t.Fatalf("extra %d: rank worsened %d -> %d", extra, before.Rank, after.Rank)
		}

		var listed int
		for _, e := range r.Rank(PeriodWeekly, grown) {
			if e.OwnerID == 4 {
				listed = e.Rank
			}
		}
		if listed > 4 {
			t.Fatalf("extra %d: leaderboard rank %d", extra, listed)
		}
		before = after
	}
}
