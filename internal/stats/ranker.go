package stats

import (
	"errors"
	"sort"
	"time"
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

var ErrInvalidPeriod = errors.New("invalid period: want daily, weekly or monthly")

// ParsePeriod 在接口边界校验周期参数
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// WindowStart daily 为当天本地零点，weekly/monthly 为固定宽度的滚动窗口
func (p Period) WindowStart(now time.Time, loc *time.Location) time.Time {
	switch p {
	case PeriodDaily:
		local := now.In(locOrLocal(loc))
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour)
	default:
		return now.Add(-30 * 24 * time.Hour)
	}
}

// AccountSessions 某个账号的已结束会话；切片顺序即账号枚举顺序
type AccountSessions struct {
	OwnerID  uint
	Sessions []ClosedSession
}

type LeaderboardEntry struct {
	OwnerID          uint    `json:"ownerId"`
	TotalDuration    int64   `json:"totalDuration"`
	SessionCount     int     `json:"sessionCount"`
	AverageIntensity float64 `json:"averageIntensity"`
	Rank             int     `json:"rank"`
	Percentile       int64   `json:"percentile"`
}

type RankResult struct {
	Rank             int     `json:"rank"`
	TotalDuration    int64   `json:"totalDuration"`
	SessionCount     int     `json:"sessionCount"`
	AverageIntensity float64 `json:"averageIntensity"`
	GapToNextRank    int64   `json:"gapToNextRank"`
	TotalCompetitors int     `json:"totalCompetitors"`
}

type Ranker struct {
	Location *time.Location
	Now      func() time.Time
}

func NewRanker(loc *time.Location) *Ranker {
	return &Ranker{Location: loc, Now: time.Now}
}

type windowTotals struct {
	total     int64
	count     int
	intensity float64
}

func (r *Ranker) window(p Period) (time.Time, time.Time) {
	now := nowOr(r.Now)
	return p.WindowStart(now, r.Location), now
}

func totalsIn(sessions []ClosedSession, start, end time.Time) windowTotals {
	var w windowTotals
	sum := 0
	for _, s := range sessions {
		if s.StartTime.Before(start) || !s.StartTime.Before(end) {
			continue
		}
		w.total += s.DurationSeconds
		w.count++
		sum += s.effectiveIntensity()
	}
	if w.count > 0 {
		w.intensity = float64(sum) / float64(w.count)
	}
	return w
}

// Rank 计算排行榜。没有有效会话的账号不参与排名；
// 总时长相同的账号保持枚举顺序并获得不同的连续名次。
func (r *Ranker) Rank(p Period, accounts []AccountSessions) []LeaderboardEntry {
	start, end := r.window(p)

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, acc := range accounts {
		w := totalsIn(acc.Sessions, start, end)
		if w.count == 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			OwnerID:          acc.OwnerID,
			TotalDuration:    w.total,
			SessionCount:     w.count,
			AverageIntensity: w.intensity,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalDuration > entries[j].TotalDuration
	})

	n := float64(len(entries))
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].Percentile = roundHalfUp(float64(i+1) / n * 100)
	}
	return entries
}

// RankOf 计算指定账号在周期内的名次，即使该账号没有任何会话
func (r *Ranker) RankOf(ownerID uint, p Period, accounts []AccountSessions) RankResult {
	start, end := r.window(p)

	var own windowTotals
	others := make([]int64, 0, len(accounts))
	competitors := 0
	for _, acc := range accounts {
		w := totalsIn(acc.Sessions, start, end)
		if w.total > 0 {
			competitors++
		}
		if acc.OwnerID == ownerID {
			own = w
			continue
		}
		others = append(others, w.total)
	}

	ahead := 0
	var gap int64
	for _, t := range others {
		if t <= own.total {
			continue
		}
		ahead++
		if d := t - own.total; gap == 0 || d < gap {
			gap = d
		}
	}

	return RankResult{
		Rank:             ahead + 1,
		TotalDuration:    own.total,
		SessionCount:     own.count,
		AverageIntensity: own.intensity,
		GapToNextRank:    gap,
		TotalCompetitors: competitors,
	}
}
