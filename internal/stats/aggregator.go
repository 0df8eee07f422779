package stats

import (
	"math"
	"time"
)

const (
	week = 7 * 24 * time.Hour

	PeakDayNone = "N/A"
)

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Goals 三个固定目标
type Goals struct {
	WeeklySeconds int64 `mapstructure:"weekly_seconds" json:"weeklySeconds"`
	StreakDays    int   `mapstructure:"streak_days" json:"streakDays"`
	TotalSessions int   `mapstructure:"total_sessions" json:"totalSessions"`
}

var DefaultGoals = Goals{WeeklySeconds: 500, StreakDays: 30, TotalSessions: 100}

// Summary 最近 7 天概览。时长字段与 DurationSeconds 单位相同（秒），
// 字段名沿用客户端约定。
type Summary struct {
	ThisWeekMinutes int64  `json:"thisWeekMinutes"`
	WeekChange      int64  `json:"weekChange"`
	AvgDuration     int64  `json:"avgDuration"`
	PeakDay         string `json:"peakDay"`
	PeakDayMinutes  int64  `json:"peakDayMinutes"`
	Consistency     int64  `json:"consistency"`
	ActiveDays      int    `json:"activeDays"`
}

type DayBucket struct {
	Day       string  `json:"day"`
	Duration  int64   `json:"duration"`
	Intensity float64 `json:"intensity"`
}

type BucketShare struct {
	Count      int   `json:"count"`
	Percentage int64 `json:"percentage"`
}

type Distribution struct {
	Under30    BucketShare `json:"under30"`
	ThirtyTo60 BucketShare `json:"thirtyTo60"`
	SixtyTo90  BucketShare `json:"sixtyTo90"`
	Over90     BucketShare `json:"over90"`
}

type GoalProgress struct {
	Target   int64 `json:"target"`
	Current  int64 `json:"current"`
	Progress int64 `json:"progress"`
}

type GoalSet struct {
	WeeklyGoal    GoalProgress `json:"weeklyGoal"`
	Streak        GoalProgress `json:"streak"`
	TotalSessions GoalProgress `json:"totalSessions"`
}

type Analytics struct {
	OwnerID      uint         `json:"ownerId"`
	Summary      Summary      `json:"summary"`
	WeeklyData   []DayBucket  `json:"weeklyData"`
	Distribution Distribution `json:"distribution"`
	Goals        GoalSet      `json:"goals"`
}

// Aggregator 汇总单个用户的会话统计，纯函数，无 I/O
type Aggregator struct {
	Goals    Goals
	Location *time.Location
	Now      func() time.Time
}

func NewAggregator(goals Goals, loc *time.Location) *Aggregator {
	return &Aggregator{Goals: goals, Location: loc, Now: time.Now}
}

// Summarize sessions 为该用户全部已结束会话，counters 提供连续天数与总次数
func (a *Aggregator) Summarize(ownerID uint, sessions []ClosedSession, counters UserCounters) Analytics {
	now := nowOr(a.Now)
	loc := locOrLocal(a.Location)
	recentStart := now.Add(-week)
	priorStart := now.Add(-2 * week)

	var (
		thisWeek, lastWeek int64
		recent             []ClosedSession
	)
	for _, s := range sessions {
		switch {
		case !s.StartTime.Before(recentStart):
			recent = append(recent, s)
			thisWeek += s.DurationSeconds
		case !s.StartTime.Before(priorStart):
			lastWeek += s.DurationSeconds
		}
	}

	var weekChange int64
	if lastWeek > 0 {
		weekChange = roundHalfUp(float64(thisWeek-lastWeek) / float64(lastWeek) * 100)
	}

	var avg int64
	if len(recent) > 0 {
		avg = roundHalfUp(float64(thisWeek) / float64(len(recent)))
	}

	var (
		dayTotals    [7]int64
		dayIntensity [7]int
		dayCount     [7]int
		activeDays   = make(map[string]struct{})
	)
	for _, s := range recent {
		local := s.StartTime.In(loc)
		wd := local.Weekday()
		dayTotals[wd] += s.DurationSeconds
		dayIntensity[wd] += s.effectiveIntensity()
		dayCount[wd]++
		activeDays[dayKey(local)] = struct{}{}
	}

	peakDay, peakTotal := PeakDayNone, int64(0)
	found := false
	for wd := 0; wd < 7; wd++ {
		if dayCount[wd] == 0 {
			continue
		}
		if !found || dayTotals[wd] > peakTotal {
			peakDay, peakTotal = weekdayNames[wd], dayTotals[wd]
			found = true
		}
	}

	weekly := make([]DayBucket, 7)
	for wd := 0; wd < 7; wd++ {
		var intensity float64
		if dayCount[wd] > 0 {
			intensity = math.Round(float64(dayIntensity[wd])/float64(dayCount[wd])*10) / 10
		}
		weekly[wd] = DayBucket{
			Day:       weekdayNames[wd][:3],
			Duration:  dayTotals[wd],
			Intensity: intensity,
		}
	}

	return Analytics{
		OwnerID: ownerID,
		Summary: Summary{
			ThisWeekMinutes: thisWeek,
			WeekChange:      weekChange,
			AvgDuration:     avg,
			PeakDay:         peakDay,
			PeakDayMinutes:  peakTotal,
			Consistency:     percentOf(float64(len(activeDays)), 7),
			ActiveDays:      len(activeDays),
		},
		WeeklyData:   weekly,
		Distribution: Distribute(sessions),
		Goals:        a.goalSet(thisWeek, counters),
	}
}

// Distribute 全部会话的时长分布
func Distribute(sessions []ClosedSession) Distribution {
	var under30, to60, to90, over90 int
	for _, s := range sessions {
		d := s.DurationSeconds
		switch {
		case d < 30:
			under30++
		case d < 60:
			to60++
		case d < 90:
			to90++
		default:
			over90++
		}
	}
	total := float64(len(sessions))
	share := func(n int) BucketShare {
		return BucketShare{Count: n, Percentage: percentOf(float64(n), total)}
	}
	return Distribution{
		Under30:    share(under30),
		ThirtyTo60: share(to60),
		SixtyTo90:  share(to90),
		Over90:     share(over90),
	}
}

func (a *Aggregator) goalSet(thisWeek int64, c UserCounters) GoalSet {
	goals := a.Goals
	if goals == (Goals{}) {
		goals = DefaultGoals
	}
	progress := func(target, current int64) GoalProgress {
		return GoalProgress{
			Target:   target,
			Current:  current,
			Progress: clipPercent(percentOf(float64(current), float64(target))),
		}
	}
	return GoalSet{
		WeeklyGoal:    progress(goals.WeeklySeconds, thisWeek),
		Streak:        progress(int64(goals.StreakDays), int64(c.CurrentStreak)),
		TotalSessions: progress(int64(goals.TotalSessions), int64(c.TotalSessions)),
	}
}
