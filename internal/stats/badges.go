package stats

import "time"

type BadgeKey string

const (
	BadgeFirstSession     BadgeKey = "first_session"
	BadgeFiveSessions     BadgeKey = "five_sessions"
	BadgeTenSessions      BadgeKey = "ten_sessions"
	BadgeFiftySessions    BadgeKey = "fifty_sessions"
	BadgeHundredSessions  BadgeKey = "hundred_sessions"
	BadgeOneHour          BadgeKey = "one_hour"
	BadgeTenHours         BadgeKey = "ten_hours"
	BadgeHundredHours     BadgeKey = "hundred_hours"
	BadgeThreeDayStreak   BadgeKey = "three_day_streak"
	BadgeSevenDayStreak   BadgeKey = "seven_day_streak"
	BadgeThirtyDayStreak  BadgeKey = "thirty_day_streak"
	BadgeHundredDayStreak BadgeKey = "hundred_day_streak"
	BadgeMaxIntensity     BadgeKey = "max_intensity"
	BadgeTenMaxSessions   BadgeKey = "ten_max_sessions"
	BadgeNightOwl         BadgeKey = "night_owl"
	BadgeEarlyBird        BadgeKey = "early_bird"
	BadgeWeekendWarrior   BadgeKey = "weekend_warrior"
)

type Category string

const (
	CategoryMilestone Category = "milestone"
	CategoryDuration  Category = "duration"
	CategoryStreak    Category = "streak"
	CategoryIntensity Category = "intensity"
	CategorySpecial   Category = "special"
)

// Progress 判定徽章所需的派生统计
type Progress struct {
	Sessions             int     `json:"sessions"`
	TotalSeconds         int64   `json:"-"`
	TotalHours           float64 `json:"totalHours"`
	CurrentStreak        int     `json:"currentStreak"`
	LongestStreak        int     `json:"longestStreak"`
	MaxIntensitySessions int     `json:"maxIntensitySessions"`
	WeekendSessions      int     `json:"weekendSessions"`
}

// Badge 徽章定义。Met 针对汇总统计判定；Window 针对单个会话的本地开始时间判定。
type Badge struct {
	Key         BadgeKey `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Category    Category `json:"category"`

	Met    func(Progress) bool  `json:"-"`
	Window func(time.Time) bool `json:"-"`
}

func sessionsAtLeast(n int) func(Progress) bool {
	return func(p Progress) bool { return p.Sessions >= n }
}

func hoursAtLeast(h int64) func(Progress) bool {
	return func(p Progress) bool { return p.TotalSeconds >= h*3600 }
}

func streakAtLeast(n int) func(Progress) bool {
	return func(p Progress) bool { return p.CurrentStreak >= n }
}

func maxIntensityAtLeast(n int) func(Progress) bool {
	return func(p Progress) bool { return p.MaxIntensitySessions >= n }
}

func hourBetween(from, to int) func(time.Time) bool {
	return func(t time.Time) bool {
		h := t.Hour()
		return h >= from && h < to
	}
}

// badgeTable 进程启动时构建，之后只读，可在并发评估间共享
var badgeTable = []Badge{
	{Key: BadgeFirstSession, Name: "First Goon! 🎯", Description: "Complete your first session", Icon: "🎯", Category: CategoryMilestone, Met: sessionsAtLeast(1)},
	{Key: BadgeFiveSessions, Name: "Getting Started 🔥", Description: "Complete 5 sessions", Icon: "🔥", Category: CategoryMilestone, Met: sessionsAtLeast(5)},
	{Key: BadgeTenSessions, Name: "Dedicated Gooner 💪", Description: "Complete 10 sessions", Icon: "💪", Category: CategoryMilestone, Met: sessionsAtLeast(10)},
	{Key: BadgeFiftySessions, Name: "Veteran Gooner 🏆", Description: "Complete 50 sessions", Icon: "🏆", Category: CategoryMilestone, Met: sessionsAtLeast(50)},
	{Key: BadgeHundredSessions, Name: "Century Club 💯", Description: "Complete 100 sessions", Icon: "💯", Category: CategoryMilestone, Met: sessionsAtLeast(100)},

	{Key: BadgeOneHour, Name: "Hour Hero ⏰", Description: "Accumulate 1 hour total", Icon: "⏰", Category: CategoryDuration, Met: hoursAtLeast(1)},
	{Key: BadgeTenHours, Name: "Endurance King 👑", Description: "Accumulate 10 hours total", Icon: "👑", Category: CategoryDuration, Met: hoursAtLeast(10)},
	{Key: BadgeHundredHours, Name: "Time Master ⚡", Description: "Accumulate 100 hours total", Icon: "⚡", Category: CategoryDuration, Met: hoursAtLeast(100)},

	{Key: BadgeThreeDayStreak, Name: "On Fire 🔥", Description: "Maintain a 3-day streak", Icon: "🔥", Category: CategoryStreak, Met: streakAtLeast(3)},
	{Key: BadgeSevenDayStreak, Name: "Week Warrior 📅", Description: "Maintain a 7-day streak", Icon: "📅", Category: CategoryStreak, Met: streakAtLeast(7)},
	{Key: BadgeThirtyDayStreak, Name: "Monthly Master 📆", Description: "Maintain a 30-day streak", Icon: "📆", Category: CategoryStreak, Met: streakAtLeast(30)},
	{Key: BadgeHundredDayStreak, Name: "Unstoppable Force 💥", Description: "Maintain a 100-day streak", Icon: "💥", Category: CategoryStreak, Met: streakAtLeast(100)},

	{Key: BadgeMaxIntensity, Name: "Maximum Effort 🌟", Description: "Complete a session at max intensity (10)", Icon: "🌟", Category: CategoryIntensity, Met: maxIntensityAtLeast(1)},
	{Key: BadgeTenMaxSessions, Name: "Intensity Beast 💪", Description: "Complete 10 sessions at max intensity", Icon: "💪", Category: CategoryIntensity, Met: maxIntensityAtLeast(10)},

	{Key: BadgeNightOwl, Name: "Night Owl 🦉", Description: "Complete a session between 12 AM - 5 AM", Icon: "🦉", Category: CategorySpecial, Window: hourBetween(0, 5)},
	{Key: BadgeEarlyBird, Name: "Early Bird 🌅", Description: "Complete a session between 5 AM - 7 AM", Icon: "🌅", Category: CategorySpecial, Window: hourBetween(5, 7)},
	{Key: BadgeWeekendWarrior, Name: "Weekend Warrior 🎮", Description: "Complete 10 weekend sessions", Icon: "🎮", Category: CategorySpecial, Met: func(p Progress) bool { return p.WeekendSessions >= 10 }},
}

var badgeIndex = func() map[BadgeKey]int {
	m := make(map[BadgeKey]int, len(badgeTable))
	for i, b := range badgeTable {
		m[b.Key] = i
	}
	return m
}()

// Badges 返回徽章表副本，顺序固定
func Badges() []Badge {
	out := make([]Badge, len(badgeTable))
	copy(out, badgeTable)
	return out
}

func LookupBadge(key BadgeKey) (Badge, bool) {
	i, ok := badgeIndex[key]
	if !ok {
		return Badge{}, false
	}
	return badgeTable[i], true
}

// ComputeProgress 从全部已结束会话与计数器推导徽章统计
func ComputeProgress(sessions []ClosedSession, counters UserCounters, loc *time.Location) Progress {
	loc = locOrLocal(loc)
	p := Progress{
		Sessions:      len(sessions),
		CurrentStreak: counters.CurrentStreak,
		LongestStreak: counters.LongestStreak,
	}
	for _, s := range sessions {
		p.TotalSeconds += s.DurationSeconds
		if s.Intensity == MaxIntensity {
			p.MaxIntensitySessions++
		}
		switch s.StartTime.In(loc).Weekday() {
		case time.Saturday, time.Sunday:
			p.WeekendSessions++
		}
	}
	// 保留一位小数，向下取整
	p.TotalHours = float64(p.TotalSeconds*10/3600) / 10
	return p
}
