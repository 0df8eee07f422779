package stats

import "time"

// Mood 会话心情
type Mood string

const (
	MoodEnergized Mood = "energized"
	MoodFocused   Mood = "focused"
	MoodRelaxed   Mood = "relaxed"
	MoodStressed  Mood = "stressed"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodEnergized, MoodFocused, MoodRelaxed, MoodStressed:
		return true
	}
	return false
}

const (
	MinIntensity     = 1
	MaxIntensity     = 10
	DefaultIntensity = 5
)

// SessionInfo 会话开始时即确定、之后不再变化的字段
type SessionInfo struct {
	ID        string
	OwnerID   uint
	StartTime time.Time
	Intensity int
	Tags      []string
	Mood      Mood
}

// OpenSession 进行中的会话，没有结束时间和时长
type OpenSession struct {
	SessionInfo
}

// ClosedSession 已结束的会话，EndTime 与 DurationSeconds 同时存在，之后不可变
type ClosedSession struct {
	SessionInfo
	EndTime         time.Time
	DurationSeconds int64
	Notes           string
}

// Close 结束会话，时长按整秒向下取整
func (s OpenSession) Close(end time.Time, notes string) ClosedSession {
	d := int64(end.Sub(s.StartTime) / time.Second)
	if d < 0 {
		d = 0
	}
	return ClosedSession{
		SessionInfo:     s.SessionInfo,
		EndTime:         end,
		DurationSeconds: d,
		Notes:           notes,
	}
}

// effectiveIntensity 缺失强度按默认值 5 计
func (s ClosedSession) effectiveIntensity() int {
	if s.Intensity == 0 {
		return DefaultIntensity
	}
	return s.Intensity
}

// UserCounters 每次结束会话时更新的计数器
type UserCounters struct {
	OwnerID       uint `json:"ownerId"`
	TotalSessions int  `json:"totalSessions"`
	CurrentStreak int  `json:"currentStreak"`
	LongestStreak int  `json:"longestStreak"`
}
