package model

import (
	"time"

	"session_tracker_backend/internal/stats"
)

// Session EndTime 与 Duration 同时为空（进行中）或同时存在（已结束）
type Session struct {
	UUIDBase
	UserID    uint       `gorm:"not null;index:idx_sessions_user_start,priority:1" json:"userId"`
	StartTime time.Time  `gorm:"not null;index:idx_sessions_user_start,priority:2;index" json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  *int64     `json:"duration,omitempty"`
	Intensity int        `gorm:"not null" json:"intensity"`
	Tags      []string   `gorm:"serializer:json;type:text" json:"tags"`
	Mood      string     `gorm:"size:16" json:"mood,omitempty"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsOpen() bool {
	return s.EndTime == nil || s.Duration == nil
}

func (s *Session) info() stats.SessionInfo {
	return stats.SessionInfo{
		ID:        s.ID,
		OwnerID:   s.UserID,
		StartTime: s.StartTime,
		Intensity: s.Intensity,
		Tags:      s.Tags,
		Mood:      stats.Mood(s.Mood),
	}
}

func (s *Session) Open() (stats.OpenSession, bool) {
	if !s.IsOpen() {
		return stats.OpenSession{}, false
	}
	return stats.OpenSession{SessionInfo: s.info()}, true
}

func (s *Session) Closed() (stats.ClosedSession, bool) {
	if s.IsOpen() {
		return stats.ClosedSession{}, false
	}
	return stats.ClosedSession{
		SessionInfo:     s.info(),
		EndTime:         *s.EndTime,
		DurationSeconds: *s.Duration,
		Notes:           s.Notes,
	}, true
}

// ClosedSessions 过滤掉进行中的会话
func ClosedSessions(sessions []Session) []stats.ClosedSession {
	out := make([]stats.ClosedSession, 0, len(sessions))
	for i := range sessions {
		if c, ok := sessions[i].Closed(); ok {
			out = append(out, c)
		}
	}
	return out
}
