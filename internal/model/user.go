package model

import (
	"time"

	"session_tracker_backend/internal/stats"
)

type Tier string

const (
	TierFree  Tier = "free"
	TierPro   Tier = "pro"
	TierElite Tier = "elite"
)

// swagger:model User
type User struct {
	BaseModel
	// 身份提供方的用户 ID
	ExternalID    string     `gorm:"size:191;uniqueIndex;not null" json:"externalId"`
	Email         string     `gorm:"size:191;index" json:"email"`
	Name          string     `gorm:"size:100" json:"name"`
	Username      string     `gorm:"size:100" json:"username"`
	ImageURL      string     `gorm:"size:512" json:"imageUrl"`
	Bio           string     `gorm:"size:500" json:"bio"`
	Tier          Tier       `gorm:"size:16;default:'free'" json:"tier"`
	LastActive    time.Time  `json:"lastActive"`
	TotalSessions int        `gorm:"not null;default:0" json:"totalSessions"`
	CurrentStreak int        `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak int        `gorm:"not null;default:0" json:"longestStreak"`
	LastSessionAt *time.Time `json:"lastSessionAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Counters() stats.UserCounters {
	return stats.UserCounters{
		OwnerID:       u.ID,
		TotalSessions: u.TotalSessions,
		CurrentStreak: u.CurrentStreak,
		LongestStreak: u.LongestStreak,
	}
}

// DisplayName 排行榜展示名，依次回退到 username、邮箱前缀
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Username != "" {
		return u.Username
	}
	for i, r := range u.Email {
		if r == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
