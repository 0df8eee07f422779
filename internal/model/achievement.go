package model

import "time"

// AchievementUnlock (user_id, badge_type) 唯一，重复写入由数据库拒绝
type AchievementUnlock struct {
	ID         uint                   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint                   `gorm:"not null;uniqueIndex:idx_unlock_user_badge,priority:1" json:"userId"`
	BadgeType  string                 `gorm:"size:64;not null;uniqueIndex:idx_unlock_user_badge,priority:2" json:"type"`
	UnlockedAt time.Time              `gorm:"not null;index" json:"unlockedAt"`
	Metadata   map[string]interface{} `gorm:"serializer:json;type:text" json:"metadata,omitempty"`
}

func (AchievementUnlock) TableName() string {
	return "achievement_unlocks"
}
