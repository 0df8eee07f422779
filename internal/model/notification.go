package model

import "time"

type Notification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"userId"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Type      string    `gorm:"size:32;index" json:"type"`
	Read      bool      `gorm:"column:is_read;not null" json:"read"`
	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
