package model

type NotificationPrefs struct {
	SessionReminders   bool `json:"sessionReminders"`
	StreakAlerts       bool `json:"streakAlerts"`
	LeaderboardUpdates bool `json:"leaderboardUpdates"`
	AICoachInsights    bool `json:"aiCoachInsights"`
	AchievementUnlocks bool `json:"achievementUnlocks"`
}

type PrivacyPrefs struct {
	ProfileVisibility bool `json:"profileVisibility"`
	ShowStatsPublicly bool `json:"showStatsPublicly"`
	AnonymousMode     bool `json:"anonymousMode"`
}

// UserSettings 布尔字段不设数据库默认值，零值 false 需要原样写入
type UserSettings struct {
	ID            uint              `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID        uint              `gorm:"not null;uniqueIndex" json:"userId"`
	Notifications NotificationPrefs `gorm:"embedded;embeddedPrefix:notify_" json:"notifications"`
	Privacy       PrivacyPrefs      `gorm:"embedded;embeddedPrefix:privacy_" json:"privacy"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

func DefaultSettings(userID uint) UserSettings {
	return UserSettings{
		UserID: userID,
		Notifications: NotificationPrefs{
			SessionReminders:   true,
			StreakAlerts:       true,
			LeaderboardUpdates: false,
			AICoachInsights:    true,
			AchievementUnlocks: true,
		},
		Privacy: PrivacyPrefs{
			ProfileVisibility: true,
			ShowStatsPublicly: false,
			AnonymousMode:     false,
		},
	}
}

func (p *NotificationPrefs) field(key string) *bool {
	switch key {
	case "sessionReminders":
		return &p.SessionReminders
	case "streakAlerts":
		return &p.StreakAlerts
	case "leaderboardUpdates":
		return &p.LeaderboardUpdates
	case "aiCoachInsights":
		return &p.AICoachInsights
	case "achievementUnlocks":
		return &p.AchievementUnlocks
	}
	return nil
}

func (p *PrivacyPrefs) field(key string) *bool {
	switch key {
	case "profileVisibility":
		return &p.ProfileVisibility
	case "showStatsPublicly":
		return &p.ShowStatsPublicly
	case "anonymousMode":
		return &p.AnonymousMode
	}
	return nil
}

// SetNotification 返回 false 表示未知的设置项
func (s *UserSettings) SetNotification(key string, enabled bool) bool {
	f := s.Notifications.field(key)
	if f == nil {
		return false
	}
	*f = enabled
	return true
}

func (s *UserSettings) SetPrivacy(key string, enabled bool) bool {
	f := s.Privacy.field(key)
	if f == nil {
		return false
	}
	*f = enabled
	return true
}
