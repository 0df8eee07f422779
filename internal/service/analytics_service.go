package service

import (
	"time"

	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/stats"
)

type AnalyticsService struct {
	UserRepo    *repository.UserRepository
	SessionRepo *repository.SessionRepository
	Settings    *StatsSettings
	Now         func() time.Time
}

func NewAnalyticsService(userRepo *repository.UserRepository, sessionRepo *repository.SessionRepository, settings *StatsSettings) *AnalyticsService {
	return &AnalyticsService{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Settings:    settings,
		Now:         time.Now,
	}
}

// GetAnalytics 账号不存在返回 ErrUserNotFound，没有会话时返回全零结果
func (s *AnalyticsService) GetAnalytics(userID uint) (*stats.Analytics, error) {
	user, err := findUser(s.UserRepo, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.SessionRepo.ListClosedByUser(userID)
	if err != nil {
		return nil, err
	}

	agg := stats.NewAggregator(s.Settings.Goals(), s.Settings.Location())
	agg.Now = s.Now
	result := agg.Summarize(userID, model.ClosedSessions(rows), user.Counters())
	return &result, nil
}
