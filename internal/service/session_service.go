package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/stats"
	"session_tracker_backend/internal/util"
	"session_tracker_backend/pkg/logger"
	"session_tracker_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionService struct {
	DB           *gorm.DB
	SessionRepo  *repository.SessionRepository
	UserRepo     *repository.UserRepository
	Achievements *AchievementService
	Leaderboard  *LeaderboardService
	Settings     *StatsSettings
	Now          func() time.Time
}

func NewSessionService(
	db *gorm.DB,
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	achievements *AchievementService,
	leaderboard *LeaderboardService,
	settings *StatsSettings,
) *SessionService {
	return &SessionService{
		DB:           db,
		SessionRepo:  sessionRepo,
		UserRepo:     userRepo,
		Achievements: achievements,
		Leaderboard:  leaderboard,
		Settings:     settings,
		Now:          time.Now,
	}
}

type StartSessionRequest struct {
	Intensity int      `json:"intensity" binding:"required"`
	Tags      []string `json:"tags"`
	Mood      string   `json:"mood"`
}

type EndSessionRequest struct {
	Notes string `json:"notes"`
}

func (r *StartSessionRequest) validate() error {
	if r.Intensity < stats.MinIntensity || r.Intensity > stats.MaxIntensity {
		return util.ErrInvalidIntensity
	}
	if r.Mood != "" && !stats.Mood(r.Mood).Valid() {
		return util.ErrInvalidMood
	}
	return nil
}

func (s *SessionService) Start(userID uint, req StartSessionRequest) (*model.Session, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	session := &model.Session{
		UserID:    userID,
		StartTime: s.Now(),
		Intensity: req.Intensity,
		Tags:      tags,
		Mood:      req.Mood,
	}
	if err := s.SessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// End 结束会话并在同一事务内推进计数器；成就评估与缓存失效在提交后进行
func (s *SessionService) End(ctx context.Context, userID uint, sessionID string, req EndSessionRequest) (*model.Session, error) {
	var closed stats.ClosedSession
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		sessions := s.SessionRepo.WithTx(tx)
		row, err := sessions.FindByIDForUser(sessionID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSessionNotFound
			}
			return err
		}
		open, ok := row.Open()
		if !ok {
			return util.ErrSessionClosed
		}

		closed = open.Close(s.Now(), req.Notes)
		done, err := sessions.Close(sessionID, userID, closed.EndTime, closed.DurationSeconds, closed.Notes)
		if err != nil {
			return err
		}
		if !done {
			// 另一个请求已先结束
			return util.ErrSessionClosed
		}

		user, err := s.lockUser(tx, userID)
		if err != nil {
			return err
		}
		counters := stats.AdvanceStreak(user.Counters(), user.LastSessionAt, closed.EndTime, s.Settings.Location())
		return s.UserRepo.WithTx(tx).SaveCounters(counters, closed.EndTime)
	})
	if err != nil {
		return nil, err
	}

	monitoring.SessionsCompleted.Inc()
	monitoring.SessionDuration.Observe(float64(closed.DurationSeconds))

	if s.Leaderboard != nil {
		if err := s.Leaderboard.Invalidate(ctx); err != nil {
			logger.Log.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}
	if s.Achievements != nil {
		s.Achievements.EvaluateAsync(userID)
	}

	return s.SessionRepo.FindByIDForUser(sessionID, userID)
}

// lockUser sqlite 不支持 FOR UPDATE，事务本身已串行
func (s *SessionService) lockUser(tx *gorm.DB, userID uint) (*model.User, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var user model.User
	if err := q.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *SessionService) List(userID uint, limit int) ([]model.Session, error) {
	return s.SessionRepo.ListByUser(userID, limit)
}

func (s *SessionService) Active(userID uint) ([]model.Session, error) {
	return s.SessionRepo.ListOpenByUser(userID)
}

// ResetExpiredStreaks 昨天及今天都没有会话的账号连续天数清零
func (s *SessionService) ResetExpiredStreaks() (int64, error) {
	cutoff := stats.StreakCutoff(s.Now(), s.Settings.Location())
	n, err := s.UserRepo.ResetExpiredStreaks(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Log.Info("expired streaks reset", zap.Int64("accounts", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
