package service

import (
	"context"
	"time"

	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/stats"
	"session_tracker_backend/pkg/logger"
	"session_tracker_backend/pkg/monitoring"
	"session_tracker_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const evaluateTimeout = 30 * time.Second

type AchievementService struct {
	AchievementRepo  *repository.AchievementRepository
	SessionRepo      *repository.SessionRepository
	UserRepo         *repository.UserRepository
	SettingsRepo     *repository.SettingsRepository
	NotificationRepo *repository.NotificationRepository
	Hub              *NotificationHub
	Settings         *StatsSettings
	Now              func() time.Time
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	settingsRepo *repository.SettingsRepository,
	notificationRepo *repository.NotificationRepository,
	hub *NotificationHub,
	settings *StatsSettings,
) *AchievementService {
	return &AchievementService{
		AchievementRepo:  achievementRepo,
		SessionRepo:      sessionRepo,
		UserRepo:         userRepo,
		SettingsRepo:     settingsRepo,
		NotificationRepo: notificationRepo,
		Hub:              hub,
		Settings:         settings,
		Now:              time.Now,
	}
}

// notifyingStore 在数据库写入通知后按账号设置推送到 websocket
type notifyingStore struct {
	*repository.AchievementRepository
	svc *AchievementService
}

func (s notifyingStore) InsertNotification(ctx context.Context, n stats.Notification) error {
	row := &model.Notification{
		UserID:    n.OwnerID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		CreatedAt: n.CreatedAt,
	}
	created, err := s.svc.NotificationRepo.CreateForUser(ctx, row)
	if err != nil || !created {
		return err
	}
	s.svc.push(row)
	return nil
}

// push 离线账号只保留数据库中的通知
func (s *AchievementService) push(n *model.Notification) {
	if s.Hub == nil || !s.Hub.IsUserOnline(n.UserID) {
		return
	}
	prefs, err := s.SettingsRepo.Get(n.UserID)
	if err != nil {
		logger.Log.Warn("load notification settings failed", zap.Error(err), zap.Uint("userId", n.UserID))
		return
	}
	if !prefs.Notifications.AchievementUnlocks {
		return
	}
	s.Hub.PushToUsers([]uint{n.UserID}, WSMessage{Type: WSTypeNotification, Data: n})
}

func (s *AchievementService) evaluator() *stats.Evaluator {
	e := stats.NewEvaluator(notifyingStore{AchievementRepository: s.AchievementRepo, svc: s}, s.Settings.Location())
	e.Now = s.Now
	return e
}

// Check 立即评估并返回本次新解锁的徽章
func (s *AchievementService) Check(ctx context.Context, userID uint) ([]stats.Badge, error) {
	ctx, span := tracing.Start(ctx, "achievements.evaluate")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", int64(userID)))

	user, err := findUser(s.UserRepo, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.SessionRepo.ListClosedByUser(userID)
	if err != nil {
		return nil, err
	}

	keys, err := s.evaluator().Evaluate(ctx, userID, model.ClosedSessions(rows), user.Counters())
	badges := make([]stats.Badge, 0, len(keys))
	for _, k := range keys {
		monitoring.AchievementsUnlocked.WithLabelValues(string(k)).Inc()
		if b, ok := stats.LookupBadge(k); ok {
			badges = append(badges, b)
		}
	}
	span.SetAttributes(attribute.Int("unlocked", len(badges)))
	return badges, err
}

// EvaluateAsync 会话结束后在后台评估，失败只记录日志
func (s *AchievementService) EvaluateAsync(userID uint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
		defer cancel()
		unlocked, err := s.Check(ctx, userID)
		if err != nil {
			logger.Log.Error("achievement evaluation failed", zap.Error(err), zap.Uint("userId", userID))
			return
		}
		if len(unlocked) > 0 {
			logger.Log.Info("achievements unlocked", zap.Uint("userId", userID), zap.Int("count", len(unlocked)))
		}
	}()
}

type BadgeStatus struct {
	stats.Badge
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

func (s *AchievementService) List(userID uint) ([]BadgeStatus, error) {
	unlocks, err := s.AchievementRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	at := make(map[stats.BadgeKey]time.Time, len(unlocks))
	for _, u := range unlocks {
		at[stats.BadgeKey(u.BadgeType)] = u.UnlockedAt
	}

	badges := stats.Badges()
	out := make([]BadgeStatus, len(badges))
	for i, b := range badges {
		out[i] = BadgeStatus{Badge: b}
		if t, ok := at[b.Key]; ok {
			t := t
			out[i].Unlocked = true
			out[i].UnlockedAt = &t
		}
	}
	return out, nil
}

func (s *AchievementService) Progress(userID uint) (stats.Progress, error) {
	user, err := findUser(s.UserRepo, userID)
	if err != nil {
		return stats.Progress{}, err
	}
	rows, err := s.SessionRepo.ListClosedByUser(userID)
	if err != nil {
		return stats.Progress{}, err
	}
	return stats.ComputeProgress(model.ClosedSessions(rows), user.Counters(), s.Settings.Location()), nil
}

type RecentUnlock struct {
	stats.Badge
	UnlockedAt time.Time              `json:"unlockedAt"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Recent 已从徽章表移除的类型不返回
func (s *AchievementService) Recent(userID uint, limit int) ([]RecentUnlock, error) {
	unlocks, err := s.AchievementRepo.Recent(userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]RecentUnlock, 0, len(unlocks))
	for _, u := range unlocks {
		b, ok := stats.LookupBadge(stats.BadgeKey(u.BadgeType))
		if !ok {
			continue
		}
		out = append(out, RecentUnlock{Badge: b, UnlockedAt: u.UnlockedAt, Metadata: u.Metadata})
	}
	return out, nil
}
