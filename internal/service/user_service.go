package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/util"
	"session_tracker_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 账号资料、偏好设置、数据导出与注销
type UserService struct {
	DB               *gorm.DB
	UserRepo         *repository.UserRepository
	SessionRepo      *repository.SessionRepository
	AchievementRepo  *repository.AchievementRepository
	NotificationRepo *repository.NotificationRepository
	SettingsRepo     *repository.SettingsRepository
	Storage          *StorageService
	Leaderboard      *LeaderboardService
	Now              func() time.Time
}

func NewUserService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	sessionRepo *repository.SessionRepository,
	achievementRepo *repository.AchievementRepository,
	notificationRepo *repository.NotificationRepository,
	settingsRepo *repository.SettingsRepository,
	storage *StorageService,
	leaderboard *LeaderboardService,
) *UserService {
	return &UserService{
		DB:               db,
		UserRepo:         userRepo,
		SessionRepo:      sessionRepo,
		AchievementRepo:  achievementRepo,
		NotificationRepo: notificationRepo,
		SettingsRepo:     settingsRepo,
		Storage:          storage,
		Leaderboard:      leaderboard,
		Now:              time.Now,
	}
}

func findUser(repo *repository.UserRepository, userID uint) (*model.User, error) {
	user, err := repo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Resolve 首次请求时按令牌资料建立本地账号
func (s *UserService) Resolve(claims *util.Claims) (*model.User, bool, error) {
	return s.UserRepo.FindOrCreate(&model.User{
		ExternalID: claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Username:   claims.Username,
		ImageURL:   claims.ImageURL,
		LastActive: s.Now(),
	})
}

// Touch 刷新活跃时间与令牌中的头像、邮箱
func (s *UserService) Touch(userID uint, claims *util.Claims) error {
	return s.UserRepo.SyncProfile(userID, &model.User{Email: claims.Email, ImageURL: claims.ImageURL}, s.Now())
}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	return findUser(s.UserRepo, userID)
}

type UpdateProfileRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Username string `json:"username" binding:"max=100"`
	Bio      string `json:"bio" binding:"max=500"`
}

func (s *UserService) UpdateProfile(userID uint, req UpdateProfileRequest) (*model.User, error) {
	if _, err := findUser(s.UserRepo, userID); err != nil {
		return nil, err
	}
	if err := s.UserRepo.UpdateProfile(userID, req.Name, req.Username, req.Bio); err != nil {
		return nil, err
	}
	return findUser(s.UserRepo, userID)
}

func (s *UserService) GetSettings(userID uint) (*model.UserSettings, error) {
	return s.SettingsRepo.Get(userID)
}

type SettingToggleRequest struct {
	Setting string `json:"setting" binding:"required"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

func (s *UserService) UpdateNotificationSetting(userID uint, req SettingToggleRequest) (*model.UserSettings, error) {
	return s.toggle(userID, func(st *model.UserSettings) bool {
		return st.SetNotification(req.Setting, *req.Enabled)
	})
}

func (s *UserService) UpdatePrivacySetting(userID uint, req SettingToggleRequest) (*model.UserSettings, error) {
	// 匿名只在展示时生效，缓存的排名不受影响
	return s.toggle(userID, func(st *model.UserSettings) bool {
		return st.SetPrivacy(req.Setting, *req.Enabled)
	})
}

func (s *UserService) toggle(userID uint, set func(*model.UserSettings) bool) (*model.UserSettings, error) {
	settings, err := s.SettingsRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	if !set(settings) {
		return nil, util.ErrUnknownSetting
	}
	if err := s.SettingsRepo.Save(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

type AccountExport struct {
	User          *model.User               `json:"user"`
	Sessions      []model.Session           `json:"sessions"`
	Achievements  []model.AchievementUnlock `json:"achievements"`
	Notifications []model.Notification      `json:"notifications"`
	Settings      *model.UserSettings       `json:"settings"`
	ExportedAt    time.Time                 `json:"exportedAt"`
}

func (s *UserService) BuildExport(userID uint) (*AccountExport, error) {
	user, err := findUser(s.UserRepo, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.SessionRepo.ListByUser(userID, 0)
	if err != nil {
		return nil, err
	}
	unlocks, err := s.AchievementRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	notifications, err := s.NotificationRepo.List(userID, false, 0)
	if err != nil {
		return nil, err
	}
	settings, err := s.SettingsRepo.Get(userID)
	if err != nil {
		return nil, err
	}
	return &AccountExport{
		User:          user,
		Sessions:      sessions,
		Achievements:  unlocks,
		Notifications: notifications,
		Settings:      settings,
		ExportedAt:    s.Now(),
	}, nil
}

// Export 生成导出文件并上传，返回下载地址
func (s *UserService) Export(ctx context.Context, userID uint) (string, error) {
	export, err := s.BuildExport(userID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", err
	}
	key := exportPrefix(userID) + uuid.NewString() + ".json"
	url, err := s.Storage.PutJSON(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	logger.Log.Info("account exported", zap.Uint("userId", userID), zap.String("key", key))
	return url, nil
}

// DeleteAccount 在一个事务内删除账号的全部数据，提交后再删除已上传的导出文件
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// 先锁账号行，与后台徽章写入互斥
		if err := s.UserRepo.WithTx(tx).LockByID(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}
		if err := s.SessionRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		if err := s.AchievementRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		if err := s.NotificationRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		if err := s.SettingsRepo.WithTx(tx).DeleteByUser(userID); err != nil {
			return err
		}
		return s.UserRepo.WithTx(tx).Delete(userID)
	})
	if err != nil {
		return err
	}

	logger.Log.Info("account deleted", zap.Uint("userId", userID))
	if s.Storage != nil {
		if err := s.Storage.RemoveExports(ctx, userID); err != nil {
			return fmt.Errorf("remove exports: %w", err)
		}
	}
	if s.Leaderboard != nil {
		if err := s.Leaderboard.Invalidate(ctx); err != nil {
			logger.Log.Warn("leaderboard cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}
