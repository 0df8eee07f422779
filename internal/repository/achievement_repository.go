package repository

import (
	"context"

	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/stats"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) WithTx(tx *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: tx}
}

func (r *AchievementRepository) UnlockedBadges(ctx context.Context, userID uint) ([]stats.BadgeKey, error) {
	var types []string
	err := r.DB.WithContext(ctx).Model(&model.AchievementUnlock{}).
		Where("user_id = ?", userID).
		Order("unlocked_at ASC, id ASC").
		Pluck("badge_type", &types).Error
	if err != nil {
		return nil, err
	}
	keys := make([]stats.BadgeKey, len(types))
	for i, t := range types {
		keys[i] = stats.BadgeKey(t)
	}
	return keys, nil
}

// InsertUnlockIfAbsent 依赖 (user_id, badge_type) 唯一索引，冲突时不写入并返回 false。
// 账号已注销时同样返回 false。
func (r *AchievementRepository) InsertUnlockIfAbsent(ctx context.Context, u stats.Unlock) (bool, error) {
	row := model.AchievementUnlock{
		UserID:     u.OwnerID,
		BadgeType:  string(u.Badge),
		UnlockedAt: u.UnlockedAt,
		Metadata:   u.Metadata,
	}
	inserted := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		live, err := lockLiveUser(tx, u.OwnerID)
		if err != nil || !live {
			return err
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_type"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected == 1
		return nil
	})
	return inserted, err
}

func (r *AchievementRepository) InsertNotification(ctx context.Context, n stats.Notification) error {
	_, err := NewNotificationRepository(r.DB).CreateForUser(ctx, &model.Notification{
		UserID:    n.OwnerID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		CreatedAt: n.CreatedAt,
	})
	return err
}

func (r *AchievementRepository) ListByUser(userID uint) ([]model.AchievementUnlock, error) {
	var unlocks []model.AchievementUnlock
	err := r.DB.Where("user_id = ?", userID).Order("unlocked_at ASC, id ASC").Find(&unlocks).Error
	return unlocks, err
}

func (r *AchievementRepository) Recent(userID uint, limit int) ([]model.AchievementUnlock, error) {
	var unlocks []model.AchievementUnlock
	err := r.DB.Where("user_id = ?", userID).
		Order("unlocked_at DESC, id DESC").
		Limit(limit).
		Find(&unlocks).Error
	return unlocks, err
}

func (r *AchievementRepository) DeleteByUser(userID uint) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.AchievementUnlock{}).Error
}
