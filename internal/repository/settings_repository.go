package repository

import (
	"errors"

	"session_tracker_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	DB *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) WithTx(tx *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: tx}
}

// Get 未保存过设置时返回默认值
func (r *SettingsRepository) Get(userID uint) (*model.UserSettings, error) {
	var s model.UserSettings
	err := r.DB.Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d := model.DefaultSettings(userID)
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetMany 批量读取，缺失的账号使用默认值
func (r *SettingsRepository) GetMany(userIDs []uint) (map[uint]model.UserSettings, error) {
	out := make(map[uint]model.UserSettings, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []model.UserSettings
	if err := r.DB.Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.UserID] = s
	}
	for _, id := range userIDs {
		if _, ok := out[id]; !ok {
			out[id] = model.DefaultSettings(id)
		}
	}
	return out, nil
}

// Save 首次保存按 user_id upsert，之后按主键更新
func (r *SettingsRepository) Save(s *model.UserSettings) error {
	if s.ID != 0 {
		return r.DB.Save(s).Error
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(s).Error
}

func (r *SettingsRepository) DeleteByUser(userID uint) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.UserSettings{}).Error
}
