package repository

import (
	"time"

	"session_tracker_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) WithTx(tx *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: tx}
}

func (r *SessionRepository) Create(s *model.Session) error {
	return r.DB.Create(s).Error
}

func (r *SessionRepository) FindByIDForUser(id string, userID uint) (*model.Session, error) {
	var s model.Session
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	return &s, err
}

// Close 条件更新，只有仍在进行中的会话会被结束；返回 false 表示已被结束
func (r *SessionRepository) Close(id string, userID uint, end time.Time, duration int64, notes string) (bool, error) {
	res := r.DB.Model(&model.Session{}).
		Where("id = ? AND user_id = ? AND end_time IS NULL", id, userID).
		Updates(map[string]interface{}{
			"end_time": end,
			"duration": duration,
			"notes":    notes,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *SessionRepository) ListByUser(userID uint, limit int) ([]model.Session, error) {
	var sessions []model.Session
	q := r.DB.Where("user_id = ?", userID).Order("start_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) ListOpenByUser(userID uint) ([]model.Session, error) {
	var sessions []model.Session
	err := r.DB.Where("user_id = ? AND end_time IS NULL", userID).
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

// ListClosedByUser 全部已结束会话，按开始时间升序
func (r *SessionRepository) ListClosedByUser(userID uint) ([]model.Session, error) {
	var sessions []model.Session
	err := r.DB.Where("user_id = ? AND end_time IS NOT NULL AND duration IS NOT NULL", userID).
		Order("start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

// ListClosedSince 所有账号在 since 之后开始的已结束会话，按 user_id 分组有序
func (r *SessionRepository) ListClosedSince(since time.Time) ([]model.Session, error) {
	var sessions []model.Session
	err := r.DB.Where("start_time >= ? AND end_time IS NOT NULL AND duration IS NOT NULL", since).
		Order("user_id ASC, start_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) DeleteByUser(userID uint) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.Session{}).Error
}
