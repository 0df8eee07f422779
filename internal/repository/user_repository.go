package repository

import (
	"errors"
	"time"

	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/stats"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx 返回绑定到事务的副本
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

// lockLiveUser 在事务内锁定账号行，账号不存在时返回 false。
// 注销与徽章写入都先锁这一行，注销提交后不会再写入该账号的数据。
func lockLiveUser(tx *gorm.DB, userID uint) (bool, error) {
	var user model.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LockByID 须在事务内调用，账号不存在时返回 gorm.ErrRecordNotFound
func (r *UserRepository) LockByID(id uint) error {
	live, err := lockLiveUser(r.DB, id)
	if err != nil {
		return err
	}
	if !live {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByExternalID(externalID string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("external_id = ?", externalID).First(&user).Error
	return &user, err
}

// FindOrCreate 按外部 ID 查找账号，不存在则创建；并发首次登录由唯一索引兜底
func (r *UserRepository) FindOrCreate(profile *model.User) (*model.User, bool, error) {
	if profile.LastActive.IsZero() {
		profile.LastActive = time.Now()
	}
	if profile.Tier == "" {
		profile.Tier = model.TierFree
	}
	res := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(profile)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return profile, true, nil
	}
	user, err := r.FindByExternalID(profile.ExternalID)
	return user, false, err
}

func (r *UserRepository) FindByIDs(ids []uint) (map[uint]*model.User, error) {
	out := make(map[uint]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

func (r *UserRepository) ListIDs() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.User{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// SyncProfile 用令牌中的资料刷新账号并记录活跃时间，空字段不覆盖
func (r *UserRepository) SyncProfile(userID uint, claims *model.User, at time.Time) error {
	updates := map[string]interface{}{"last_active": at}
	if claims.Email != "" {
		updates["email"] = claims.Email
	}
	if claims.ImageURL != "" {
		updates["image_url"] = claims.ImageURL
	}
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *UserRepository) UpdateProfile(userID uint, name, username, bio string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"name":     name,
		"username": username,
		"bio":      bio,
	}).Error
}

// SaveCounters 写回结束会话后的计数器
func (r *UserRepository) SaveCounters(c stats.UserCounters, lastSessionAt time.Time) error {
	return r.DB.Model(&model.User{}).Where("id = ?", c.OwnerID).Updates(map[string]interface{}{
		"total_sessions":  c.TotalSessions,
		"current_streak":  c.CurrentStreak,
		"longest_streak":  c.LongestStreak,
		"last_session_at": lastSessionAt,
		"last_active":     lastSessionAt,
	}).Error
}

// ResetExpiredStreaks 最后一次会话早于 cutoff 的账号连续天数清零
func (r *UserRepository) ResetExpiredStreaks(cutoff time.Time) (int64, error) {
	res := r.DB.Model(&model.User{}).
		Where("current_streak > 0").
		Where("last_session_at IS NULL OR last_session_at < ?", cutoff).
		Update("current_streak", 0)
	return res.RowsAffected, res.Error
}

// Delete 物理删除，允许同一外部 ID 之后重新注册
func (r *UserRepository) Delete(userID uint) error {
	return r.DB.Unscoped().Delete(&model.User{}, userID).Error
}
