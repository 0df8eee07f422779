package stats

import (
	"context"
	"fmt"
	"time"
)

const NotificationTypeAchievement = "achievement"

type Unlock struct {
	OwnerID    uint
	Badge      BadgeKey
	UnlockedAt time.Time
	Metadata   map[string]interface{}
}

type Notification struct {
	OwnerID   uint
	Title     string
	Message   string
	Type      string
	CreatedAt time.Time
}

// UnlockStore 徽章解锁的持久化协作方。
//
// InsertUnlockIfAbsent 必须由存储层保证 (OwnerID, Badge) 唯一（唯一索引或事务性的
// insert-if-absent），返回 false 表示记录已存在。Evaluator 本身不加锁，
// 并发调用的正确性完全依赖这一约束。
type UnlockStore interface {
	UnlockedBadges(ctx context.Context, ownerID uint) ([]BadgeKey, error)
	InsertUnlockIfAbsent(ctx context.Context, u Unlock) (bool, error)
	InsertNotification(ctx context.Context, n Notification) error
}

type Evaluator struct {
	Store    UnlockStore
	Location *time.Location
	Now      func() time.Time
}

func NewEvaluator(store UnlockStore, loc *time.Location) *Evaluator {
	return &Evaluator{Store: store, Location: loc, Now: time.Now}
}

func UnlockMessage(b Badge) (title, message string) {
	return "Achievement Unlocked! 🎉", fmt.Sprintf("%s %s: %s", b.Icon, b.Name, b.Description)
}

// Evaluate 检查并解锁徽章，返回本次新解锁的徽章（按解锁顺序）。
// 每个新解锁先写入解锁记录，再写入对应通知。
func (e *Evaluator) Evaluate(ctx context.Context, ownerID uint, sessions []ClosedSession, counters UserCounters) ([]BadgeKey, error) {
	have, err := e.Store.UnlockedBadges(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked badges: %w", err)
	}
	unlocked := make(map[BadgeKey]bool, len(have))
	for _, k := range have {
		unlocked[k] = true
	}

	loc := locOrLocal(e.Location)
	var fresh []BadgeKey

	unlock := func(b Badge, meta map[string]interface{}) error {
		if unlocked[b.Key] {
			return nil
		}
		now := nowOr(e.Now)
		inserted, err := e.Store.InsertUnlockIfAbsent(ctx, Unlock{
			OwnerID:    ownerID,
			Badge:      b.Key,
			UnlockedAt: now,
			Metadata:   meta,
		})
		if err != nil {
			return fmt.Errorf("unlock %s: %w", b.Key, err)
		}
		unlocked[b.Key] = true
		if !inserted {
			// 并发调用已抢先写入
			return nil
		}
		fresh = append(fresh, b.Key)

		title, msg := UnlockMessage(b)
		if err := e.Store.InsertNotification(ctx, Notification{
			OwnerID:   ownerID,
			Title:     title,
			Message:   msg,
			Type:      NotificationTypeAchievement,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("notify %s: %w", b.Key, err)
		}
		return nil
	}

	progress := ComputeProgress(sessions, counters, loc)
	windowsDone := false
	for _, b := range badgeTable {
		if b.Window != nil {
			if windowsDone {
				continue
			}
			windowsDone = true
			// 时段徽章逐个会话判定，已解锁后的会话直接跳过
			for _, s := range sessions {
				local := s.StartTime.In(loc)
				for _, wb := range badgeTable {
					if wb.Window == nil || !wb.Window(local) {
						continue
					}
					if err := unlock(wb, map[string]interface{}{"sessionId": s.ID}); err != nil {
						return fresh, err
					}
				}
			}
			continue
		}
		if b.Met != nil && b.Met(progress) {
			if err := unlock(b, nil); err != nil {
				return fresh, err
			}
		}
	}
	return fresh, nil
}
