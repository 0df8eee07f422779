package stats

import (
	"context"
	"sync"
)

type unlockKey struct {
	owner uint
	badge BadgeKey
}

// MemoryStore 进程内 UnlockStore，用于测试与脚本的 dry-run
type MemoryStore struct {
	mu            sync.Mutex
	unlocks       map[unlockKey]Unlock
	order         []Unlock
	Notifications []Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{unlocks: make(map[unlockKey]Unlock)}
}

func (m *MemoryStore) UnlockedBadges(ctx context.Context, ownerID uint) ([]BadgeKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []BadgeKey
	for _, u := range m.order {
		if u.OwnerID == ownerID {
			keys = append(keys, u.Badge)
		}
	}
	return keys, nil
}

func (m *MemoryStore) InsertUnlockIfAbsent(ctx context.Context, u Unlock) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := unlockKey{u.OwnerID, u.Badge}
	if _, ok := m.unlocks[k]; ok {
		return false, nil
	}
	m.unlocks[k] = u
	m.order = append(m.order, u)
	return true, nil
}

func (m *MemoryStore) InsertNotification(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, n)
	return nil
}

// Unlocks 按写入顺序返回全部解锁记录
func (m *MemoryStore) Unlocks() []Unlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Unlock, len(m.order))
	copy(out, m.order)
	return out
}
