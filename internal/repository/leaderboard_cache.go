package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"session_tracker_backend/internal/stats"

	"github.com/go-redis/redis/v8"
)

var cachedPeriods = []stats.Period{stats.PeriodDaily, stats.PeriodWeekly, stats.PeriodMonthly}

// LeaderboardCache 完整排名结果的 Redis 缓存；Redis 为 nil 时所有操作为空操作
type LeaderboardCache struct {
	Redis *redis.Client
}

func NewLeaderboardCache(rdb *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{Redis: rdb}
}

func leaderboardKey(p stats.Period) string {
	return fmt.Sprintf("leaderboard:%s", p)
}

func (c *LeaderboardCache) Get(ctx context.Context, p stats.Period) ([]stats.LeaderboardEntry, bool) {
	if c == nil || c.Redis == nil {
		return nil, false
	}
	raw, err := c.Redis.Get(ctx, leaderboardKey(p)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []stats.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) Set(ctx context.Context, p stats.Period, entries []stats.LeaderboardEntry, ttl time.Duration) error {
	if c == nil || c.Redis == nil || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, leaderboardKey(p), raw, ttl).Err()
}

// Invalidate 会话结束后清除所有周期的缓存
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	if c == nil || c.Redis == nil {
		return nil
	}
	keys := make([]string, len(cachedPeriods))
	for i, p := range cachedPeriods {
		keys[i] = leaderboardKey(p)
	}
	return c.Redis.Del(ctx, keys...).Err()
}
