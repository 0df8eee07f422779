package service

import (
	"sync"
	"time"

	"session_tracker_backend/internal/config"
	"session_tracker_backend/internal/stats"
)

// StatsSettings 可热更新的统计参数，配置重新加载时由回调替换
type StatsSettings struct {
	mu       sync.RWMutex
	goals    stats.Goals
	loc      *time.Location
	limit    int
	cacheTTL time.Duration
}

func NewStatsSettings(cfg config.StatsConfig) *StatsSettings {
	s := &StatsSettings{}
	s.Apply(cfg)
	return s
}

func (s *StatsSettings) Apply(cfg config.StatsConfig) {
	limit := cfg.LeaderboardLimit
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	s.goals = cfg.Goals
	s.loc = cfg.Location()
	s.limit = limit
	s.cacheTTL = cfg.CacheTTL()
	s.mu.Unlock()
}

func (s *StatsSettings) Goals() stats.Goals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals
}

func (s *StatsSettings) Location() *time.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loc
}

func (s *StatsSettings) LeaderboardLimit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit
}

func (s *StatsSettings) CacheTTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cacheTTL
}
