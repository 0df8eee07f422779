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

const anonymousName = "Anonymous"

type LeaderboardService struct {
	SessionRepo  *repository.SessionRepository
	UserRepo     *repository.UserRepository
	SettingsRepo *repository.SettingsRepository
	Cache        *repository.LeaderboardCache
	Settings     *StatsSettings
	Now          func() time.Time
}

func NewLeaderboardService(
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	settingsRepo *repository.SettingsRepository,
	cache *repository.LeaderboardCache,
	settings *StatsSettings,
) *LeaderboardService {
	return &LeaderboardService{
		SessionRepo:  sessionRepo,
		UserRepo:     userRepo,
		SettingsRepo: settingsRepo,
		Cache:        cache,
		Settings:     settings,
		Now:          time.Now,
	}
}

type LeaderboardRow struct {
	stats.LeaderboardEntry
	Name          string `json:"name"`
	Username      string `json:"username,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

func (s *LeaderboardService) ranker() *stats.Ranker {
	r := stats.NewRanker(s.Settings.Location())
	r.Now = s.Now
	return r
}

// accounts 读取窗口内的已结束会话并按账号分组，顺序即 user_id 升序
func (s *LeaderboardService) accounts(p stats.Period) ([]stats.AccountSessions, error) {
	since := p.WindowStart(s.Now(), s.Settings.Location())
	rows, err := s.SessionRepo.ListClosedSince(since)
	if err != nil {
		return nil, err
	}

	var out []stats.AccountSessions
	for _, c := range model.ClosedSessions(rows) {
		if n := len(out); n == 0 || out[n-1].OwnerID != c.OwnerID {
			out = append(out, stats.AccountSessions{OwnerID: c.OwnerID})
		}
		last := &out[len(out)-1]
		last.Sessions = append(last.Sessions, c)
	}
	return out, nil
}

// Rank 完整排名，命中缓存时不访问数据库
func (s *LeaderboardService) Rank(ctx context.Context, p stats.Period) ([]stats.LeaderboardEntry, error) {
	ctx, span := tracing.Start(ctx, "leaderboard.rank")
	defer span.End()
	span.SetAttributes(attribute.String("period", string(p)))

	if entries, ok := s.Cache.Get(ctx, p); ok {
		monitoring.LeaderboardCache.WithLabelValues(string(p), "hit").Inc()
		return entries, nil
	}
	monitoring.LeaderboardCache.WithLabelValues(string(p), "miss").Inc()

	accounts, err := s.accounts(p)
	if err != nil {
		return nil, err
	}
	entries := s.ranker().Rank(p, accounts)
	span.SetAttributes(attribute.Int("entries", len(entries)))

	if err := s.Cache.Set(ctx, p, entries, s.Settings.CacheTTL()); err != nil {
		logger.Log.Warn("leaderboard cache write failed", zap.Error(err), zap.String("period", string(p)))
	}
	return entries, nil
}

// Leaderboard 排名后再截取前 limit 条，百分位始终基于完整排名
func (s *LeaderboardService) Leaderboard(ctx context.Context, p stats.Period, limit int, viewerID uint) ([]LeaderboardRow, error) {
	entries, err := s.Rank(ctx, p)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.Settings.LeaderboardLimit()
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.OwnerID
	}
	users, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	prefs, err := s.SettingsRepo.GetMany(ids)
	if err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, len(entries))
	for i, e := range entries {
		row := LeaderboardRow{LeaderboardEntry: e, IsCurrentUser: e.OwnerID == viewerID}
		if u, ok := users[e.OwnerID]; ok {
			row.Name, row.Username, row.ImageURL = u.DisplayName(), u.Username, u.ImageURL
		}
		if prefs[e.OwnerID].Privacy.AnonymousMode && !row.IsCurrentUser {
			row.Name, row.Username, row.ImageURL = anonymousName, "", ""
		}
		rows[i] = row
	}
	return rows, nil
}

func (s *LeaderboardService) MyRank(ctx context.Context, userID uint, p stats.Period) (stats.RankResult, error) {
	_, span := tracing.Start(ctx, "leaderboard.rank_of")
	defer span.End()

	accounts, err := s.accounts(p)
	if err != nil {
		return stats.RankResult{}, err
	}
	return s.ranker().RankOf(userID, p, accounts), nil
}

func (s *LeaderboardService) Invalidate(ctx context.Context) error {
	return s.Cache.Invalidate(ctx)
}
