package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9090"
  mode: debug
database:
  driver: sqlite
  path: ":memory:"
jwt:
  secret: test-secret
storage:
  type: minio
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Database.Driver != "sqlite" || cfg.Database.Path != ":memory:" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Fatalf("jwt expire = %v want 24h", cfg.JWT.ExpireTime)
	}
	g := cfg.Stats.Goals
	if g.WeeklySeconds != 500 || g.StreakDays != 30 || g.TotalSessions != 100 {
		t.Fatalf("goals = %+v", g)
	}
	if cfg.Stats.LeaderboardLimit != 20 || cfg.Stats.CacheTTL() != time.Minute {
		t.Fatalf("stats = %+v", cfg.Stats)
	}
	if cfg.Stats.Location() != time.Local {
		t.Fatalf("location = %v want Local", cfg.Stats.Location())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: postgres
jwt:
  secret: test-secret
storage:
  type: oss
stats:
  timezone: Asia/Shanghai
  goals:
    weekly_seconds: 1200
  leaderboard_cache_ttl_seconds: 5
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Stats.Goals.WeeklySeconds != 1200 || cfg.Stats.Goals.StreakDays != 30 {
		t.Fatalf("goals = %+v", cfg.Stats.Goals)
	}
	if cfg.Stats.Location().String() != "Asia/Shanghai" {
		t.Fatalf("location = %v", cfg.Stats.Location())
	}
	if cfg.Stats.CacheTTL() != 5*time.Second {
		t.Fatalf("ttl = %v", cfg.Stats.CacheTTL())
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"short secret in release", "server:\n  mode: release\njwt:\n  secret: short\n", "too short"},
		{"unknown driver", "database:\n  driver: oracle\n", "unsupported database driver"},
		{"bad timezone", "stats:\n  timezone: Mars/Olympus\n", "invalid stats.timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v want %q", err, tt.want)
			}
		})
	}
}
