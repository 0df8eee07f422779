package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"session_tracker_backend/internal/config"
	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/stats"

	"gopkg.in/yaml.v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestConfigKeepsDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	body := fmt.Sprintf(`
database:
  driver: mysql
  host: 127.0.0.1
  dbname: session_tracker
storage:
  local_path: %q
`, filepath.Join(dir, "uploads"))
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_PASSWORD", "s3cret")

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	db := cfg.Database
	if !db.ParseTime || db.Charset != "utf8mb4" || db.SSLMode != "disable" || db.Password != "s3cret" {
		t.Fatalf("database = parseTime %v charset %q sslmode %q password %q", db.ParseTime, db.Charset, db.SSLMode, db.Password)
	}
}

func newScriptDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:script_%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, ext string, sessions int) uint {
	t.Helper()
	users := repository.NewUserRepository(db)
	u, _, err := users.FindOrCreate(&model.User{ExternalID: ext, Email: ext + "@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	var last time.Time
	for i := 0; i < sessions; i++ {
		start := time.Date(2026, 10, 14, 12, i, 0, 0, time.UTC)
		end := start.Add(time.Minute)
		d := int64(60)
		s := &model.Session{UserID: u.ID, StartTime: start, EndTime: &end, Duration: &d, Intensity: 5, Tags: []string{}}
		if err := repository.NewSessionRepository(db).Create(s); err != nil {
			t.Fatalf("create session: %v", err)
		}
		last = end
	}
	if sessions > 0 {
		c := stats.UserCounters{OwnerID: u.ID, TotalSessions: sessions, CurrentStreak: 1, LongestStreak: 1}
		if err := users.SaveCounters(c, last); err != nil {
			t.Fatalf("save counters: %v", err)
		}
	}
	return u.ID
}

func countUnlocks(db *gorm.DB) int64 {
	var n int64
	db.Model(&model.AchievementUnlock{}).Count(&n)
	return n
}

func TestReevaluate(t *testing.T) {
	db := newScriptDB(t)
	active := seedAccount(t, db, "active", 1)
	seedAccount(t, db, "idle", 0)
	ctx := context.Background()

	dry, err := reevaluate(ctx, db, time.UTC, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Accounts != 2 || len(dry.Details) != 1 || dry.Details[0].UserID != active {
		t.Fatalf("dry report = %+v", dry)
	}
	if !containsBadge(dry.Details[0].Unlocked, stats.BadgeFirstSession) {
		t.Fatalf("dry unlocked = %v want %s", dry.Details[0].Unlocked, stats.BadgeFirstSession)
	}
	if n := countUnlocks(db); n != 0 {
		t.Fatalf("dry run wrote %d unlocks", n)
	}

	run, err := reevaluate(ctx, db, time.UTC, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.Unlocked != dry.Unlocked || countUnlocks(db) != int64(run.Unlocked) {
		t.Fatalf("run unlocked = %d stored = %d want %d", run.Unlocked, countUnlocks(db), dry.Unlocked)
	}

	again, err := reevaluate(ctx, db, time.UTC, true)
	if err != nil || again.Unlocked != 0 {
		t.Fatalf("second dry run = %+v, %v want nothing new", again, err)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	rep := &report{DryRun: true, Accounts: 3, Unlocked: 1, Details: []accountReport{{UserID: 2, Unlocked: []stats.BadgeKey{stats.BadgeFirstSession}}}}
	if err := writeReport(path, rep); err != nil {
		t.Fatalf("writeReport: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		DryRun  bool `yaml:"dryRun"`
		Details []struct {
			UserID   uint     `yaml:"userId"`
			Unlocked []string `yaml:"unlocked"`
		} `yaml:"details"`
	}
	if err := yaml.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.DryRun || len(got.Details) != 1 || got.Details[0].UserID != 2 || got.Details[0].Unlocked[0] != string(stats.BadgeFirstSession) {
		t.Fatalf("report = %s", raw)
	}
}

func containsBadge(keys []stats.BadgeKey, want stats.BadgeKey) bool {
	for _, k := range keys {
		if k == want {
			return true
		}
	}
	return false
}
