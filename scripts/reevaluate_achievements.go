// 手动对所有账号重新评估徽章
//
// 会话结束时已自动评估，此脚本用于徽章表新增条目或批量导入历史会话之后补发。
// -dry-run 只打印将要解锁的徽章，不写数据库。
// -report 把结果写成 YAML，便于 dry-run 审阅后再正式执行。
//
// 用法: go run scripts/reevaluate_achievements.go [-config configs] [-dry-run] [-report report.yaml]

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"session_tracker_backend/internal/config"
	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/stats"
	"session_tracker_backend/pkg/database"
	"session_tracker_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type accountReport struct {
	UserID   uint             `yaml:"userId"`
	Unlocked []stats.BadgeKey `yaml:"unlocked"`
}

type report struct {
	GeneratedAt time.Time       `yaml:"generatedAt"`
	DryRun      bool            `yaml:"dryRun"`
	Accounts    int             `yaml:"accounts"`
	Unlocked    int             `yaml:"unlocked"`
	Failed      []uint          `yaml:"failed,omitempty"`
	Details     []accountReport `yaml:"details,omitempty"`
}

func main() {
	configDir := flag.String("config", "configs", "配置文件所在目录")
	dryRun := flag.Bool("dry-run", false, "只打印结果，不写入")
	reportFile := flag.String("report", "", "YAML 报告输出路径")
	flag.Parse()
	start := time.Now()

	// 与服务使用同一套加载逻辑，默认值和环境变量才会生效
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	rep, err := reevaluate(context.Background(), db, cfg.Stats.Location(), *dryRun)
	if err != nil {
		log.Fatalf("读取账号失败: %v", err)
	}
	for _, d := range rep.Details {
		for _, k := range d.Unlocked {
			log.Printf("user %d: %s", d.UserID, k)
		}
	}

	if *reportFile != "" {
		if err := writeReport(*reportFile, rep); err != nil {
			log.Fatalf("写入报告失败: %v", err)
		}
	}

	mode := "已写入"
	if *dryRun {
		mode = "dry-run，未写入"
	}
	log.Printf("完成！%d 个账号，新解锁 %d 个徽章（%s），失败 %d 个，耗时 %s",
		rep.Accounts, rep.Unlocked, mode, len(rep.Failed), time.Since(start))
}

// reevaluate 单个账号失败只记录日志并计入 Failed
func reevaluate(ctx context.Context, db *gorm.DB, loc *time.Location, dryRun bool) (*report, error) {
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	achievements := repository.NewAchievementRepository(db)

	ids, err := users.ListIDs()
	if err != nil {
		return nil, err
	}

	rep := &report{GeneratedAt: time.Now(), DryRun: dryRun, Accounts: len(ids)}
	for _, id := range ids {
		fresh, err := evaluateAccount(ctx, users, sessions, achievements, loc, id, dryRun)
		if err != nil {
			logger.Log.Error("evaluate failed", zap.Uint("userId", id), zap.Error(err))
			rep.Failed = append(rep.Failed, id)
			continue
		}
		if len(fresh) > 0 {
			rep.Details = append(rep.Details, accountReport{UserID: id, Unlocked: fresh})
			rep.Unlocked += len(fresh)
		}
	}
	return rep, nil
}

func evaluateAccount(
	ctx context.Context,
	users *repository.UserRepository,
	sessions *repository.SessionRepository,
	achievements *repository.AchievementRepository,
	loc *time.Location,
	userID uint,
	dryRun bool,
) ([]stats.BadgeKey, error) {
	var store stats.UnlockStore = achievements
	if dryRun {
		m, err := seededMemoryStore(ctx, achievements, userID)
		if err != nil {
			return nil, err
		}
		store = m
	}

	user, err := users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := sessions.ListClosedByUser(userID)
	if err != nil {
		return nil, err
	}
	return stats.NewEvaluator(store, loc).Evaluate(ctx, userID, model.ClosedSessions(rows), user.Counters())
}

// seededMemoryStore 以数据库中已有的解锁记录初始化内存存储
func seededMemoryStore(ctx context.Context, repo *repository.AchievementRepository, userID uint) (*stats.MemoryStore, error) {
	have, err := repo.UnlockedBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := stats.NewMemoryStore()
	for _, k := range have {
		m.InsertUnlockIfAbsent(ctx, stats.Unlock{OwnerID: userID, Badge: k})
	}
	return m, nil
}

func writeReport(path string, rep *report) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
