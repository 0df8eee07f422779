package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"session_tracker_backend/internal/config"
	"session_tracker_backend/internal/controller"
	"session_tracker_backend/internal/repository"
	"session_tracker_backend/internal/service"
	"session_tracker_backend/internal/util"
	"session_tracker_backend/pkg/configwatcher"
	"session_tracker_backend/pkg/database"
	"session_tracker_backend/pkg/logger"
	"session_tracker_backend/pkg/monitoring"
	"session_tracker_backend/pkg/security"
	"session_tracker_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	current         atomic.Pointer[config.Config]
	configCallbacks []func(*config.Config)
	cancel          context.CancelFunc
}

type repositories struct {
	user         *repository.UserRepository
	session      *repository.SessionRepository
	achievement  *repository.AchievementRepository
	notification *repository.NotificationRepository
	settings     *repository.SettingsRepository
	leaderboard  *repository.LeaderboardCache
}

type services struct {
	stats        *service.StatsSettings
	storage      *service.StorageService
	hub          *service.NotificationHub
	session      *service.SessionService
	analytics    *service.AnalyticsService
	leaderboard  *service.LeaderboardService
	achievement  *service.AchievementService
	notification *service.NotificationService
	user         *service.UserService
}

type controllers struct {
	session      *controller.SessionController
	analytics    *controller.AnalyticsController
	leaderboard  *controller.LeaderboardController
	achievement  *controller.AchievementController
	notification *controller.NotificationController
	user         *controller.UserController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// CurrentConfig 热更新后返回最新配置
func (a *App) CurrentConfig() *config.Config {
	return a.current.Load()
}

func (a *App) reload(cfg *config.Config) {
	// 命令行标志不来自配置文件，沿用启动时的值
	cfg.ForceMigrate = a.Config.ForceMigrate
	cfg.MigrateOnly = a.Config.MigrateOnly
	a.current.Store(cfg)
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		session:      repository.NewSessionRepository(db),
		achievement:  repository.NewAchievementRepository(db),
		notification: repository.NewNotificationRepository(db),
		settings:     repository.NewSettingsRepository(db),
		leaderboard:  repository.NewLeaderboardCache(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.stats = service.NewStatsSettings(cfg.Stats)
	a.RegisterConfigCallback(func(c *config.Config) {
		s.stats.Apply(c.Stats)
		logger.Log.Info("Stats settings reloaded", zap.String("timezone", c.Stats.Timezone))
	})

	s.storage = service.NewStorageService(&cfg.Storage)
	s.hub = service.NewNotificationHub(rdb)
	go s.hub.Run()

	s.leaderboard = service.NewLeaderboardService(repos.session, repos.user, repos.settings, repos.leaderboard, s.stats)
	s.achievement = service.NewAchievementService(repos.achievement, repos.session, repos.user, repos.settings, repos.notification, s.hub, s.stats)
	s.session = service.NewSessionService(db, repos.session, repos.user, s.achievement, s.leaderboard, s.stats)
	s.analytics = service.NewAnalyticsService(repos.user, repos.session, s.stats)
	s.notification = service.NewNotificationService(repos.notification)
	s.user = service.NewUserService(db, repos.user, repos.session, repos.achievement, repos.notification, repos.settings, s.storage, s.leaderboard)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		session:      controller.NewSessionController(s.session),
		analytics:    controller.NewAnalyticsController(s.analytics),
		leaderboard:  controller.NewLeaderboardController(s.leaderboard),
		achievement:  controller.NewAchievementController(s.achievement),
		notification: controller.NewNotificationController(s.notification, s.hub),
		user:         controller.NewUserController(s.user),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window, security.ClientIP))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时清零过期的连续天数
func (a *App) startBackgroundTasks(ctx context.Context, s *services, cfg *config.Config) {
	interval := time.Duration(cfg.Stats.StreakResetMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.session.ResetExpiredStreaks(); err != nil {
					logger.Log.Error("streak reset error", zap.Error(err))
				}
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式默认不迁移，需显式 -migrate
	if cfg.ForceMigrate || cfg.Server.Mode == "debug" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	app.current.Store(cfg)
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	app.RegisterConfigCallback(func(c *config.Config) {
		logger.SetMode(c.Server.Mode)
	})

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx, services, cfg)

	return app
}

// Watch 配置文件变更时触发已注册的回调
func (a *App) Watch(configFile string) {
	ctx, cancel := context.WithCancel(context.Background())
	prev := a.cancel
	a.cancel = func() {
		cancel()
		if prev != nil {
			prev()
		}
	}
	if err := configwatcher.Watch(ctx, configFile, a.reload); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err), zap.String("file", configFile))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.cancel != nil {
		a.cancel()
	}

	// 清理 WebSocket连接和Redis在线状态
	if a.services != nil && a.services.hub != nil {
		a.services.hub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
}
