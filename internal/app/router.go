package app

import (
	"session_tracker_backend/docs"
	"session_tracker_backend/internal/middleware"

	"session_tracker_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	router.Use(middleware.ConfigMiddleware(a.CurrentConfig))

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(), middleware.AccountMiddleware(s.user))
	{
		a.registerSessionRoutes(authGroup, c)
		a.registerStatsRoutes(authGroup, c)
		a.registerNotificationRoutes(authGroup, c)
		a.registerAccountRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}
}

func (a *App) registerSessionRoutes(r *gin.RouterGroup, c *controllers) {
	sessions := r.Group("/sessions")
	{
		sessions.GET("", c.session.List)
		sessions.GET("/active", c.session.Active)
		sessions.POST("/start", c.session.Start)
		sessions.POST("/:id/end", c.session.End)
	}
}

func (a *App) registerStatsRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/analytics", c.analytics.GetAnalytics)

	leaderboard := r.Group("/leaderboard")
	{
		leaderboard.GET("", c.leaderboard.GetLeaderboard)
		leaderboard.GET("/me", c.leaderboard.GetMyRank)
	}

	achievements := r.Group("/achievements")
	{
		achievements.GET("", c.achievement.List)
		achievements.POST("/check", c.achievement.Check)
		achievements.GET("/progress", c.achievement.Progress)
		achievements.GET("/recent", c.achievement.Recent)
	}
}

func (a *App) registerNotificationRoutes(r *gin.RouterGroup, c *controllers) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", c.notification.List)
		notifications.GET("/ws", c.notification.Stream)
		notifications.PATCH("/:id/read", c.notification.MarkRead)
		notifications.POST("/read-all", c.notification.MarkAllRead)
	}
}

func (a *App) registerAccountRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/profile", c.user.GetProfile)
	r.PUT("/profile", c.user.UpdateProfile)

	settings := r.Group("/settings")
	{
		settings.GET("", c.user.GetSettings)
		settings.PATCH("/notifications", c.user.UpdateNotificationSetting)
		settings.PATCH("/privacy", c.user.UpdatePrivacySetting)
	}

	account := r.Group("/account")
	{
		account.POST("/export", c.user.ExportAccount)
		account.DELETE("", c.user.DeleteAccount)
	}
}
