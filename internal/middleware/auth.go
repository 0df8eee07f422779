package middleware

import (
	"strings"

	"session_tracker_backend/internal/config"
	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/util"
	"session_tracker_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConfigMiddleware 将当前配置放入上下文，热更新后新请求读到新配置
func ConfigMiddleware(current func() *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(util.ContextConfigKey, current())
		c.Next()
	}
}

// AuthMiddleware 校验身份提供方签发的令牌；websocket 握手无法带请求头，允许 token 查询参数
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		cfg := c.MustGet(util.ContextConfigKey).(*config.Config)
		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret, cfg.JWT.Issuer)
		if err != nil {
			logger.Log.Debug("JWT解析错误", zap.Error(err), zap.String("path", c.FullPath()))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.ContextClaimsKey, claims)
		c.Next()
	}
}

type AccountResolver interface {
	Resolve(claims *util.Claims) (*model.User, bool, error)
	Touch(userID uint, claims *util.Claims) error
}

// AccountMiddleware 将令牌主体映射到本地账号，首次访问时创建
func AccountMiddleware(resolver AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		user, created, err := resolver.Resolve(claims)
		if err != nil {
			util.LogInternalError(c, err)
			c.Abort()
			return
		}
		if created {
			logger.Log.Info("account created", zap.Uint("userId", user.ID), zap.String("externalId", user.ExternalID))
		} else {
			// 异步刷新活跃时间，不阻塞主流程
			go func(id uint) {
				if err := resolver.Touch(id, claims); err != nil {
					logger.Log.Warn("touch account failed", zap.Error(err), zap.Uint("userId", id))
				}
			}(user.ID)
		}

		c.Set(util.ContextAccountKey, user)
		c.Next()
	}
}
