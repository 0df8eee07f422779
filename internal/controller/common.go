package controller

import (
	"errors"
	"net/http"

	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// currentAccount 未经过 AccountMiddleware 时直接返回 401
func currentAccount(ctx *gin.Context) (*model.User, bool) {
	user := util.GetAccountFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	return user, true
}

// respondError 将服务层错误映射为 HTTP 状态码
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrNotificationNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrSessionClosed):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidPeriod),
		errors.Is(err, util.ErrInvalidIntensity),
		errors.Is(err, util.ErrInvalidMood),
		errors.Is(err, util.ErrUnknownSetting):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
