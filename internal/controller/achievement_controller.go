package controller

import (
	"session_tracker_backend/internal/service"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
}

func NewAchievementController(achievementService *service.AchievementService) *AchievementController {
	return &AchievementController{AchievementService: achievementService}
}

// @Summary 检查成就
// @Description 立即评估徽章条件，返回本次新解锁的徽章
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/check [post]
func (c *AchievementController) Check(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	unlocked, err := c.AchievementService.Check(ctx.Request.Context(), user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"unlocked": unlocked})
}

// @Summary 全部徽章
// @Description 返回所有徽章及当前用户的解锁状态
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.BadgeStatus}
// @Router /api/achievements [get]
func (c *AchievementController) List(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	badges, err := c.AchievementService.List(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, badges)
}

// @Summary 成就进度
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=stats.Progress}
// @Router /api/achievements/progress [get]
func (c *AchievementController) Progress(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	progress, err := c.AchievementService.Progress(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 最近解锁
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response{data=[]service.RecentUnlock}
// @Router /api/achievements/recent [get]
func (c *AchievementController) Recent(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultRecentLimit, util.MaxLeaderboardLimit)
	recent, err := c.AchievementService.Recent(user.ID, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, recent)
}
