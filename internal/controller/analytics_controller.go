package controller

import (
	"session_tracker_backend/internal/service"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 个人统计
// @Description 最近 7 天概览、每日柱状数据、时长分布与目标进度
// @Tags 统计
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=stats.Analytics}
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/analytics [get]
func (c *AnalyticsController) GetAnalytics(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	result, err := c.AnalyticsService.GetAnalytics(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
