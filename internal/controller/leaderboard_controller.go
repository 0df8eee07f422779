package controller

import (
	"session_tracker_backend/internal/service"
	"session_tracker_backend/internal/stats"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// period 缺省为 weekly，非法值返回 400
func parsePeriod(ctx *gin.Context) (stats.Period, bool) {
	p, err := stats.ParsePeriod(ctx.DefaultQuery("period", string(stats.PeriodWeekly)))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return "", false
	}
	return p, true
}

// @Summary 排行榜
// @Description 按周期内总时长降序排名，匿名用户显示为 Anonymous
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param period query string false "daily | weekly | monthly" default(weekly)
// @Param limit query int false "返回数量" default(20)
// @Success 200 {object} util.Response{data=[]service.LeaderboardRow}
// @Failure 400 {object} util.Response "周期参数错误"
// @Router /api/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	p, ok := parsePeriod(ctx)
	if !ok {
		return
	}
	limit := util.ParseLimit(ctx.Query("limit"), 0, util.MaxLeaderboardLimit)

	rows, err := c.LeaderboardService.Leaderboard(ctx.Request.Context(), p, limit, user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, rows)
}

// @Summary 我的排名
// @Tags 排行榜
// @Produce json
// @Security ApiKeyAuth
// @Param period query string false "daily | weekly | monthly" default(weekly)
// @Success 200 {object} util.Response{data=stats.RankResult}
// @Failure 400 {object} util.Response "周期参数错误"
// @Router /api/leaderboard/me [get]
func (c *LeaderboardController) GetMyRank(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	p, ok := parsePeriod(ctx)
	if !ok {
		return
	}
	result, err := c.LeaderboardService.MyRank(ctx.Request.Context(), user.ID, p)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
