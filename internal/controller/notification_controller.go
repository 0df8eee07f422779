package controller

import (
	"strconv"

	"session_tracker_backend/internal/service"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
	Hub                 *service.NotificationHub
}

func NewNotificationController(notificationService *service.NotificationService, hub *service.NotificationHub) *NotificationController {
	return &NotificationController{NotificationService: notificationService, Hub: hub}
}

// @Summary 通知列表
// @Tags 通知
// @Produce json
// @Security ApiKeyAuth
// @Param unread query bool false "只返回未读"
// @Param limit query int false "返回数量" default(50)
// @Success 200 {object} util.Response{data=service.NotificationList}
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	unreadOnly, _ := strconv.ParseBool(ctx.Query("unread"))
	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultNotificationPage, util.MaxSessionListLimit)

	list, err := c.NotificationService.List(user.ID, unreadOnly, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// @Summary 标记已读
// @Tags 通知
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "通知ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "通知不存在"
// @Router /api/notifications/{id}/read [patch]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "通知ID无效")
		return
	}
	if err := c.NotificationService.MarkRead(user.ID, id); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 全部标记已读
// @Tags 通知
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/notifications/read-all [post]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	n, err := c.NotificationService.MarkAllRead(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"updated": n})
}

// @Summary 通知推送
// @Description 建立 WebSocket 连接接收实时通知，令牌通过 token 查询参数传递
// @Tags 通知
// @Param token query string true "访问令牌"
// @Router /api/notifications/ws [get]
func (c *NotificationController) Stream(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, user.ID)
}
