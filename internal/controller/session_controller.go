package controller

import (
	"session_tracker_backend/internal/service"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// @Summary 开始会话
// @Description 以当前时间开始一个新会话，强度取值 1-10
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.StartSessionRequest true "会话参数"
// @Success 201 {object} util.Response{data=model.Session}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/sessions/start [post]
func (c *SessionController) Start(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.SessionService.Start(user.ID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// @Summary 结束会话
// @Description 结束进行中的会话，时长按整秒向下取整；重复结束返回 409
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "会话ID"
// @Param request body service.EndSessionRequest false "备注"
// @Success 200 {object} util.Response{data=model.Session}
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "会话已结束"
// @Router /api/sessions/{id}/end [post]
func (c *SessionController) End(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	var req service.EndSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	session, err := c.SessionService.End(ctx.Request.Context(), user.ID, ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// @Summary 会话列表
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(50)
// @Success 200 {object} util.Response{data=[]model.Session}
// @Router /api/sessions [get]
func (c *SessionController) List(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	limit := util.ParseLimit(ctx.Query("limit"), util.DefaultSessionListLimit, util.MaxSessionListLimit)
	sessions, err := c.SessionService.List(user.ID, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sessions)
}

// @Summary 进行中的会话
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Session}
// @Router /api/sessions/active [get]
func (c *SessionController) Active(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	sessions, err := c.SessionService.Active(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, sessions)
}
