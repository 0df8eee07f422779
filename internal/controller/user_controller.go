package controller

import (
	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/service"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 个人资料、偏好设置与账号数据
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetProfile godoc
// @Summary 获取个人资料
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User}
// @Router /api/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	profile, err := c.UserService.GetProfile(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// UpdateProfile godoc
// @Summary 更新个人资料
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.UpdateProfileRequest true "资料"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 400 {object} util.Response "参数错误"
// @Router /api/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	profile, err := c.UserService.UpdateProfile(user.ID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// GetSettings godoc
// @Summary 获取偏好设置
// @Description 未保存过时返回默认设置
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.UserSettings}
// @Router /api/settings [get]
func (c *UserController) GetSettings(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	settings, err := c.UserService.GetSettings(user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// UpdateNotificationSetting godoc
// @Summary 更新通知设置
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.SettingToggleRequest true "设置项"
// @Success 200 {object} util.Response{data=model.UserSettings}
// @Failure 400 {object} util.Response "未知设置项"
// @Router /api/settings/notifications [patch]
func (c *UserController) UpdateNotificationSetting(ctx *gin.Context) {
	c.updateSetting(ctx, c.UserService.UpdateNotificationSetting)
}

// UpdatePrivacySetting godoc
// @Summary 更新隐私设置
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body service.SettingToggleRequest true "设置项"
// @Success 200 {object} util.Response{data=model.UserSettings}
// @Failure 400 {object} util.Response "未知设置项"
// @Router /api/settings/privacy [patch]
func (c *UserController) UpdatePrivacySetting(ctx *gin.Context) {
	c.updateSetting(ctx, c.UserService.UpdatePrivacySetting)
}

func (c *UserController) updateSetting(ctx *gin.Context, update func(uint, service.SettingToggleRequest) (*model.UserSettings, error)) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	var req service.SettingToggleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	settings, err := update(user.ID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// ExportAccount godoc
// @Summary 导出账号数据
// @Description 生成包含会话、成就、通知与设置的 JSON 文件并返回下载地址
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/account/export [post]
func (c *UserController) ExportAccount(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	url, err := c.UserService.Export(ctx.Request.Context(), user.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// DeleteAccount godoc
// @Summary 注销账号
// @Description 删除账号及其全部会话、成就、通知与设置
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/account [delete]
func (c *UserController) DeleteAccount(ctx *gin.Context) {
	user, ok := currentAccount(ctx)
	if !ok {
		return
	}
	if err := c.UserService.DeleteAccount(ctx.Request.Context(), user.ID); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
