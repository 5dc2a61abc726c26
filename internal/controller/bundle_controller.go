package controller

import (
	"studycollab_backend/internal/model"
	"studycollab_backend/internal/service"
	"studycollab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BundleController struct {
	Bundles *service.BundleService
	Engines *service.EngineRegistry
}

func NewBundleController(bundles *service.BundleService, engines *service.EngineRegistry) *BundleController {
	return &BundleController{Bundles: bundles, Engines: engines}
}

type BuildBundleRequest struct {
	Config    model.SessionConfig `json:"config"`
	GroupName string              `json:"groupName" binding:"required"`
}

type BundleSessionRequest struct {
	Mode model.SessionMode `json:"mode" binding:"required,oneof=test study"`
}

// @Summary 下载离线题包
// @Description 抽题并内联题目图片；同一用户同时只能构建一个题包
// @Tags 离线题包
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body BuildBundleRequest true "题包配置"
// @Success 201 {object} util.Response{data=model.OfflineBundle}
// @Failure 409 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /bundles [post]
func (c *BundleController) Build(ctx *gin.Context) {
	var req BuildBundleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	bundle, err := c.Bundles.Build(ctx.Request.Context(), util.GetUserID(ctx), req.Config, req.GroupName)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, bundle)
}

// @Summary 离线题包列表
// @Tags 离线题包
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.OfflineBundle}
// @Router /bundles [get]
func (c *BundleController) List(ctx *gin.Context) {
	bundles, err := c.Bundles.List(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, bundles)
}

// @Summary 离线题包详情
// @Tags 离线题包
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题包ID"
// @Success 200 {object} util.Response{data=model.OfflineBundle}
// @Failure 404 {object} util.Response
// @Router /bundles/{id} [get]
func (c *BundleController) Get(ctx *gin.Context) {
	bundle, err := c.Bundles.Get(ctx.Request.Context(), util.GetUserID(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, bundle)
}

// @Summary 删除离线题包
// @Tags 离线题包
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题包ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /bundles/{id} [delete]
func (c *BundleController) Delete(ctx *gin.Context) {
	if err := c.Bundles.Delete(ctx.Request.Context(), util.GetUserID(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": ctx.Param("id")})
}

// @Summary 用离线题包开始会话
// @Tags 离线题包
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "题包ID"
// @Param body body BundleSessionRequest true "会话模式"
// @Success 201 {object} util.Response{data=SessionResponse}
// @Failure 404 {object} util.Response
// @Router /bundles/{id}/sessions [post]
func (c *BundleController) StartSession(ctx *gin.Context) {
	var req BundleSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	engine := c.Engines.For(util.GetUserID(ctx))
	s, err := engine.StartFromBundle(ctx.Request.Context(), ctx.Param("id"), req.Mode)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, sessionResponse(engine, s))
}
