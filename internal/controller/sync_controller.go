package controller

import (
	"studycollab_backend/internal/service"
	"studycollab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	Sync    *service.SyncService
	Results *service.ResultService
}

func NewSyncController(sync *service.SyncService, results *service.ResultService) *SyncController {
	return &SyncController{Sync: sync, Results: results}
}

// @Summary 同步离线成绩
// @Description 把离线完成的测验并入成绩记录；离线时返回503且不做任何修改
// @Tags 同步
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /sync [post]
func (c *SyncController) Reconcile(ctx *gin.Context) {
	n, err := c.Sync.Reconcile(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"reconciled": n})
}

// @Summary 待同步的离线成绩
// @Tags 同步
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.PendingSyncResult}
// @Router /sync/pending [get]
func (c *SyncController) Pending(ctx *gin.Context) {
	pending, err := c.Results.Pending(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, pending)
}
