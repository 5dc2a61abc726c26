package controller

import (
	"studycollab_backend/internal/service"
	"studycollab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResultController struct {
	Results *service.ResultService
}

func NewResultController(results *service.ResultService) *ResultController {
	return &ResultController{Results: results}
}

// @Summary 成绩记录
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.SessionResult}
// @Router /results [get]
func (c *ResultController) History(ctx *gin.Context) {
	results, err := c.Results.History(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// @Summary 各小组成绩汇总
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.GroupPerformance}
// @Router /results/performance [get]
func (c *ResultController) Performance(ctx *gin.Context) {
	perf, err := c.Results.GroupPerformance(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, perf)
}
