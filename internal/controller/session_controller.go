package controller

import (
	"net/http"

	"studycollab_backend/internal/model"
	"studycollab_backend/internal/service"
	"studycollab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Engines   *service.EngineRegistry
	Selection *service.SelectionService
}

func NewSessionController(engines *service.EngineRegistry, selection *service.SelectionService) *SessionController {
	return &SessionController{Engines: engines, Selection: selection}
}

type StartSessionRequest struct {
	Mode   model.SessionMode   `json:"mode" binding:"required,oneof=test study"`
	Config model.SessionConfig `json:"config"`
}

type AnswerRequest struct {
	QuestionID     string `json:"questionId" binding:"required"`
	OptionID       string `json:"optionId" binding:"required"`
	ElapsedSeconds *int   `json:"timeSpentSeconds" binding:"omitempty,min=0"`
}

type NavigateRequest struct {
	Index *int `json:"index" binding:"required"`
}

// SessionResponse is the active session plus the countdown of a timed test.
type SessionResponse struct {
	Session          model.Session `json:"session"`
	RemainingSeconds *int          `json:"remainingSeconds,omitempty"`
}

func sessionResponse(engine *service.AssessmentEngine, s model.Session) SessionResponse {
	resp := SessionResponse{Session: s}
	if left, ok := engine.Remaining(); ok {
		secs := service.CountdownSeconds(left)
		resp.RemainingSeconds = &secs
	}
	return resp
}

// @Summary 开始测验或学习会话
// @Description 按配置从小组题库抽题并开始会话；已有未完成会话会被丢弃
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body StartSessionRequest true "会话配置"
// @Success 201 {object} util.Response{data=SessionResponse}
// @Failure 422 {object} util.Response
// @Router /sessions [post]
func (c *SessionController) Start(ctx *gin.Context) {
	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	engine := c.Engines.For(util.GetUserID(ctx))
	s, err := engine.Start(ctx.Request.Context(), req.Config, req.Mode)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, sessionResponse(engine, s))
}

// @Summary 预览会话配置
// @Description 返回配置可抽取的题目数量和小组的全部标签
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body model.SessionConfig true "会话配置"
// @Success 200 {object} util.Response{data=service.ConfigPreview}
// @Router /sessions/preview [post]
func (c *SessionController) Preview(ctx *gin.Context) {
	var cfg model.SessionConfig
	if err := ctx.ShouldBindJSON(&cfg); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	preview, err := c.Selection.Preview(ctx.Request.Context(), cfg)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, preview)
}

// @Summary 获取当前会话
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=SessionResponse}
// @Failure 404 {object} util.Response
// @Router /sessions/current [get]
func (c *SessionController) Current(ctx *gin.Context) {
	engine := c.Engines.For(util.GetUserID(ctx))
	s, err := engine.Current()
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sessionResponse(engine, s))
}

// @Summary 作答
// @Description 学习模式下已作答的题目被锁定，重复作答不会改变状态
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AnswerRequest true "答案"
// @Success 200 {object} util.Response{data=SessionResponse}
// @Router /sessions/current/answers [post]
func (c *SessionController) Answer(ctx *gin.Context) {
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	engine := c.Engines.For(util.GetUserID(ctx))
	s, err := engine.RecordAnswer(req.QuestionID, req.OptionID, req.ElapsedSeconds)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sessionResponse(engine, s))
}

// @Summary 跳转题目
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body NavigateRequest true "目标题目下标（从0开始）"
// @Success 200 {object} util.Response{data=SessionResponse}
// @Router /sessions/current/navigate [post]
func (c *SessionController) Navigate(ctx *gin.Context) {
	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	engine := c.Engines.For(util.GetUserID(ctx))
	s, err := engine.Navigate(*req.Index)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sessionResponse(engine, s))
}

// @Summary 切换题目书签
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Param questionId path string true "题目ID"
// @Success 200 {object} util.Response{data=SessionResponse}
// @Router /sessions/current/bookmarks/{questionId} [post]
func (c *SessionController) ToggleBookmark(ctx *gin.Context) {
	engine := c.Engines.For(util.GetUserID(ctx))
	s, err := engine.ToggleBookmark(ctx.Param("questionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, sessionResponse(engine, s))
}

// @Summary 交卷
// @Description 只适用于测验模式；计时结束已自动交卷时返回该次成绩
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.SessionResult}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /sessions/current/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	engine := c.Engines.For(util.GetUserID(ctx))
	result, err := engine.Submit(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if result == nil {
		result = engine.LastResult()
	}
	if result == nil {
		util.HandleError(ctx, util.ErrNoActiveSession)
		return
	}
	util.Success(ctx, result)
}

// @Summary 结束学习会话
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /sessions/current/end [post]
func (c *SessionController) End(ctx *gin.Context) {
	if err := c.Engines.For(util.GetUserID(ctx)).End(); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"status": http.StatusText(http.StatusOK)})
}

// @Summary 会话倒计时推送
// @Description WebSocket；每个计时周期推送剩余时间，交卷后推送成绩并关闭。浏览器可用 ?token= 传递令牌
// @Tags 会话
// @Security ApiKeyAuth
// @Success 101 {object} service.WSMessage
// @Router /sessions/current/watch [get]
func (c *SessionController) Watch(ctx *gin.Context) {
	service.ServeCountdown(c.Engines.For(util.GetUserID(ctx)), ctx.Writer, ctx.Request)
}
