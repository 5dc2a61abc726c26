package controller

import (
	"net/http"

	"studycollab_backend/internal/service"
	"studycollab_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// HealthController reports dependency status. DB and Redis are nil when the
// service runs without them.
type HealthController struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Network service.NetworkStatus
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, network service.NetworkStatus) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Network: network}
}

// @Summary 健康检查
// @Description 检查服务状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			util.InternalServerError(ctx)
			return
		}
		if err := sqlDB.PingContext(ctx.Request.Context()); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		components["database"] = "up"
	} else {
		components["database"] = "memory"
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			components["redis"] = "down"
		} else {
			components["redis"] = "up"
		}
	}

	network := "offline"
	if c.Network != nil && c.Network.IsOnline(ctx.Request.Context()) {
		network = "online"
	}
	components["network"] = network

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
