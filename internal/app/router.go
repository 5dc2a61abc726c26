package app

import (
	"time"

	"studycollab_backend/docs"
	"studycollab_backend/internal/config"
	"studycollab_backend/internal/middleware"
	"studycollab_backend/pkg/monitoring"
	"studycollab_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由，按用户限流
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret), security.RateLimiter(cfg.RateLimit.MaxRequests, window))
	{
		a.registerSessionRoutes(authGroup, c)
		a.registerBundleRoutes(authGroup, c)
		a.registerSyncRoutes(authGroup, c)
	}
}

func (a *App) registerSessionRoutes(r *gin.RouterGroup, c *controllers) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", c.session.Start)
		sessions.POST("/preview", c.session.Preview)
		sessions.GET("/current", c.session.Current)
		sessions.GET("/current/watch", c.session.Watch)
		sessions.POST("/current/answers", c.session.Answer)
		sessions.POST("/current/navigate", c.session.Navigate)
		sessions.POST("/current/bookmarks/:questionId", c.session.ToggleBookmark)
		sessions.POST("/current/submit", c.session.Submit)
		sessions.POST("/current/end", c.session.End)
	}
}

func (a *App) registerBundleRoutes(r *gin.RouterGroup, c *controllers) {
	bundles := r.Group("/bundles")
	{
		bundles.POST("", c.bundle.Build)
		bundles.GET("", c.bundle.List)
		bundles.GET("/:id", c.bundle.Get)
		bundles.DELETE("/:id", c.bundle.Delete)
		bundles.POST("/:id/sessions", c.bundle.StartSession)
	}
}

func (a *App) registerSyncRoutes(r *gin.RouterGroup, c *controllers) {
	r.POST("/sync", c.sync.Reconcile)
	r.GET("/sync/pending", c.sync.Pending)

	results := r.Group("/results")
	{
		results.GET("", c.result.History)
		results.GET("/performance", c.result.Performance)
	}
}
