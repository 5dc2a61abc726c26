package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studycollab_backend/internal/config"
	"studycollab_backend/internal/controller"
	"studycollab_backend/internal/repository"
	"studycollab_backend/internal/service"
	"studycollab_backend/internal/util"
	"studycollab_backend/pkg/configwatcher"
	"studycollab_backend/pkg/database"
	"studycollab_backend/pkg/logger"
	"studycollab_backend/pkg/monitoring"
	"studycollab_backend/pkg/security"
	"studycollab_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

// stores are the persistence ports; gorm repositories or one MemoryStore.
type stores struct {
	questions interface {
		service.QuestionSource
		repository.QuestionUpserter
	}
	results service.ResultStore
	bundles service.BundleStore
}

type services struct {
	tunables  *service.Tunables
	storage   *service.StorageService
	selection *service.SelectionService
	bundles   *service.BundleService
	sync      *service.SyncService
	results   *service.ResultService
	engines   *service.EngineRegistry
	network   service.NetworkStatus
	monitor   *service.NetworkMonitor
}

type controllers struct {
	session *controller.SessionController
	bundle  *controller.BundleController
	sync    *controller.SyncController
	result  *controller.ResultController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initStores(db *gorm.DB) *stores {
	if db == nil {
		mem := repository.NewMemoryStore()
		return &stores{questions: mem, results: mem, bundles: mem}
	}
	return &stores{
		questions: repository.NewQuestionRepository(db),
		results:   repository.NewResultRepository(db),
		bundles:   repository.NewBundleRepository(db),
	}
}

func (a *App) initServices(st *stores, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.tunables = service.NewTunables(cfg.Engine)
	s.storage = service.NewStorageService(cfg)

	var gate service.BuildGate = service.NewLocalBuildGate()
	if cfg.Engine.BuildLeaseBackend == util.LeaseRedis && rdb != nil {
		gate = service.NewRedisBuildGate(rdb)
	}

	fetcher := service.NewImageFetcher(&http.Client{}, s.storage, s.tunables)
	s.selection = service.NewSelectionService(st.questions, service.NewQuestionSelector(nil))
	s.bundles = service.NewBundleService(s.selection, fetcher, gate, st.bundles, s.tunables)

	if cfg.Database.Driver == util.DriverMemory && cfg.Network.ProbeURL == "" {
		static := service.NewStaticNetwork(!cfg.Network.ForceOffline)
		s.network = static
		a.RegisterConfigCallback(func(c *config.Config) { static.Set(!c.Network.ForceOffline) })
	} else {
		s.monitor = service.NewNetworkMonitor(cfg.Network)
		s.network = s.monitor
		a.RegisterConfigCallback(func(c *config.Config) { s.monitor.SetForceOffline(c.Network.ForceOffline) })
	}

	s.sync = service.NewSyncService(st.results, s.network)
	s.results = service.NewResultService(st.results)
	s.engines = service.NewEngineRegistry(service.EngineDeps{
		Selection: s.selection,
		Bundles:   s.bundles,
		Results:   st.results,
		Tunables:  s.tunables,
	})

	a.RegisterConfigCallback(func(c *config.Config) { s.tunables.Update(c.Engine) })
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		session: controller.NewSessionController(s.engines, s.selection),
		bundle:  controller.NewBundleController(s.bundles, s.engines),
		sync:    controller.NewSyncController(s.sync, s.results),
		result:  controller.NewResultController(s.results),
		health:  controller.NewHealthController(db, rdb, s.network),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the network probe and the config watcher until
// ctx is cancelled.
func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	if s.monitor != nil {
		go s.monitor.Run(ctx)
	}

	go func() {
		if err := configwatcher.WatchConfig(ctx, "configs/config.yaml", a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()
}

// seedQuestions loads the seed file, moves file:// images into storage and
// upserts the questions.
func seedQuestions(ctx context.Context, dst repository.QuestionUpserter, storage *service.StorageService, path string) error {
	qs, err := repository.LoadSeedFile(path)
	if err != nil {
		return err
	}
	images, err := storage.ImportImages(ctx, qs)
	if err != nil {
		return err
	}
	n, err := repository.SeedQuestions(ctx, dst, qs)
	if err != nil {
		return err
	}
	logger.Log.Info("Question pool seeded", zap.Int("count", n), zap.Int("images", images))
	return nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	app := &App{Config: cfg}

	if cfg.Database.Driver == util.DriverMySQL {
		migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug", migrate)
		if err != nil {
			logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		}
		app.DB = db
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Engine.BuildLeaseBackend == util.LeaseRedis {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		app.Redis = rdb
	}

	st := app.initStores(app.DB)
	app.services = app.initServices(st, cfg, app.Redis)

	if cfg.Database.SeedFile != "" {
		if err := seedQuestions(context.Background(), st.questions, app.services.storage, cfg.Database.SeedFile); err != nil {
			logger.Log.Fatal("Failed to seed questions", zap.String("file", cfg.Database.SeedFile), zap.Error(err))
		}
	}

	controllers := app.initControllers(app.services, app.DB, app.Redis)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("studycollab-assessment", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startBackgroundTasks(ctx, a.services)

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	cancel()
	a.services.engines.Shutdown()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx, a.tracer); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
