package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice_exam_backend/internal/config"
	"practice_exam_backend/internal/controller"
	"practice_exam_backend/internal/middleware"
	"practice_exam_backend/internal/repository"
	"practice_exam_backend/internal/service"
	"practice_exam_backend/pkg/configwatcher"
	"practice_exam_backend/pkg/database"
	"practice_exam_backend/pkg/logger"
	"practice_exam_backend/pkg/monitoring"
	"practice_exam_backend/pkg/security"
	"practice_exam_backend/pkg/tablestore"
	"practice_exam_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

type App struct {
	Config *config.Config
	Router *gin.Engine
	Store  tablestore.Store

	// ConfigFile is watched for changes when server.watch_config is set.
	ConfigFile string

	db              *gorm.DB
	redis           *redis.Client
	tracer          *sdktrace.TracerProvider
	limiter         *security.RateLimiter
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	question *repository.QuestionRepository
	session  *repository.SessionRepository
}

type services struct {
	question *service.QuestionService
	exam     *service.ExamSessionService
}

type controllers struct {
	question *controller.QuestionController
	exam     *controller.ExamController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(store tablestore.Store) *repositories {
	return &repositories{
		question: repository.NewQuestionRepository(store),
		session:  repository.NewSessionRepository(store),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{
		question: service.NewQuestionService(repos.question, cfg.Exam.MaxQuestionCount),
		exam:     service.NewExamSessionService(repos.question, repos.session, cfg.Exam),
	}

	a.RegisterConfigCallback(func(newCfg *config.Config) {
		if newCfg.Exam.DefaultQuestionCount != s.exam.DefaultQuestionCount() {
			logger.Log.Info("Default question count changed",
				zap.Int("from", s.exam.DefaultQuestionCount()),
				zap.Int("to", newCfg.Exam.DefaultQuestionCount))
			s.exam.SetDefaultQuestionCount(newCfg.Exam.DefaultQuestionCount)
		}
	})
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		question: controller.NewQuestionController(s.question),
		exam:     controller.NewExamController(s.exam),
		health:   controller.NewHealthController(a.Store, tracing.ServiceName, Version),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	if cfg.RateLimit.MaxRequests > 0 && cfg.RateLimit.WindowMinutes > 0 {
		a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
		router.Use(a.limiter.Middleware())
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// openStore connects the table store backend named by storage.driver.
func (a *App) openStore(cfg *config.Config) (tablestore.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Log.Warn("Using in-memory table store, data is lost on restart")
		return tablestore.NewMemoryStore(), nil

	case config.StorageMySQL, config.StoragePostgres:
		db, err := database.InitDB(cfg.Storage.Driver, &cfg.Database, cfg.Server.Mode == gin.DebugMode)
		if err != nil {
			return nil, err
		}
		a.db = db
		return tablestore.NewGormStore(db)

	case config.StorageRedis:
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		return tablestore.NewRedisStore(rdb), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// New wires the HTTP stack on top of an already opened store.
func New(cfg *config.Config, store tablestore.Store) *App {
	gin.SetMode(cfg.Server.Mode)
	monitoring.Init()

	app := &App{
		Config: cfg,
		Store:  tablestore.Instrument(store),
	}

	repos := app.initRepositories(app.Store)
	app.services = app.initServices(repos, cfg)
	ctrls := app.initControllers(app.services)

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls)

	return app
}

// NewApp initializes logging, tracing and storage from cfg and builds the app.
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	bootstrap := &App{Config: cfg}
	store, err := bootstrap.openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s table store: %w", cfg.Storage.Driver, err)
	}

	app := New(cfg, store)
	app.db = bootstrap.db
	app.redis = bootstrap.redis

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		app.tracer = tp
	}

	logger.Log.Info("Application initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("tracing", cfg.Tracing.Enabled))
	return app, nil
}

func (a *App) watchConfig(ctx context.Context) {
	if !a.Config.Server.WatchConfig || a.ConfigFile == "" {
		return
	}
	if _, err := os.Stat(a.ConfigFile); err != nil {
		logger.Log.Warn("Config file not found, hot reload disabled", zap.String("file", a.ConfigFile))
		return
	}
	w, err := configwatcher.New(a.ConfigFile)
	if err != nil {
		logger.Log.Error("Config hot reload disabled", zap.Error(err))
		return
	}
	go w.Run(ctx, a.applyConfig)
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	a.watchConfig(ctx)

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}

// Close releases the store connections, tracer and rate limiter.
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
