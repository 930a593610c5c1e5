package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/database"
	"github.com/tenx-cards/core/internal/middleware"
	"github.com/tenx-cards/core/internal/modules/generation"
	pkgcron "github.com/tenx-cards/core/internal/pkg/cron"
	"github.com/tenx-cards/core/internal/pkg/metrics"
	pkgredis "github.com/tenx-cards/core/internal/pkg/redis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const rateLimitWindow = time.Minute

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	db       *gorm.DB
	redis    *pkgredis.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	gen      generation.Generator
	sched    *pkgcron.Scheduler
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// Option replaces a dependency New would otherwise build from cfg.
type Option func(*App)

// WithDB uses db instead of connecting to cfg.DSN. Migrations still run.
func WithDB(db *gorm.DB) Option {
	return func(a *App) { a.db = db }
}

// WithGenerator uses gen instead of the provider selected in cfg.
func WithGenerator(gen generation.Generator) Option {
	return func(a *App) { a.gen = gen }
}

// New initializes the application: DB → Redis → metrics → routes → jobs.
func New(logger *zap.Logger, cfg *config.AppConfig, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	if a.db == nil {
		db, err := database.Connect(cfg, false)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.db = db
	}
	if err := database.Migrate(a.db); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	if cfg.Redis.Enable {
		rc, err := pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(a.registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	a.metrics = m

	if a.gen == nil {
		if !cfg.AI.UseMock() && !cfg.AI.HasAPIKey() {
			logger.Warn("no API key configured for AI provider, generation requests will fail",
				zap.String("provider", cfg.AI.Provider))
		}
		a.gen = generation.NewGenerator(cfg.AI, nil)
	}
	logger.Info("generation provider selected",
		zap.String("provider", a.gen.Name()),
		zap.String("default_model", cfg.AI.DefaultModel),
		zap.Duration("timeout", cfg.GenerationTimeout()),
	)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger, a.metrics))
	router.Use(cors.New(corsConfig(cfg)))
	a.router = router

	a.sched = pkgcron.New(logger.Named("cron"))
	errlog := a.registerRoutes()
	registerCronJobs(a.sched, cfg, errlog)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.sched.Start(ctx)

	return a, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background jobs and closes connections.
func (a *App) Shutdown() {
	a.cancel()
	a.sched.Wait()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
}

func (a *App) limiter() middleware.Limiter {
	perMinute := a.cfg.RateLimit.GeneratePerMinute
	if perMinute <= 0 {
		return nil
	}
	if a.redis != nil {
		return middleware.NewRedisLimiter(a.redis, perMinute, rateLimitWindow)
	}
	return middleware.NewMemoryLimiter(perMinute, rateLimitWindow)
}
