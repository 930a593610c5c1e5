package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tenx-cards/core/internal/middleware"
	"github.com/tenx-cards/core/internal/modules/errorlog"
	"github.com/tenx-cards/core/internal/modules/flashcardset"
	"github.com/tenx-cards/core/internal/modules/generation"
	"github.com/tenx-cards/core/internal/modules/health"
	"github.com/tenx-cards/core/internal/pkg/response"
)

const apiPrefix = "/api"

func (a *App) registerRoutes() *errorlog.Service {
	r := a.router
	db := a.db
	log := a.logger

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "")
	})
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method Not Allowed", nil)
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	api := r.Group(apiPrefix)
	api.Use(middleware.Identity(""))

	var cache health.Pinger
	if a.redis != nil {
		cache = a.redis
	}
	health.RegisterRoutes(api, db, cache, a.sched, a.cfg.AI)

	errlogSvc := errorlog.NewService(db, log.Named("errorlog"), a.metrics)
	errorlog.NewHandler(errlogSvc).RegisterRoutes(api)

	genSvc := generation.NewService(a.gen, a.cfg.AI.DefaultModel, a.cfg.GenerationTimeout(), a.metrics, log.Named("generation"))
	limitMW := middleware.RateLimit(a.limiter(), rateLimitWindow, a.metrics, log)
	generation.NewHandler(genSvc, errlogSvc).RegisterRoutes(api, limitMW)

	setSvc := flashcardset.NewService(db, log.Named("flashcardset"), a.metrics)
	flashcardset.NewHandler(setSvc).RegisterRoutes(api)

	return errlogSvc
}
