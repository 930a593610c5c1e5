package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/pkg/cron"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts GET /health. cache and sched may be nil.
func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, cache Pinger, sched *cron.Scheduler, ai config.AIConfig) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		sqlDB, err := db.DB()
		dbOK := err == nil && sqlDB.PingContext(ctx) == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":   status,
			"database": dbOK,
			"ai": gin.H{
				"provider":   ai.Provider,
				"model":      ai.DefaultModel,
				"mock":       ai.UseMock(),
				"configured": ai.UseMock() || ai.HasAPIKey(),
			},
		}
		if cache != nil {
			// the limiter fails open, so a lost cache does not degrade the service
			body["redis"] = cache.Ping(ctx) == nil
		}
		if sched != nil {
			body["jobs"] = sched.List()
		}
		c.JSON(code, body)
	})
}
