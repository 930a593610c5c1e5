package app

import (
	"context"
	"time"

	"github.com/tenx-cards/core/internal/config"
	"github.com/tenx-cards/core/internal/modules/errorlog"
	pkgcron "github.com/tenx-cards/core/internal/pkg/cron"
)

const pruneInterval = 24 * time.Hour

// registerCronJobs registers the maintenance jobs enabled in cfg.
func registerCronJobs(sched *pkgcron.Scheduler, cfg *config.AppConfig, errlog *errorlog.Service) {
	if retention := cfg.ErrorLogRetention(); retention > 0 {
		sched.Register(pkgcron.Job{
			Name:        "prune_error_logs",
			Description: "Delete generation error logs past the retention period",
			Interval:    pruneInterval,
			Fn: func(ctx context.Context) error {
				_, err := errlog.Prune(ctx, time.Now().Add(-retention))
				return err
			},
		})
	}
}
