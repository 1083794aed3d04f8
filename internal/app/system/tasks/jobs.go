// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	analyticsstore "github.com/civicworks/civicconnect/internal/app/store/analytics"
	"go.uber.org/zap"
)

// DailyAnalyticsJob recomputes the daily analytics snapshot. It runs
// hourly so the current day's snapshot stays fresh; the upsert keyed by
// (date, period) makes re-runs harmless.
func DailyAnalyticsJob(store *analyticsstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:       "daily-analytics",
		Interval:   1 * time.Hour,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			snap, err := store.CalculateDaily(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			logger.Debug("daily analytics snapshot updated",
				zap.Time("date", snap.Date),
				zap.Int64("reports_total", snap.Metrics.Reports.Total))
			return nil
		},
	}
}
