// Package retention prunes old delivery records on a daily schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DeliveryPurger deletes delivery records older than the cutoff and
// reports how many rows were removed.
type DeliveryPurger interface {
	PurgeDeliveriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job periodically deletes delivery records older than the configured
// retention window.
type Job struct {
	store DeliveryPurger
	days  int
	log   *slog.Logger
	now   func() time.Time
	cron  *cron.Cron
}

// New creates a retention job keeping the last days of delivery history.
func New(store DeliveryPurger, days int, log *slog.Logger) *Job {
	return &Job{
		store: store,
		days:  days,
		log:   log,
		now:   time.Now,
		cron:  cron.New(),
	}
}

// Start schedules the daily purge. It runs once immediately so a
// long-stopped bot catches up on restart.
func (j *Job) Start(ctx context.Context) error {
	j.RunOnce(ctx)

	_, err := j.cron.AddFunc("@daily", func() { j.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("schedule retention job: %w", err)
	}
	j.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running purge to finish.
func (j *Job) Stop() {
	<-j.cron.Stop().Done()
}

// RunOnce purges everything older than the retention window.
func (j *Job) RunOnce(ctx context.Context) {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	n, err := j.store.PurgeDeliveriesBefore(ctx, cutoff)
	if err != nil {
		j.log.Error("delivery retention purge failed", "cutoff", cutoff, "error", err)
		return
	}
	if n > 0 {
		j.log.Info("purged old delivery records", "removed", n, "cutoff", cutoff)
	}
}
