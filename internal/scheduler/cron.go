package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Daemon runs the coordinator on fixed intervals: scrape cycles on the
// configured cadence and a shorter follow-up poll in between.
type Daemon struct {
	coordinator   *Coordinator
	cycleEvery    time.Duration
	followUpEvery time.Duration
	logger        *slog.Logger
}

// NewDaemon creates a Daemon firing cycles every cycleEvery and polling
// follow-ups every followUpEvery.
func NewDaemon(coordinator *Coordinator, cycleEvery, followUpEvery time.Duration, logger *slog.Logger) *Daemon {
	return &Daemon{
		coordinator:   coordinator,
		cycleEvery:    cycleEvery,
		followUpEvery: followUpEvery,
		logger:        logger,
	}
}

// Run registers the cron entries, fires one immediate cycle so the
// registry is populated without waiting for the first tick, and blocks
// until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	c := cron.New()

	cycleSpec := fmt.Sprintf("@every %s", d.cycleEvery)
	if _, err := c.AddFunc(cycleSpec, func() {
		if err := d.coordinator.RunCycle(ctx); err != nil {
			d.logger.Error("scrape cycle failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("registering cycle cron: %w", err)
	}

	followSpec := fmt.Sprintf("@every %s", d.followUpEvery)
	if _, err := c.AddFunc(followSpec, func() {
		if err := d.coordinator.PollFollowUps(ctx); err != nil {
			d.logger.Error("follow-up poll failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("registering follow-up cron: %w", err)
	}

	c.Start()
	d.logger.Info("scheduler started",
		"cycle_every", d.cycleEvery.String(),
		"follow_up_every", d.followUpEvery.String(),
	)

	// Immediate first cycle.
	if err := d.coordinator.RunCycle(ctx); err != nil {
		d.logger.Error("initial scrape cycle failed", "error", err)
	}

	<-ctx.Done()
	d.logger.Info("shutting down scheduler")
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}
