package cmd

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Park-MinJe/monthly-audit-report/internal/logger"
	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
)

func scheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run on REPORT_SCHEDULE (KST) until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			runner, err := newRunner(cfg, log)
			if err != nil {
				return err
			}
			return schedule(cmd.Context(), cfg.ReportSchedule, log, func(ctx context.Context) error {
				_, runErr := runner.Run(ctx)
				return runErr
			})
		},
	}
}

// schedule calls job on spec in KST until ctx is done. A run still in
// progress when the next tick fires causes that tick to be skipped.
func schedule(ctx context.Context, spec string, log logger.Logger, job func(context.Context) error) error {
	c := cron.New(
		cron.WithLocation(quarter.KST),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	entryID, err := c.AddFunc(spec, func() {
		log.Info("Scheduled run triggered", logger.String("schedule", spec))
		if jobErr := job(ctx); jobErr != nil {
			log.Error("Scheduled run failed", logger.Error(jobErr))
		}
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	c.Start()
	log.Info("Scheduler started",
		logger.String("schedule", spec),
		logger.Time("next_run", c.Entry(entryID).Next),
	)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	log.Info("Scheduler stopped")
	return nil
}
