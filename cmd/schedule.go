package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/monitoring"
	"github.com/sells-group/govcon-cli/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run daily ingestion on schedule.ingest_cron until interrupted",
	Long:  "Runs solicitation ingestion on the configured cron, a sources-sought pass at startup, and periodic ingestion health checks.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "schedule")
		if err != nil {
			return err
		}
		defer env.Close()

		sched, err := startScheduler(ctx, env)
		if err != nil {
			return err
		}

		<-ctx.Done()
		zap.L().Info("shutting down scheduler")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		sched.Stop(shutdownCtx)
		return nil
	},
}

// startScheduler starts the ingestion cron and the background health checker.
// Both stop when ctx is cancelled; callers still call Stop on the scheduler.
func startScheduler(ctx context.Context, env *appEnv) (*scheduler.Scheduler, error) {
	sched := scheduler.New(env.Coordinator, env.Store, scheduler.Options{
		Spec:                 cfg.Schedule.IngestCron,
		PartitionKeys:        cfg.Ingest.NAICSCodes,
		SourcesSoughtOnStart: cfg.Schedule.RunSourcesSoughtOnStart,
	})
	if err := sched.Start(ctx); err != nil {
		return nil, err
	}

	checker := monitoring.NewChecker(monitoring.NewCollector(env.Store), env.Health, cfg.Monitoring)
	go checker.Run(ctx)

	return sched, nil
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
