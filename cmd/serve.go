package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/scheduler"
	"github.com/sells-group/govcon-cli/internal/scorer"
	"github.com/sells-group/govcon-cli/internal/server"
)

var (
	servePort          int
	serveWithScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode := "serve"
		if serveWithScheduler {
			if err := cfg.Validate("serve"); err != nil {
				return err
			}
			mode = "schedule"
		}
		env, err := initEnv(ctx, mode)
		if err != nil {
			return err
		}
		defer env.Close()

		// Batches outlive the request that queued them but not the process.
		queue := scorer.NewQueue(ctx, env.Scorer, cfg.Scoring.Workers, cfg.Scoring.QueueSize)
		defer queue.Close()

		var sched *scheduler.Scheduler
		if serveWithScheduler {
			if sched, err = startScheduler(ctx, env); err != nil {
				return err
			}
		}

		handler := server.New(server.Deps{
			Ingest:         env.Coordinator,
			Scorer:         env.Scorer,
			Queue:          queue,
			Alerts:         env.Alerts,
			Evaluator:      env.Evaluator,
			Store:          env.Store,
			PartitionKeys:  cfg.Ingest.NAICSCodes,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
			if sched != nil {
				sched.Stop(shutdownCtx)
			}
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveWithScheduler, "with-scheduler", false, "also run the ingestion cron in this process")
	rootCmd.AddCommand(serveCmd)
}
