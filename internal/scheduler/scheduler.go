// Package scheduler triggers ingestion on a cron schedule and once at startup.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/ingest"
)

// Ingester is the slice of ingest.Coordinator the scheduler drives.
type Ingester interface {
	RunIngestion(ctx context.Context, partitionKeys []string) (*ingest.Result, error)
	IngestSourcesSought(ctx context.Context, partitionKeys []string) (int, error)
}

// Expirer closes opportunities whose response deadline has passed.
type Expirer interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// Options configures a Scheduler.
type Options struct {
	// Spec is a standard five-field cron expression for the daily run.
	Spec                 string
	PartitionKeys        []string
	SourcesSoughtOnStart bool
}

// Scheduler wraps robfig/cron and owns the ingestion loop.
type Scheduler struct {
	cron     *cron.Cron
	ingester Ingester
	expirer  Expirer
	opts     Options
	now      func() time.Time
	log      *zap.Logger
}

// New creates a Scheduler. expirer may be nil.
func New(ingester Ingester, expirer Expirer, opts Options) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ingester: ingester,
		expirer:  expirer,
		opts:     opts,
		now:      time.Now,
		log:      zap.L().With(zap.String("component", "scheduler")),
	}
}

// Start registers the daily job and starts the cron loop. When configured it
// also runs one sources-sought ingestion immediately, without blocking.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.opts.Spec, func() { s.RunDaily(ctx) }); err != nil {
		return eris.Wrapf(err, "scheduler: add job %q", s.opts.Spec)
	}

	s.cron.Start()
	s.log.Info("cron started",
		zap.String("spec", s.opts.Spec),
		zap.Int("partitions", len(s.opts.PartitionKeys)),
	)

	if s.opts.SourcesSoughtOnStart {
		go s.RunSourcesSought(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("cron stopped")
	case <-ctx.Done():
		s.log.Warn("cron stop timed out with a job still running")
	}
}

// RunDaily runs solicitation ingestion followed by expiry of past-deadline
// opportunities. Expiry runs even when ingestion fails.
func (s *Scheduler) RunDaily(ctx context.Context) {
	s.log.Info("daily ingestion started")

	res, err := s.ingester.RunIngestion(ctx, s.opts.PartitionKeys)
	if err != nil {
		s.log.Error("daily ingestion failed", zap.Error(err))
	} else {
		s.log.Info("daily ingestion complete",
			zap.Int("new", res.NewCount),
			zap.Int("updated", res.UpdatedCount),
			zap.Int("failed_partitions", res.FailedPartitions),
			zap.Duration("duration", res.Duration),
		)
	}

	if s.expirer == nil {
		return
	}
	closed, err := s.expirer.CloseExpired(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("close expired opportunities failed", zap.Error(err))
		return
	}
	s.log.Info("closed expired opportunities", zap.Int("closed", closed))
}

// RunSourcesSought runs one sources-sought ingestion.
func (s *Scheduler) RunSourcesSought(ctx context.Context) {
	saved, err := s.ingester.IngestSourcesSought(ctx, s.opts.PartitionKeys)
	if err != nil {
		s.log.Error("sources-sought ingestion failed", zap.Error(err))
		return
	}
	s.log.Info("sources-sought ingestion complete", zap.Int("saved", saved))
}
