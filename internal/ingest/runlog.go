package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/source"
)

// startRun records the beginning of a call. A failure to record is logged
// and never fails ingestion.
func (c *Coordinator) startRun(ctx context.Context, mode source.Mode, partitions int) *model.IngestRun {
	if c.opts.RunLog == nil {
		return nil
	}
	run, err := c.opts.RunLog.CreateIngestRun(ctx, string(mode), c.src.Name(), partitions)
	if err != nil {
		c.log.Warn("failed to record ingest run start", zap.Error(err))
		return nil
	}
	return run
}

func (c *Coordinator) finishRun(ctx context.Context, run *model.IngestRun, res *Result, runErr error) {
	if run == nil {
		return
	}
	run.Status = model.IngestComplete
	if runErr != nil {
		run.Status = model.IngestFailed
		run.Error = runErr.Error()
	}
	run.FailedPartitions = res.FailedPartitions
	run.NewCount = res.NewCount
	run.UpdatedCount = res.UpdatedCount
	run.SkippedCount = res.Skipped + res.Failed

	// The run context may already be cancelled; the record is still worth writing.
	if err := c.opts.RunLog.CompleteIngestRun(context.WithoutCancel(ctx), run); err != nil {
		c.log.Warn("failed to record ingest run completion",
			zap.String("run_id", run.ID),
			zap.Error(err),
		)
	}
}
