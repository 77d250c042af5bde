package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/govcon-cli/internal/model"
)

// recentRunLimit bounds how many runs a single collection reads.
const recentRunLimit = 500

// MetricsSnapshot holds a point-in-time view of ingestion health.
type MetricsSnapshot struct {
	// Runs started within the lookback window.
	RunsTotal    int `json:"runs_total"`
	RunsComplete int `json:"runs_complete"`
	RunsFailed   int `json:"runs_failed"`
	RunsRunning  int `json:"runs_running"`

	PartitionsTotal  int `json:"partitions_total"`
	PartitionsFailed int `json:"partitions_failed"`
	NewTotal         int `json:"new_total"`
	UpdatedTotal     int `json:"updated_total"`

	// Most recent completion across all listed runs, not just the window.
	LastCompleteAt *time.Time `json:"last_complete_at,omitempty"`
	LastError      string     `json:"last_error,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the slice of store.IngestRunStore the collector needs.
type RunLister interface {
	ListIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error)
}

// Collector gathers ingestion metrics from the run log.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect gathers a snapshot of ingestion metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.runs.ListIngestRuns(ctx, recentRunLimit)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list ingest runs")
	}

	for _, r := range runs {
		if r.Status == model.IngestComplete && r.CompletedAt != nil {
			if snap.LastCompleteAt == nil || r.CompletedAt.After(*snap.LastCompleteAt) {
				at := *r.CompletedAt
				snap.LastCompleteAt = &at
			}
		}
		if r.StartedAt.Before(cutoff) {
			continue
		}

		snap.RunsTotal++
		switch r.Status {
		case model.IngestComplete:
			snap.RunsComplete++
		case model.IngestFailed:
			snap.RunsFailed++
			// Runs are listed newest first.
			if snap.LastError == "" {
				snap.LastError = r.Error
			}
		case model.IngestRunning:
			snap.RunsRunning++
		}
		snap.PartitionsTotal += r.Partitions
		snap.PartitionsFailed += r.FailedPartitions
		snap.NewTotal += r.NewCount
		snap.UpdatedTotal += r.UpdatedCount
	}

	return snap, nil
}
