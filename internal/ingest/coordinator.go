// Package ingest pulls raw opportunities from a source, partitioned by NAICS
// code, and reconciles them into the opportunity store.
package ingest

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/source"
	"github.com/sells-group/govcon-cli/internal/store"
)

const maxSolicitationNumberLen = 128

// Result summarizes one ingestion call.
type Result struct {
	Mode             source.Mode   `json:"mode"`
	RunID            string        `json:"run_id,omitempty"`
	Partitions       int           `json:"partitions"`
	FailedPartitions int           `json:"failed_partitions"`
	Fetched          int           `json:"fetched"`
	NewCount         int           `json:"new_count"`
	UpdatedCount     int           `json:"updated_count"`
	Skipped          int           `json:"skipped"`
	Failed           int           `json:"failed"`
	Duration         time.Duration `json:"duration"`
}

// Saved is the number of records written (new plus updated).
func (r *Result) Saved() int { return r.NewCount + r.UpdatedCount }

// FailureRatio is the share of partitions whose fetch failed.
func (r *Result) FailureRatio() float64 {
	if r.Partitions == 0 {
		return 0
	}
	return float64(r.FailedPartitions) / float64(r.Partitions)
}

// HealthReporter receives every completed ingestion result.
type HealthReporter interface {
	ReportIngestion(ctx context.Context, r *Result)
}

// Options configures a Coordinator.
type Options struct {
	// MaxConcurrency bounds in-flight partition fetches. Default: one per partition.
	MaxConcurrency int
	// FetchTimeout bounds each partition fetch. Zero means no per-fetch deadline.
	FetchTimeout time.Duration
	// RunLog, when set, records each call in ingest_runs.
	RunLog store.IngestRunStore
	// Health, when set, is told about every completed call.
	Health HealthReporter
}

// Coordinator fans fetches out per partition, joins them, then upserts
// the merged records one at a time.
type Coordinator struct {
	src  source.Source
	opps store.OpportunityStore
	opts Options
	log  *zap.Logger
}

// NewCoordinator creates a Coordinator reading from src and writing to opps.
func NewCoordinator(src source.Source, opps store.OpportunityStore, opts Options) *Coordinator {
	return &Coordinator{
		src:  src,
		opps: opps,
		opts: opts,
		log:  zap.L().With(zap.String("component", "ingest.coordinator")),
	}
}

// RunIngestion fetches solicitations for every partition key and upserts them.
// Partition and record failures are absorbed; store failures are returned.
func (c *Coordinator) RunIngestion(ctx context.Context, partitionKeys []string) (*Result, error) {
	return c.run(ctx, source.ModeSolicitations, partitionKeys)
}

// IngestSourcesSought runs the same fetch, merge and upsert against the
// sources-sought query and returns the number of records saved.
func (c *Coordinator) IngestSourcesSought(ctx context.Context, partitionKeys []string) (int, error) {
	res, err := c.run(ctx, source.ModeSourcesSought, partitionKeys)
	if err != nil {
		return 0, err
	}
	return res.Saved(), nil
}

func (c *Coordinator) run(ctx context.Context, mode source.Mode, partitionKeys []string) (*Result, error) {
	start := time.Now()
	keys := normalizeKeys(partitionKeys)
	log := c.log.With(zap.String("mode", string(mode)), zap.String("source", c.src.Name()))

	res := &Result{Mode: mode, Partitions: len(keys)}
	run := c.startRun(ctx, mode, len(keys))
	if run != nil {
		res.RunID = run.ID
	}

	log.Info("ingestion started", zap.Int("partitions", len(keys)))

	batches, failed := c.fetchAll(ctx, mode, keys)
	res.FailedPartitions = failed

	var runErr error
records:
	for _, batch := range batches {
		for _, raw := range batch {
			res.Fetched++
			outcome, err := c.upsertRecord(ctx, raw)
			if err != nil {
				runErr = err
				break records
			}
			switch outcome {
			case outcomeNew:
				res.NewCount++
			case outcomeUpdated:
				res.UpdatedCount++
			case outcomeSkipped:
				res.Skipped++
			case outcomeFailed:
				res.Failed++
			}
		}
	}

	res.Duration = time.Since(start)
	c.finishRun(ctx, run, res, runErr)

	if runErr != nil {
		log.Error("ingestion aborted", zap.Error(runErr), zap.Int("saved", res.Saved()))
		return res, eris.Wrapf(runErr, "ingest: %s run", mode)
	}

	log.Info("ingestion complete",
		zap.Int("new", res.NewCount),
		zap.Int("updated", res.UpdatedCount),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed_records", res.Failed),
		zap.Int("failed_partitions", res.FailedPartitions),
		zap.Duration("elapsed", res.Duration),
	)
	if c.opts.Health != nil {
		c.opts.Health.ReportIngestion(ctx, res)
	}
	return res, nil
}

// fetchAll runs one fetch per key and waits for all of them. Each goroutine
// writes only its own slot. A failed fetch contributes no records.
func (c *Coordinator) fetchAll(ctx context.Context, mode source.Mode, keys []string) ([][]model.RawOpportunity, int) {
	results := make([][]model.RawOpportunity, len(keys))
	failed := make([]bool, len(keys))

	var g errgroup.Group
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}
	for i, key := range keys {
		g.Go(func() error {
			recs, err := c.fetchPartition(ctx, mode, key)
			if err != nil {
				c.log.Warn("partition fetch failed",
					zap.String("partition", key),
					zap.String("mode", string(mode)),
					zap.Error(err),
				)
				failed[i] = true
				return nil
			}
			results[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	return results, n
}

// fetchPartition fetches one partition. A panicking source is reported as a
// failed fetch so the other partitions still complete.
func (c *Coordinator) fetchPartition(ctx context.Context, mode source.Mode, key string) (recs []model.RawOpportunity, err error) {
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, eris.Errorf("ingest: partition %s panicked: %v", key, r)
		}
	}()
	if c.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
	}
	return source.FetchMode(ctx, c.src, mode, key)
}

type outcome int

const (
	outcomeNew outcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeFailed
)

// upsertRecord reconciles one raw record by solicitation number. Data
// problems with the record are logged and reported as outcomeFailed; only
// store errors are returned.
func (c *Coordinator) upsertRecord(ctx context.Context, raw model.RawOpportunity) (outcome, error) {
	key := strings.TrimSpace(raw.SolicitationNumber)
	if key == "" {
		c.log.Warn("skipping record without solicitation number",
			zap.String("notice_id", raw.ExternalID),
			zap.String("title", raw.Title),
		)
		return outcomeSkipped, nil
	}

	if err := validateRecord(key, raw); err != nil {
		c.log.Error("skipping invalid record",
			zap.String("solicitation_number", key),
			zap.Error(err),
		)
		return outcomeFailed, nil
	}

	existing, err := c.opps.FindBySolicitationNumber(ctx, key)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: lookup %s", key)
	}

	result := outcomeUpdated
	opp := existing
	if opp == nil {
		result = outcomeNew
		opp = &model.Opportunity{
			SolicitationNumber: key,
			Status:             model.OpportunityActive,
		}
	}
	applyRaw(opp, raw)

	if _, err := c.opps.SaveOpportunity(ctx, opp); err != nil {
		return 0, eris.Wrapf(err, "ingest: save %s", key)
	}
	return result, nil
}

// applyRaw overwrites the mutable fields of opp from raw. Enrichment fields
// are only overwritten when the source supplied a value.
func applyRaw(opp *model.Opportunity, raw model.RawOpportunity) {
	key := opp.SolicitationNumber

	opp.Title = strings.TrimSpace(raw.Title)
	opp.PostedDate = ParseDate(raw.PostedDate, "posted_date", key)
	opp.ResponseDeadline = ParseDate(raw.ResponseDeadline, "response_deadline", key)
	opp.NAICSCode = strings.TrimSpace(raw.NAICSCode)
	opp.Type = raw.Type
	opp.URL = raw.URL

	if raw.ExternalID != "" {
		opp.ExternalID = raw.ExternalID
	}
	if raw.Description != "" {
		opp.Description = raw.Description
	}
	if raw.Agency != "" {
		opp.Agency = raw.Agency
	}
	if raw.SetAside != "" {
		opp.SetAside = raw.SetAside
	}
	if raw.PlaceOfPerformanceState != "" {
		opp.PlaceOfPerformanceState = strings.ToUpper(strings.TrimSpace(raw.PlaceOfPerformanceState))
	}
	if raw.AwardAmount != nil {
		opp.AwardAmount = raw.AwardAmount
	}
	if raw.Awardee != "" {
		opp.IncumbentContractor = raw.Awardee
	}
	opp.RequiresClearance = raw.RequiresClearance
	opp.RequiresITAR = raw.RequiresITAR
}

func validateRecord(key string, raw model.RawOpportunity) error {
	if len(key) > maxSolicitationNumberLen {
		return eris.Errorf("solicitation number longer than %d characters", maxSolicitationNumberLen)
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return eris.New("solicitation number contains control characters")
	}
	if a := raw.AwardAmount; a != nil && (math.IsNaN(*a) || math.IsInf(*a, 0) || *a < 0) {
		return eris.Errorf("invalid award amount %v", *a)
	}
	return nil
}

// normalizeKeys trims, drops blanks and de-duplicates partition keys.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
