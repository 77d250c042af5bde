// Package monitoring watches ingestion health and posts alerts to a webhook.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/config"
	"github.com/sells-group/govcon-cli/internal/ingest"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertPartitionFailures AlertType = "partition_failures"
	AlertIngestRunFailed   AlertType = "ingest_run_failed"
	AlertIngestStale       AlertType = "ingest_stale"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter checks ingestion results and snapshots against configured
// thresholds and sends alerts via webhook when they are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	now    func() time.Time
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// ReportIngestion evaluates a finished ingestion call and sends any alerts.
// It satisfies ingest.HealthReporter.
func (a *Alerter) ReportIngestion(ctx context.Context, res *ingest.Result) {
	alerts := a.EvaluateResult(res)
	if len(alerts) == 0 {
		return
	}
	a.SendAlerts(ctx, alerts)
}

// EvaluateResult flags a single ingestion call whose partition failure
// ratio reached the threshold.
func (a *Alerter) EvaluateResult(res *ingest.Result) []Alert {
	if res == nil || res.Partitions == 0 || a.cfg.PartitionFailureThreshold <= 0 {
		return nil
	}
	ratio := res.FailureRatio()
	if ratio < a.cfg.PartitionFailureThreshold {
		return nil
	}
	severity := "high"
	if res.FailedPartitions == res.Partitions {
		severity = "critical"
	}
	return []Alert{{
		Type:     AlertPartitionFailures,
		Severity: severity,
		Message: fmt.Sprintf(
			"%s ingestion: %d of %d partitions failed (%.0f%%, threshold %.0f%%)",
			res.Mode, res.FailedPartitions, res.Partitions,
			ratio*100, a.cfg.PartitionFailureThreshold*100,
		),
		Details: map[string]any{
			"run_id":            res.RunID,
			"mode":              string(res.Mode),
			"partitions":        res.Partitions,
			"failed_partitions": res.FailedPartitions,
			"saved":             res.Saved(),
		},
		Timestamp: a.now().UTC(),
	}}
}

// Evaluate checks a snapshot of recent runs and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := a.now().UTC()

	if snap.RunsFailed > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertIngestRunFailed,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d ingestion run(s) failed in last %dh",
				snap.RunsFailed, snap.LookbackHours,
			),
			Details: map[string]any{
				"failed":     snap.RunsFailed,
				"total_runs": snap.RunsTotal,
				"last_error": snap.LastError,
			},
			Timestamp: now,
		})
	}

	if snap.PartitionsTotal > 0 && a.cfg.PartitionFailureThreshold > 0 {
		ratio := float64(snap.PartitionsFailed) / float64(snap.PartitionsTotal)
		if ratio >= a.cfg.PartitionFailureThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertPartitionFailures,
				Severity: "high",
				Message: fmt.Sprintf(
					"Partition failure rate %.1f%% reached threshold %.1f%% (%d failed / %d in last %dh)",
					ratio*100, a.cfg.PartitionFailureThreshold*100,
					snap.PartitionsFailed, snap.PartitionsTotal, snap.LookbackHours,
				),
				Details: map[string]any{
					"failure_rate": ratio,
					"threshold":    a.cfg.PartitionFailureThreshold,
					"failed":       snap.PartitionsFailed,
					"partitions":   snap.PartitionsTotal,
				},
				Timestamp: now,
			})
		}
	}

	if stale, msg := a.staleness(snap, now); stale {
		alerts = append(alerts, Alert{
			Type:      AlertIngestStale,
			Severity:  "medium",
			Message:   msg,
			Details:   map[string]any{"last_complete_at": snap.LastCompleteAt},
			Timestamp: now,
		})
	}

	return alerts
}

// staleness reports whether no ingestion has completed within the window.
// A store with no runs at all is not considered stale.
func (a *Alerter) staleness(snap *MetricsSnapshot, now time.Time) (bool, string) {
	if snap.LastCompleteAt == nil {
		if snap.RunsTotal == 0 {
			return false, ""
		}
		return true, fmt.Sprintf("No ingestion run has completed (%d attempted in last %dh)", snap.RunsTotal, snap.LookbackHours)
	}
	cutoff := now.Add(-time.Duration(snap.LookbackHours) * time.Hour)
	if snap.LastCompleteAt.Before(cutoff) {
		return true, fmt.Sprintf("Last completed ingestion was %s ago, beyond the %dh window",
			now.Sub(*snap.LastCompleteAt).Truncate(time.Minute), snap.LookbackHours)
	}
	return false, ""
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if len(alerts) == 0 {
		return 0
	}
	if a.cfg.WebhookURL == "" {
		for _, alert := range alerts {
			zap.L().Warn("monitoring: alert raised with no webhook configured",
				zap.String("type", string(alert.Type)),
				zap.String("message", alert.Message),
			)
		}
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
