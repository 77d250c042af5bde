package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/govcon-cli/internal/config"
	"github.com/sells-group/govcon-cli/internal/ingest"
	"github.com/sells-group/govcon-cli/internal/source"
)

func newTestAlerter(cfg config.MonitoringConfig) *Alerter {
	a := NewAlerter(cfg)
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestAlerter_EvaluateResult(t *testing.T) {
	a := newTestAlerter(config.MonitoringConfig{PartitionFailureThreshold: 0.5})

	tests := []struct {
		name     string
		res      *ingest.Result
		want     int
		severity string
	}{
		{"nil result", nil, 0, ""},
		{"no partitions", &ingest.Result{}, 0, ""},
		{"below threshold", &ingest.Result{Partitions: 6, FailedPartitions: 2}, 0, ""},
		{"at threshold", &ingest.Result{Partitions: 6, FailedPartitions: 3}, 1, "high"},
		{"all failed", &ingest.Result{Partitions: 6, FailedPartitions: 6}, 1, "critical"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := a.EvaluateResult(tt.res)
			require.Len(t, alerts, tt.want)
			if tt.want > 0 {
				assert.Equal(t, AlertPartitionFailures, alerts[0].Type)
				assert.Equal(t, tt.severity, alerts[0].Severity)
				assert.Equal(t, fixedNow, alerts[0].Timestamp)
			}
		})
	}
}

func TestAlerter_EvaluateResult_Message(t *testing.T) {
	a := newTestAlerter(config.MonitoringConfig{PartitionFailureThreshold: 0.25})
	alerts := a.EvaluateResult(&ingest.Result{
		Mode:             source.ModeSolicitations,
		RunID:            "run-1",
		Partitions:       4,
		FailedPartitions: 1,
		NewCount:         3,
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, "solicitations ingestion: 1 of 4 partitions failed (25%, threshold 25%)", alerts[0].Message)
	assert.Equal(t, "run-1", alerts[0].Details["run_id"])
	assert.Equal(t, 3, alerts[0].Details["saved"])
}

func TestAlerter_EvaluateResult_DisabledThreshold(t *testing.T) {
	a := newTestAlerter(config.MonitoringConfig{})
	assert.Empty(t, a.EvaluateResult(&ingest.Result{Partitions: 2, FailedPartitions: 2}))
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := newTestAlerter(config.MonitoringConfig{PartitionFailureThreshold: 0.5})
	snap := &MetricsSnapshot{
		RunsTotal:        3,
		RunsComplete:     3,
		PartitionsTotal:  18,
		PartitionsFailed: 1,
		LastCompleteAt:   ptrTime(fixedNow.Add(-time.Hour)),
		LookbackHours:    24,
	}
	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_NoRunsYet(t *testing.T) {
	a := newTestAlerter(config.MonitoringConfig{PartitionFailureThreshold: 0.5})
	assert.Empty(t, a.Evaluate(&MetricsSnapshot{LookbackHours: 24}))
}

func TestAlerter_Evaluate_MultipleAlerts(t *testing.T) {
	a := newTestAlerter(config.MonitoringConfig{PartitionFailureThreshold: 0.5})
	snap := &MetricsSnapshot{
		RunsTotal:        2,
		RunsFailed:       2,
		PartitionsTotal:  12,
		PartitionsFailed: 12,
		LastError:        "boom",
		LookbackHours:    24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 3)

	types := make(map[AlertType]bool)
	for _, a := range alerts {
		types[a.Type] = true
	}
	assert.True(t, types[AlertIngestRunFailed])
	assert.True(t, types[AlertPartitionFailures])
	assert.True(t, types[AlertIngestStale])
}

func TestAlerter_Evaluate_Stale(t *testing.T) {
	a := newTestAlerter(config.MonitoringConfig{})
	snap := &MetricsSnapshot{
		LastCompleteAt: ptrTime(fixedNow.Add(-50 * time.Hour)),
		LookbackHours:  48,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertIngestStale, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "50h0m0s ago")
}

func TestAlerter_SendAlerts_Webhook(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		err := json.NewDecoder(r.Body).Decode(&alert)
		require.NoError(t, err)
		assert.NotEmpty(t, alert.Type)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})

	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertIngestRunFailed, Severity: "high", Message: "test alert 1"},
		{Type: AlertIngestStale, Severity: "medium", Message: "test alert 2"},
	})
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_EmptyURL(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertIngestStale, Message: "test"}})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_EmptyAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{WebhookURL: "http://example.com"})
	assert.Equal(t, 0, a.SendAlerts(context.Background(), nil))
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertIngestStale, Message: "test"}})
	assert.Equal(t, 0, sent)
}

func TestAlerter_ReportIngestion(t *testing.T) {
	var got atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		got.Store(alert)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	var reporter ingest.HealthReporter = NewAlerter(config.MonitoringConfig{
		WebhookURL:                ts.URL,
		PartitionFailureThreshold: 0.5,
	})

	reporter.ReportIngestion(context.Background(), &ingest.Result{Partitions: 2, FailedPartitions: 1})
	alert, ok := got.Load().(Alert)
	require.True(t, ok)
	assert.Equal(t, AlertPartitionFailures, alert.Type)
}
