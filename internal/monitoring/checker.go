package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/config"
)

// Checker summarises the ingestion run log on a fixed period and sends the
// resulting alerts. An alert type that keeps firing is resent only after the
// repeat window; one that clears and fires again is sent at once.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	interval  time.Duration
	lookback  int
	repeat    time.Duration
	log       *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	lastSent map[AlertType]time.Time
}

// NewChecker creates a background health checker from the monitoring config.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		interval:  cfg.CheckInterval(),
		lookback:  cfg.LookbackHours(),
		repeat:    cfg.RepeatAfter(),
		log:       zap.L().With(zap.String("component", "monitoring.checker")),
		now:       time.Now,
		lastSent:  make(map[AlertType]time.Time),
	}
}

// Run checks every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	c.log.Info("ingestion health checker started",
		zap.Duration("interval", c.interval),
		zap.Int("lookback_hours", c.lookback),
		zap.Duration("repeat_after", c.repeat),
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("ingestion health checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check evaluates one snapshot and sends the alerts that are due. It returns
// the alerts it sent; held-back repeats are not included.
func (c *Checker) Check(ctx context.Context) []Alert {
	snap, err := c.collector.Collect(ctx, c.lookback)
	if err != nil {
		c.log.Error("monitoring: failed to collect ingestion runs", zap.Error(err))
		return nil
	}

	due := c.due(c.alerter.Evaluate(snap))
	if len(due) == 0 {
		return nil
	}

	sent := c.alerter.SendAlerts(ctx, due)
	c.log.Info("monitoring: ingestion health alerts raised",
		zap.Int("raised", len(due)),
		zap.Int("delivered", sent),
		zap.Int("runs_in_window", snap.RunsTotal),
	)
	return due
}

// due filters triggered to the alerts not sent within the repeat window and
// forgets alert types that stopped firing.
func (c *Checker) due(triggered []Alert) []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	firing := make(map[AlertType]bool, len(triggered))
	var out []Alert
	for _, a := range triggered {
		firing[a.Type] = true
		if last, ok := c.lastSent[a.Type]; ok && now.Sub(last) < c.repeat {
			c.log.Debug("monitoring: alert held back", zap.String("type", string(a.Type)))
			continue
		}
		c.lastSent[a.Type] = now
		out = append(out, a)
	}
	for t := range c.lastSent {
		if !firing[t] {
			delete(c.lastSent, t)
		}
	}
	return out
}
