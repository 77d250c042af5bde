package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/alerts"
	"github.com/sells-group/govcon-cli/internal/config"
	"github.com/sells-group/govcon-cli/internal/db"
	"github.com/sells-group/govcon-cli/internal/fetcher"
	"github.com/sells-group/govcon-cli/internal/ingest"
	"github.com/sells-group/govcon-cli/internal/monitoring"
	"github.com/sells-group/govcon-cli/internal/resilience"
	"github.com/sells-group/govcon-cli/internal/scorer"
	"github.com/sells-group/govcon-cli/internal/source"
	"github.com/sells-group/govcon-cli/internal/store"
)

// appEnv holds the store and services shared by every command.
type appEnv struct {
	Store       store.Store
	Coordinator *ingest.Coordinator
	Scorer      *scorer.Service
	Alerts      *alerts.Service
	Evaluator   *alerts.Evaluator
	Health      *monitoring.Alerter

	redis *redis.Client // may be nil
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured backend.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "govcon.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, db.PoolOptions{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// initSource builds the SAM.gov source over a rate-limited fetcher.
func initSource(c *config.Config) source.Source {
	retry := resilience.DefaultPolicy()
	if c.Ingest.FetchRetries > 0 {
		retry.Attempts = c.Ingest.FetchRetries
	}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: c.SAM.UserAgent,
		Retry:     retry,
	})
	return source.NewSAM(f, source.SAMOptions{
		APIKey:            c.SAM.APIKey,
		BaseURL:           c.SAM.BaseURL,
		PageSize:          c.SAM.PageSize,
		LookbackDays:      c.SAM.LookbackDays,
		FetchDescriptions: c.SAM.FetchDescriptions,
		MaxPages:          c.SAM.MaxPages,
	})
}

// initPublisher connects to Redis when alerts.redis_url is set. A nil
// publisher disables the hand-off.
func initPublisher(ctx context.Context, c *config.Config) (*redis.Client, alerts.Publisher, error) {
	if c.Alerts.RedisURL == "" {
		zap.L().Debug("alerts.redis_url not set, alert matches will not be published")
		return nil, nil, nil
	}
	rdb, err := alerts.NewRedisClient(ctx, c.Alerts.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return rdb, alerts.NewRedisPublisher(rdb, c.Alerts.Channel), nil
}

// initEnv validates config for mode, opens and migrates the store and wires
// the services. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	env := &appEnv{Store: st}

	rdb, pub, err := initPublisher(ctx, cfg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.redis = rdb

	env.Health = monitoring.NewAlerter(cfg.Monitoring)
	env.Coordinator = ingest.NewCoordinator(initSource(cfg), st, ingest.Options{
		MaxConcurrency: cfg.Ingest.MaxConcurrency,
		FetchTimeout:   time.Duration(cfg.Ingest.FetchTimeoutSecs) * time.Second,
		RunLog:         st,
		Health:         env.Health,
	})
	env.Scorer = scorer.NewService(st, st, st, cfg.Scoring.PageSize)
	env.Alerts = alerts.NewService(st)
	env.Evaluator = alerts.NewEvaluator(st, pub)

	return env, nil
}

// partitionKeys returns args when given, else the configured NAICS codes.
func partitionKeys(args []string) []string {
	if len(args) > 0 {
		return args
	}
	return cfg.Ingest.NAICSCodes
}
