package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/govcon-cli/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	*sqlStore
	pool    db.Pool
	closeFn func()
}

// pgConn adapts db.Pool to conn.
type pgConn struct {
	pool db.Pool
}

func (c pgConn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, pgConflict(err)
	}
	return tag.RowsAffected(), nil
}

// pgConflict maps a unique_violation to ErrConflict.
func pgConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return eris.Wrapf(ErrConflict, "postgres: %s", pgErr.ConstraintName)
	}
	return err
}

func (c pgConn) query(ctx context.Context, query string, args ...any) (rowIter, error) {
	return c.pool.Query(ctx, query, args...)
}

func (c pgConn) queryRow(ctx context.Context, query string, args ...any) scannable {
	return c.pool.QueryRow(ctx, query, args...)
}

// NewPostgres connects a pool and returns a PostgresStore over it.
func NewPostgres(ctx context.Context, dsn string, opts db.PoolOptions) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, dsn, opts)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	s, err := newPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.closeFn = pool.Close
	return s, nil
}

// NewPostgresFromPool wraps an existing pool. The caller owns the pool.
func NewPostgresFromPool(pool *pgxpool.Pool) (*PostgresStore, error) {
	return newPostgresStore(pool)
}

func newPostgresStore(pool db.Pool) (*PostgresStore, error) {
	base, err := newSQLStore(pgConn{pool: pool}, "postgres", db.Postgres)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{sqlStore: base, pool: pool}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id                         TEXT PRIMARY KEY,
	external_id                TEXT NOT NULL DEFAULT '',
	solicitation_number        TEXT NOT NULL UNIQUE,
	title                      TEXT NOT NULL DEFAULT '',
	description                TEXT NOT NULL DEFAULT '',
	naics_code                 TEXT NOT NULL DEFAULT '',
	type                       TEXT NOT NULL DEFAULT '',
	posted_date                TIMESTAMPTZ,
	response_deadline          TIMESTAMPTZ,
	url                        TEXT NOT NULL DEFAULT '',
	status                     TEXT NOT NULL DEFAULT 'ACTIVE',
	agency                     TEXT NOT NULL DEFAULT '',
	set_aside                  TEXT NOT NULL DEFAULT '',
	place_of_performance_state TEXT NOT NULL DEFAULT '',
	award_amount               DOUBLE PRECISION,
	estimated_value_low        DOUBLE PRECISION,
	estimated_value_high       DOUBLE PRECISION,
	incumbent_contractor       TEXT NOT NULL DEFAULT '',
	requires_clearance         BOOLEAN NOT NULL DEFAULT false,
	requires_itar              BOOLEAN NOT NULL DEFAULT false,
	created_at                 TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                 TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities(status);
CREATE INDEX IF NOT EXISTS idx_opportunities_naics ON opportunities(naics_code);
CREATE INDEX IF NOT EXISTS idx_opportunities_deadline ON opportunities(response_deadline) WHERE status = 'ACTIVE';

CREATE TABLE IF NOT EXISTS company_profiles (
	tenant_id          TEXT PRIMARY KEY,
	primary_naics      JSONB NOT NULL DEFAULT '[]',
	secondary_naics    JSONB NOT NULL DEFAULT '[]',
	capabilities       TEXT NOT NULL DEFAULT '',
	past_performance   TEXT NOT NULL DEFAULT '',
	headquarters_state TEXT NOT NULL DEFAULT '',
	service_regions    JSONB NOT NULL DEFAULT '[]',
	small_business     BOOLEAN NOT NULL DEFAULT false,
	eight_a            BOOLEAN NOT NULL DEFAULT false,
	hubzone            BOOLEAN NOT NULL DEFAULT false,
	veteran_owned      BOOLEAN NOT NULL DEFAULT false,
	woman_owned        BOOLEAN NOT NULL DEFAULT false,
	facility_clearance BOOLEAN NOT NULL DEFAULT false,
	itar_registered    BOOLEAN NOT NULL DEFAULT false,
	annual_revenue     DOUBLE PRECISION,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS opportunity_matches (
	tenant_id              TEXT NOT NULL,
	opportunity_id         TEXT NOT NULL REFERENCES opportunities(id) ON DELETE CASCADE,
	naics_score            DOUBLE PRECISION NOT NULL,
	capability_score       DOUBLE PRECISION NOT NULL,
	past_performance_score DOUBLE PRECISION NOT NULL,
	geographic_score       DOUBLE PRECISION NOT NULL,
	certification_score    DOUBLE PRECISION NOT NULL,
	clearance_score        DOUBLE PRECISION NOT NULL,
	contract_size_score    DOUBLE PRECISION NOT NULL,
	overall_score          DOUBLE PRECISION NOT NULL,
	pwin                   DOUBLE PRECISION NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'NEW',
	reasons                TEXT NOT NULL DEFAULT '',
	risks                  TEXT NOT NULL DEFAULT '',
	tags                   JSONB NOT NULL DEFAULT '[]',
	rating                 INTEGER,
	feedback               TEXT NOT NULL DEFAULT '',
	last_calculated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, opportunity_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_tenant_score ON opportunity_matches(tenant_id, overall_score DESC);

CREATE TABLE IF NOT EXISTS opportunity_alerts (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	tenant_id        TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	naics_codes      JSONB NOT NULL DEFAULT '[]',
	keywords         JSONB NOT NULL DEFAULT '[]',
	min_value        DOUBLE PRECISION,
	max_value        DOUBLE PRECISION,
	enabled          BOOLEAN NOT NULL DEFAULT true,
	last_checked_at  TIMESTAMPTZ,
	last_match_count INTEGER NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, name)
);

CREATE INDEX IF NOT EXISTS idx_alerts_enabled ON opportunity_alerts(enabled);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id                TEXT PRIMARY KEY,
	mode              TEXT NOT NULL,
	source            TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'running',
	partitions        INTEGER NOT NULL DEFAULT 0,
	failed_partitions INTEGER NOT NULL DEFAULT 0,
	new_count         INTEGER NOT NULL DEFAULT 0,
	updated_count     INTEGER NOT NULL DEFAULT 0,
	skipped_count     INTEGER NOT NULL DEFAULT 0,
	error             TEXT NOT NULL DEFAULT '',
	started_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at DESC);
`

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool if this store opened it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
