package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/govcon-cli/internal/db"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	*sqlStore
	db *sql.DB
}

// sqliteConn adapts *sql.DB to conn.
type sqliteConn struct {
	db *sql.DB
}

func (c sqliteConn) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, sqliteConflict(err)
	}
	return res.RowsAffected()
}

// sqliteConflict maps UNIQUE and PRIMARY KEY violations to ErrConflict.
func sqliteConflict(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return eris.Wrap(ErrConflict, se.Error())
	case sqlite3.SQLITE_CONSTRAINT:
		if strings.Contains(se.Error(), "UNIQUE constraint failed") {
			return eris.Wrap(ErrConflict, se.Error())
		}
	}
	return err
}

func (c sqliteConn) query(ctx context.Context, query string, args ...any) (rowIter, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (c sqliteConn) queryRow(ctx context.Context, query string, args ...any) scannable {
	return c.db.QueryRowContext(ctx, query, args...)
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { _ = r.Rows.Close() }

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	base, err := newSQLStore(sqliteConn{db: sqlDB}, "sqlite", db.SQLite)
	if err != nil {
		sqlDB.Close() //nolint:errcheck
		return nil, err
	}
	return &SQLiteStore{sqlStore: base, db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id                         TEXT PRIMARY KEY,
	external_id                TEXT NOT NULL DEFAULT '',
	solicitation_number        TEXT NOT NULL UNIQUE,
	title                      TEXT NOT NULL DEFAULT '',
	description                TEXT NOT NULL DEFAULT '',
	naics_code                 TEXT NOT NULL DEFAULT '',
	type                       TEXT NOT NULL DEFAULT '',
	posted_date                DATETIME,
	response_deadline          DATETIME,
	url                        TEXT NOT NULL DEFAULT '',
	status                     TEXT NOT NULL DEFAULT 'ACTIVE',
	agency                     TEXT NOT NULL DEFAULT '',
	set_aside                  TEXT NOT NULL DEFAULT '',
	place_of_performance_state TEXT NOT NULL DEFAULT '',
	award_amount               REAL,
	estimated_value_low        REAL,
	estimated_value_high       REAL,
	incumbent_contractor       TEXT NOT NULL DEFAULT '',
	requires_clearance         BOOLEAN NOT NULL DEFAULT 0,
	requires_itar              BOOLEAN NOT NULL DEFAULT 0,
	created_at                 DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at                 DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities(status);
CREATE INDEX IF NOT EXISTS idx_opportunities_naics ON opportunities(naics_code);

CREATE TABLE IF NOT EXISTS company_profiles (
	tenant_id          TEXT PRIMARY KEY,
	primary_naics      TEXT NOT NULL DEFAULT '[]',
	secondary_naics    TEXT NOT NULL DEFAULT '[]',
	capabilities       TEXT NOT NULL DEFAULT '',
	past_performance   TEXT NOT NULL DEFAULT '',
	headquarters_state TEXT NOT NULL DEFAULT '',
	service_regions    TEXT NOT NULL DEFAULT '[]',
	small_business     BOOLEAN NOT NULL DEFAULT 0,
	eight_a            BOOLEAN NOT NULL DEFAULT 0,
	hubzone            BOOLEAN NOT NULL DEFAULT 0,
	veteran_owned      BOOLEAN NOT NULL DEFAULT 0,
	woman_owned        BOOLEAN NOT NULL DEFAULT 0,
	facility_clearance BOOLEAN NOT NULL DEFAULT 0,
	itar_registered    BOOLEAN NOT NULL DEFAULT 0,
	annual_revenue     REAL,
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS opportunity_matches (
	tenant_id              TEXT NOT NULL,
	opportunity_id         TEXT NOT NULL REFERENCES opportunities(id) ON DELETE CASCADE,
	naics_score            REAL NOT NULL,
	capability_score       REAL NOT NULL,
	past_performance_score REAL NOT NULL,
	geographic_score       REAL NOT NULL,
	certification_score    REAL NOT NULL,
	clearance_score        REAL NOT NULL,
	contract_size_score    REAL NOT NULL,
	overall_score          REAL NOT NULL,
	pwin                   REAL NOT NULL,
	status                 TEXT NOT NULL DEFAULT 'NEW',
	reasons                TEXT NOT NULL DEFAULT '',
	risks                  TEXT NOT NULL DEFAULT '',
	tags                   TEXT NOT NULL DEFAULT '[]',
	rating                 INTEGER,
	feedback               TEXT NOT NULL DEFAULT '',
	last_calculated_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (tenant_id, opportunity_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_tenant_score ON opportunity_matches(tenant_id, overall_score DESC);

CREATE TABLE IF NOT EXISTS opportunity_alerts (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	tenant_id        TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	naics_codes      TEXT NOT NULL DEFAULT '[]',
	keywords         TEXT NOT NULL DEFAULT '[]',
	min_value        REAL,
	max_value        REAL,
	enabled          BOOLEAN NOT NULL DEFAULT 1,
	last_checked_at  DATETIME,
	last_match_count INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (user_id, name)
);

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
	started_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at      DATETIME
);
`

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
