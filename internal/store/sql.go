package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/govcon-cli/internal/db"
	"github.com/sells-group/govcon-cli/internal/model"
)

// conn is the driver surface shared by the Postgres and SQLite backends,
// so every query below is written once.
type conn interface {
	exec(ctx context.Context, query string, args ...any) (int64, error)
	query(ctx context.Context, query string, args ...any) (rowIter, error)
	queryRow(ctx context.Context, query string, args ...any) scannable
}

type rowIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

type scannable interface {
	Scan(dest ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

const (
	tableOpportunities = "opportunities"
	tableProfiles      = "company_profiles"
	tableMatches       = "opportunity_matches"
	tableAlerts        = "opportunity_alerts"
	tableIngestRuns    = "ingest_runs"
)

var opportunityColumns = []string{
	"id", "external_id", "solicitation_number", "title", "description", "naics_code", "type",
	"posted_date", "response_deadline", "url", "status", "agency", "set_aside",
	"place_of_performance_state", "award_amount", "estimated_value_low", "estimated_value_high",
	"incumbent_contractor", "requires_clearance", "requires_itar", "created_at", "updated_at",
}

var profileColumns = []string{
	"tenant_id", "primary_naics", "secondary_naics", "capabilities", "past_performance",
	"headquarters_state", "service_regions", "small_business", "eight_a", "hubzone",
	"veteran_owned", "woman_owned", "facility_clearance", "itar_registered", "annual_revenue",
	"updated_at",
}

var matchColumns = []string{
	"tenant_id", "opportunity_id", "naics_score", "capability_score", "past_performance_score",
	"geographic_score", "certification_score", "clearance_score", "contract_size_score",
	"overall_score", "pwin", "status", "reasons", "risks", "tags", "rating", "feedback",
	"last_calculated_at",
}

var alertColumns = []string{
	"id", "user_id", "tenant_id", "name", "description", "naics_codes", "keywords",
	"min_value", "max_value", "enabled", "last_checked_at", "last_match_count",
	"created_at", "updated_at",
}

var ingestRunColumns = []string{
	"id", "mode", "source", "status", "partitions", "failed_partitions", "new_count",
	"updated_count", "skipped_count", "error", "started_at", "completed_at",
}

// sqlStore implements Store over a conn. name prefixes error messages.
type sqlStore struct {
	c    conn
	name string
	sb   sq.StatementBuilderType

	upsertOpportunity string
	upsertProfile     string
	upsertMatch       string
}

func newSQLStore(c conn, name string, dialect db.Dialect) (*sqlStore, error) {
	s := &sqlStore{c: c, name: name, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
	if dialect == db.Postgres {
		s.sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}

	var err error
	s.upsertOpportunity, err = db.UpsertSQL(db.UpsertConfig{
		Table:        tableOpportunities,
		Columns:      opportunityColumns,
		ConflictKeys: []string{"solicitation_number"},
		UpdateCols:   without(opportunityColumns, "id", "solicitation_number", "created_at"),
	}, dialect)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build opportunity upsert", name)
	}
	s.upsertOpportunity += " RETURNING id, created_at"

	s.upsertProfile, err = db.UpsertSQL(db.UpsertConfig{
		Table:        tableProfiles,
		Columns:      profileColumns,
		ConflictKeys: []string{"tenant_id"},
	}, dialect)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build profile upsert", name)
	}

	s.upsertMatch, err = db.UpsertSQL(db.UpsertConfig{
		Table:        tableMatches,
		Columns:      matchColumns,
		ConflictKeys: []string{"tenant_id", "opportunity_id"},
	}, dialect)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build match upsert", name)
	}
	return s, nil
}

func without(cols []string, drop ...string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

func encodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodeJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// --- Opportunities ---

func (s *sqlStore) FindBySolicitationNumber(ctx context.Context, solicitationNumber string) (*model.Opportunity, error) {
	query, args, err := s.sb.Select(opportunityColumns...).
		From(tableOpportunities).
		Where(sq.Eq{"solicitation_number": solicitationNumber}).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build find opportunity", s.name)
	}
	opp, err := scanOpportunity(s.c.queryRow(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "%s: find opportunity %s", s.name, solicitationNumber)
	}
	return opp, nil
}

func (s *sqlStore) GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error) {
	query, args, err := s.sb.Select(opportunityColumns...).
		From(tableOpportunities).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build get opportunity", s.name)
	}
	opp, err := scanOpportunity(s.c.queryRow(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "%s: get opportunity %s", s.name, id)
	}
	return opp, nil
}

func (s *sqlStore) SaveOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, error) {
	if opp.SolicitationNumber == "" {
		return nil, eris.Errorf("%s: save opportunity: solicitation number is required", s.name)
	}

	out := *opp
	now := time.Now().UTC()
	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.Status == "" {
		out.Status = model.OpportunityActive
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	err := s.c.queryRow(ctx, s.upsertOpportunity,
		out.ID, out.ExternalID, out.SolicitationNumber, out.Title, out.Description, out.NAICSCode, out.Type,
		utcPtr(out.PostedDate), utcPtr(out.ResponseDeadline), out.URL, string(out.Status), out.Agency, out.SetAside,
		out.PlaceOfPerformanceState, out.AwardAmount, out.EstimatedValueLow, out.EstimatedValueHigh,
		out.IncumbentContractor, out.RequiresClearance, out.RequiresITAR, out.CreatedAt.UTC(), out.UpdatedAt,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: save opportunity %s", s.name, out.SolicitationNumber)
	}
	return &out, nil
}

func (s *sqlStore) FindOpportunitiesByStatus(ctx context.Context, status model.OpportunityStatus, page Page) ([]model.Opportunity, error) {
	query, args, err := s.sb.Select(opportunityColumns...).
		From(tableOpportunities).
		Where(sq.Eq{"status": string(status)}).
		OrderBy("created_at", "id").
		Limit(uint64(page.limit())).
		Offset(uint64(max(page.Offset, 0))).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build find opportunities", s.name)
	}

	rows, err := s.c.query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: find opportunities by status", s.name)
	}
	defer rows.Close()

	var opps []model.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan opportunity", s.name)
		}
		opps = append(opps, *opp)
	}
	return opps, eris.Wrapf(rows.Err(), "%s: find opportunities iterate", s.name)
}

func (s *sqlStore) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	query, args, err := s.sb.Update(tableOpportunities).
		Set("status", string(model.OpportunityClosed)).
		Set("updated_at", now).
		Where(sq.Eq{"status": string(model.OpportunityActive)}).
		Where(sq.NotEq{"response_deadline": nil}).
		Where(sq.Lt{"response_deadline": now}).
		ToSql()
	if err != nil {
		return 0, eris.Wrapf(err, "%s: build close expired", s.name)
	}
	n, err := s.c.exec(ctx, query, args...)
	if err != nil {
		return 0, eris.Wrapf(err, "%s: close expired", s.name)
	}
	return int(n), nil
}

func scanOpportunity(row scannable) (*model.Opportunity, error) {
	var o model.Opportunity
	err := row.Scan(
		&o.ID, &o.ExternalID, &o.SolicitationNumber, &o.Title, &o.Description, &o.NAICSCode, &o.Type,
		&o.PostedDate, &o.ResponseDeadline, &o.URL, &o.Status, &o.Agency, &o.SetAside,
		&o.PlaceOfPerformanceState, &o.AwardAmount, &o.EstimatedValueLow, &o.EstimatedValueHigh,
		&o.IncumbentContractor, &o.RequiresClearance, &o.RequiresITAR, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// --- Profiles ---

func (s *sqlStore) GetProfile(ctx context.Context, tenantID string) (*model.CompanyProfile, error) {
	query, args, err := s.sb.Select(profileColumns...).
		From(tableProfiles).
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build get profile", s.name)
	}

	var p model.CompanyProfile
	var primary, secondary, regions []byte
	err = s.c.queryRow(ctx, query, args...).Scan(
		&p.TenantID, &primary, &secondary, &p.Capabilities, &p.PastPerformance,
		&p.HeadquartersState, &regions, &p.SmallBusiness, &p.EightA, &p.HUBZone,
		&p.VeteranOwned, &p.WomanOwned, &p.FacilityClearance, &p.ITARRegistered, &p.AnnualRevenue,
		&p.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "%s: get profile %s", s.name, tenantID)
	}
	for _, f := range []struct {
		data []byte
		dst  *[]string
	}{{primary, &p.PrimaryNAICS}, {secondary, &p.SecondaryNAICS}, {regions, &p.ServiceRegions}} {
		if err := decodeJSON(f.data, f.dst); err != nil {
			return nil, eris.Wrapf(err, "%s: unmarshal profile %s", s.name, tenantID)
		}
	}
	return &p, nil
}

func (s *sqlStore) SaveProfile(ctx context.Context, p *model.CompanyProfile) error {
	if p.TenantID == "" {
		return eris.Errorf("%s: save profile: tenant id is required", s.name)
	}
	primary, err := encodeJSON(p.PrimaryNAICS)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal primary naics", s.name)
	}
	secondary, err := encodeJSON(p.SecondaryNAICS)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal secondary naics", s.name)
	}
	regions, err := encodeJSON(p.ServiceRegions)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal service regions", s.name)
	}

	p.UpdatedAt = time.Now().UTC()
	_, err = s.c.exec(ctx, s.upsertProfile,
		p.TenantID, primary, secondary, p.Capabilities, p.PastPerformance,
		p.HeadquartersState, regions, p.SmallBusiness, p.EightA, p.HUBZone,
		p.VeteranOwned, p.WomanOwned, p.FacilityClearance, p.ITARRegistered, p.AnnualRevenue,
		p.UpdatedAt,
	)
	return eris.Wrapf(err, "%s: save profile %s", s.name, p.TenantID)
}

// --- Matches ---

func (s *sqlStore) GetMatch(ctx context.Context, tenantID, opportunityID string) (*model.OpportunityMatch, error) {
	query, args, err := s.sb.Select(matchColumns...).
		From(tableMatches).
		Where(sq.Eq{"tenant_id": tenantID, "opportunity_id": opportunityID}).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build get match", s.name)
	}
	m, err := scanMatch(s.c.queryRow(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "%s: get match %s/%s", s.name, tenantID, opportunityID)
	}
	return m, nil
}

func (s *sqlStore) SaveMatch(ctx context.Context, m *model.OpportunityMatch) error {
	tags, err := encodeJSON(m.Tags)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal match tags", s.name)
	}
	_, err = s.c.exec(ctx, s.upsertMatch,
		m.TenantID, m.OpportunityID, m.NAICSScore, m.CapabilityScore, m.PastPerfScore,
		m.GeographicScore, m.CertificationScore, m.ClearanceScore, m.ContractSizeScore,
		m.OverallScore, m.PWin, string(m.Status), m.Reasons, m.Risks, tags, m.Rating, m.Feedback,
		m.LastCalculatedAt.UTC(),
	)
	return eris.Wrapf(err, "%s: save match %s/%s", s.name, m.TenantID, m.OpportunityID)
}

func (s *sqlStore) ListMatches(ctx context.Context, tenantID string, page Page) ([]model.OpportunityMatch, error) {
	query, args, err := s.sb.Select(matchColumns...).
		From(tableMatches).
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("overall_score DESC", "opportunity_id").
		Limit(uint64(page.limit())).
		Offset(uint64(max(page.Offset, 0))).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build list matches", s.name)
	}

	rows, err := s.c.query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: list matches", s.name)
	}
	defer rows.Close()

	var out []model.OpportunityMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan match", s.name)
		}
		out = append(out, *m)
	}
	return out, eris.Wrapf(rows.Err(), "%s: list matches iterate", s.name)
}

func scanMatch(row scannable) (*model.OpportunityMatch, error) {
	var m model.OpportunityMatch
	var tags []byte
	err := row.Scan(
		&m.TenantID, &m.OpportunityID, &m.NAICSScore, &m.CapabilityScore, &m.PastPerfScore,
		&m.GeographicScore, &m.CertificationScore, &m.ClearanceScore, &m.ContractSizeScore,
		&m.OverallScore, &m.PWin, &m.Status, &m.Reasons, &m.Risks, &tags, &m.Rating, &m.Feedback,
		&m.LastCalculatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(tags, &m.Tags); err != nil {
		return nil, eris.Wrap(err, "unmarshal match tags")
	}
	return &m, nil
}

// --- Alerts ---

func (s *sqlStore) CreateAlert(ctx context.Context, a *model.OpportunityAlert) error {
	naics, keywords, err := encodeAlertLists(a)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal alert", s.name)
	}
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	query, args, err := s.sb.Insert(tableAlerts).
		Columns(alertColumns...).
		Values(a.ID, a.UserID, a.TenantID, a.Name, a.Description, naics, keywords,
			a.MinValue, a.MaxValue, a.Enabled, utcPtr(a.LastCheckedAt), a.LastMatchCount,
			a.CreatedAt, a.UpdatedAt).
		ToSql()
	if err != nil {
		return eris.Wrapf(err, "%s: build create alert", s.name)
	}
	_, err = s.c.exec(ctx, query, args...)
	return eris.Wrapf(err, "%s: create alert %s", s.name, a.Name)
}

func (s *sqlStore) UpdateAlert(ctx context.Context, a *model.OpportunityAlert) error {
	naics, keywords, err := encodeAlertLists(a)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal alert", s.name)
	}
	a.UpdatedAt = time.Now().UTC()

	query, args, err := s.sb.Update(tableAlerts).
		SetMap(map[string]any{
			"tenant_id":   a.TenantID,
			"name":        a.Name,
			"description": a.Description,
			"naics_codes": naics,
			"keywords":    keywords,
			"min_value":   a.MinValue,
			"max_value":   a.MaxValue,
			"enabled":     a.Enabled,
			"updated_at":  a.UpdatedAt,
		}).
		Where(sq.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return eris.Wrapf(err, "%s: build update alert", s.name)
	}
	n, err := s.c.exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "%s: update alert %s", s.name, a.ID)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "alert %s", a.ID)
	}
	return nil
}

func (s *sqlStore) DeleteAlert(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete(tableAlerts).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return eris.Wrapf(err, "%s: build delete alert", s.name)
	}
	n, err := s.c.exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "%s: delete alert %s", s.name, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "alert %s", id)
	}
	return nil
}

func (s *sqlStore) GetAlert(ctx context.Context, id string) (*model.OpportunityAlert, error) {
	return s.getAlert(ctx, sq.Eq{"id": id})
}

func (s *sqlStore) FindAlertByName(ctx context.Context, userID, name string) (*model.OpportunityAlert, error) {
	return s.getAlert(ctx, sq.Eq{"user_id": userID, "name": name})
}

func (s *sqlStore) getAlert(ctx context.Context, where sq.Eq) (*model.OpportunityAlert, error) {
	query, args, err := s.sb.Select(alertColumns...).From(tableAlerts).Where(where).ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build get alert", s.name)
	}
	a, err := scanAlert(s.c.queryRow(ctx, query, args...))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "%s: get alert", s.name)
	}
	return a, nil
}

func (s *sqlStore) ListAlerts(ctx context.Context, userID string) ([]model.OpportunityAlert, error) {
	return s.listAlerts(ctx, sq.Eq{"user_id": userID})
}

func (s *sqlStore) FindEnabledAlerts(ctx context.Context) ([]model.OpportunityAlert, error) {
	return s.listAlerts(ctx, sq.Eq{"enabled": true})
}

func (s *sqlStore) FindEnabledAlertsByUser(ctx context.Context, userID string) ([]model.OpportunityAlert, error) {
	return s.listAlerts(ctx, sq.Eq{"enabled": true, "user_id": userID})
}

func (s *sqlStore) listAlerts(ctx context.Context, where sq.Eq) ([]model.OpportunityAlert, error) {
	query, args, err := s.sb.Select(alertColumns...).
		From(tableAlerts).
		Where(where).
		OrderBy("user_id", "name").
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build list alerts", s.name)
	}

	rows, err := s.c.query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: list alerts", s.name)
	}
	defer rows.Close()

	var out []model.OpportunityAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan alert", s.name)
		}
		out = append(out, *a)
	}
	return out, eris.Wrapf(rows.Err(), "%s: list alerts iterate", s.name)
}

func (s *sqlStore) RecordAlertCheck(ctx context.Context, id string, checkedAt time.Time, matchCount int) error {
	query, args, err := s.sb.Update(tableAlerts).
		Set("last_checked_at", checkedAt.UTC()).
		Set("last_match_count", matchCount).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return eris.Wrapf(err, "%s: build record alert check", s.name)
	}
	n, err := s.c.exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "%s: record alert check %s", s.name, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "alert %s", id)
	}
	return nil
}

func encodeAlertLists(a *model.OpportunityAlert) ([]byte, []byte, error) {
	naics, err := encodeJSON(a.NAICSCodes)
	if err != nil {
		return nil, nil, err
	}
	keywords, err := encodeJSON(a.Keywords)
	if err != nil {
		return nil, nil, err
	}
	return naics, keywords, nil
}

func scanAlert(row scannable) (*model.OpportunityAlert, error) {
	var a model.OpportunityAlert
	var naics, keywords []byte
	err := row.Scan(
		&a.ID, &a.UserID, &a.TenantID, &a.Name, &a.Description, &naics, &keywords,
		&a.MinValue, &a.MaxValue, &a.Enabled, &a.LastCheckedAt, &a.LastMatchCount,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(naics, &a.NAICSCodes); err != nil {
		return nil, eris.Wrap(err, "unmarshal alert naics codes")
	}
	if err := decodeJSON(keywords, &a.Keywords); err != nil {
		return nil, eris.Wrap(err, "unmarshal alert keywords")
	}
	return &a, nil
}

// --- Ingestion runs ---

func (s *sqlStore) CreateIngestRun(ctx context.Context, mode, source string, partitions int) (*model.IngestRun, error) {
	run := &model.IngestRun{
		ID:         uuid.New().String(),
		Mode:       mode,
		Source:     source,
		Status:     model.IngestRunning,
		Partitions: partitions,
		StartedAt:  time.Now().UTC(),
	}
	query, args, err := s.sb.Insert(tableIngestRuns).
		Columns("id", "mode", "source", "status", "partitions", "started_at").
		Values(run.ID, run.Mode, run.Source, string(run.Status), run.Partitions, run.StartedAt).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build create ingest run", s.name)
	}
	if _, err := s.c.exec(ctx, query, args...); err != nil {
		return nil, eris.Wrapf(err, "%s: create ingest run", s.name)
	}
	return run, nil
}

func (s *sqlStore) CompleteIngestRun(ctx context.Context, run *model.IngestRun) error {
	if run.CompletedAt == nil {
		now := time.Now().UTC()
		run.CompletedAt = &now
	}
	query, args, err := s.sb.Update(tableIngestRuns).
		SetMap(map[string]any{
			"status":            string(run.Status),
			"failed_partitions": run.FailedPartitions,
			"new_count":         run.NewCount,
			"updated_count":     run.UpdatedCount,
			"skipped_count":     run.SkippedCount,
			"error":             run.Error,
			"completed_at":      run.CompletedAt.UTC(),
		}).
		Where(sq.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return eris.Wrapf(err, "%s: build complete ingest run", s.name)
	}
	n, err := s.c.exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "%s: complete ingest run %s", s.name, run.ID)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "ingest run %s", run.ID)
	}
	return nil
}

func (s *sqlStore) ListIngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := s.sb.Select(ingestRunColumns...).
		From(tableIngestRuns).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, eris.Wrapf(err, "%s: build list ingest runs", s.name)
	}

	rows, err := s.c.query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: list ingest runs", s.name)
	}
	defer rows.Close()

	var out []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		if err := rows.Scan(&r.ID, &r.Mode, &r.Source, &r.Status, &r.Partitions, &r.FailedPartitions,
			&r.NewCount, &r.UpdatedCount, &r.SkippedCount, &r.Error, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrapf(err, "%s: scan ingest run", s.name)
		}
		out = append(out, r)
	}
	return out, eris.Wrapf(rows.Err(), "%s: list ingest runs iterate", s.name)
}
