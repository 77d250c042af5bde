package scorer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

var (
	// ErrProfileNotFound means the tenant has no company profile. It is a
	// caller error and is never retried.
	ErrProfileNotFound = eris.New("scorer: company profile not found")
	// ErrOpportunityNotFound means the opportunity id is unknown.
	ErrOpportunityNotFound = eris.New("scorer: opportunity not found")
	// ErrMatchNotFound means the (tenant, opportunity) pair was never scored.
	ErrMatchNotFound = eris.New("scorer: match not found")
	// ErrInvalidRating means a rating outside 1..5.
	ErrInvalidRating = eris.New("scorer: rating must be between 1 and 5")
	// ErrInvalidStatus means an unknown match status.
	ErrInvalidStatus = eris.New("scorer: invalid match status")
)

const defaultPageSize = 100

// BatchResult summarizes one CalculateAllMatches call.
type BatchResult struct {
	TenantID string        `json:"tenant_id"`
	Scored   int           `json:"scored"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// Service scores opportunities for tenants and persists the matches.
type Service struct {
	opps     store.OpportunityStore
	profiles store.ProfileStore
	matches  store.MatchStore
	pageSize int
	now      func() time.Time
	log      *zap.Logger
}

// NewService creates a Service. pageSize bounds how many ACTIVE
// opportunities a batch holds in memory at once.
func NewService(opps store.OpportunityStore, profiles store.ProfileStore, matches store.MatchStore, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{
		opps:     opps,
		profiles: profiles,
		matches:  matches,
		pageSize: pageSize,
		now:      time.Now,
		log:      zap.L().With(zap.String("component", "scorer")),
	}
}

// CalculateMatch scores one opportunity for a tenant and saves the match.
func (s *Service) CalculateMatch(ctx context.Context, tenantID, opportunityID string) (*model.OpportunityMatch, error) {
	profile, err := s.profile(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	opp, err := s.opps.GetOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load opportunity %s", opportunityID)
	}
	if opp == nil {
		return nil, eris.Wrapf(ErrOpportunityNotFound, "scorer: opportunity %s", opportunityID)
	}

	return s.score(ctx, opp, profile)
}

// CalculateAllMatches scores every ACTIVE opportunity for a tenant, one page
// at a time. A failure on one opportunity is logged and counted; only a
// missing profile or a failed page read aborts the batch.
func (s *Service) CalculateAllMatches(ctx context.Context, tenantID string) (*BatchResult, error) {
	start := time.Now()
	profile, err := s.profile(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("tenant_id", tenantID))
	res := &BatchResult{TenantID: tenantID}

	page := store.Page{Limit: s.pageSize}
	for {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "scorer: batch cancelled")
		}

		opps, err := s.opps.FindOpportunitiesByStatus(ctx, model.OpportunityActive, page)
		if err != nil {
			return res, eris.Wrapf(err, "scorer: list active opportunities at offset %d", page.Offset)
		}

		for i := range opps {
			if _, err := s.score(ctx, &opps[i], profile); err != nil {
				res.Failed++
				log.Error("failed to score opportunity",
					zap.String("opportunity_id", opps[i].ID),
					zap.String("solicitation_number", opps[i].SolicitationNumber),
					zap.Error(err),
				)
				continue
			}
			res.Scored++
		}

		if len(opps) < page.Limit {
			break
		}
		page = page.Next()
	}

	res.Duration = time.Since(start)
	log.Info("batch scoring complete",
		zap.Int("scored", res.Scored),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", res.Duration),
	)
	return res, nil
}

// score computes and saves a match, carrying over the status, rating and
// feedback of any earlier match for the same pair.
func (s *Service) score(ctx context.Context, opp *model.Opportunity, profile *model.CompanyProfile) (*model.OpportunityMatch, error) {
	m := Compute(opp, profile, s.now())

	prev, err := s.matches.GetMatch(ctx, profile.TenantID, opp.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load match for %s", opp.ID)
	}
	if prev != nil {
		if prev.Status != "" {
			m.Status = prev.Status
		}
		m.Rating = prev.Rating
		m.Feedback = prev.Feedback
	}

	if err := s.matches.SaveMatch(ctx, m); err != nil {
		return nil, eris.Wrapf(err, "scorer: save match for %s", opp.ID)
	}

	s.log.Debug("scored opportunity",
		zap.String("tenant_id", profile.TenantID),
		zap.String("opportunity_id", opp.ID),
		zap.Float64("overall", m.OverallScore),
		zap.Float64("pwin", m.PWin),
	)
	return m, nil
}

func (s *Service) profile(ctx context.Context, tenantID string) (*model.CompanyProfile, error) {
	p, err := s.profiles.GetProfile(ctx, tenantID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load profile for %s", tenantID)
	}
	if p == nil {
		return nil, eris.Wrapf(ErrProfileNotFound, "scorer: tenant %s", tenantID)
	}
	return p, nil
}

// RateMatch records a tenant's 1..5 rating and feedback on a scored match.
func (s *Service) RateMatch(ctx context.Context, tenantID, opportunityID string, rating int, feedback string) (*model.OpportunityMatch, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	m, err := s.existingMatch(ctx, tenantID, opportunityID)
	if err != nil {
		return nil, err
	}
	m.Rating = &rating
	m.Feedback = feedback
	if err := s.matches.SaveMatch(ctx, m); err != nil {
		return nil, eris.Wrapf(err, "scorer: save rating for %s", opportunityID)
	}
	return m, nil
}

// UpdateMatchStatus moves a match to a new pursuit status.
func (s *Service) UpdateMatchStatus(ctx context.Context, tenantID, opportunityID string, status model.MatchStatus) (*model.OpportunityMatch, error) {
	if !status.Valid() {
		return nil, eris.Wrapf(ErrInvalidStatus, "scorer: %q", status)
	}
	m, err := s.existingMatch(ctx, tenantID, opportunityID)
	if err != nil {
		return nil, err
	}
	m.Status = status
	if err := s.matches.SaveMatch(ctx, m); err != nil {
		return nil, eris.Wrapf(err, "scorer: save status for %s", opportunityID)
	}
	return m, nil
}

func (s *Service) existingMatch(ctx context.Context, tenantID, opportunityID string) (*model.OpportunityMatch, error) {
	m, err := s.matches.GetMatch(ctx, tenantID, opportunityID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: load match for %s", opportunityID)
	}
	if m == nil {
		return nil, eris.Wrapf(ErrMatchNotFound, "scorer: tenant %s opportunity %s", tenantID, opportunityID)
	}
	return m, nil
}
