package alerts

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

// Publisher hands alert matches to the notification consumer.
type Publisher interface {
	Publish(ctx context.Context, matches []model.AlertMatch) error
}

// Evaluator checks opportunities against enabled alerts.
type Evaluator struct {
	alerts    store.AlertStore
	publisher Publisher
	now       func() time.Time
	log       *zap.Logger
}

// NewEvaluator creates an Evaluator. publisher may be nil.
func NewEvaluator(alerts store.AlertStore, publisher Publisher) *Evaluator {
	return &Evaluator{
		alerts:    alerts,
		publisher: publisher,
		now:       time.Now,
		log:       zap.L().With(zap.String("component", "alerts.evaluator")),
	}
}

// EvaluateOpportunity returns one entry per enabled alert, of any user, that
// opp matches.
func (e *Evaluator) EvaluateOpportunity(ctx context.Context, opp *model.Opportunity) ([]model.AlertMatch, error) {
	return e.Evaluate(ctx, []model.Opportunity{*opp})
}

// Evaluate checks a batch of opportunities against every enabled alert.
// Each alert's last-checked time and match count are recorded and the
// matches are published. Neither step fails the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, opps []model.Opportunity) ([]model.AlertMatch, error) {
	enabled, err := e.alerts.FindEnabledAlerts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "alerts: load enabled alerts")
	}

	var matches []model.AlertMatch
	counts := make(map[string]int, len(enabled))
	for i := range opps {
		for j := range enabled {
			a := &enabled[j]
			if !MatchesAlert(&opps[i], a) {
				continue
			}
			counts[a.ID]++
			matches = append(matches, model.AlertMatch{
				UserID:        a.UserID,
				AlertID:       a.ID,
				AlertName:     a.Name,
				OpportunityID: opps[i].ID,
			})
		}
	}

	checkedAt := e.now().UTC()
	for _, a := range enabled {
		if err := e.alerts.RecordAlertCheck(ctx, a.ID, checkedAt, counts[a.ID]); err != nil {
			e.log.Warn("failed to record alert check", zap.String("alert_id", a.ID), zap.Error(err))
		}
	}

	if e.publisher != nil && len(matches) > 0 {
		if err := e.publisher.Publish(ctx, matches); err != nil {
			e.log.Warn("failed to publish alert matches", zap.Int("matches", len(matches)), zap.Error(err))
		}
	}

	e.log.Debug("alerts evaluated",
		zap.Int("opportunities", len(opps)),
		zap.Int("alerts", len(enabled)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// EvaluateOpportunityForUser returns the user's enabled alerts that opp
// matches. It records nothing.
func (e *Evaluator) EvaluateOpportunityForUser(ctx context.Context, userID string, opp *model.Opportunity) ([]model.OpportunityAlert, error) {
	enabled, err := e.alerts.FindEnabledAlertsByUser(ctx, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "alerts: load enabled alerts for %s", userID)
	}

	var out []model.OpportunityAlert
	for i := range enabled {
		if MatchesAlert(opp, &enabled[i]) {
			out = append(out, enabled[i])
		}
	}
	return out, nil
}
