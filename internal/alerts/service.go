package alerts

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/govcon-cli/internal/model"
	"github.com/sells-group/govcon-cli/internal/store"
)

var (
	// ErrDuplicateName means the user already has an alert with that name.
	ErrDuplicateName = eris.New("alerts: alert name already exists")
	// ErrAlertNotFound means no alert has the given id.
	ErrAlertNotFound = eris.New("alerts: alert not found")
	// ErrInvalidAlert means the alert failed validation.
	ErrInvalidAlert = eris.New("alerts: invalid alert")
)

// Service manages alert rules. Names are unique per user.
type Service struct {
	store store.AlertStore
	log   *zap.Logger
}

// NewService creates a Service.
func NewService(s store.AlertStore) *Service {
	return &Service{
		store: s,
		log:   zap.L().With(zap.String("component", "alerts.service")),
	}
}

// Create validates a and stores it as a new alert.
func (s *Service) Create(ctx context.Context, a *model.OpportunityAlert) (*model.OpportunityAlert, error) {
	normalize(a)
	if err := validate(a); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, a.UserID, a.Name, ""); err != nil {
		return nil, err
	}
	a.ID = ""
	if err := s.store.CreateAlert(ctx, a); err != nil {
		return nil, s.storeErr(err, a, "create")
	}
	s.log.Info("alert created", zap.String("alert_id", a.ID), zap.String("user_id", a.UserID))
	return a, nil
}

// Update replaces the editable fields of an existing alert. Owner and
// evaluation bookkeeping are kept from the stored row.
func (s *Service) Update(ctx context.Context, a *model.OpportunityAlert) (*model.OpportunityAlert, error) {
	existing, err := s.Get(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	normalize(a)
	a.UserID = existing.UserID
	a.LastCheckedAt = existing.LastCheckedAt
	a.LastMatchCount = existing.LastMatchCount
	a.CreatedAt = existing.CreatedAt
	if err := validate(a); err != nil {
		return nil, err
	}
	if a.Name != existing.Name {
		if err := s.checkName(ctx, a.UserID, a.Name, a.ID); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateAlert(ctx, a); err != nil {
		return nil, s.storeErr(err, a, "update")
	}
	return a, nil
}

// Delete removes an alert.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAlert(ctx, id); err != nil {
		return s.notFound(err, id, "delete")
	}
	s.log.Info("alert deleted", zap.String("alert_id", id))
	return nil
}

// Toggle flips an alert's enabled flag and returns the updated alert.
func (s *Service) Toggle(ctx context.Context, id string) (*model.OpportunityAlert, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Enabled = !a.Enabled
	if err := s.store.UpdateAlert(ctx, a); err != nil {
		return nil, s.notFound(err, id, "toggle")
	}
	return a, nil
}

// Get returns one alert.
func (s *Service) Get(ctx context.Context, id string) (*model.OpportunityAlert, error) {
	a, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "alerts: get %s", id)
	}
	if a == nil {
		return nil, eris.Wrapf(ErrAlertNotFound, "alerts: id %s", id)
	}
	return a, nil
}

// List returns a user's alerts ordered by name.
func (s *Service) List(ctx context.Context, userID string) ([]model.OpportunityAlert, error) {
	out, err := s.store.ListAlerts(ctx, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "alerts: list for %s", userID)
	}
	return out, nil
}

// checkName fails with ErrDuplicateName when another alert of userID,
// other than exceptID, already uses name.
func (s *Service) checkName(ctx context.Context, userID, name, exceptID string) error {
	other, err := s.store.FindAlertByName(ctx, userID, name)
	if err != nil {
		return eris.Wrapf(err, "alerts: check name %q", name)
	}
	if other != nil && other.ID != exceptID {
		return eris.Wrapf(ErrDuplicateName, "alerts: %q", name)
	}
	return nil
}

// storeErr maps a failed alert write. A unique constraint hit means a
// concurrent write took the name after checkName passed.
func (s *Service) storeErr(err error, a *model.OpportunityAlert, op string) error {
	if errors.Is(err, store.ErrConflict) {
		return eris.Wrapf(ErrDuplicateName, "alerts: %s %q", op, a.Name)
	}
	if op == "create" {
		return eris.Wrapf(err, "alerts: create %q", a.Name)
	}
	return s.notFound(err, a.ID, op)
}

func (s *Service) notFound(err error, id, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return eris.Wrapf(ErrAlertNotFound, "alerts: %s %s", op, id)
	}
	return eris.Wrapf(err, "alerts: %s %s", op, id)
}

func normalize(a *model.OpportunityAlert) {
	a.Name = strings.TrimSpace(a.Name)
	a.UserID = strings.TrimSpace(a.UserID)
	a.NAICSCodes = nonBlank(a.NAICSCodes)
	a.Keywords = nonBlank(a.Keywords)
}

func validate(a *model.OpportunityAlert) error {
	switch {
	case a.UserID == "":
		return eris.Wrap(ErrInvalidAlert, "alerts: user id is required")
	case a.Name == "":
		return eris.Wrap(ErrInvalidAlert, "alerts: name is required")
	case a.MinValue != nil && *a.MinValue < 0:
		return eris.Wrap(ErrInvalidAlert, "alerts: min value must be >= 0")
	case a.MinValue != nil && a.MaxValue != nil && *a.MaxValue < *a.MinValue:
		return eris.Wrap(ErrInvalidAlert, "alerts: max value must be >= min value")
	}
	return nil
}
