package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/govcon-cli/internal/model"
)

func TestService_Create(t *testing.T) {
	st := newMemAlertStore()
	svc := NewService(st)

	a, err := svc.Create(context.Background(), &model.OpportunityAlert{
		UserID:     " u1 ",
		Name:       "  Cyber  ",
		Keywords:   []string{"cyber", " ", ""},
		NAICSCodes: []string{"5415"},
		Enabled:    true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Cyber", a.Name)
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, []string{"cyber"}, a.Keywords)
}

func TestService_Create_ConstraintRaceIsDuplicateName(t *testing.T) {
	st := newMemAlertStore()
	svc := NewService(st)
	_, err := svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cyber"})
	require.NoError(t, err)

	st.staleNames = true
	_, err = svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cyber"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateName))
}

func TestService_Update_ConstraintRaceIsDuplicateName(t *testing.T) {
	st := newMemAlertStore()
	svc := NewService(st)
	_, err := svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cyber"})
	require.NoError(t, err)
	other, err := svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cloud"})
	require.NoError(t, err)

	st.staleNames = true
	_, err = svc.Update(context.Background(), &model.OpportunityAlert{ID: other.ID, Name: "Cyber"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateName))
	assert.False(t, errors.Is(err, ErrAlertNotFound))
}

func TestService_Create_DuplicateName(t *testing.T) {
	st := newMemAlertStore()
	svc := NewService(st)
	_, err := svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cyber"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cyber"})
	assert.True(t, errors.Is(err, ErrDuplicateName))

	// Another user may reuse the name.
	_, err = svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u2", Name: "Cyber"})
	assert.NoError(t, err)
}

func TestService_Create_Invalid(t *testing.T) {
	svc := NewService(newMemAlertStore())
	tests := []struct {
		name  string
		alert model.OpportunityAlert
	}{
		{"missing user", model.OpportunityAlert{Name: "x"}},
		{"missing name", model.OpportunityAlert{UserID: "u1", Name: "  "}},
		{"negative min", model.OpportunityAlert{UserID: "u1", Name: "x", MinValue: ptrFloat64(-1)}},
		{"max below min", model.OpportunityAlert{UserID: "u1", Name: "x", MinValue: ptrFloat64(10), MaxValue: ptrFloat64(5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.alert)
			assert.True(t, errors.Is(err, ErrInvalidAlert), "got %v", err)
		})
	}
}

func TestService_Update(t *testing.T) {
	st := newMemAlertStore()
	svc := NewService(st)
	a, err := svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cyber"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cloud"})
	require.NoError(t, err)
	require.NoError(t, st.RecordAlertCheck(context.Background(), a.ID, fixedNow, 3))
	stored, _ := st.GetAlert(context.Background(), a.ID)
	stored.LastMatchCount = 3
	st.put(*stored)

	// Keeping the same name is not a conflict with itself.
	updated, err := svc.Update(context.Background(), &model.OpportunityAlert{ID: a.ID, UserID: "someone-else", Name: "Cyber", Keywords: []string{"zero trust"}})
	require.NoError(t, err)
	assert.Equal(t, "u1", updated.UserID)
	assert.Equal(t, 3, updated.LastMatchCount)
	assert.Equal(t, []string{"zero trust"}, updated.Keywords)

	// Renaming onto another alert's name conflicts.
	_, err = svc.Update(context.Background(), &model.OpportunityAlert{ID: a.ID, Name: "Cloud"})
	assert.True(t, errors.Is(err, ErrDuplicateName))

	_, err = svc.Update(context.Background(), &model.OpportunityAlert{ID: "missing", Name: "x"})
	assert.True(t, errors.Is(err, ErrAlertNotFound))
}

func TestService_Toggle(t *testing.T) {
	st := newMemAlertStore()
	svc := NewService(st)
	a, err := svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "Cyber", Enabled: true})
	require.NoError(t, err)

	toggled, err := svc.Toggle(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	toggled, err = svc.Toggle(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)

	_, err = svc.Toggle(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrAlertNotFound))
}

func TestService_DeleteAndList(t *testing.T) {
	st := newMemAlertStore()
	svc := NewService(st)
	a, err := svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "B"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &model.OpportunityAlert{UserID: "u1", Name: "A"})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)

	require.NoError(t, svc.Delete(context.Background(), a.ID))
	assert.True(t, errors.Is(svc.Delete(context.Background(), a.ID), ErrAlertNotFound))

	_, err = svc.Get(context.Background(), a.ID)
	assert.True(t, errors.Is(err, ErrAlertNotFound))
}
