package legalcase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository/memory"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
)

func newCase(t *testing.T, svc *Service, owner string) *model.Case {
	t.Helper()
	c, err := svc.CreateCase(context.Background(), owner, &model.CreateCaseRequest{
		CaseDetails:      model.CaseDetails{ClientName: "Ravi", CaseNumber: "OS 12/2025"},
		FirstHearingDate: model.Date{Year: 2025, Month: time.March, Day: 10},
	})
	require.NoError(t, err)
	return c
}

func TestCreateCase(t *testing.T) {
	svc := NewService(memory.NewStore().Cases())
	c := newCase(t, svc, "user-1")

	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, model.CaseStatusOpen, c.Status)
	assert.Equal(t, "2025-03-10", c.NextHearingDate.String())
	assert.Equal(t, c.FirstHearingDate, c.NextHearingDate)
	assert.NotNil(t, c.Documents)
}

func TestGetCase_OtherOwnerIsNotFound(t *testing.T) {
	svc := NewService(memory.NewStore().Cases())
	c := newCase(t, svc, "user-1")

	_, err := svc.GetCase(context.Background(), "user-2", c.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	_, err = svc.GetCase(context.Background(), "user-1", uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	got, err := svc.GetCase(context.Background(), "user-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", got.ClientName)
}

func TestListCases(t *testing.T) {
	svc := NewService(memory.NewStore().Cases())
	ctx := context.Background()

	cases, err := svc.ListCases(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, cases)
	assert.Empty(t, cases)

	newCase(t, svc, "user-1")
	newCase(t, svc, "user-2")
	cases, err = svc.ListCases(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, cases, 1)
}

func TestUpdateAndToggle(t *testing.T) {
	svc := NewService(memory.NewStore().Cases())
	ctx := context.Background()
	c := newCase(t, svc, "user-1")

	updated, err := svc.UpdateCase(ctx, "user-1", c.ID, &model.UpdateCaseRequest{
		CaseDetails: model.CaseDetails{ClientName: "Ravi Kumar", CourtName: "City Civil Court"},
	})
	require.NoError(t, err)
	assert.Equal(t, "City Civil Court", updated.CourtName)
	assert.Equal(t, c.NextHearingDate, updated.NextHearingDate)

	_, err = svc.UpdateCase(ctx, "user-2", c.ID, &model.UpdateCaseRequest{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	closed, err := svc.ToggleStatus(ctx, "user-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusClosed, closed.Status)

	reopened, err := svc.ToggleStatus(ctx, "user-1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CaseStatusOpen, reopened.Status)
}

func TestDocuments(t *testing.T) {
	svc := NewService(memory.NewStore().Cases())
	ctx := context.Background()
	c := newCase(t, svc, "user-1")
	doc := model.DocumentRef{Name: "vakalat.pdf", URL: "https://media.example.com/v.pdf", PublicID: "docs/v"}

	got, err := svc.AttachDocument(ctx, "user-1", c.ID, doc)
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.False(t, got.Documents[0].UploadedAt.IsZero())

	_, err = svc.AttachDocument(ctx, "user-1", c.ID, doc)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	_, err = svc.DetachDocument(ctx, "user-1", c.ID, "docs/missing")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	got, err = svc.DetachDocument(ctx, "user-1", c.ID, "docs/v")
	require.NoError(t, err)
	assert.Empty(t, got.Documents)
}

func TestDeleteCase(t *testing.T) {
	svc := NewService(memory.NewStore().Cases())
	ctx := context.Background()
	c := newCase(t, svc, "user-1")

	err := svc.DeleteCase(ctx, "user-2", c.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	require.NoError(t, svc.DeleteCase(ctx, "user-1", c.ID))
	_, err = svc.GetCase(ctx, "user-1", c.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))
}
