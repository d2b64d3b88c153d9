package hearing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/reminder"
	"github.com/jwalitptl/lawdesk/internal/repository"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
)

// CaseGetter resolves a case for its owner.
type CaseGetter interface {
	GetCase(ctx context.Context, userID string, id uuid.UUID) (*model.Case, error)
}

type HearingServicer interface {
	AddHearing(ctx context.Context, userID string, caseID uuid.UUID, in *model.HearingInput) (*model.Hearing, error)
	ListHearings(ctx context.Context, userID string, caseID uuid.UUID) ([]*model.Hearing, error)
	UpdateHearing(ctx context.Context, userID string, id uuid.UUID, in *model.HearingInput) (*model.Hearing, error)
	DeleteHearing(ctx context.Context, userID string, id uuid.UUID) error
}

// Service keeps the hearing rows, the reminder queue columns and the case's
// next hearing date consistent.
type Service struct {
	hearings repository.HearingRepository
	cases    repository.CaseRepository
	owner    CaseGetter
	schedule reminder.Schedule
	clock    reminder.Clock
}

func NewService(
	hearings repository.HearingRepository,
	cases repository.CaseRepository,
	owner CaseGetter,
	schedule reminder.Schedule,
	clock reminder.Clock,
) *Service {
	if clock == nil {
		clock = reminder.SystemClock{}
	}
	return &Service{hearings: hearings, cases: cases, owner: owner, schedule: schedule, clock: clock}
}

func (s *Service) AddHearing(ctx context.Context, userID string, caseID uuid.UUID, in *model.HearingInput) (*model.Hearing, error) {
	c, err := s.owner.GetCase(ctx, userID, caseID)
	if err != nil {
		return nil, err
	}
	if !c.IsOpen() {
		return nil, apperrors.BadRequest("case is closed", nil)
	}

	h := &model.Hearing{
		ID:        uuid.New(),
		CaseID:    &c.ID,
		Documents: model.Documents{},
	}
	s.apply(h, in)

	if err := s.hearings.Create(ctx, h); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create hearing: %w", err))
	}

	var stage *string
	if in.NextStage != "" {
		stage = &in.NextStage
	}
	if err := s.cases.SetNextHearing(ctx, c.ID, in.HearingDate, stage); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update case: %w", err))
	}
	return h, nil
}

func (s *Service) ListHearings(ctx context.Context, userID string, caseID uuid.UUID) ([]*model.Hearing, error) {
	if _, err := s.owner.GetCase(ctx, userID, caseID); err != nil {
		return nil, err
	}
	hearings, err := s.hearings.ListByCase(ctx, caseID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if hearings == nil {
		hearings = []*model.Hearing{}
	}
	return hearings, nil
}

// UpdateHearing rewrites the hearing and puts it back on the reminder queue.
func (s *Service) UpdateHearing(ctx context.Context, userID string, id uuid.UUID, in *model.HearingInput) (*model.Hearing, error) {
	h, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	h.ClearReminder()
	s.apply(h, in)
	if err := s.hearings.Update(ctx, h); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update hearing: %w", err))
	}
	if err := s.cases.SyncNextHearing(ctx, *h.CaseID); err != nil {
		return nil, apperrors.Internal(err)
	}
	return h, nil
}

func (s *Service) DeleteHearing(ctx context.Context, userID string, id uuid.UUID) error {
	h, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.hearings.Delete(ctx, id); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete hearing: %w", err))
	}
	if err := s.cases.SyncNextHearing(ctx, *h.CaseID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID string, id uuid.UUID) (*model.Hearing, error) {
	h, err := s.hearings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hearing", err)
		}
		return nil, apperrors.Internal(err)
	}
	if h.CaseID == nil {
		return nil, apperrors.NotFound("hearing", nil)
	}
	if _, err := s.owner.GetCase(ctx, userID, *h.CaseID); err != nil {
		if apperrors.IsCode(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("hearing", nil)
		}
		return nil, err
	}
	return h, nil
}

// apply copies the input and computes the reminder instant. Hearings dated
// before today are recorded as already handled so they never fire.
func (s *Service) apply(h *model.Hearing, in *model.HearingInput) {
	h.HearingDate = in.HearingDate
	h.NotificationTime = in.NotificationTime
	h.Notes = in.Notes
	h.NextStage = in.NextStage

	at := s.schedule.ScheduledAt(in.HearingDate, in.NotificationTime)
	h.ReminderScheduledAt = &at

	now := s.clock.Now()
	if in.HearingDate.Before(s.schedule.Today(now)) {
		result := reminder.SkipPastHearing
		h.ReminderSent = true
		h.ReminderSentAt = &now
		h.ReminderResult = &result
	}
}
