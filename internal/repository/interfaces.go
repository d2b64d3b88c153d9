package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lawdesk/internal/model"
)

// ErrNotFound is wrapped by every repository when the requested row is absent.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	UserRepository interface {
		Get(ctx context.Context, id string) (*model.User, error)
		Upsert(ctx context.Context, user *model.User) error
	}

	CaseRepository interface {
		Create(ctx context.Context, c *model.Case) error
		Get(ctx context.Context, id uuid.UUID) (*model.Case, error)
		Update(ctx context.Context, c *model.Case) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByUser(ctx context.Context, userID string) ([]*model.Case, error)
		SetNextHearing(ctx context.Context, id uuid.UUID, date model.Date, stage *string) error
		// SyncNextHearing re-derives next_hearing_date from the latest remaining
		// hearing, or clears it when none remain.
		SyncNextHearing(ctx context.Context, id uuid.UUID) error
		SetStatus(ctx context.Context, id uuid.UUID, status string) error
		SetDocuments(ctx context.Context, id uuid.UUID, docs model.Documents) error
	}

	HearingRepository interface {
		Create(ctx context.Context, h *model.Hearing) error
		Get(ctx context.Context, id uuid.UUID) (*model.Hearing, error)
		Update(ctx context.Context, h *model.Hearing) error
		Delete(ctx context.Context, id uuid.UUID) error
		// ListByCase orders by hearing_date descending.
		ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.Hearing, error)
		// ListDueScheduled returns unsent hearings with reminder_scheduled_ts <= now,
		// oldest first, at most limit rows.
		ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.Hearing, error)
		ListByDate(ctx context.Context, date model.Date) ([]*model.Hearing, error)
		// ListUnscheduled returns unsent hearings without reminder_scheduled_ts.
		ListUnscheduled(ctx context.Context, limit int) ([]*model.Hearing, error)
		SetSchedule(ctx context.Context, id uuid.UUID, at time.Time) error
		RecordReminder(ctx context.Context, id uuid.UUID, outcome model.ReminderOutcome) error
	}
)
