package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
)

type hearingRepository struct {
	db *sqlx.DB
}

func NewHearingRepository(db *sqlx.DB) repository.HearingRepository {
	return &hearingRepository{db: db}
}

func (r *hearingRepository) Create(ctx context.Context, h *model.Hearing) error {
	query := `
		INSERT INTO hearings (
			id, case_id, hearing_date, notification_time, notes, next_stage, documents,
			reminder_scheduled_ts, reminder_sent, reminder_sent_at, reminder_result,
			created_at, updated_at
		) VALUES (
			:id, :case_id, :hearing_date, :notification_time, :notes, :next_stage, :documents,
			:reminder_scheduled_ts, :reminder_sent, :reminder_sent_at, :reminder_result,
			:created_at, :updated_at
		)
	`
	h.Touch(time.Now())
	if _, err := r.db.NamedExecContext(ctx, query, h); err != nil {
		return fmt.Errorf("failed to create hearing: %w", err)
	}
	return nil
}

func (r *hearingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Hearing, error) {
	var h model.Hearing
	if err := r.db.GetContext(ctx, &h, `SELECT * FROM hearings WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "hearing")
	}
	return &h, nil
}

// Update writes the editable fields and the full reminder state, so callers
// that reschedule a hearing also reset its audit columns.
func (r *hearingRepository) Update(ctx context.Context, h *model.Hearing) error {
	query := `
		UPDATE hearings SET
			hearing_date = :hearing_date, notification_time = :notification_time,
			notes = :notes, next_stage = :next_stage, documents = :documents,
			reminder_scheduled_ts = :reminder_scheduled_ts, reminder_sent = :reminder_sent,
			reminder_sent_at = :reminder_sent_at, reminder_sid = :reminder_sid,
			reminder_status = :reminder_status, reminder_error = :reminder_error,
			reminder_result = :reminder_result, updated_at = :updated_at
		WHERE id = :id
	`
	h.UpdatedAt = time.Now()
	res, err := r.db.NamedExecContext(ctx, query, h)
	if err != nil {
		return fmt.Errorf("failed to update hearing: %w", err)
	}
	return expectRow(res, "hearing")
}

func (r *hearingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hearings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete hearing: %w", err)
	}
	return expectRow(res, "hearing")
}

func (r *hearingRepository) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*model.Hearing, error) {
	query := `SELECT * FROM hearings WHERE case_id = $1 ORDER BY hearing_date DESC, created_at DESC`
	var hearings []*model.Hearing
	if err := r.db.SelectContext(ctx, &hearings, query, caseID); err != nil {
		return nil, fmt.Errorf("failed to list hearings: %w", err)
	}
	return hearings, nil
}

func (r *hearingRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.Hearing, error) {
	query := `
		SELECT * FROM hearings
		WHERE reminder_scheduled_ts <= $1 AND reminder_sent = FALSE
		ORDER BY reminder_scheduled_ts ASC
		LIMIT $2
	`
	var hearings []*model.Hearing
	if err := r.db.SelectContext(ctx, &hearings, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list due hearings: %w", err)
	}
	return hearings, nil
}

func (r *hearingRepository) ListByDate(ctx context.Context, date model.Date) ([]*model.Hearing, error) {
	var hearings []*model.Hearing
	if err := r.db.SelectContext(ctx, &hearings,
		`SELECT * FROM hearings WHERE hearing_date = $1 ORDER BY created_at ASC`, date,
	); err != nil {
		return nil, fmt.Errorf("failed to list hearings by date: %w", err)
	}
	return hearings, nil
}

func (r *hearingRepository) ListUnscheduled(ctx context.Context, limit int) ([]*model.Hearing, error) {
	query := `
		SELECT * FROM hearings
		WHERE reminder_scheduled_ts IS NULL AND reminder_sent = FALSE
		ORDER BY hearing_date ASC
		LIMIT $1
	`
	var hearings []*model.Hearing
	if err := r.db.SelectContext(ctx, &hearings, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unscheduled hearings: %w", err)
	}
	return hearings, nil
}

func (r *hearingRepository) SetSchedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE hearings SET reminder_scheduled_ts = $1, updated_at = $2 WHERE id = $3`,
		at, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set reminder schedule: %w", err)
	}
	return expectRow(res, "hearing")
}

// RecordReminder marks the hearing sent and stores the attempt's audit fields.
// Empty outcome fields are stored as NULL.
func (r *hearingRepository) RecordReminder(ctx context.Context, id uuid.UUID, o model.ReminderOutcome) error {
	query := `
		UPDATE hearings SET
			reminder_sent = TRUE, reminder_sent_at = $1, reminder_sid = $2,
			reminder_status = $3, reminder_error = $4, reminder_result = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		o.SentAt, nullString(o.SID), nullString(o.Status), nullString(o.Error), nullString(o.Result),
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}
	return expectRow(res, "hearing")
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
