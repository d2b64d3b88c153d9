package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
)

type caseRepository struct {
	BaseRepository
}

func NewCaseRepository(db *sqlx.DB) repository.CaseRepository {
	return &caseRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) error {
	query := `
		INSERT INTO cases (
			id, user_id, status, client_name, client_phone, first_party, second_party,
			appearing_for, referring_advocate, incharge_advocate, other_side_advocate,
			counsel_advocate, case_number, cnr_number, case_type, court_name, stamp_no,
			file_no, first_hearing_date, next_hearing_date, next_stage, notes, documents,
			created_at, updated_at
		) VALUES (
			:id, :user_id, :status, :client_name, :client_phone, :first_party, :second_party,
			:appearing_for, :referring_advocate, :incharge_advocate, :other_side_advocate,
			:counsel_advocate, :case_number, :cnr_number, :case_type, :court_name, :stamp_no,
			:file_no, :first_hearing_date, :next_hearing_date, :next_stage, :notes, :documents,
			:created_at, :updated_at
		)
	`
	c.Touch(time.Now())
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (r *caseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Case, error) {
	var c model.Case
	if err := r.db.GetContext(ctx, &c, `SELECT * FROM cases WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "case")
	}
	return &c, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) error {
	query := `
		UPDATE cases SET
			status = :status, client_name = :client_name, client_phone = :client_phone,
			first_party = :first_party, second_party = :second_party,
			appearing_for = :appearing_for, referring_advocate = :referring_advocate,
			incharge_advocate = :incharge_advocate, other_side_advocate = :other_side_advocate,
			counsel_advocate = :counsel_advocate, case_number = :case_number,
			cnr_number = :cnr_number, case_type = :case_type, court_name = :court_name,
			stamp_no = :stamp_no, file_no = :file_no, next_stage = :next_stage,
			notes = :notes, updated_at = :updated_at
		WHERE id = :id
	`
	c.UpdatedAt = time.Now()
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	return expectRow(res, "case")
}

func (r *caseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return expectRow(res, "case")
}

func (r *caseRepository) ListByUser(ctx context.Context, userID string) ([]*model.Case, error) {
	query := `
		SELECT * FROM cases
		WHERE user_id = $1
		ORDER BY next_hearing_date ASC NULLS LAST, created_at DESC
	`
	var cases []*model.Case
	if err := r.db.SelectContext(ctx, &cases, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	return cases, nil
}

// SetNextHearing sets next_hearing_date and, when stage is non-nil, next_stage.
func (r *caseRepository) SetNextHearing(ctx context.Context, id uuid.UUID, date model.Date, stage *string) error {
	query := `
		UPDATE cases
		SET next_hearing_date = $1, next_stage = COALESCE($2, next_stage), updated_at = $3
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, date, stage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set next hearing: %w", err)
	}
	return expectRow(res, "case")
}

func (r *caseRepository) SyncNextHearing(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Lock the case so concurrent hearing edits serialize on it.
		var locked uuid.UUID
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM cases WHERE id = $1 FOR UPDATE`, id); err != nil {
			return notFound(err, "case")
		}

		var latest model.Date
		err := tx.GetContext(ctx, &latest, `
			SELECT hearing_date FROM hearings
			WHERE case_id = $1
			ORDER BY hearing_date DESC
			LIMIT 1
		`, id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to find latest hearing: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE cases SET next_hearing_date = $1, updated_at = $2 WHERE id = $3`,
			latest, time.Now(), id,
		); err != nil {
			return fmt.Errorf("failed to sync next hearing: %w", err)
		}
		return nil
	})
}

func (r *caseRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set case status: %w", err)
	}
	return expectRow(res, "case")
}

func (r *caseRepository) SetDocuments(ctx context.Context, id uuid.UUID, docs model.Documents) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET documents = $1, updated_at = $2 WHERE id = $3`,
		docs, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set case documents: %w", err)
	}
	return expectRow(res, "case")
}
