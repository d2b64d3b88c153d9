package legalcase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
)

type CaseServicer interface {
	CreateCase(ctx context.Context, userID string, req *model.CreateCaseRequest) (*model.Case, error)
	GetCase(ctx context.Context, userID string, id uuid.UUID) (*model.Case, error)
	ListCases(ctx context.Context, userID string) ([]*model.Case, error)
	UpdateCase(ctx context.Context, userID string, id uuid.UUID, req *model.UpdateCaseRequest) (*model.Case, error)
	ToggleStatus(ctx context.Context, userID string, id uuid.UUID) (*model.Case, error)
	DeleteCase(ctx context.Context, userID string, id uuid.UUID) error
	AttachDocument(ctx context.Context, userID string, id uuid.UUID, doc model.DocumentRef) (*model.Case, error)
	DetachDocument(ctx context.Context, userID string, id uuid.UUID, publicID string) (*model.Case, error)
}

type Service struct {
	repo repository.CaseRepository
}

func NewService(repo repository.CaseRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateCase(ctx context.Context, userID string, req *model.CreateCaseRequest) (*model.Case, error) {
	c := &model.Case{
		ID:               uuid.New(),
		UserID:           userID,
		Status:           model.CaseStatusOpen,
		FirstHearingDate: req.FirstHearingDate,
		NextHearingDate:  req.FirstHearingDate,
		Documents:        model.Documents{},
	}
	req.Apply(c)

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create case: %w", err))
	}
	return c, nil
}

// GetCase returns the case only to its owner; anyone else gets not found.
func (s *Service) GetCase(ctx context.Context, userID string, id uuid.UUID) (*model.Case, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("case", err)
		}
		return nil, apperrors.Internal(err)
	}
	if c.UserID != userID {
		return nil, apperrors.NotFound("case", nil)
	}
	return c, nil
}

func (s *Service) ListCases(ctx context.Context, userID string) ([]*model.Case, error) {
	cases, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if cases == nil {
		cases = []*model.Case{}
	}
	return cases, nil
}

func (s *Service) UpdateCase(ctx context.Context, userID string, id uuid.UUID, req *model.UpdateCaseRequest) (*model.Case, error) {
	c, err := s.GetCase(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	req.Apply(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update case: %w", err))
	}
	return c, nil
}

// ToggleStatus flips the case between open and closed.
func (s *Service) ToggleStatus(ctx context.Context, userID string, id uuid.UUID) (*model.Case, error) {
	c, err := s.GetCase(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	next := model.CaseStatusClosed
	if c.Status == model.CaseStatusClosed {
		next = model.CaseStatusOpen
	}
	if err := s.repo.SetStatus(ctx, id, next); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to set case status: %w", err))
	}
	c.Status = next
	c.UpdatedAt = time.Now()
	return c, nil
}

// DeleteCase removes the case. Its hearings stay behind without a case and
// are skipped by the reminder pipeline.
func (s *Service) DeleteCase(ctx context.Context, userID string, id uuid.UUID) error {
	if _, err := s.GetCase(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete case: %w", err))
	}
	return nil
}

func (s *Service) AttachDocument(ctx context.Context, userID string, id uuid.UUID, doc model.DocumentRef) (*model.Case, error) {
	c, err := s.GetCase(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	for _, existing := range c.Documents {
		if existing.PublicID == doc.PublicID {
			return nil, apperrors.Conflict("document already attached")
		}
	}

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	docs := append(append(model.Documents{}, c.Documents...), doc)
	if err := s.repo.SetDocuments(ctx, id, docs); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to attach document: %w", err))
	}
	c.Documents = docs
	return c, nil
}

func (s *Service) DetachDocument(ctx context.Context, userID string, id uuid.UUID, publicID string) (*model.Case, error) {
	c, err := s.GetCase(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	docs, found := c.Documents.Without(publicID)
	if !found {
		return nil, apperrors.NotFound("document", nil)
	}
	if err := s.repo.SetDocuments(ctx, id, docs); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to detach document: %w", err))
	}
	c.Documents = docs
	return c, nil
}
