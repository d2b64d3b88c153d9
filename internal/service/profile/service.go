package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/reminder"
	"github.com/jwalitptl/lawdesk/internal/repository"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
)

type ProfileServicer interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error)
}

type Service struct {
	repo        repository.UserRepository
	countryCode string
}

func NewService(repo repository.UserRepository, countryCode string) *Service {
	return &Service{repo: repo, countryCode: countryCode}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("profile", err)
		}
		return nil, apperrors.Internal(err)
	}
	return u, nil
}

// UpdateProfile replaces the caller's profile. Mobile numbers are stored in
// E.164 so reminders never see an unnormalized number.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error) {
	u := &model.User{
		ID:          userID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	if req.Mobile != "" {
		mobile, ok := reminder.NormalizePhone(req.Mobile, s.countryCode)
		if !ok {
			return nil, apperrors.BadRequest("mobile must be a 10-digit number or in +<country><number> form", nil)
		}
		u.Mobile = mobile
	}

	if err := s.repo.Upsert(ctx, u); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to save profile: %w", err))
	}
	return u, nil
}
