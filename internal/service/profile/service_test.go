package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository/memory"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
)

func TestProfile(t *testing.T) {
	svc := NewService(memory.NewStore().Users(), "+91")
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "user-1")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotFound))

	u, err := svc.UpdateProfile(ctx, "user-1", &model.UpdateProfileRequest{
		Email:       "asha@example.com",
		Mobile:      "98765 43210",
		DisplayName: "Asha",
	})
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", u.Mobile)

	got, err := svc.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", got.Email)
	assert.Equal(t, "+919876543210", got.Mobile)

	cleared, err := svc.UpdateProfile(ctx, "user-1", &model.UpdateProfileRequest{Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Empty(t, cleared.Mobile)
}

func TestUpdateProfile_InvalidMobile(t *testing.T) {
	svc := NewService(memory.NewStore().Users(), "+91")

	_, err := svc.UpdateProfile(context.Background(), "user-1", &model.UpdateProfileRequest{Mobile: "12345"})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest))
}
