//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jwalitptl/lawdesk/config"
	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
)

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("lawdesk"),
		postgres.WithUsername("lawdesk"),
		postgres.WithPassword("lawdesk"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Connect(ctx, dsn, config.DatabaseConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	// Migrate is idempotent.
	require.NoError(t, Migrate(ctx, db))
	return db
}

func mustDate(t *testing.T, s string) model.Date {
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestRepositories(t *testing.T) {
	db := setupDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	user := &model.User{ID: "uid-1", Email: "a@example.com", Mobile: "9876543210", DisplayName: "A"}
	require.NoError(t, repos.Users.Upsert(ctx, user))
	user.DisplayName = "Advocate A"
	require.NoError(t, repos.Users.Upsert(ctx, user))

	got, err := repos.Users.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Advocate A", got.DisplayName)

	_, err = repos.Users.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	c := &model.Case{
		ID:              uuid.New(),
		UserID:          "uid-1",
		Status:          model.CaseStatusOpen,
		ClientName:      "Ravi",
		CaseNumber:      "OS 12/2025",
		NextHearingDate: mustDate(t, "2025-03-10"),
	}
	require.NoError(t, repos.Cases.Create(ctx, c))

	t.Run("documents round trip", func(t *testing.T) {
		docs := model.Documents{{Name: "plaint.pdf", URL: "https://cdn.example.com/p.pdf", PublicID: "p1"}}
		require.NoError(t, repos.Cases.SetDocuments(ctx, c.ID, docs))
		stored, err := repos.Cases.Get(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, stored.Documents, 1)
		assert.Equal(t, "p1", stored.Documents[0].PublicID)
	})

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2025, 3, 9, 18, 5, 0, 0, loc)

	due := func(at time.Time, date string) *model.Hearing {
		h := &model.Hearing{ID: uuid.New(), CaseID: &c.ID, HearingDate: mustDate(t, date), ReminderScheduledAt: &at}
		require.NoError(t, repos.Hearings.Create(ctx, h))
		return h
	}
	first := due(now.Add(-2*time.Hour), "2025-03-10")
	second := due(now.Add(-time.Hour), "2025-03-12")
	due(now.Add(time.Hour), "2025-03-20")

	t.Run("due queue is ordered and excludes sent", func(t *testing.T) {
		list, err := repos.Hearings.ListDueScheduled(ctx, now, 20)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)

		require.NoError(t, repos.Hearings.RecordReminder(ctx, first.ID, model.ReminderOutcome{
			SentAt: now, SID: "SM1", Status: "queued",
		}))
		list, err = repos.Hearings.ListDueScheduled(ctx, now, 20)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, second.ID, list[0].ID)

		stored, err := repos.Hearings.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, stored.ReminderSent)
		require.NotNil(t, stored.ReminderSID)
		assert.Equal(t, "SM1", *stored.ReminderSID)
		assert.Nil(t, stored.ReminderError)
	})

	t.Run("sync next hearing picks latest remaining", func(t *testing.T) {
		require.NoError(t, repos.Cases.SyncNextHearing(ctx, c.ID))
		stored, err := repos.Cases.Get(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "2025-03-20", stored.NextHearingDate.String())
	})

	t.Run("deleting a case orphans its hearings", func(t *testing.T) {
		require.NoError(t, repos.Cases.Delete(ctx, c.ID))
		stored, err := repos.Hearings.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CaseID)
	})
}
