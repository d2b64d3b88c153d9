package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/lawdesk/internal/repository"
)

// Repositories bundles the Postgres-backed stores sharing one pool.
type Repositories struct {
	Users    repository.UserRepository
	Cases    repository.CaseRepository
	Hearings repository.HearingRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Cases:    NewCaseRepository(db),
		Hearings: NewHearingRepository(db),
	}
}
