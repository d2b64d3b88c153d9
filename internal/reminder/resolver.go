package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
)

// Skip reasons, stored in reminder_result for the timestamp policy.
const (
	SkipMissingCaseID  = "skipped_missing_case_id"
	SkipCaseNotFound   = "skipped_case_not_found"
	SkipMissingOwner   = "skipped_missing_owner"
	SkipUserNotFound   = "skipped_user_not_found"
	SkipInvalidContact = "skipped_invalid_contact"
)

// Skip is a hearing dropped during resolution.
type Skip struct {
	Hearing *model.Hearing
	Reason  string
}

// Resolution is the outcome of resolving one batch of hearings.
type Resolution struct {
	Groups  []Group
	Skipped []Skip
}

// Resolver joins hearings to their case and the case owner's profile.
type Resolver struct {
	cases repository.CaseRepository
	users repository.UserRepository
}

func NewResolver(cases repository.CaseRepository, users repository.UserRepository) *Resolver {
	return &Resolver{cases: cases, users: users}
}

// Resolve groups hearings by recipient for ch. Missing rows become skips;
// any other repository error aborts the batch.
func (r *Resolver) Resolve(ctx context.Context, hearings []*model.Hearing, ch Channel) (*Resolution, error) {
	res := &Resolution{}
	cases := make(map[uuid.UUID]*model.Case)
	users := make(map[string]*model.User)
	byUser := make(map[string]int)

	for _, h := range hearings {
		if h.CaseID == nil {
			res.Skipped = append(res.Skipped, Skip{h, SkipMissingCaseID})
			continue
		}

		c, ok := cases[*h.CaseID]
		if !ok {
			var err error
			c, err = r.cases.Get(ctx, *h.CaseID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to resolve case %s: %w", h.CaseID, err)
			}
			cases[*h.CaseID] = c
		}
		if c == nil {
			res.Skipped = append(res.Skipped, Skip{h, SkipCaseNotFound})
			continue
		}
		if c.UserID == "" {
			res.Skipped = append(res.Skipped, Skip{h, SkipMissingOwner})
			continue
		}

		u, ok := users[c.UserID]
		if !ok {
			var err error
			u, err = r.users.Get(ctx, c.UserID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("failed to resolve user %s: %w", c.UserID, err)
			}
			users[c.UserID] = u
		}
		if u == nil {
			res.Skipped = append(res.Skipped, Skip{h, SkipUserNotFound})
			continue
		}

		addr, ok := ch.Address(u)
		if !ok {
			res.Skipped = append(res.Skipped, Skip{h, SkipInvalidContact})
			continue
		}

		item := Item{Hearing: h, Case: c}
		if ch.Grouped() {
			if idx, seen := byUser[u.ID]; seen {
				res.Groups[idx].Items = append(res.Groups[idx].Items, item)
				continue
			}
			byUser[u.ID] = len(res.Groups)
		}
		res.Groups = append(res.Groups, Group{User: u, Address: addr, Items: []Item{item}})
	}
	return res, nil
}
