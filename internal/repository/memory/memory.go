// Package memory holds map-backed repositories with the same ordering and
// foreign-key behavior as the postgres ones. Handlers, services and the
// reminder pipeline are tested against it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]model.User
	cases    map[uuid.UUID]model.Case
	hearings map[uuid.UUID]model.Hearing
	seq      map[uuid.UUID]int
	next     int
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]model.User),
		cases:    make(map[uuid.UUID]model.Case),
		hearings: make(map[uuid.UUID]model.Hearing),
		seq:      make(map[uuid.UUID]int),
	}
}

func (s *Store) Users() repository.UserRepository       { return userRepo{s} }
func (s *Store) Cases() repository.CaseRepository       { return caseRepo{s} }
func (s *Store) Hearings() repository.HearingRepository { return hearingRepo{s} }

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
}

type userRepo struct{ s *Store }

func (r userRepo) Get(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r userRepo) Upsert(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	if existing, ok := r.s.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
		u.UpdatedAt = now
	} else {
		u.Touch(now)
	}
	r.s.users[u.ID] = *u
	return nil
}

type caseRepo struct{ s *Store }

func (r caseRepo) Create(_ context.Context, c *model.Case) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.Touch(time.Now())
	r.s.cases[c.ID] = *c
	return nil
}

func (r caseRepo) Get(_ context.Context, id uuid.UUID) (*model.Case, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.cases[id]
	if !ok {
		return nil, notFound("case")
	}
	return &c, nil
}

func (r caseRepo) Update(_ context.Context, c *model.Case) error {
	return r.mutate(c.ID, func(stored *model.Case) {
		created := stored.CreatedAt
		*stored = *c
		stored.CreatedAt = created
	})
}

func (r caseRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cases[id]; !ok {
		return notFound("case")
	}
	delete(r.s.cases, id)
	// ON DELETE SET NULL
	for hid, h := range r.s.hearings {
		if h.CaseID != nil && *h.CaseID == id {
			h.CaseID = nil
			r.s.hearings[hid] = h
		}
	}
	return nil
}

func (r caseRepo) ListByUser(_ context.Context, userID string) ([]*model.Case, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Case
	for _, c := range r.s.cases {
		if c.UserID == userID {
			c := c
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NextHearingDate, out[j].NextHearingDate
		switch {
		case a.IsZero() != b.IsZero():
			return b.IsZero()
		case !a.Equal(b):
			return a.Before(b)
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	return out, nil
}

func (r caseRepo) SetNextHearing(_ context.Context, id uuid.UUID, date model.Date, stage *string) error {
	return r.mutate(id, func(c *model.Case) {
		c.NextHearingDate = date
		if stage != nil {
			c.NextStage = *stage
		}
	})
}

func (r caseRepo) SyncNextHearing(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cases[id]
	if !ok {
		return notFound("case")
	}
	var latest model.Date
	for _, h := range r.s.hearings {
		if h.CaseID != nil && *h.CaseID == id && latest.Before(h.HearingDate) {
			latest = h.HearingDate
		}
	}
	c.NextHearingDate = latest
	c.UpdatedAt = time.Now()
	r.s.cases[id] = c
	return nil
}

func (r caseRepo) SetStatus(_ context.Context, id uuid.UUID, status string) error {
	return r.mutate(id, func(c *model.Case) { c.Status = status })
}

func (r caseRepo) SetDocuments(_ context.Context, id uuid.UUID, docs model.Documents) error {
	return r.mutate(id, func(c *model.Case) { c.Documents = append(model.Documents{}, docs...) })
}

func (r caseRepo) mutate(id uuid.UUID, fn func(*model.Case)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cases[id]
	if !ok {
		return notFound("case")
	}
	fn(&c)
	c.UpdatedAt = time.Now()
	r.s.cases[id] = c
	return nil
}

type hearingRepo struct{ s *Store }

func (r hearingRepo) Create(_ context.Context, h *model.Hearing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h.CaseID != nil {
		if _, ok := r.s.cases[*h.CaseID]; !ok {
			return fmt.Errorf("failed to create hearing: case %s does not exist", h.CaseID)
		}
	}
	h.Touch(time.Now())
	r.s.next++
	r.s.seq[h.ID] = r.s.next
	r.s.hearings[h.ID] = *h
	return nil
}

func (r hearingRepo) Get(_ context.Context, id uuid.UUID) (*model.Hearing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	h, ok := r.s.hearings[id]
	if !ok {
		return nil, notFound("hearing")
	}
	return &h, nil
}

func (r hearingRepo) Update(_ context.Context, h *model.Hearing) error {
	return r.mutate(h.ID, func(stored *model.Hearing) {
		created, caseID := stored.CreatedAt, stored.CaseID
		*stored = *h
		stored.CreatedAt, stored.CaseID = created, caseID
	})
}

func (r hearingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.hearings[id]; !ok {
		return notFound("hearing")
	}
	delete(r.s.hearings, id)
	delete(r.s.seq, id)
	return nil
}

func (r hearingRepo) ListByCase(_ context.Context, caseID uuid.UUID) ([]*model.Hearing, error) {
	out := r.filter(func(h *model.Hearing) bool { return h.CaseID != nil && *h.CaseID == caseID })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].HearingDate.Equal(out[j].HearingDate) {
			return out[j].HearingDate.Before(out[i].HearingDate)
		}
		return r.s.order(out[i].ID) > r.s.order(out[j].ID)
	})
	return out, nil
}

func (r hearingRepo) ListDueScheduled(_ context.Context, now time.Time, limit int) ([]*model.Hearing, error) {
	out := r.filter(func(h *model.Hearing) bool {
		return !h.ReminderSent && h.ReminderScheduledAt != nil && !h.ReminderScheduledAt.After(now)
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := *out[i].ReminderScheduledAt, *out[j].ReminderScheduledAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return r.s.order(out[i].ID) < r.s.order(out[j].ID)
	})
	return truncate(out, limit), nil
}

func (r hearingRepo) ListByDate(_ context.Context, date model.Date) ([]*model.Hearing, error) {
	out := r.filter(func(h *model.Hearing) bool { return h.HearingDate.Equal(date) })
	r.byInsertion(out)
	return out, nil
}

func (r hearingRepo) ListUnscheduled(_ context.Context, limit int) ([]*model.Hearing, error) {
	out := r.filter(func(h *model.Hearing) bool { return !h.ReminderSent && h.ReminderScheduledAt == nil })
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].HearingDate.Equal(out[j].HearingDate) {
			return out[i].HearingDate.Before(out[j].HearingDate)
		}
		return r.s.order(out[i].ID) < r.s.order(out[j].ID)
	})
	return truncate(out, limit), nil
}

func (r hearingRepo) SetSchedule(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.mutate(id, func(h *model.Hearing) { h.ReminderScheduledAt = &at })
}

func (r hearingRepo) RecordReminder(_ context.Context, id uuid.UUID, o model.ReminderOutcome) error {
	return r.mutate(id, func(h *model.Hearing) {
		sentAt := o.SentAt
		h.ReminderSent = true
		h.ReminderSentAt = &sentAt
		h.ReminderSID = optional(o.SID)
		h.ReminderStatus = optional(o.Status)
		h.ReminderError = optional(o.Error)
		h.ReminderResult = optional(o.Result)
	})
}

func (r hearingRepo) mutate(id uuid.UUID, fn func(*model.Hearing)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h, ok := r.s.hearings[id]
	if !ok {
		return notFound("hearing")
	}
	fn(&h)
	h.UpdatedAt = time.Now()
	r.s.hearings[id] = h
	return nil
}

func (r hearingRepo) filter(keep func(*model.Hearing) bool) []*model.Hearing {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Hearing
	for _, h := range r.s.hearings {
		h := h
		if keep(&h) {
			out = append(out, &h)
		}
	}
	return out
}

func (r hearingRepo) byInsertion(hs []*model.Hearing) {
	sort.SliceStable(hs, func(i, j int) bool { return r.s.order(hs[i].ID) < r.s.order(hs[j].ID) })
}

func (s *Store) order(id uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq[id]
}

func truncate(hs []*model.Hearing, limit int) []*model.Hearing {
	if limit > 0 && len(hs) > limit {
		return hs[:limit]
	}
	return hs
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
