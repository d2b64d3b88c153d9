package reminder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lawdesk/internal/email"
	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
	"github.com/jwalitptl/lawdesk/internal/sms"
)

type memHearings struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.Hearing
}

func newMemHearings(hs ...*model.Hearing) *memHearings {
	m := &memHearings{rows: make(map[uuid.UUID]*model.Hearing)}
	for _, h := range hs {
		m.rows[h.ID] = h
	}
	return m
}

func (m *memHearings) Create(_ context.Context, h *model.Hearing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[h.ID] = h
	return nil
}

func (m *memHearings) Get(_ context.Context, id uuid.UUID) (*model.Hearing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return h, nil
}

func (m *memHearings) Update(_ context.Context, h *model.Hearing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[h.ID]; !ok {
		return repository.ErrNotFound
	}
	m.rows[h.ID] = h
	return nil
}

func (m *memHearings) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memHearings) filter(keep func(*model.Hearing) bool) []*model.Hearing {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Hearing
	for _, h := range m.rows {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

func (m *memHearings) ListByCase(_ context.Context, caseID uuid.UUID) ([]*model.Hearing, error) {
	out := m.filter(func(h *model.Hearing) bool { return h.CaseID != nil && *h.CaseID == caseID })
	sort.Slice(out, func(i, j int) bool { return out[j].HearingDate.Before(out[i].HearingDate) })
	return out, nil
}

func (m *memHearings) ListDueScheduled(_ context.Context, now time.Time, limit int) ([]*model.Hearing, error) {
	out := m.filter(func(h *model.Hearing) bool {
		return h.ReminderScheduledAt != nil && !h.ReminderScheduledAt.After(now) && !h.ReminderSent
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderScheduledAt.Before(*out[j].ReminderScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHearings) ListByDate(_ context.Context, date model.Date) ([]*model.Hearing, error) {
	return m.filter(func(h *model.Hearing) bool { return h.HearingDate == date }), nil
}

func (m *memHearings) ListUnscheduled(_ context.Context, limit int) ([]*model.Hearing, error) {
	out := m.filter(func(h *model.Hearing) bool { return h.ReminderScheduledAt == nil && !h.ReminderSent })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHearings) SetSchedule(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	h.ReminderScheduledAt = &at
	return nil
}

func (m *memHearings) RecordReminder(_ context.Context, id uuid.UUID, o model.ReminderOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	sentAt := o.SentAt
	h.ReminderSent = true
	h.ReminderSentAt = &sentAt
	h.ReminderSID = strPtr(o.SID)
	h.ReminderStatus = strPtr(o.Status)
	h.ReminderError = strPtr(o.Error)
	h.ReminderResult = strPtr(o.Result)
	return nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type memCases struct {
	repository.CaseRepository
	rows map[uuid.UUID]*model.Case
}

func newMemCases(cs ...*model.Case) *memCases {
	m := &memCases{rows: make(map[uuid.UUID]*model.Case)}
	for _, c := range cs {
		m.rows[c.ID] = c
	}
	return m
}

func (m *memCases) Get(_ context.Context, id uuid.UUID) (*model.Case, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type memUsers struct {
	rows map[string]*model.User
}

func newMemUsers(us ...*model.User) *memUsers {
	m := &memUsers{rows: make(map[string]*model.User)}
	for _, u := range us {
		m.rows[u.ID] = u
	}
	return m
}

func (m *memUsers) Get(_ context.Context, id string) (*model.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Upsert(_ context.Context, u *model.User) error {
	m.rows[u.ID] = u
	return nil
}

type fakeSMS struct {
	validateErr error
	fail        map[string]error
	sent        []*sms.Message
}

func (f *fakeSMS) Validate() error { return f.validateErr }

func (f *fakeSMS) Send(_ context.Context, msg *sms.Message) (*sms.Receipt, error) {
	if err := f.fail[msg.To]; err != nil {
		return nil, err
	}
	f.sent = append(f.sent, msg)
	return &sms.Receipt{ID: "SM" + msg.To, Status: "queued"}, nil
}

type fakeEmail struct {
	sent []*email.Message
}

func (f *fakeEmail) Validate() error { return nil }

func (f *fakeEmail) Send(_ context.Context, msg *email.Message) (*email.Receipt, error) {
	f.sent = append(f.sent, msg)
	return &email.Receipt{ID: "em-1", Status: "accepted"}, nil
}

type recordingPublisher struct {
	topics   []string
	messages []interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, msg interface{}) error {
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, msg)
	return nil
}
