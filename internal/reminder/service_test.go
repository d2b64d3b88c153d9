package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lawdesk/internal/model"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
	"github.com/jwalitptl/lawdesk/pkg/lock"
	"github.com/jwalitptl/lawdesk/pkg/messaging"
)

func ist(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func scheduledHearing(caseID *uuid.UUID, d model.Date, at time.Time) *model.Hearing {
	return &model.Hearing{ID: uuid.New(), CaseID: caseID, HearingDate: d, ReminderScheduledAt: &at}
}

type fixture struct {
	now      time.Time
	hearings *memHearings
	cases    *memCases
	users    *memUsers
	sms      *fakeSMS
	email    *fakeEmail
	pub      *recordingPublisher
}

func (f *fixture) service(t *testing.T, ch Channel, locker lock.Locker) *Service {
	return NewService(Deps{
		Hearings:  f.hearings,
		Cases:     f.cases,
		Users:     f.users,
		Channel:   ch,
		Locker:    locker,
		Publisher: f.pub,
		Clock:     FixedClock(f.now),
	}, Options{
		Schedule:  Schedule{Location: ist(t), DefaultTime: "18:00", OffsetDays: 1, Window: 10 * time.Minute},
		BatchSize: 20,
	})
}

func (f *fixture) smsChannel() Channel {
	return NewSMSChannel(f.sms, Composer{BrandName: "LawDesk"}, "+91")
}

func (f *fixture) emailChannel() Channel {
	return NewEmailChannel(f.email, Composer{BrandName: "LawDesk", AppBaseURL: "https://app.lawdesk.test"})
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		now:      time.Date(2025, 3, 9, 18, 5, 0, 0, ist(t)),
		hearings: newMemHearings(),
		cases:    newMemCases(),
		users:    newMemUsers(),
		sms:      &fakeSMS{},
		email:    &fakeEmail{},
		pub:      &recordingPublisher{},
	}
}

func TestProcessScheduled_MarksEveryDueHearing(t *testing.T) {
	f := newFixture(t)
	past := f.now.Add(-time.Hour)

	owner := &model.User{ID: "u1", Mobile: "98765 43210"}
	noPhone := &model.User{ID: "u2", Mobile: "12345"}
	f.users = newMemUsers(owner, noPhone)

	caseA := &model.Case{ID: uuid.New(), UserID: "u1", CaseNumber: "OS 12/2025", NextStage: "Arguments"}
	caseB := &model.Case{ID: uuid.New(), UserID: "u2", ClientName: "Meera"}
	orphanCase := &model.Case{ID: uuid.New()}
	f.cases = newMemCases(caseA, caseB, orphanCase)

	missingCaseID := uuid.New()
	delivered := scheduledHearing(&caseA.ID, date(t, "2025-03-10"), past)
	delivered.NextStage = "Evidence"
	invalidPhone := scheduledHearing(&caseB.ID, date(t, "2025-03-10"), past)
	noCase := scheduledHearing(nil, date(t, "2025-03-10"), past)
	danglingCase := scheduledHearing(&missingCaseID, date(t, "2025-03-10"), past)
	noOwner := scheduledHearing(&orphanCase.ID, date(t, "2025-03-10"), past)
	future := scheduledHearing(&caseA.ID, date(t, "2025-03-12"), f.now.Add(time.Hour))
	alreadySent := scheduledHearing(&caseA.ID, date(t, "2025-03-08"), past.Add(-24*time.Hour))
	alreadySent.ReminderSent = true

	f.hearings = newMemHearings(delivered, invalidPhone, noCase, danglingCase, noOwner, future, alreadySent)
	svc := f.service(t, f.smsChannel(), nil)

	summary, err := svc.ProcessScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ProcessSummary{Processed: 5, Sent: 1, Failed: 0, Skipped: 4}, summary)

	require.Len(t, f.sms.sent, 1)
	assert.Equal(t, "+919876543210", f.sms.sent[0].To)
	assert.Equal(t, "Reminder: Hearing on 10 March 2025 | Case: OS 12/2025 | Stage: Evidence", f.sms.sent[0].Body)

	for _, h := range []*model.Hearing{delivered, invalidPhone, noCase, danglingCase, noOwner} {
		assert.True(t, h.ReminderSent, "hearing %s should be marked", h.ID)
		require.NotNil(t, h.ReminderSentAt)
	}
	assert.False(t, future.ReminderSent)

	require.NotNil(t, delivered.ReminderSID)
	assert.Equal(t, "SM+919876543210", *delivered.ReminderSID)
	assert.Nil(t, delivered.ReminderError)

	assert.Equal(t, SkipInvalidContact, *invalidPhone.ReminderResult)
	assert.Equal(t, SkipMissingCaseID, *noCase.ReminderResult)
	assert.Equal(t, SkipCaseNotFound, *danglingCase.ReminderResult)
	assert.Equal(t, SkipMissingOwner, *noOwner.ReminderResult)

	require.Len(t, f.pub.topics, 1)
	assert.Equal(t, messaging.TopicReminderDispatched, f.pub.topics[0])
	ev := f.pub.messages[0].(messaging.Message).Payload.(DispatchEvent)
	assert.True(t, ev.Delivered)
	assert.Equal(t, []string{delivered.ID.String()}, ev.HearingIDs)

	t.Run("second run sends nothing", func(t *testing.T) {
		again, err := svc.ProcessScheduled(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &ProcessSummary{}, again)
		assert.Len(t, f.sms.sent, 1)
	})
}

func TestProcessScheduled_RecordsDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.users = newMemUsers(&model.User{ID: "u1", Mobile: "+15555550123"}, &model.User{ID: "u2", Mobile: "9876543210"})
	c1 := &model.Case{ID: uuid.New(), UserID: "u1"}
	c2 := &model.Case{ID: uuid.New(), UserID: "u2"}
	f.cases = newMemCases(c1, c2)
	failing := scheduledHearing(&c1.ID, date(t, "2025-03-10"), f.now.Add(-2*time.Hour))
	ok := scheduledHearing(&c2.ID, date(t, "2025-03-10"), f.now.Add(-time.Hour))
	f.hearings = newMemHearings(failing, ok)
	f.sms.fail = map[string]error{"+15555550123": errors.New("unreachable destination")}

	summary, err := f.service(t, f.smsChannel(), nil).ProcessScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ProcessSummary{Processed: 2, Sent: 1, Failed: 1}, summary)

	assert.True(t, failing.ReminderSent)
	require.NotNil(t, failing.ReminderError)
	assert.Equal(t, "unreachable destination", *failing.ReminderError)
	assert.Nil(t, failing.ReminderSID)
	assert.True(t, ok.ReminderSent)
}

func TestProcessScheduled_RespectsBatchSize(t *testing.T) {
	f := newFixture(t)
	f.users = newMemUsers(&model.User{ID: "u1", Mobile: "9876543210"})
	c := &model.Case{ID: uuid.New(), UserID: "u1"}
	f.cases = newMemCases(c)
	for i := 0; i < 25; i++ {
		h := scheduledHearing(&c.ID, date(t, "2025-03-10"), f.now.Add(-time.Duration(i+1)*time.Minute))
		require.NoError(t, f.hearings.Create(context.Background(), h))
	}

	svc := f.service(t, f.smsChannel(), nil)
	first, err := svc.ProcessScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, first.Processed)

	second, err := svc.ProcessScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, second.Processed)
}

func TestProcessScheduled_GroupsEmailPerUser(t *testing.T) {
	f := newFixture(t)
	f.users = newMemUsers(&model.User{ID: "u1", Email: "asha@example.com", DisplayName: "Asha"})
	c1 := &model.Case{ID: uuid.New(), UserID: "u1", ClientName: "Ravi", CourtName: "City Civil Court"}
	c2 := &model.Case{ID: uuid.New(), UserID: "u1", CaseNumber: "CC 7/2024"}
	f.cases = newMemCases(c1, c2)
	h1 := scheduledHearing(&c1.ID, date(t, "2025-03-10"), f.now.Add(-time.Hour))
	h2 := scheduledHearing(&c2.ID, date(t, "2025-03-11"), f.now.Add(-time.Minute))
	f.hearings = newMemHearings(h1, h2)

	summary, err := f.service(t, f.emailChannel(), nil).ProcessScheduled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ProcessSummary{Processed: 2, Sent: 1}, summary)

	require.Len(t, f.email.sent, 1)
	msg := f.email.sent[0]
	assert.Equal(t, "asha@example.com", msg.To)
	assert.Equal(t, "Upcoming hearing reminders", msg.Subject)
	assert.Equal(t, 2, strings.Count(msg.HTML, "<li"))
	assert.Contains(t, msg.HTML, "https://app.lawdesk.test/case/"+c1.ID.String())
	assert.Contains(t, msg.Text, "10 March 2025")
	assert.Contains(t, msg.Text, "11 March 2025")
	assert.Equal(t, 2, msg.TemplateData["count"])

	assert.Equal(t, "em-1", *h1.ReminderSID)
	assert.Equal(t, "em-1", *h2.ReminderSID)
}

func TestProcessScheduled_RejectsBeforeWork(t *testing.T) {
	t.Run("missing provider configuration", func(t *testing.T) {
		f := newFixture(t)
		f.sms.validateErr = errors.New("missing TWILIO_ACCOUNT_SID")
		c := &model.Case{ID: uuid.New(), UserID: "u1"}
		f.cases = newMemCases(c)
		h := scheduledHearing(&c.ID, date(t, "2025-03-10"), f.now.Add(-time.Hour))
		f.hearings = newMemHearings(h)

		_, err := f.service(t, f.smsChannel(), nil).ProcessScheduled(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrConfig))
		assert.Contains(t, err.Error(), "TWILIO_ACCOUNT_SID")
		assert.False(t, h.ReminderSent)
	})

	t.Run("run already in progress", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service(t, f.smsChannel(), busyLocker{}).ProcessScheduled(context.Background())
		assert.ErrorIs(t, err, ErrRunInProgress)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
	})
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return nil, lock.ErrNotAcquired
}

func TestNotifyWindow(t *testing.T) {
	f := newFixture(t)
	f.users = newMemUsers(&model.User{ID: "u1", Email: "asha@example.com"})
	c := &model.Case{ID: uuid.New(), UserID: "u1", ClientName: "Ravi"}
	f.cases = newMemCases(c)
	tomorrow := &model.Hearing{ID: uuid.New(), CaseID: &c.ID, HearingDate: date(t, "2025-03-10")}
	f.hearings = newMemHearings(tomorrow)

	svc := f.service(t, f.emailChannel(), nil)

	first, err := svc.NotifyWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &NotifySummary{OK: true, Sent: 1}, first)
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "Hearing reminder: 10 March 2025", f.email.sent[0].Subject)
	assert.False(t, tomorrow.ReminderSent, "window runs do not write back")

	second, err := svc.NotifyWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &NotifySummary{OK: true, Skipped: 1}, second)
	assert.Len(t, f.email.sent, 1)

	f.now = f.now.Add(time.Hour)
	later, err := f.service(t, f.emailChannel(), nil).NotifyWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &NotifySummary{OK: true, Reason: ReasonNoDueHearings}, later)
}

func TestNotifyWindow_ReleasesClaimOnFailure(t *testing.T) {
	f := newFixture(t)
	f.users = newMemUsers(&model.User{ID: "u1", Mobile: "9876543210"})
	c := &model.Case{ID: uuid.New(), UserID: "u1"}
	f.cases = newMemCases(c)
	f.hearings = newMemHearings(&model.Hearing{ID: uuid.New(), CaseID: &c.ID, HearingDate: date(t, "2025-03-10")})
	f.sms.fail = map[string]error{"+919876543210": errors.New("carrier down")}

	svc := f.service(t, f.smsChannel(), nil)
	summary, err := svc.NotifyWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &NotifySummary{OK: true, Failed: 1}, summary)

	f.sms.fail = nil
	retry, err := svc.NotifyWindow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Sent)
}

func TestBackfill(t *testing.T) {
	f := newFixture(t)
	upcoming := &model.Hearing{ID: uuid.New(), HearingDate: date(t, "2025-03-20")}
	custom := &model.Hearing{ID: uuid.New(), HearingDate: date(t, "2025-03-20"), NotificationTime: "07:30"}
	past := &model.Hearing{ID: uuid.New(), HearingDate: date(t, "2025-03-01")}
	f.hearings = newMemHearings(upcoming, custom, past)

	summary, err := f.service(t, f.smsChannel(), nil).Backfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &BackfillSummary{Scheduled: 2, Expired: 1}, summary)

	loc := ist(t)
	require.NotNil(t, upcoming.ReminderScheduledAt)
	assert.True(t, time.Date(2025, 3, 19, 18, 0, 0, 0, loc).Equal(*upcoming.ReminderScheduledAt))
	assert.True(t, time.Date(2025, 3, 19, 7, 30, 0, 0, loc).Equal(*custom.ReminderScheduledAt))
	assert.True(t, past.ReminderSent)
	assert.Equal(t, SkipPastHearing, *past.ReminderResult)
}
