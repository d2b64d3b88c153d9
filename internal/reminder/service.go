package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
	apperrors "github.com/jwalitptl/lawdesk/pkg/errors"
	"github.com/jwalitptl/lawdesk/pkg/lock"
	"github.com/jwalitptl/lawdesk/pkg/logger"
	"github.com/jwalitptl/lawdesk/pkg/messaging"
	"github.com/jwalitptl/lawdesk/pkg/metrics"
)

const (
	PolicyTimestamp = "timestamp"
	PolicyWindow    = "window"

	// ReasonNoDueHearings is reported by a window run that matched nothing.
	ReasonNoDueHearings = "no-due-hearings"
)

// ErrRunInProgress is returned when another run holds the policy lock.
var ErrRunInProgress = apperrors.Conflict("run in progress")

// ProcessSummary is the result of a timestamp-queue run. Processed counts
// hearings; Sent and Failed count messages.
type ProcessSummary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// NotifySummary is the result of a window run.
type NotifySummary struct {
	OK      bool   `json:"ok"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed,omitempty"`
	Skipped int    `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type Options struct {
	Policy    string
	Schedule  Schedule
	BatchSize int
	LockTTL   time.Duration
}

// Deps are the collaborators of a Service. Only the repositories and the
// channel are required.
type Deps struct {
	Hearings  repository.HearingRepository
	Cases     repository.CaseRepository
	Users     repository.UserRepository
	Channel   Channel
	Deduper   Deduper
	Locker    lock.Locker
	Publisher messaging.Publisher
	Clock     Clock
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
}

// Service runs the select, resolve, compose, dispatch pipeline. Each run is
// sequential and bounded by the batch size.
type Service struct {
	hearings  repository.HearingRepository
	selector  *Selector
	resolver  *Resolver
	channel   Channel
	dedup     Deduper
	locker    lock.Locker
	publisher messaging.Publisher
	clock     Clock
	logger    *logger.Logger
	metrics   *metrics.Metrics
	opts      Options
}

func NewService(deps Deps, opts Options) *Service {
	opts.Schedule = opts.Schedule.withDefaults()
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	if opts.Policy == "" {
		opts.Policy = PolicyTimestamp
	}

	s := &Service{
		hearings:  deps.Hearings,
		selector:  NewSelector(deps.Hearings, opts.Schedule, opts.BatchSize),
		resolver:  NewResolver(deps.Cases, deps.Users),
		channel:   deps.Channel,
		dedup:     deps.Deduper,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		opts:      opts,
	}
	if s.dedup == nil {
		s.dedup = NewMemoryDeduper()
	}
	if s.locker == nil {
		s.locker = lock.NopLocker{}
	}
	if s.publisher == nil {
		s.publisher = messaging.NopPublisher{}
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New("lawdesk")
	}
	return s
}

// Schedule exposes the effective schedule, used by hearing writes.
func (s *Service) Schedule() Schedule {
	return s.opts.Schedule
}

// Run executes the configured policy.
func (s *Service) Run(ctx context.Context) error {
	switch s.opts.Policy {
	case PolicyWindow:
		_, err := s.NotifyWindow(ctx)
		return err
	default:
		_, err := s.ProcessScheduled(ctx)
		return err
	}
}

// begin validates the channel and takes the policy lock.
func (s *Service) begin(ctx context.Context, policy string) (func(), error) {
	if err := s.channel.Validate(); err != nil {
		s.metrics.RunsRejected.WithLabelValues(policy, "config").Inc()
		return nil, apperrors.Config(err.Error())
	}

	release, err := s.locker.Acquire(ctx, "reminders:"+policy, s.opts.LockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		s.metrics.RunsRejected.WithLabelValues(policy, "locked").Inc()
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return release, nil
}

// ProcessScheduled dispatches every due, unsent hearing of one batch and
// marks each of them sent, whether delivered, failed or skipped.
func (s *Service) ProcessScheduled(ctx context.Context) (*ProcessSummary, error) {
	release, err := s.begin(ctx, PolicyTimestamp)
	if err != nil {
		return nil, err
	}
	defer release()

	timer := prometheus.NewTimer(s.metrics.RunDuration.WithLabelValues(PolicyTimestamp))
	defer timer.ObserveDuration()

	runID := uuid.NewString()
	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"run_id": runID, "policy": PolicyTimestamp, "channel": s.channel.Name(),
	})
	now := s.clock.Now()
	summary := &ProcessSummary{}

	due, err := s.selector.DueScheduled(ctx, now)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("list_due_hearings", "error").Inc()
		return nil, err
	}
	s.metrics.DatabaseOperations.WithLabelValues("list_due_hearings", "success").Inc()
	if len(due) == 0 {
		return summary, nil
	}

	res, err := s.resolver.Resolve(ctx, due, s.channel)
	if err != nil {
		return nil, err
	}

	for _, skip := range res.Skipped {
		log.Warn("Skipping hearing", "hearing_id", skip.Hearing.ID.String(), "reason", skip.Reason)
		if err := s.record(ctx, skip.Hearing, model.ReminderOutcome{SentAt: now, Result: skip.Reason}); err != nil {
			return summary, err
		}
		s.metrics.RemindersSkipped.WithLabelValues(PolicyTimestamp, skip.Reason).Inc()
		summary.Skipped++
		summary.Processed++
	}

	for _, g := range res.Groups {
		result, sendErr := s.deliver(ctx, PolicyTimestamp, g)
		outcome := model.ReminderOutcome{SentAt: s.clock.Now()}
		if sendErr != nil {
			outcome.Error = sendErr.Error()
			summary.Failed++
			log.Error(sendErr, "Failed to send reminder", "user_id", g.User.ID, "hearings", len(g.Items))
		} else {
			outcome.SID, outcome.Status = result.ID, result.Status
			summary.Sent++
			log.Info("Reminder sent", "user_id", g.User.ID, "hearings", len(g.Items), "provider_id", result.ID)
		}

		for _, it := range g.Items {
			if err := s.record(ctx, it.Hearing, outcome); err != nil {
				return summary, err
			}
			summary.Processed++
		}
		s.publish(ctx, runID, PolicyTimestamp, g, result, sendErr)
	}

	s.metrics.RemindersProcessed.WithLabelValues(PolicyTimestamp).Add(float64(summary.Processed))
	log.Info("Reminder run finished",
		"processed", summary.Processed, "sent", summary.Sent,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

// NotifyWindow dispatches hearings matching the recurring window. Nothing is
// written back to the hearings; repeat sends inside the window are
// suppressed by the Deduper.
func (s *Service) NotifyWindow(ctx context.Context) (*NotifySummary, error) {
	release, err := s.begin(ctx, PolicyWindow)
	if err != nil {
		return nil, err
	}
	defer release()

	timer := prometheus.NewTimer(s.metrics.RunDuration.WithLabelValues(PolicyWindow))
	defer timer.ObserveDuration()

	runID := uuid.NewString()
	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"run_id": runID, "policy": PolicyWindow, "channel": s.channel.Name(),
	})
	now := s.clock.Now()

	due, err := s.selector.DueInWindow(ctx, now)
	if err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("list_window_hearings", "error").Inc()
		return nil, err
	}
	s.metrics.DatabaseOperations.WithLabelValues("list_window_hearings", "success").Inc()
	if len(due) == 0 {
		return &NotifySummary{OK: true, Reason: ReasonNoDueHearings}, nil
	}

	res, err := s.resolver.Resolve(ctx, due, s.channel)
	if err != nil {
		return nil, err
	}

	summary := &NotifySummary{OK: true}
	for _, skip := range res.Skipped {
		log.Debug("Skipping hearing", "hearing_id", skip.Hearing.ID.String(), "reason", skip.Reason)
		s.metrics.RemindersSkipped.WithLabelValues(PolicyWindow, skip.Reason).Inc()
		summary.Skipped++
	}

	ttl := 2*s.opts.Schedule.Window + time.Minute
	for _, g := range res.Groups {
		claimed, err := s.claim(ctx, g, ttl)
		if err != nil {
			return summary, err
		}
		if len(claimed) == 0 {
			summary.Skipped += len(g.Items)
			continue
		}
		summary.Skipped += len(g.Items) - len(claimed)
		g.Items = claimed

		result, sendErr := s.deliver(ctx, PolicyWindow, g)
		if sendErr != nil {
			summary.Failed++
			log.Error(sendErr, "Failed to send reminder", "user_id", g.User.ID, "hearings", len(g.Items))
			for _, it := range g.Items {
				if err := s.dedup.Release(ctx, s.dedupKey(it)); err != nil {
					log.Error(err, "Failed to release reminder claim", "hearing_id", it.Hearing.ID.String())
				}
			}
		} else {
			summary.Sent++
			log.Info("Reminder sent", "user_id", g.User.ID, "hearings", len(g.Items), "provider_id", result.ID)
		}
		s.publish(ctx, runID, PolicyWindow, g, result, sendErr)
	}

	s.metrics.RemindersProcessed.WithLabelValues(PolicyWindow).Add(float64(len(due)))
	log.Info("Reminder run finished", "matched", len(due), "sent", summary.Sent,
		"failed", summary.Failed, "skipped", summary.Skipped)
	return summary, nil
}

func (s *Service) deliver(ctx context.Context, policy string, g Group) (*Result, error) {
	msg, err := s.channel.Compose(g)
	if err != nil {
		s.metrics.RemindersFailed.WithLabelValues(policy, s.channel.Name()).Inc()
		return nil, err
	}
	result, err := s.channel.Send(ctx, msg)
	if err != nil {
		s.metrics.RemindersFailed.WithLabelValues(policy, s.channel.Name()).Inc()
		return nil, err
	}
	s.metrics.RemindersSent.WithLabelValues(policy, s.channel.Name()).Inc()
	return result, nil
}

func (s *Service) record(ctx context.Context, h *model.Hearing, outcome model.ReminderOutcome) error {
	if err := s.hearings.RecordReminder(ctx, h.ID, outcome); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("record_reminder", "error").Inc()
		return fmt.Errorf("failed to record reminder for hearing %s: %w", h.ID, err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("record_reminder", "success").Inc()
	return nil
}

func (s *Service) claim(ctx context.Context, g Group, ttl time.Duration) ([]Item, error) {
	var claimed []Item
	for _, it := range g.Items {
		ok, err := s.dedup.Claim(ctx, s.dedupKey(it), ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			claimed = append(claimed, it)
		}
	}
	return claimed, nil
}

func (s *Service) dedupKey(it Item) string {
	return fmt.Sprintf("%s:%s:%s", it.Hearing.ID, it.Hearing.HearingDate, s.channel.Name())
}
