package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/lawdesk/internal/model"
	"github.com/jwalitptl/lawdesk/internal/repository"
)

// Selector finds hearings whose reminder is due.
type Selector struct {
	hearings  repository.HearingRepository
	schedule  Schedule
	batchSize int
}

func NewSelector(hearings repository.HearingRepository, schedule Schedule, batchSize int) *Selector {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Selector{hearings: hearings, schedule: schedule.withDefaults(), batchSize: batchSize}
}

// DueScheduled returns up to batchSize unsent hearings whose scheduled
// instant is not after now, oldest first.
func (s *Selector) DueScheduled(ctx context.Context, now time.Time) ([]*model.Hearing, error) {
	hearings, err := s.hearings.ListDueScheduled(ctx, now, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to select scheduled hearings: %w", err)
	}
	return hearings, nil
}

// DueInWindow returns hearings matching the recurring window rules at now:
// today's hearings whose own notification time is within the window, plus,
// when now is within the window of the default time, hearings OffsetDays
// ahead that have no notification time.
func (s *Selector) DueInWindow(ctx context.Context, now time.Time) ([]*model.Hearing, error) {
	local := now.In(s.schedule.Location)
	today := model.DateOf(local)

	todays, err := s.hearings.ListByDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to select today's hearings: %w", err)
	}

	var due []*model.Hearing
	for _, h := range todays {
		if h.NotificationTime != "" && WithinWindow(h.NotificationTime, local, s.schedule.Window) {
			due = append(due, h)
		}
	}

	if !WithinWindow(s.schedule.DefaultTime, local, s.schedule.Window) {
		return due, nil
	}

	target, err := s.hearings.ListByDate(ctx, today.AddDays(s.schedule.OffsetDays))
	if err != nil {
		return nil, fmt.Errorf("failed to select upcoming hearings: %w", err)
	}
	for _, h := range target {
		if h.NotificationTime == "" {
			due = append(due, h)
		}
	}
	return due, nil
}
