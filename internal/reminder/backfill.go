package reminder

import (
	"context"
	"fmt"

	"github.com/jwalitptl/lawdesk/internal/model"
)

// SkipPastHearing marks hearings whose date passed before they were ever
// scheduled.
const SkipPastHearing = "skipped_past_hearing"

// BackfillSummary reports a Backfill pass.
type BackfillSummary struct {
	Scheduled int `json:"scheduled"`
	Expired   int `json:"expired"`
}

// Backfill moves window-configured hearings onto the timestamp queue by
// computing reminder_scheduled_ts for every unsent hearing lacking one.
// Hearings dated before today are closed out instead of scheduled.
func (s *Service) Backfill(ctx context.Context) (*BackfillSummary, error) {
	now := s.clock.Now()
	today := s.opts.Schedule.Today(now)
	summary := &BackfillSummary{}

	for {
		page, err := s.hearings.ListUnscheduled(ctx, s.opts.BatchSize)
		if err != nil {
			return summary, fmt.Errorf("failed to list unscheduled hearings: %w", err)
		}
		if len(page) == 0 {
			break
		}

		for _, h := range page {
			if h.HearingDate.Before(today) {
				if err := s.record(ctx, h, model.ReminderOutcome{SentAt: now, Result: SkipPastHearing}); err != nil {
					return summary, err
				}
				summary.Expired++
				continue
			}
			at := s.opts.Schedule.ScheduledAt(h.HearingDate, h.NotificationTime)
			if err := s.hearings.SetSchedule(ctx, h.ID, at); err != nil {
				return summary, fmt.Errorf("failed to schedule hearing %s: %w", h.ID, err)
			}
			summary.Scheduled++
		}
	}

	s.logger.Info("Backfill finished", "scheduled", summary.Scheduled, "expired", summary.Expired)
	return summary, nil
}
