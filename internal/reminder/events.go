package reminder

import (
	"context"
	"time"

	"github.com/jwalitptl/lawdesk/pkg/messaging"
)

// DispatchEvent is published on messaging.TopicReminderDispatched after
// every delivery attempt.
type DispatchEvent struct {
	RunID      string    `json:"run_id"`
	Policy     string    `json:"policy"`
	Channel    string    `json:"channel"`
	UserID     string    `json:"user_id"`
	HearingIDs []string  `json:"hearing_ids"`
	Delivered  bool      `json:"delivered"`
	ProviderID string    `json:"provider_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

func (s *Service) publish(ctx context.Context, runID, policy string, g Group, result *Result, sendErr error) {
	ev := DispatchEvent{
		RunID:     runID,
		Policy:    policy,
		Channel:   s.channel.Name(),
		UserID:    g.User.ID,
		Delivered: sendErr == nil,
		At:        s.clock.Now(),
	}
	for _, it := range g.Items {
		ev.HearingIDs = append(ev.HearingIDs, it.Hearing.ID.String())
	}
	if sendErr != nil {
		ev.Error = sendErr.Error()
	} else if result != nil {
		ev.ProviderID, ev.Status = result.ID, result.Status
	}

	msg := messaging.Message{Type: messaging.TopicReminderDispatched, Payload: ev}
	if err := s.publisher.Publish(ctx, messaging.TopicReminderDispatched, msg); err != nil {
		// Events are advisory; the hearing row is the source of truth.
		s.logger.Warn("Failed to publish dispatch event", "run_id", runID, "error", err.Error())
	}
}
