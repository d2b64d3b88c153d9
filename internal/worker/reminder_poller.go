package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jwalitptl/lawdesk/internal/reminder"
	"github.com/jwalitptl/lawdesk/pkg/logger"
)

// Runner executes one reminder run.
type Runner interface {
	Run(ctx context.Context) error
}

// ReminderPoller invokes the configured reminder policy on a fixed interval,
// standing in for an external scheduler.
type ReminderPoller struct {
	runner   Runner
	interval time.Duration
	logger   *logger.Logger
}

func NewReminderPoller(runner Runner, interval time.Duration, log *logger.Logger) *ReminderPoller {
	if log == nil {
		log = logger.Nop()
	}
	return &ReminderPoller{
		runner:   runner,
		interval: interval,
		logger:   log.WithFields(map[string]interface{}{"component": "reminder_poller"}),
	}
}

// Start runs once immediately and then on every tick until ctx is done. Run
// errors are logged and never stop the loop.
func (p *ReminderPoller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Reminder poller started", "interval", p.interval.String())
	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Reminder poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *ReminderPoller) tick(ctx context.Context) {
	err := p.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, reminder.ErrRunInProgress):
		p.logger.Debug("Reminder run skipped, another instance holds the lock")
	case ctx.Err() != nil:
	default:
		p.logger.Error(err, "Reminder run failed")
	}
}
