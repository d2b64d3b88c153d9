package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/lawdesk/internal/reminder"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestReminderPoller_RunsUntilCancelled(t *testing.T) {
	runner := &countingRunner{err: errors.New("provider down")}
	p := NewReminderPoller(runner, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 3 }, time.Second, time.Millisecond,
		"errors do not stop the loop")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestReminderPoller_RunsImmediately(t *testing.T) {
	runner := &countingRunner{err: reminder.ErrRunInProgress}
	p := NewReminderPoller(runner, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go p.Start(ctx)
	defer cancel()

	assert.Eventually(t, func() bool { return runner.calls.Load() == 1 }, time.Second, time.Millisecond)
}
