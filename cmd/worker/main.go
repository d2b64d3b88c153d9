package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/lawdesk/config"
	"github.com/jwalitptl/lawdesk/internal/app"
	"github.com/jwalitptl/lawdesk/internal/worker"
	"github.com/jwalitptl/lawdesk/pkg/logger"
)

const healthAddr = ":8081"

// The worker runs the reminder poller without the HTTP API, for deployments
// that have no external scheduler.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	l := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Fatal(err, "Failed to initialize application")
	}
	defer a.Close()

	interval := cfg.Reminders.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}

	setupHealthCheck(l)
	worker.NewReminderPoller(a.Reminders, interval, l).Start(ctx)
	l.Info("Shutting down...")
}

func setupHealthCheck(l *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(healthAddr, mux); err != nil {
			l.Error(err, "Health check server failed")
		}
	}()
}
