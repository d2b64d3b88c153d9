package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/lawdesk/internal/middleware"
)

var (
	tickURL      string
	tickSecret   string
	tickInterval time.Duration
	tickOnce     bool
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Call the reminder trigger endpoint on an interval",
	Long: `Tick stands in for an external cron scheduler. It calls the trigger URL
with the cron secret, logs the response, and repeats until interrupted.`,
	RunE: runTick,
}

func init() {
	tickCmd.Flags().StringVar(&tickURL, "url", "http://localhost:8080/api/v1/reminders/process", "Trigger endpoint")
	tickCmd.Flags().StringVar(&tickSecret, "secret", "", "Cron secret (defaults to $CRON_SECRET)")
	tickCmd.Flags().DurationVar(&tickInterval, "interval", time.Minute, "Time between calls")
	tickCmd.Flags().BoolVar(&tickOnce, "once", false, "Call once and exit")
}

func runTick(cmd *cobra.Command, args []string) error {
	if tickSecret == "" {
		tickSecret = envOr("CRON_SECRET", "")
	}
	client := &http.Client{Timeout: 2 * time.Minute}

	if err := tick(cmd.Context(), client); err != nil {
		if tickOnce {
			return err
		}
		log.Error(err, "Tick failed")
	}
	if tickOnce {
		return nil
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
			if err := tick(cmd.Context(), client); err != nil {
				log.Error(err, "Tick failed")
			}
		}
	}
}

func tick(ctx context.Context, client *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tickURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if tickSecret != "" {
		req.Header.Set(middleware.HeaderCronSecret, tickSecret)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", tickURL, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	log.Info("Tick", "status", resp.StatusCode, "body", strings.TrimSpace(string(body)))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("trigger returned %d", resp.StatusCode)
	}
	return nil
}
