package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/lawdesk/config"
	"github.com/jwalitptl/lawdesk/internal/reminder"
	"github.com/jwalitptl/lawdesk/pkg/messaging"
	messagingRedis "github.com/jwalitptl/lawdesk/pkg/messaging/redis"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print reminder dispatch events as they are published",
	Long: `Watch subscribes to the reminder.dispatched topic on Redis and prints one
line per dispatched message until interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Redis.URL == "" {
		return fmt.Errorf("watch needs REDIS_URL")
	}

	client, err := messagingRedis.NewClient(cmd.Context(), messagingRedis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     1,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	broker := messagingRedis.NewRedisBroker(client, &log.ZL)

	ch, err := broker.Subscribe(cmd.Context(), messaging.TopicReminderDispatched)
	if err != nil {
		return err
	}
	log.Info("Watching", "topic", messaging.TopicReminderDispatched)

	for raw := range ch {
		var msg struct {
			Type    string                 `json:"type"`
			Payload reminder.DispatchEvent `json:"payload"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warn("Undecodable event", "error", err.Error())
			continue
		}
		ev := msg.Payload
		fmt.Printf("%s %-6s %-9s %-3d %s %s\n", ev.At.Format(time.RFC3339), ev.Channel, ev.Policy, len(ev.HearingIDs), status(ev), ev.Error)
	}
	return nil
}

func status(ev reminder.DispatchEvent) string {
	if ev.Delivered {
		return "sent"
	}
	return "failed"
}

