package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/lawdesk/config"
	"github.com/jwalitptl/lawdesk/internal/reminder"
)

var policy string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reminder pass in process",
	Long: `Run executes a single pass of the reminder pipeline against the configured
database and prints the summary as JSON. The policy defaults to the configured
one.`,
	RunE: runRun,
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Schedule hearings that have no reminder timestamp",
	Long: `Backfill computes reminder_scheduled_ts for every unsent hearing that lacks
one. Hearings dated before today are marked as skipped instead.`,
	RunE: runBackfill,
}

func init() {
	runCmd.Flags().StringVar(&policy, "policy", "", "Override the policy (timestamp or window)")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, policy)
	if err != nil {
		return err
	}
	defer a.Close()

	var summary interface{}
	switch a.Config.Reminders.Policy {
	case config.PolicyWindow:
		summary, err = a.Reminders.NotifyWindow(cmd.Context())
	default:
		summary, err = a.Reminders.ProcessScheduled(cmd.Context())
	}
	if errors.Is(err, reminder.ErrRunInProgress) {
		return fmt.Errorf("another %s run holds the lock", a.Config.Reminders.Policy)
	}
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, "")
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.Reminders.Backfill(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
