// Command remindctl is the operator CLI for the reminder pipeline. It can
// drive the HTTP trigger like an external scheduler, run a policy in process,
// backfill the timestamp queue, mint API tokens and tail dispatch events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/lawdesk/config"
	"github.com/jwalitptl/lawdesk/internal/app"
	"github.com/jwalitptl/lawdesk/pkg/logger"
)

var (
	verbose bool
	log     *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "remindctl",
	Short: "Operate hearing reminders",
	Long: `remindctl runs and inspects the hearing reminder pipeline.

Configuration is read the same way as the API server: config.yml plus
environment variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logger.InfoLevel
		if verbose {
			level = logger.DebugLevel
		}
		log = logger.NewLogger(&logger.Config{Level: level, TimeFormat: time.Kitchen, Output: os.Stderr})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(tickCmd, runCmd, backfillCmd, tokenCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadApp connects to the configured stores. Callers must Close the result.
func loadApp(cmd *cobra.Command, policy string) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if policy != "" {
		cfg.Reminders.Policy = policy
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return app.New(cmd.Context(), cfg, log)
}
