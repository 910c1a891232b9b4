package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentfleet/tokengate/pkg/retention"
)

var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Run the background retention sweeper",
	Long:  `Periodically delete usage events past the configured retention window. Runs until interrupted.`,
	RunE:  runRetention,
}

func init() {
	rootCmd.AddCommand(retentionCmd)
}

func runRetention(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	interval, err := cfg.Retention.SweepInterval()
	if err != nil {
		return err
	}

	store, err := openLedger(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	job, err := retention.New(store, cfg.Retention.Days, interval, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("retention sweeper started",
		"retention_days", cfg.Retention.Days, "interval", interval.String())
	job.Run(ctx)
	logger.Info("retention sweeper stopped")
	return nil
}
