package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete usage events past the retention window",
	RunE:  runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().Int("days", 0, "Retention in days (default from config)")
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	days, _ := cmd.Flags().GetInt("days")
	if !cmd.Flags().Changed("days") {
		days = cfg.Retention.Days
	}

	store, err := openLedger(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	deleted, err := store.CleanupOld(cmd.Context(), days)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	fmt.Printf("Deleted %d usage events older than %d days\n", deleted, days)
	return nil
}
