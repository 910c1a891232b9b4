package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentfleet/tokengate/internal/config"
	"github.com/agentfleet/tokengate/pkg/alerts"
	"github.com/agentfleet/tokengate/pkg/ledger"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tokengate",
	Short: "tokengate - token budget admission and usage ledger for agent fleets",
	Long: `tokengate records every billable LLM interaction of a multi-agent runtime
in a durable usage ledger and decides, per agent and per hour, whether the
agent may keep consuming tokens, should degrade to a fallback model, or must
be blocked.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.tokengate/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// openLedger opens the usage ledger configured in cfg.
func openLedger(cfg *config.Config) (ledger.Store, error) {
	return ledger.NewSQLite(cfg.Storage.Path, nil)
}

// newNotifiers builds the configured alert notifiers.
func newNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier
	if cfg.Alerts.Slack.Enabled {
		notifiers = append(notifiers, alerts.NewSlackNotifier(cfg.Alerts.Slack.WebhookURL, cfg.Alerts.Slack.Channel))
	}
	if cfg.Alerts.Webhook.Enabled {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}
	return notifiers
}
