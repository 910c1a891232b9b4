package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfleet/tokengate/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Retention.Days)
	assert.Equal(t, "24h", cfg.Retention.Interval)
	assert.Equal(t, "manifests/", cfg.Manifests.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "#agent-budgets", cfg.Alerts.Slack.Channel)
	assert.False(t, cfg.Alerts.Slack.Enabled)
	assert.Contains(t, cfg.Storage.Path, "ledger.db")
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	data := []byte(`
storage:
  path: /tmp/test-ledger.db
retention:
  days: 30
  interval: 6h
logging:
  level: debug
alerts:
  webhook:
    enabled: true
    url: https://example.com/hook
`)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-ledger.db", cfg.Storage.Path)
	assert.Equal(t, 30, cfg.Retention.Days)
	assert.Equal(t, "6h", cfg.Retention.Interval)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Alerts.Webhook.Enabled)
	assert.Equal(t, "https://example.com/hook", cfg.Alerts.Webhook.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOKENGATE_LOGGING_LEVEL", "error")
	t.Setenv("TOKENGATE_RETENTION_DAYS", "7")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Retention.Days)
}

func TestLoad_NegativeRetention(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("retention:\n  days: -1\n"), 0o644))

	_, err := config.Load(cfgPath)
	assert.Error(t, err)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("invalid: [yaml"), 0o644))

	_, err := config.Load(cfgPath)
	assert.Error(t, err)
}

func TestSweepInterval(t *testing.T) {
	r := config.RetentionConfig{Interval: "12h"}
	d, err := r.SweepInterval()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, d)

	r.Interval = "often"
	_, err = r.SweepInterval()
	assert.Error(t, err)
}
