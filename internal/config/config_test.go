package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "mysql", cfg.Store.Driver)
	require.Equal(t, 10, cfg.RateLimit.RPS)
	require.True(t, cfg.Usage.Enabled)
	require.Equal(t, "invoice.usage", cfg.Usage.Topic)
	require.Equal(t, "invoice.events", cfg.Webhooks.Topic)
	require.Equal(t, 500, cfg.Worker.BatchSize)
	require.Equal(t, 500*time.Millisecond, cfg.Worker.BatchWait)
	require.Empty(t, cfg.Webhooks.Sinks)
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9999"
store:
  driver: "memory"
webhooks:
  sinks:
    - name: "erp"
      enabled: true
      url: "http://localhost:9099/hooks/invoices"
      timeout_ms: 2000
      breaker:
        fail_threshold: 5
        open_for_ms: 10000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.HTTP.Addr)
	require.Equal(t, "memory", cfg.Store.Driver)
	// untouched keys keep defaults
	require.Equal(t, "info", cfg.Log.Level)

	require.Len(t, cfg.Webhooks.Sinks, 1)
	s := cfg.Webhooks.Sinks[0]
	require.Equal(t, "erp", s.Name)
	require.True(t, s.Enabled)
	require.Equal(t, 5, s.Breaker.FailThreshold)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
}
