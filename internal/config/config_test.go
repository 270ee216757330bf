package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "simulated", cfg.Provider.Name)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Polling.DefaultInterval)
	assert.Equal(t, 10*time.Second, cfg.Polling.HistoricalTimeout)
	assert.Equal(t, 30, cfg.Polling.LiveTailSize)
	assert.Equal(t, 10*time.Minute, cfg.News.TTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":9000"
  max_views: 8
provider:
  name: finnhub
  timeout: 5s
  rate_per_minute: 60
polling:
  default_interval: 15s
  live_tail_size: 10
backend:
  base_url: http://ledger.local
`)
	t.Setenv("FINNHUB_API_KEY", "fh-key")
	t.Setenv("LISTEN_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.ListenAddr)
	assert.Equal(t, 8, cfg.Server.MaxViews)
	assert.Equal(t, "fh-key", cfg.Provider.APIKey)
	assert.Equal(t, "fh-key", cfg.News.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Polling.DefaultInterval)
	assert.Equal(t, "http://ledger.local", cfg.Backend.BaseURL)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider.Name = "bloomberg" }},
		{"finnhub without key", func(c *Config) { c.Provider.Name = "finnhub"; c.Provider.APIKey = "" }},
		{"mock without url", func(c *Config) { c.Provider.Name = "mock" }},
		{"interval not allowed", func(c *Config) { c.Polling.DefaultInterval = 7 * time.Second }},
		{"empty tail", func(c *Config) { c.Polling.LiveTailSize = -1 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}
