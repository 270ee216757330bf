package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FinDesk/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		ListenAddr  string `yaml:"listen_addr"`
		MockEnabled bool   `yaml:"mock_enabled"`
		MaxViews    int    `yaml:"max_views"`
	} `yaml:"server"`
	Provider struct {
		Name              string        `yaml:"name"`
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		Timeout           time.Duration `yaml:"timeout"`
		RatePerMinute     int           `yaml:"rate_per_minute"`
		FallbackSimulated bool          `yaml:"fallback_simulated"`
	} `yaml:"provider"`
	Polling struct {
		DefaultInterval   time.Duration `yaml:"default_interval"`
		HistoricalTimeout time.Duration `yaml:"historical_timeout"`
		LiveTailSize      int           `yaml:"live_tail_size"`
	} `yaml:"polling"`
	Backend struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`
	News struct {
		APIKey string        `yaml:"api_key"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"news"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and the YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("FINDESK_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	// the key variable matching the selected provider wins
	switch strings.ToLower(cfg.Provider.Name) {
	case "finnhub":
		if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
			cfg.Provider.APIKey = v
		}
	case "alphavantage":
		if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
			cfg.Provider.APIKey = v
		}
	case "serpapi":
		if v := os.Getenv("SERPAPI_API_KEY"); v != "" {
			cfg.Provider.APIKey = v
		}
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" && cfg.News.APIKey == "" {
		cfg.News.APIKey = v
	}
	if v := os.Getenv("FALLBACK_SIMULATED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Provider.FallbackSimulated = b
		}
	}
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.MaxViews == 0 {
		cfg.Server.MaxViews = 64
	}
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "simulated"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 30 * time.Second
	}
	if cfg.Polling.DefaultInterval == 0 {
		cfg.Polling.DefaultInterval = 5 * time.Second
	}
	if cfg.Polling.HistoricalTimeout == 0 {
		cfg.Polling.HistoricalTimeout = 10 * time.Second
	}
	if cfg.Polling.LiveTailSize == 0 {
		cfg.Polling.LiveTailSize = 30
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 15 * time.Second
	}
	if cfg.News.TTL == 0 {
		cfg.News.TTL = 10 * time.Minute
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/findesk.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider.Name) {
	case "simulated", "yahoo":
	case "mock":
		if c.Provider.BaseURL == "" && !c.Server.MockEnabled {
			return fmt.Errorf("provider.base_url is required for the mock provider unless server.mock_enabled is set")
		}
	case "finnhub", "alphavantage", "serpapi":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required for %s", c.Provider.Name)
		}
	default:
		return fmt.Errorf("provider.name %q is not supported", c.Provider.Name)
	}
	if !model.ValidInterval(c.Polling.DefaultInterval) {
		return fmt.Errorf("polling.default_interval %s is not one of 5s, 10s, 15s, 30s, 60s", c.Polling.DefaultInterval)
	}
	if c.Polling.LiveTailSize < 1 {
		return fmt.Errorf("polling.live_tail_size must be positive")
	}
	if c.Polling.HistoricalTimeout < 0 {
		return fmt.Errorf("polling.historical_timeout must not be negative")
	}
	if c.Server.MaxViews < 1 {
		return fmt.Errorf("server.max_views must be positive")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json")
	}
	return nil
}
