package config

import (
	"fmt"
	"os"

	"PatternScanner/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL     string `yaml:"base_url"`
		ClientID    string `yaml:"client_id"`
		AccessToken string `yaml:"access_token"`
	} `yaml:"data_source"`
	Scan struct {
		Symbols           []string `yaml:"symbols"`
		Timeframes        []string `yaml:"timeframes"`
		HistoryPeriods    int      `yaml:"history_periods"`
		MinBodyMovePct    float64  `yaml:"min_body_move_pct"`
		MarubozuPct       float64  `yaml:"marubozu_pct"`
		DojiPct           float64  `yaml:"doji_pct"`
		Workers           int      `yaml:"workers"`
		BatchSize         int      `yaml:"batch_size"`
		BatchPauseSeconds int      `yaml:"batch_pause_seconds"`
		CompletenessRatio float64  `yaml:"completeness_ratio"`
	} `yaml:"scan"`
	Retry struct {
		MaxAttempts      int     `yaml:"max_attempts"`
		BaseDelaySeconds int     `yaml:"base_delay_seconds"`
		Multiplier       float64 `yaml:"multiplier"`
	} `yaml:"retry"`
	RateLimit struct {
		CallsPerSecond float64 `yaml:"calls_per_second"`
	} `yaml:"rate_limit"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

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
	if v := os.Getenv("SCANNER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SCANNER_CLIENT_ID"); v != "" {
		cfg.DataSource.ClientID = v
	}
	if v := os.Getenv("SCANNER_ACCESS_TOKEN"); v != "" {
		cfg.DataSource.AccessToken = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if len(cfg.Scan.Timeframes) == 0 {
		cfg.Scan.Timeframes = []string{string(model.Daily)}
	}
	if cfg.Scan.HistoryPeriods == 0 {
		cfg.Scan.HistoryPeriods = 30
	}
	if cfg.Scan.MarubozuPct == 0 {
		cfg.Scan.MarubozuPct = 80
	}
	if cfg.Scan.DojiPct == 0 {
		cfg.Scan.DojiPct = 25
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 3
	}
	if cfg.Scan.BatchSize == 0 {
		cfg.Scan.BatchSize = 10
	}
	if cfg.Scan.BatchPauseSeconds == 0 {
		cfg.Scan.BatchPauseSeconds = 2
	}
	if cfg.Scan.CompletenessRatio == 0 {
		cfg.Scan.CompletenessRatio = 0.8
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelaySeconds == 0 {
		cfg.Retry.BaseDelaySeconds = 1
	}
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = 2
	}
	if cfg.RateLimit.CallsPerSecond == 0 {
		cfg.RateLimit.CallsPerSecond = 3
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 18 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/pattern_scanner.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if len(c.Scan.Symbols) == 0 {
		return fmt.Errorf("scan.symbols is required")
	}
	for _, tf := range c.Scan.Timeframes {
		if !model.Timeframe(tf).Valid() {
			return fmt.Errorf("scan.timeframes: unknown timeframe %q", tf)
		}
	}
	if c.Scan.HistoryPeriods < 2 {
		return fmt.Errorf("scan.history_periods must be at least 2")
	}
	if c.Scan.MinBodyMovePct < 0 {
		return fmt.Errorf("scan.min_body_move_pct must not be negative")
	}
	if c.Scan.MarubozuPct <= 0 || c.Scan.MarubozuPct > 100 {
		return fmt.Errorf("scan.marubozu_pct must be in (0, 100]")
	}
	if c.Scan.DojiPct <= 0 || c.Scan.DojiPct >= c.Scan.MarubozuPct {
		return fmt.Errorf("scan.doji_pct must be positive and below scan.marubozu_pct")
	}
	if c.Scan.CompletenessRatio <= 0 || c.Scan.CompletenessRatio > 1 {
		return fmt.Errorf("scan.completeness_ratio must be in (0, 1]")
	}
	if c.DataSource.BaseURL != "" && c.DataSource.AccessToken == "" {
		return fmt.Errorf("data_source.access_token is required when base_url is set")
	}
	return nil
}
