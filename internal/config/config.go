// Package config defines the top-level configuration for the odds arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ODDSARB_* environment variables.
type Config struct {
	OddsAPI  OddsAPIConfig  `toml:"odds_api"`
	Scanner  ScannerConfig  `toml:"scanner"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// OddsAPIConfig holds the upstream odds feed endpoint and credentials.
type OddsAPIConfig struct {
	BaseURL string `toml:"base_url"`
	// APIKeys is the ordered credential list consumed by the rotator. The
	// persisted rotation cursor indexes into this slice.
	APIKeys []string `toml:"api_keys"`
	// Regions is the comma-joined bookmaker regions query parameter.
	Regions []string `toml:"regions"`
	// FetchDelay is the courtesy pause between successive sport fetches.
	FetchDelay duration `toml:"fetch_delay"`
	// RequestTimeout bounds each individual upstream call.
	RequestTimeout duration `toml:"request_timeout"`
}

// ScannerConfig holds the scan loop parameters.
type ScannerConfig struct {
	// Interval is the fixed schedule between run starts.
	Interval duration `toml:"interval"`
	// RunOnStart triggers an immediate run when the process starts.
	RunOnStart bool `toml:"run_on_start"`
	// Bookmakers is the allow-list of bookmaker keys eligible for
	// aggregation. Matches quoted by fewer than two of these are skipped.
	Bookmakers []string `toml:"bookmakers"`
	// WindowDays drops matches commencing further out than this horizon.
	WindowDays int `toml:"window_days"`
	// MaxSnapshotsPerRun is the governor budget, counted in per-bookmaker
	// price snapshots (eligible matches x contributing bookmakers).
	MaxSnapshotsPerRun int `toml:"max_snapshots_per_run"`
	// StakeBase is the nominal total stake the allocation is computed for.
	StakeBase float64 `toml:"stake_base"`
	// ExpireAllWhenEmpty controls whether a run that finds zero live
	// opportunities marks every stored live record past.
	ExpireAllWhenEmpty bool `toml:"expire_all_when_empty"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig holds cold-storage archival parameters.
type ArchiveConfig struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
	// Interval is the pause between archive sweeps.
	Interval duration `toml:"interval"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// RateLimit caps requests per client per RateLimitWindow. Zero disables
	// throttling.
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "2s", "30m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "2s" or "30m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		OddsAPI: OddsAPIConfig{
			BaseURL:        "https://api.the-odds-api.com/v4",
			Regions:        []string{"uk", "eu"},
			FetchDelay:     duration{2 * time.Second},
			RequestTimeout: duration{30 * time.Second},
		},
		Scanner: ScannerConfig{
			Interval:   duration{30 * time.Minute},
			RunOnStart: true,
			Bookmakers: []string{
				"betway", "williamhill", "betfair_sb_uk",
				"sport888", "unibet_uk", "onexbet",
			},
			WindowDays:         7,
			MaxSnapshotsPerRun: 5000,
			StakeBase:          100,
			ExpireAllWhenEmpty: true,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "oddsarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "oddsarb-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       120,
			RateLimitWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity_found", "credentials_exhausted", "discovery_failed"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":   true,
	"server": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, server, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Odds API — scanning modes need at least one credential.
	needsScan := c.Mode == "scan" || c.Mode == "full"
	if c.OddsAPI.BaseURL == "" {
		errs = append(errs, "odds_api: base_url must not be empty")
	}
	if needsScan && len(c.OddsAPI.APIKeys) == 0 {
		errs = append(errs, "odds_api: at least one api key is required for mode "+c.Mode)
	}
	for i, k := range c.OddsAPI.APIKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Sprintf("odds_api: api key %d is blank", i))
		}
	}
	if c.OddsAPI.FetchDelay.Duration < 0 {
		errs = append(errs, "odds_api: fetch_delay must not be negative")
	}
	if c.OddsAPI.RequestTimeout.Duration <= 0 {
		errs = append(errs, "odds_api: request_timeout must be positive")
	}

	// Scanner
	if c.Scanner.Interval.Duration <= 0 {
		errs = append(errs, "scanner: interval must be positive")
	}
	if needsScan && len(c.Scanner.Bookmakers) == 0 {
		errs = append(errs, "scanner: bookmaker allow-list must not be empty")
	}
	if c.Scanner.WindowDays <= 0 {
		errs = append(errs, "scanner: window_days must be positive")
	}
	if c.Scanner.MaxSnapshotsPerRun <= 0 {
		errs = append(errs, "scanner: max_snapshots_per_run must be positive")
	}
	if c.Scanner.StakeBase <= 0 {
		errs = append(errs, "scanner: stake_base must be positive")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only needed when archival is on.
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archival is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archival is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be positive")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && c.Server.RateLimitWindow.Duration <= 0 {
			errs = append(errs, "server: rate_limit_window must be positive when rate_limit is set")
		}
	}

	// Notify — token and chat id go together.
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
