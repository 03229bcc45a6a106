// Package config defines the top-level configuration for linesight and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LINESIGHT_* environment variables.
type Config struct {
	Sports      SportsConfig      `toml:"sports"`
	Engine      EngineConfig      `toml:"engine"`
	OddsAPI     OddsAPIConfig     `toml:"odds_api"`
	Predictions PredictionsConfig `toml:"predictions"`
	Database    DatabaseConfig    `toml:"database"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Alerts      AlertsConfig      `toml:"alerts"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Export      ExportConfig      `toml:"export"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
	LogFormat   string            `toml:"log_format"`
}

// SportsConfig selects which sports every sync and evaluation cycle covers.
type SportsConfig struct {
	Keys []string `toml:"keys"`
}

// EngineConfig holds evaluation pass parameters. SigmaBySport overrides
// the default margin deviation for individual sport keys.
type EngineConfig struct {
	Sigma           float64            `toml:"sigma"`
	SigmaBySport    map[string]float64 `toml:"sigma_by_sport"`
	TopN            int                `toml:"top_n"`
	MinEdge         *float64           `toml:"min_edge"`
	AmbiguousPolicy string             `toml:"ambiguous_policy"`
	Evaluators      []string           `toml:"evaluators"`
	Aliases         map[string]string  `toml:"aliases"`
}

// OddsAPIConfig holds The Odds API endpoint, credentials, and fetch windows.
type OddsAPIConfig struct {
	BaseURL        string   `toml:"base_url"`
	APIKey         string   `toml:"api_key"`
	KeyFile        string   `toml:"key_file"`
	KeyPassphrase  string   `toml:"key_passphrase"`
	Regions        string   `toml:"regions"`
	WindowDays     int      `toml:"window_days"`
	ScoresDaysFrom int      `toml:"scores_days_from"`
	Timeout        duration `toml:"timeout"`
	RateLimit      int      `toml:"rate_limit"`
	RateWindow     duration `toml:"rate_window"`
}

// PredictionsConfig holds prediction page URLs per sport key.
type PredictionsConfig struct {
	Sources map[string]string `toml:"sources"`
	Timeout duration          `toml:"timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
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

// RedisConfig holds Redis connection parameters and snapshot lifetimes.
type RedisConfig struct {
	Addr          string   `toml:"addr"`
	Password      string   `toml:"password"`
	DB            int      `toml:"db"`
	PoolSize      int      `toml:"pool_size"`
	MaxRetries    int      `toml:"max_retries"`
	TLSEnabled    bool     `toml:"tls_enabled"`
	OddsTTL       duration `toml:"odds_ttl"`
	PredictionTTL duration `toml:"prediction_ttl"`
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

// AlertsConfig gates which opportunities reach the notifier.
type AlertsConfig struct {
	Enabled   bool     `toml:"enabled"`
	MinEdge   float64  `toml:"min_edge"`
	MinProfit float64  `toml:"min_profit"`
	DedupTTL  duration `toml:"dedup_ttl"`
}

// PipelineConfig holds sync loop intervals and archive parameters.
type PipelineConfig struct {
	Enabled              bool     `toml:"enabled"`
	OddsInterval         duration `toml:"odds_interval"`
	PredictionsInterval  duration `toml:"predictions_interval"`
	ResultsInterval      duration `toml:"results_interval"`
	ArchiveEnabled       bool     `toml:"archive_enabled"`
	ArchiveInterval      duration `toml:"archive_interval"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
}

// ExportConfig controls CSV output of recommendations and arbitrage.
type ExportConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	Upload  bool   `toml:"upload"`
}

// ServerConfig holds HTTP server parameters. An empty APIKey disables
// authentication; a zero RateLimit disables per-client throttling.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
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
		Sports: SportsConfig{
			Keys: []string{"americanfootball_ncaaf", "basketball_ncaab"},
		},
		Engine: EngineConfig{
			Sigma:           12.0,
			TopN:            30,
			AmbiguousPolicy: "first",
			Aliases:         map[string]string{},
		},
		OddsAPI: OddsAPIConfig{
			BaseURL:        "https://api.the-odds-api.com/v4",
			Regions:        "us",
			WindowDays:     7,
			ScoresDaysFrom: 3,
			Timeout:        duration{15 * time.Second},
			RateLimit:      30,
			RateWindow:     duration{time.Minute},
		},
		Predictions: PredictionsConfig{
			Sources: map[string]string{
				"americanfootball_ncaaf": "https://www.thepredictiontracker.com/predncaa.html",
				"basketball_ncaab":       "https://www.thepredictiontracker.com/predbb.html",
			},
			Timeout: duration{20 * time.Second},
		},
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "linesight",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			DB:            0,
			PoolSize:      20,
			MaxRetries:    3,
			TLSEnabled:    false,
			OddsTTL:       duration{30 * time.Minute},
			PredictionTTL: duration{6 * time.Hour},
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "linesight-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Alerts: AlertsConfig{
			Enabled:   true,
			MinEdge:   0.05,
			MinProfit: 0.0,
			DedupTTL:  duration{10 * time.Minute},
		},
		Pipeline: PipelineConfig{
			Enabled:              true,
			OddsInterval:         duration{10 * time.Minute},
			PredictionsInterval:  duration{time.Hour},
			ResultsInterval:      duration{30 * time.Minute},
			ArchiveEnabled:       false,
			ArchiveInterval:      duration{24 * time.Hour},
			ArchiveRetentionDays: 90,
		},
		Export: ExportConfig{
			Enabled: false,
			Dir:     "exports",
			Upload:  false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   20,
			RateWindow:  duration{time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"bet_opportunity", "arb_opportunity", "error"},
		},
		Mode:      "full",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"evaluate":  true,
	"scrape":    true,
	"arbitrage": true,
	"settle":    true,
	"serve":     true,
	"full":      true,
}

// fetchModes are the modes that call remote data sources and therefore
// need an Odds API credential.
var fetchModes = map[string]bool{
	"evaluate":  true,
	"scrape":    true,
	"arbitrage": true,
	"settle":    true,
	"full":      true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats enumerates the accepted values for Config.LogFormat.
var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// validPolicies enumerates the accepted values for Engine.AmbiguousPolicy.
var validPolicies = map[string]bool{
	"first":  true,
	"reject": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	mode := strings.ToLower(c.Mode)
	if !validModes[mode] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: evaluate, scrape, arbitrage, settle, serve, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if !validLogFormats[strings.ToLower(c.LogFormat)] {
		errs = append(errs, fmt.Sprintf("unknown log_format %q (valid: text, json)", c.LogFormat))
	}

	// Sports
	if len(c.Sports.Keys) == 0 {
		errs = append(errs, "sports: keys must list at least one sport")
	}

	// Engine
	if c.Engine.Sigma <= 0 {
		errs = append(errs, fmt.Sprintf("engine: sigma must be > 0, got %v", c.Engine.Sigma))
	}
	for sport, sigma := range c.Engine.SigmaBySport {
		if sigma <= 0 {
			errs = append(errs, fmt.Sprintf("engine: sigma_by_sport[%q] must be > 0, got %v", sport, sigma))
		}
	}
	if c.Engine.TopN < 0 {
		errs = append(errs, fmt.Sprintf("engine: top_n must be >= 0, got %d", c.Engine.TopN))
	}
	if !validPolicies[strings.ToLower(c.Engine.AmbiguousPolicy)] {
		errs = append(errs, fmt.Sprintf("engine: unknown ambiguous_policy %q (valid: first, reject)", c.Engine.AmbiguousPolicy))
	}

	// Odds API. A credential source is required for modes that fetch.
	if c.OddsAPI.BaseURL == "" {
		errs = append(errs, "odds_api: base_url must not be empty")
	}
	if fetchModes[mode] {
		if c.OddsAPI.APIKey == "" && c.OddsAPI.KeyFile == "" {
			errs = append(errs, "odds_api: either api_key or key_file must be set for mode "+c.Mode)
		}
	}
	if c.OddsAPI.KeyFile != "" && c.OddsAPI.KeyPassphrase == "" {
		errs = append(errs, "odds_api: key_passphrase is required when key_file is set")
	}
	if c.OddsAPI.WindowDays < 1 {
		errs = append(errs, "odds_api: window_days must be >= 1")
	}
	if c.OddsAPI.RateLimit < 1 {
		errs = append(errs, "odds_api: rate_limit must be >= 1")
	}
	if c.OddsAPI.RateWindow.Duration <= 0 {
		errs = append(errs, "odds_api: rate_window must be positive")
	}

	// Predictions. Every configured sport needs a source page.
	for _, key := range c.Sports.Keys {
		if c.Predictions.Sources[key] == "" {
			errs = append(errs, fmt.Sprintf("predictions: no source url for sport %q", key))
		}
	}

	// Database
	if strings.TrimSpace(c.Database.DSN) == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty (or set database.dsn)")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty")
		}
	}
	if c.Database.PoolMaxConns < 1 {
		errs = append(errs, "database: pool_max_conns must be >= 1")
	}
	if c.Database.PoolMinConns < 0 {
		errs = append(errs, "database: pool_min_conns must be >= 0")
	}
	if c.Database.PoolMinConns > c.Database.PoolMaxConns {
		errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.OddsTTL.Duration <= 0 {
		errs = append(errs, "redis: odds_ttl must be positive")
	}
	if c.Redis.PredictionTTL.Duration <= 0 {
		errs = append(errs, "redis: prediction_ttl must be positive")
	}

	// S3 is only reachable when archiving or export upload is on.
	if c.Pipeline.ArchiveEnabled || (c.Export.Enabled && c.Export.Upload) {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Alerts
	if c.Alerts.Enabled {
		if c.Alerts.MinEdge < 0 {
			errs = append(errs, "alerts: min_edge must be >= 0")
		}
		if c.Alerts.MinProfit < 0 {
			errs = append(errs, "alerts: min_profit must be >= 0")
		}
		if c.Alerts.DedupTTL.Duration <= 0 {
			errs = append(errs, "alerts: dedup_ttl must be positive")
		}
	}

	// Pipeline
	if c.Pipeline.Enabled {
		if c.Pipeline.OddsInterval.Duration <= 0 {
			errs = append(errs, "pipeline: odds_interval must be positive")
		}
		if c.Pipeline.PredictionsInterval.Duration <= 0 {
			errs = append(errs, "pipeline: predictions_interval must be positive")
		}
		if c.Pipeline.ResultsInterval.Duration <= 0 {
			errs = append(errs, "pipeline: results_interval must be positive")
		}
	}
	if c.Pipeline.ArchiveEnabled {
		if c.Pipeline.ArchiveInterval.Duration <= 0 {
			errs = append(errs, "pipeline: archive_interval must be positive")
		}
		if c.Pipeline.ArchiveRetentionDays < 1 {
			errs = append(errs, "pipeline: archive_retention_days must be >= 1")
		}
	}

	// Export
	if c.Export.Enabled && c.Export.Dir == "" {
		errs = append(errs, "export: dir must not be empty when enabled")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
