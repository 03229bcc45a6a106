package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LINESIGHT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known LINESIGHT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setFloat64(&cfg.Engine.Sigma, "LINESIGHT_ENGINE_SIGMA")
	setInt(&cfg.Engine.TopN, "LINESIGHT_ENGINE_TOP_N")
	setFloat64Ptr(&cfg.Engine.MinEdge, "LINESIGHT_ENGINE_MIN_EDGE")
	setStr(&cfg.Engine.AmbiguousPolicy, "LINESIGHT_ENGINE_AMBIGUOUS_POLICY")

	// ── Odds API ──
	setStr(&cfg.OddsAPI.BaseURL, "LINESIGHT_ODDS_API_BASE_URL")
	setStr(&cfg.OddsAPI.APIKey, "LINESIGHT_ODDS_API_KEY")
	setStr(&cfg.OddsAPI.APIKey, "ODDS_API_KEY") // compatibility alias
	setStr(&cfg.OddsAPI.KeyFile, "LINESIGHT_ODDS_API_KEY_FILE")
	setStr(&cfg.OddsAPI.KeyPassphrase, "LINESIGHT_ODDS_API_KEY_PASSPHRASE")
	setStr(&cfg.OddsAPI.Regions, "LINESIGHT_ODDS_API_REGIONS")
	setInt(&cfg.OddsAPI.WindowDays, "LINESIGHT_ODDS_API_WINDOW_DAYS")
	setInt(&cfg.OddsAPI.ScoresDaysFrom, "LINESIGHT_ODDS_API_SCORES_DAYS_FROM")
	setDuration(&cfg.OddsAPI.Timeout, "LINESIGHT_ODDS_API_TIMEOUT")
	setInt(&cfg.OddsAPI.RateLimit, "LINESIGHT_ODDS_API_RATE_LIMIT")
	setDuration(&cfg.OddsAPI.RateWindow, "LINESIGHT_ODDS_API_RATE_WINDOW")

	// ── Predictions ──
	setDuration(&cfg.Predictions.Timeout, "LINESIGHT_PREDICTIONS_TIMEOUT")

	// ── Database ──
	setStr(&cfg.Database.DSN, "LINESIGHT_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "LINESIGHT_DATABASE_HOST")
	setInt(&cfg.Database.Port, "LINESIGHT_DATABASE_PORT")
	setStr(&cfg.Database.Database, "LINESIGHT_DATABASE_NAME")
	setStr(&cfg.Database.User, "LINESIGHT_DATABASE_USER")
	setStr(&cfg.Database.Password, "LINESIGHT_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "LINESIGHT_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "LINESIGHT_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "LINESIGHT_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "LINESIGHT_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "LINESIGHT_REDIS_ADDR")
	setStr(&cfg.Redis.Addr, "REDIS_ADDR") // compatibility alias
	setStr(&cfg.Redis.Password, "LINESIGHT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LINESIGHT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LINESIGHT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LINESIGHT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LINESIGHT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.OddsTTL, "LINESIGHT_REDIS_ODDS_TTL")
	setDuration(&cfg.Redis.PredictionTTL, "LINESIGHT_REDIS_PREDICTION_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "LINESIGHT_S3_ENDPOINT")
	setStr(&cfg.S3.Endpoint, "S3_ENDPOINT") // compatibility alias
	setStr(&cfg.S3.Region, "LINESIGHT_S3_REGION")
	setStr(&cfg.S3.Region, "S3_REGION")
	setStr(&cfg.S3.Bucket, "LINESIGHT_S3_BUCKET")
	setStr(&cfg.S3.Bucket, "S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LINESIGHT_S3_ACCESS_KEY")
	setStr(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LINESIGHT_S3_SECRET_KEY")
	setStr(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LINESIGHT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LINESIGHT_S3_FORCE_PATH_STYLE")

	// ── Alerts ──
	setBool(&cfg.Alerts.Enabled, "LINESIGHT_ALERTS_ENABLED")
	setFloat64(&cfg.Alerts.MinEdge, "LINESIGHT_ALERTS_MIN_EDGE")
	setFloat64(&cfg.Alerts.MinProfit, "LINESIGHT_ALERTS_MIN_PROFIT")
	setDuration(&cfg.Alerts.DedupTTL, "LINESIGHT_ALERTS_DEDUP_TTL")

	// ── Pipeline ──
	setBool(&cfg.Pipeline.Enabled, "LINESIGHT_PIPELINE_ENABLED")
	setDuration(&cfg.Pipeline.OddsInterval, "LINESIGHT_PIPELINE_ODDS_INTERVAL")
	setDuration(&cfg.Pipeline.PredictionsInterval, "LINESIGHT_PIPELINE_PREDICTIONS_INTERVAL")
	setDuration(&cfg.Pipeline.ResultsInterval, "LINESIGHT_PIPELINE_RESULTS_INTERVAL")
	setBool(&cfg.Pipeline.ArchiveEnabled, "LINESIGHT_PIPELINE_ARCHIVE_ENABLED")
	setDuration(&cfg.Pipeline.ArchiveInterval, "LINESIGHT_PIPELINE_ARCHIVE_INTERVAL")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "LINESIGHT_PIPELINE_ARCHIVE_RETENTION_DAYS")

	// ── Export ──
	setBool(&cfg.Export.Enabled, "LINESIGHT_EXPORT_ENABLED")
	setStr(&cfg.Export.Dir, "LINESIGHT_EXPORT_DIR")
	setBool(&cfg.Export.Upload, "LINESIGHT_EXPORT_UPLOAD")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "LINESIGHT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "LINESIGHT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "LINESIGHT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "LINESIGHT_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "LINESIGHT_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "LINESIGHT_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LINESIGHT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN") // compatibility alias
	setStr(&cfg.Notify.TelegramChatID, "LINESIGHT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LINESIGHT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.DiscordWebhookURL, "DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LINESIGHT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStringSlice(&cfg.Sports.Keys, "LINESIGHT_SPORTS")
	setStr(&cfg.Mode, "LINESIGHT_MODE")
	setStr(&cfg.LogLevel, "LINESIGHT_LOG_LEVEL")
	setStr(&cfg.LogFormat, "LINESIGHT_LOG_FORMAT")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setFloat64Ptr(dst **float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = &f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
