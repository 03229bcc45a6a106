package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// valid returns a Defaults config patched to pass validation in full mode.
func valid() Config {
	cfg := Defaults()
	cfg.OddsAPI.APIKey = "test-key"
	return cfg
}

func TestDefaultsValidate(t *testing.T) {
	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown mode", func(c *Config) { c.Mode = "turbo" }, "unknown mode"},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
		{"zero sigma", func(c *Config) { c.Engine.Sigma = 0 }, "sigma"},
		{"bad sigma override", func(c *Config) {
			c.Engine.SigmaBySport = map[string]float64{"basketball_ncaab": -1}
		}, "sigma_by_sport"},
		{"negative top n", func(c *Config) { c.Engine.TopN = -1 }, "top_n"},
		{"bad policy", func(c *Config) { c.Engine.AmbiguousPolicy = "last" }, "ambiguous_policy"},
		{"no sports", func(c *Config) { c.Sports.Keys = nil }, "sports"},
		{"no credential", func(c *Config) { c.OddsAPI.APIKey = "" }, "api_key or key_file"},
		{"keyfile without passphrase", func(c *Config) {
			c.OddsAPI.APIKey = ""
			c.OddsAPI.KeyFile = "key.enc"
		}, "key_passphrase"},
		{"missing prediction source", func(c *Config) {
			delete(c.Predictions.Sources, "basketball_ncaab")
		}, "no source url"},
		{"pool inversion", func(c *Config) {
			c.Database.PoolMinConns = 20
			c.Database.PoolMaxConns = 5
		}, "pool_min_conns"},
		{"bad server port", func(c *Config) { c.Server.Port = 70000 }, "server: port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "evaluate"
log_level = "debug"

[engine]
sigma = 11.0
min_edge = 0.03

[odds_api]
api_key = "file-key"

[redis]
addr = "redis.internal:6379"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "evaluate" {
		t.Errorf("mode = %q, want evaluate", cfg.Mode)
	}
	if cfg.Engine.Sigma != 11.0 {
		t.Errorf("sigma = %v, want 11.0", cfg.Engine.Sigma)
	}
	if cfg.Engine.MinEdge == nil || *cfg.Engine.MinEdge != 0.03 {
		t.Errorf("min_edge = %v, want 0.03", cfg.Engine.MinEdge)
	}
	if cfg.OddsAPI.APIKey != "file-key" {
		t.Errorf("api_key = %q, want file-key", cfg.OddsAPI.APIKey)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.Port != 5432 {
		t.Errorf("database port = %d, want default 5432", cfg.Database.Port)
	}
	if cfg.OddsAPI.BaseURL != "https://api.the-odds-api.com/v4" {
		t.Errorf("base_url = %q, want default", cfg.OddsAPI.BaseURL)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("mode = \"scrape\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ODDS_API_KEY", "env-key")
	t.Setenv("LINESIGHT_MODE", "serve")
	t.Setenv("LINESIGHT_ENGINE_MIN_EDGE", "0.07")
	t.Setenv("LINESIGHT_SPORTS", "americanfootball_ncaaf")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OddsAPI.APIKey != "env-key" {
		t.Errorf("api_key = %q, want env-key", cfg.OddsAPI.APIKey)
	}
	if cfg.Mode != "serve" {
		t.Errorf("mode = %q, want serve (env wins over file)", cfg.Mode)
	}
	if cfg.Engine.MinEdge == nil || *cfg.Engine.MinEdge != 0.07 {
		t.Errorf("min_edge = %v, want 0.07", cfg.Engine.MinEdge)
	}
	if len(cfg.Sports.Keys) != 1 || cfg.Sports.Keys[0] != "americanfootball_ncaaf" {
		t.Errorf("sports = %v, want [americanfootball_ncaaf]", cfg.Sports.Keys)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := valid()
	cfg.Database.Password = "dbpass"
	cfg.Redis.Password = "redispass"
	cfg.S3.SecretKey = "s3secret"
	cfg.Notify.TelegramToken = "tg-token"

	red := RedactedConfig(&cfg)

	for name, got := range map[string]string{
		"odds api key":      red.OddsAPI.APIKey,
		"database password": red.Database.Password,
		"redis password":    red.Redis.Password,
		"s3 secret":         red.S3.SecretKey,
		"telegram token":    red.Notify.TelegramToken,
	} {
		if got != "***" {
			t.Errorf("%s not redacted: %q", name, got)
		}
	}

	// The original must be untouched.
	if cfg.OddsAPI.APIKey != "test-key" || cfg.Database.Password != "dbpass" {
		t.Error("RedactedConfig mutated the original")
	}

	// Empty secrets stay empty rather than becoming placeholders.
	if red.Notify.DiscordWebhookURL != "" {
		t.Errorf("empty webhook redacted to %q", red.Notify.DiscordWebhookURL)
	}
}
