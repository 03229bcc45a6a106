package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Odds API
	out.OddsAPI = cfg.OddsAPI
	redact(&out.OddsAPI.APIKey)
	redact(&out.OddsAPI.KeyPassphrase)

	// Database
	out.Database = cfg.Database
	redact(&out.Database.DSN)
	redact(&out.Database.Password)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Sports.Keys != nil {
		out.Sports.Keys = make([]string, len(cfg.Sports.Keys))
		copy(out.Sports.Keys, cfg.Sports.Keys)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Engine.Evaluators != nil {
		out.Engine.Evaluators = make([]string, len(cfg.Engine.Evaluators))
		copy(out.Engine.Evaluators, cfg.Engine.Evaluators)
	}

	// Copy maps so mutations to the redacted copy do not affect the original.
	if cfg.Engine.Aliases != nil {
		out.Engine.Aliases = make(map[string]string, len(cfg.Engine.Aliases))
		for k, v := range cfg.Engine.Aliases {
			out.Engine.Aliases[k] = v
		}
	}
	if cfg.Engine.SigmaBySport != nil {
		out.Engine.SigmaBySport = make(map[string]float64, len(cfg.Engine.SigmaBySport))
		for k, v := range cfg.Engine.SigmaBySport {
			out.Engine.SigmaBySport[k] = v
		}
	}
	if cfg.Predictions.Sources != nil {
		out.Predictions.Sources = make(map[string]string, len(cfg.Predictions.Sources))
		for k, v := range cfg.Predictions.Sources {
			out.Predictions.Sources[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
