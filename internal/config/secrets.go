package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Odds API keys — redact each entry but keep the count visible.
	if cfg.OddsAPI.APIKeys != nil {
		out.OddsAPI.APIKeys = make([]string, len(cfg.OddsAPI.APIKeys))
		for i := range cfg.OddsAPI.APIKeys {
			out.OddsAPI.APIKeys[i] = redacted
		}
	}

	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	out.Server = cfg.Server
	redact(&out.Server.APIKey)

	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Scanner.Bookmakers != nil {
		out.Scanner.Bookmakers = make([]string, len(cfg.Scanner.Bookmakers))
		copy(out.Scanner.Bookmakers, cfg.Scanner.Bookmakers)
	}
	if cfg.OddsAPI.Regions != nil {
		out.OddsAPI.Regions = make([]string, len(cfg.OddsAPI.Regions))
		copy(out.OddsAPI.Regions, cfg.OddsAPI.Regions)
	}

	return out
}

const redacted = "***"

// redact overwrites a field with the placeholder only when it holds a value,
// so empty (unconfigured) fields remain visibly empty.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
