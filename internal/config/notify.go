package config

// NotifyConfig wires the escalation and informational notification channels.
type NotifyConfig struct {
	Slack  SlackConfig  `yaml:"slack"`
	Sentry SentryConfig `yaml:"sentry"`
	Brevo  BrevoConfig  `yaml:"brevo"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

type SentryConfig struct {
	DSN string `yaml:"dsn"`
}

type BrevoConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	// OpsEmail receives the informational purchase summaries.
	OpsEmail string `yaml:"ops_email"`
}

// RedisConfig configures the fast-path duplicate-event guard.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// DedupTTLSeconds is the retention window for processed event IDs.
	DedupTTLSeconds int `yaml:"dedup_ttl_seconds"`
}
