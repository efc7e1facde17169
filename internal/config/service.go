package config

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	// AdminBaseURL is the operator console root; escalation alerts link into
	// it so a failed customer can be re-provisioned in one click.
	AdminBaseURL        string `yaml:"admin_base_url"`
	StripeWebhookSecret string `yaml:"stripe_webhook_secret"`
}
