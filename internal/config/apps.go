package config

import "time"

// AppsConfig holds the per-app admin endpoints and the shared credential.
// The credential is injected into the provisioning client at construction;
// business logic never reads it from the environment.
type AppsConfig struct {
	AdminKey  string            `yaml:"admin_key"`
	Timeout   time.Duration     `yaml:"timeout"`
	SafeTunes AppEndpointConfig `yaml:"safetunes"`
	SafeTube  AppEndpointConfig `yaml:"safetube"`
	SafeReads AppEndpointConfig `yaml:"safereads"`
}

type AppEndpointConfig struct {
	BaseURL string `yaml:"base_url"`
}
