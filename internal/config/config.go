package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	// Config carries process-wide settings. It is built once at startup
	// and passed down explicitly; nothing reads the environment after this.
	Config struct {
		API
	}

	API struct {
		URL     string
		Key     string
		Timeout time.Duration
	}
)

// NewConfig reads environment defaults. CLI flags take precedence over
// everything here; the env vars exist so an API key does not have to
// appear in shell history.
func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("omnivore_api_url", DefaultAPIURL)
	v.SetDefault("omnivore_api_key", "")
	v.SetDefault("omnivore_request_timeout", "30s")

	return &Config{
		API: API{
			URL:     v.GetString("OMNIVORE_API_URL"),
			Key:     v.GetString("OMNIVORE_API_KEY"),
			Timeout: v.GetDuration("OMNIVORE_REQUEST_TIMEOUT"),
		},
	}
}
