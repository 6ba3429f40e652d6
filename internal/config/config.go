// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server binary needs. All values come
// from environment variables.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"ADDR" envDefault:":8080"`

	// DBPath is the SQLite database file path.
	DBPath string `env:"DB_PATH" envDefault:"./data/tally.db"`

	// JWTSecret signs and verifies the bearer tokens that identify the
	// acting member.
	JWTSecret string `env:"JWT_SECRET,required"`

	// TokenDuration is how long issued tokens remain valid.
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`

	// NotifyWebhookURL, when set, receives settlement-completed events
	// as JSON POSTs. Empty means events are only logged.
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
