package auth

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Secret        string        `envconfig:"PULSEOX_AUTH_SECRET" required:"true"`
	TokenDuration time.Duration `envconfig:"PULSEOX_AUTH_TOKEN_DURATION" default:"1h"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
