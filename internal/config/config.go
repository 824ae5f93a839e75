package config

import (
	"encoding/base64"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
// The two secret keys are base64-encoded 32-byte values; they are decoded
// and validated at startup, and misconfiguration is fatal to process
// initialization rather than a per-request error.
type Config struct {
	Port                  int    `envconfig:"PORT" default:"8080"`
	LogLevel              string `envconfig:"LOG_LEVEL" default:"info"`
	Environment           string `envconfig:"ENVIRONMENT" default:"development"`
	DatabaseURL           string `envconfig:"DATABASE_URL" required:"true"`
	CSRFSecretKey         string `envconfig:"CSRF_SECRET_KEY" required:"true"`
	RefreshTokenSecretKey string `envconfig:"REFRESH_TOKEN_SECRET_KEY" required:"true"`
	BcryptCost            int    `envconfig:"BCRYPT_COST" default:"10"`
	Version               string `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the server runs in production mode, which
// controls the cookie Secure flag and disables the bootstrap login route.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SecretKeys decodes the purpose-keyed secret material.
func (c *Config) SecretKeys() (csrfKey, refreshTokenKey []byte, err error) {
	csrfKey, err = base64.StdEncoding.DecodeString(c.CSRFSecretKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding CSRF_SECRET_KEY: %w", err)
	}
	refreshTokenKey, err = base64.StdEncoding.DecodeString(c.RefreshTokenSecretKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding REFRESH_TOKEN_SECRET_KEY: %w", err)
	}
	return csrfKey, refreshTokenKey, nil
}
