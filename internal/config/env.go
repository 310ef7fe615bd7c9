package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/hassdesk/hassdesk/internal/models"
)

// EnvOverrides are HASSDESK_* environment variables that take precedence
// over the settings file. Unset variables leave the field nil.
type EnvOverrides struct {
	Host     *string `env:"HASSDESK_HOST"`
	Port     *int    `env:"HASSDESK_PORT"`
	Secure   *bool   `env:"HASSDESK_SECURE"`
	Token    *string `env:"HASSDESK_TOKEN"`
	LogLevel *string `env:"HASSDESK_LOG_LEVEL"`
}

// LoadEnvOverrides reads the overrides from the process environment.
func LoadEnvOverrides() (EnvOverrides, error) {
	var e EnvOverrides
	if err := env.Parse(&e); err != nil {
		return EnvOverrides{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}

// Apply returns conn with the overrides applied.
func (e EnvOverrides) Apply(conn models.Connection) models.Connection {
	if e.Host != nil && *e.Host != "" {
		conn.Host = *e.Host
	}
	if e.Port != nil && *e.Port > 0 {
		conn.Port = *e.Port
	}
	if e.Secure != nil {
		conn.Secure = *e.Secure
	}
	if e.Token != nil && *e.Token != "" {
		conn.Token = *e.Token
	}
	return conn
}
