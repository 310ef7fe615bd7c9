package models

import "fmt"

// Setting keys recognized by the settings store.
const (
	KeyAutostart                       = "autostart"
	KeyLogLevel                        = "log_level"
	KeyHomeAssistantSecure             = "home_assistant_secure"
	KeyHomeAssistantHost               = "home_assistant_host"
	KeyHomeAssistantPort               = "home_assistant_port"
	KeyHomeAssistantToken              = "home_assistant_token"
	KeyHomeAssistantSubscribedEntities = "home_assistant_subscribed_entities"
)

// Keys lists every setting key in display order.
var Keys = []string{
	KeyAutostart,
	KeyLogLevel,
	KeyHomeAssistantSecure,
	KeyHomeAssistantHost,
	KeyHomeAssistantPort,
	KeyHomeAssistantToken,
	KeyHomeAssistantSubscribedEntities,
}

// LogLevels are the accepted values for the log_level setting.
var LogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Defaults used when a key has no recorded value.
const (
	DefaultAutostart = false
	DefaultLogLevel  = "INFO"
	DefaultSecure    = false
	DefaultHost      = "homeassistant.local"
	DefaultPort      = 8123
	DefaultToken     = ""
)

// Settings represents the recorded application settings.
// This corresponds to ~/.hassdesk/settings.yaml. A nil field means the key
// has never been saved; accessors then return the default.
// The access token is not part of this file, see config.SecretStore.
type Settings struct {
	Version            int       `yaml:"version"`
	Autostart          *bool     `yaml:"autostart,omitempty"`
	LogLevel           *string   `yaml:"log_level,omitempty"`
	Secure             *bool     `yaml:"home_assistant_secure,omitempty"`
	Host               *string   `yaml:"home_assistant_host,omitempty"`
	Port               *int      `yaml:"home_assistant_port,omitempty"`
	SubscribedEntities *[]string `yaml:"home_assistant_subscribed_entities,omitempty"`
}

// NewSettings creates settings with nothing recorded.
func NewSettings() *Settings {
	return &Settings{Version: 1}
}

// AutostartEnabled returns the autostart flag.
func (s *Settings) AutostartEnabled() bool {
	if s.Autostart == nil {
		return DefaultAutostart
	}
	return *s.Autostart
}

// Level returns the configured log level.
func (s *Settings) Level() string {
	if s.LogLevel == nil || *s.LogLevel == "" {
		return DefaultLogLevel
	}
	return *s.LogLevel
}

// SecureConnection reports whether TLS is used to reach Home Assistant.
func (s *Settings) SecureConnection() bool {
	if s.Secure == nil {
		return DefaultSecure
	}
	return *s.Secure
}

// HostName returns the Home Assistant host.
func (s *Settings) HostName() string {
	if s.Host == nil || *s.Host == "" {
		return DefaultHost
	}
	return *s.Host
}

// PortNumber returns the Home Assistant port.
func (s *Settings) PortNumber() int {
	if s.Port == nil || *s.Port < 1 {
		return DefaultPort
	}
	return *s.Port
}

// Subscriptions returns the subscribed entity IDs as an ordered set:
// blanks and repeats are dropped, first occurrence wins.
func (s *Settings) Subscriptions() []string {
	if s.SubscribedEntities == nil {
		return []string{}
	}
	return NormalizeEntityIDs(*s.SubscribedEntities)
}

// Value returns the effective value for a non-secret key.
func (s *Settings) Value(key string) (interface{}, error) {
	switch key {
	case KeyAutostart:
		return s.AutostartEnabled(), nil
	case KeyLogLevel:
		return s.Level(), nil
	case KeyHomeAssistantSecure:
		return s.SecureConnection(), nil
	case KeyHomeAssistantHost:
		return s.HostName(), nil
	case KeyHomeAssistantPort:
		return s.PortNumber(), nil
	case KeyHomeAssistantSubscribedEntities:
		return s.Subscriptions(), nil
	}
	return nil, fmt.Errorf("no plain value for key %q", key)
}

// Connection returns the connection parameters derived from the settings.
func (s *Settings) Connection(token string) Connection {
	return Connection{
		Secure: s.SecureConnection(),
		Host:   s.HostName(),
		Port:   s.PortNumber(),
		Token:  token,
	}
}

// IsConnectionKey reports whether changing key requires a new connection.
func IsConnectionKey(key string) bool {
	switch key {
	case KeyHomeAssistantSecure, KeyHomeAssistantHost, KeyHomeAssistantPort, KeyHomeAssistantToken:
		return true
	}
	return false
}

// NormalizeEntityIDs removes blank and repeated IDs, keeping order.
func NormalizeEntityIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
