package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hassdesk/hassdesk/internal/models"
)

var (
	// ErrUnknownKey is returned for keys the store does not recognize.
	ErrUnknownKey = errors.New("unknown setting")

	// ErrInvalidValue is returned when a value does not fit the key's type.
	ErrInvalidValue = errors.New("invalid setting value")
)

// Store is the settings store: plain values in settings.yaml, the access
// token in a SecretStore. The file is read lazily on first access and every
// accessor falls back to the built-in default for unrecorded keys.
type Store struct {
	mu       sync.Mutex
	path     string
	secrets  SecretStore
	env      EnvOverrides
	logger   *zap.Logger
	settings *models.Settings
}

// NewStore creates a store backed by the YAML file at path.
func NewStore(path string, secrets SecretStore) *Store {
	return &Store{path: path, secrets: secrets, logger: zap.NewNop()}
}

// OpenStore creates the store at ~/.hassdesk/settings.yaml with the OS
// keyring for secrets and HASSDESK_* environment overrides applied.
func OpenStore() (*Store, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	env, err := LoadEnvOverrides()
	if err != nil {
		return nil, err
	}
	s := NewStore(path, NewKeyringSecrets())
	s.env = env
	return s, nil
}

// WithEnv sets the environment overrides used by Connection and LogLevel.
func (s *Store) WithEnv(env EnvOverrides) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
	return s
}

// WithLogger sets the logger for problems the store works around.
func (s *Store) WithLogger(logger *zap.Logger) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
	return s
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// load returns the cached settings, reading the file on first use.
// Callers must hold s.mu.
func (s *Store) load() (*models.Settings, error) {
	if s.settings != nil {
		return s.settings, nil
	}
	settings, err := LoadYAMLOrDefault(s.path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	s.settings = settings
	return settings, nil
}

// Reload drops the cached settings and reads the file again.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = nil
	_, err := s.load()
	return err
}

// Settings returns a copy of the recorded settings.
func (s *Store) Settings() (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.load()
	if err != nil {
		return models.Settings{}, err
	}
	return *settings, nil
}

// Get returns the effective value of key, or its default when unrecorded.
func (s *Store) Get(key string) (interface{}, error) {
	if key == models.KeyHomeAssistantToken {
		return s.Token()
	}
	if !isKnownKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	settings, err := s.load()
	if err != nil {
		return nil, err
	}
	return settings.Value(key)
}

// GetMany returns the effective values of keys. An empty keys list returns
// every recognized key.
func (s *Store) GetMany(keys []string) (map[string]interface{}, error) {
	if len(keys) == 0 {
		keys = models.Keys
	}
	result := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		result[key] = v
	}
	return result, nil
}

// Set validates value for key and persists it.
func (s *Store) Set(key string, value interface{}) error {
	v, err := CoerceValue(key, value)
	if err != nil {
		return err
	}

	if key == models.KeyHomeAssistantToken {
		if err := s.secrets.Set(key, v.(string)); err != nil {
			return fmt.Errorf("failed to store %s: %w", key, err)
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.load()
	if err != nil {
		return err
	}

	next := *current
	switch key {
	case models.KeyAutostart:
		b := v.(bool)
		next.Autostart = &b
	case models.KeyLogLevel:
		str := v.(string)
		next.LogLevel = &str
	case models.KeyHomeAssistantSecure:
		b := v.(bool)
		next.Secure = &b
	case models.KeyHomeAssistantHost:
		str := v.(string)
		next.Host = &str
	case models.KeyHomeAssistantPort:
		n := v.(int)
		next.Port = &n
	case models.KeyHomeAssistantSubscribedEntities:
		list := v.([]string)
		next.SubscribedEntities = &list
	}

	if err := SaveYAML(s.path, &next); err != nil {
		return err
	}
	s.settings = &next
	return nil
}

// Token returns the Home Assistant access token, or "" when none is stored.
// An unreachable secret store counts as no recorded token.
func (s *Store) Token() (string, error) {
	token, err := s.secrets.Get(models.KeyHomeAssistantToken)
	if err != nil {
		s.mu.Lock()
		logger := s.logger
		s.mu.Unlock()
		logger.Warn("Access token unavailable, treating it as unset",
			zap.String("key", models.KeyHomeAssistantToken), zap.Error(err))
		return "", nil
	}
	return token, nil
}

// Connection returns the effective connection parameters, with environment
// overrides applied on top of the stored settings.
func (s *Store) Connection() (models.Connection, error) {
	settings, err := s.Settings()
	if err != nil {
		return models.Connection{}, err
	}
	token, err := s.Token()
	if err != nil {
		return models.Connection{}, err
	}

	s.mu.Lock()
	env := s.env
	s.mu.Unlock()
	return env.Apply(settings.Connection(token)), nil
}

// LogLevel returns the effective log level.
func (s *Store) LogLevel() string {
	s.mu.Lock()
	env := s.env
	s.mu.Unlock()
	if env.LogLevel != nil {
		if level, err := normalizeLogLevel(*env.LogLevel); err == nil {
			return level
		}
	}
	settings, err := s.Settings()
	if err != nil {
		return models.DefaultLogLevel
	}
	return settings.Level()
}

// Subscriptions returns the subscribed entity IDs.
func (s *Store) Subscriptions() ([]string, error) {
	settings, err := s.Settings()
	if err != nil {
		return nil, err
	}
	return settings.Subscriptions(), nil
}

// CoerceValue converts value to the type stored for key. Strings are
// accepted for every key so values can come straight from a command line;
// JSON-decoded numbers (float64) are accepted for the port.
func CoerceValue(key string, value interface{}) (interface{}, error) {
	switch key {
	case models.KeyAutostart, models.KeyHomeAssistantSecure:
		return coerceBool(key, value)
	case models.KeyLogLevel:
		str, ok := value.(string)
		if !ok {
			return nil, invalid(key, value, "expected a string")
		}
		level, err := normalizeLogLevel(str)
		if err != nil {
			return nil, invalid(key, value, err.Error())
		}
		return level, nil
	case models.KeyHomeAssistantHost:
		str, ok := value.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return nil, invalid(key, value, "expected a host name")
		}
		return strings.TrimSpace(str), nil
	case models.KeyHomeAssistantPort:
		return coercePort(key, value)
	case models.KeyHomeAssistantToken:
		str, ok := value.(string)
		if !ok {
			return nil, invalid(key, value, "expected a string")
		}
		return strings.TrimSpace(str), nil
	case models.KeyHomeAssistantSubscribedEntities:
		return coerceList(key, value)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func coerceBool(key string, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, invalid(key, value, "expected true or false")
		}
		return b, nil
	}
	return nil, invalid(key, value, "expected true or false")
}

func coercePort(key string, value interface{}) (interface{}, error) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		if v != float64(int(v)) {
			return nil, invalid(key, value, "expected a whole number")
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, invalid(key, value, "expected a number")
		}
		n = parsed
	default:
		return nil, invalid(key, value, "expected a number")
	}
	if n < 1 || n > 65535 {
		return nil, invalid(key, value, "port must be between 1 and 65535")
	}
	return n, nil
}

func coerceList(key string, value interface{}) (interface{}, error) {
	var ids []string
	switch v := value.(type) {
	case []string:
		ids = append([]string(nil), v...)
	case []interface{}:
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, invalid(key, value, "expected a list of entity IDs")
			}
			ids = append(ids, str)
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			ids = append(ids, strings.TrimSpace(part))
		}
	case nil:
	default:
		return nil, invalid(key, value, "expected a list of entity IDs")
	}

	for i, id := range ids {
		ids[i] = strings.TrimSpace(id)
		if ids[i] != "" && !strings.Contains(ids[i], ".") {
			return nil, invalid(key, value, fmt.Sprintf("%q is not an entity ID (domain.object_id)", ids[i]))
		}
	}
	return models.NormalizeEntityIDs(ids), nil
}

func normalizeLogLevel(level string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(level))
	if upper == "WARN" {
		upper = "WARNING"
	}
	for _, l := range models.LogLevels {
		if l == upper {
			return l, nil
		}
	}
	return "", fmt.Errorf("expected one of %s", strings.Join(models.LogLevels, ", "))
}

func invalid(key string, value interface{}, reason string) error {
	return fmt.Errorf("%w for %s: %v (%s)", ErrInvalidValue, key, value, reason)
}

func isKnownKey(key string) bool {
	for _, k := range models.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// SortedKeys returns the keys of m in settings display order, with
// unrecognized keys last in lexical order.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for _, k := range models.Keys {
		if _, ok := m[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range m {
		if !isKnownKey(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
