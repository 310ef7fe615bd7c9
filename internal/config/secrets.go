package config

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/hassdesk/hassdesk/internal/buildinfo"
)

// SecretStore keeps values that must not land in settings.yaml.
// Get returns "" and no error for a key that was never set.
type SecretStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// KeyringSecrets stores secrets in the OS keyring (Keychain, Secret
// Service, Windows Credential Manager) under the application's service name.
type KeyringSecrets struct {
	service string
}

// NewKeyringSecrets returns a keyring-backed SecretStore.
func NewKeyringSecrets() *KeyringSecrets {
	return &KeyringSecrets{service: buildinfo.AppName}
}

func (k *KeyringSecrets) Get(key string) (string, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (k *KeyringSecrets) Set(key, value string) error {
	if value == "" {
		err := keyring.Delete(k.service, key)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return keyring.Set(k.service, key, value)
}

// MemorySecrets is an in-process SecretStore, used by tests and by the
// daemon when started with --no-keyring.
type MemorySecrets struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySecrets returns an empty in-memory SecretStore.
func NewMemorySecrets() *MemorySecrets {
	return &MemorySecrets{values: make(map[string]string)}
}

func (m *MemorySecrets) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *MemorySecrets) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == "" {
		delete(m.values, key)
		return nil
	}
	m.values[key] = value
	return nil
}
