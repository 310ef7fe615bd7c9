package cli

import (
	"context"
	"errors"

	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/rpc"
	"github.com/hassdesk/hassdesk/internal/tui"
)

// localBackend edits the settings store directly while the daemon is down.
// The daemon reads the file again when it starts.
type localBackend struct {
	store *config.Store
}

func (b localBackend) GetSettings(_ context.Context, keys ...string) (map[string]interface{}, error) {
	return b.store.GetMany(keys)
}

func (b localBackend) SetSetting(_ context.Context, key string, value interface{}) error {
	return b.store.Set(key, value)
}

func (b localBackend) ListEntities(_ context.Context) ([]rpc.Entity, error) {
	return nil, errDaemonNotRunning
}

func (b localBackend) GetStatus(_ context.Context) (rpc.Status, error) {
	return rpc.Status{}, errDaemonNotRunning
}

// openBackend returns the daemon's client when it is running and the local
// settings store otherwise. The returned func releases the backend.
func openBackend() (tui.Backend, func(), error) {
	client, err := connectDaemon()
	if err == nil {
		return client, func() { _ = client.Close() }, nil
	}
	if !errors.Is(err, errDaemonNotRunning) {
		return nil, nil, err
	}

	if err := config.EnsureGlobalDir(); err != nil {
		return nil, nil, err
	}
	store, err := config.OpenStore()
	if err != nil {
		return nil, nil, err
	}
	return localBackend{store: store}, func() {}, nil
}
