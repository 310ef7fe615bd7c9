package cli

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/models"
)

func newLocalBackend(t *testing.T) localBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	return localBackend{store: config.NewStore(path, config.NewMemorySecrets())}
}

func TestLocalBackendSettings(t *testing.T) {
	ctx := context.Background()
	b := newLocalBackend(t)

	if err := b.SetSetting(ctx, models.KeyHomeAssistantPort, "8443"); err != nil {
		t.Fatalf("SetSetting(port) error = %v", err)
	}
	if err := b.SetSetting(ctx, models.KeyHomeAssistantToken, "secret"); err != nil {
		t.Fatalf("SetSetting(token) error = %v", err)
	}

	values, err := b.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got := values[models.KeyHomeAssistantPort]; got != 8443 {
		t.Errorf("port = %v, want 8443", got)
	}
	if got := values[models.KeyHomeAssistantToken]; got != "secret" {
		t.Errorf("token = %v, want secret", got)
	}

	if err := b.SetSetting(ctx, models.KeyHomeAssistantPort, "0"); err == nil {
		t.Error("SetSetting() accepted port 0")
	}
}

func TestLocalBackendHasNoDaemonData(t *testing.T) {
	ctx := context.Background()
	b := newLocalBackend(t)

	if _, err := b.ListEntities(ctx); !errors.Is(err, errDaemonNotRunning) {
		t.Errorf("ListEntities() error = %v, want errDaemonNotRunning", err)
	}
	if _, err := b.GetStatus(ctx); !errors.Is(err, errDaemonNotRunning) {
		t.Errorf("GetStatus() error = %v, want errDaemonNotRunning", err)
	}
}

func TestSubscriptionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newLocalBackend(t)

	ids, err := subscriptions(ctx, b)
	if err != nil {
		t.Fatalf("subscriptions() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("subscriptions() = %v, want none", ids)
	}

	next, _, err := addEntities(ids, []string{"light.kitchen", "switch.fan"})
	if err != nil {
		t.Fatalf("addEntities() error = %v", err)
	}
	if err := b.SetSetting(ctx, models.KeyHomeAssistantSubscribedEntities, next); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	ids, err = subscriptions(ctx, b)
	if err != nil {
		t.Fatalf("subscriptions() error = %v", err)
	}
	if want := []string{"light.kitchen", "switch.fan"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("subscriptions() = %v, want %v", ids, want)
	}
}
