package autostart

import (
	"errors"
	"os"
	"strings"
	"testing"

	goautostart "github.com/emersion/go-autostart"
)

// fakeItem is a login item kept in memory.
type fakeItem struct {
	installed  bool
	enables    int
	disables   int
	enableErr  error
	disableErr error
}

func (f *fakeItem) IsEnabled() bool { return f.installed }

func (f *fakeItem) Enable() error {
	f.enables++
	if f.enableErr != nil {
		return f.enableErr
	}
	f.installed = true
	return nil
}

func (f *fakeItem) Disable() error {
	f.disables++
	if f.disableErr != nil {
		return f.disableErr
	}
	if !f.installed {
		return os.ErrNotExist
	}
	f.installed = false
	return nil
}

func TestSet(t *testing.T) {
	item := &fakeItem{}
	m := newManager(item)

	if m.Enabled() {
		t.Fatal("Enabled() before Set")
	}
	if err := m.Set(true); err != nil {
		t.Fatalf("Set(true) error = %v", err)
	}
	if !m.Enabled() {
		t.Error("Enabled() = false after Set(true)")
	}
	if err := m.Set(true); err != nil {
		t.Errorf("second Set(true) error = %v", err)
	}

	if err := m.Set(false); err != nil {
		t.Fatalf("Set(false) error = %v", err)
	}
	if m.Enabled() {
		t.Error("Enabled() = true after Set(false)")
	}
	if err := m.Set(false); err != nil {
		t.Errorf("second Set(false) error = %v", err)
	}
	if item.disables != 1 {
		t.Errorf("Disable() called %d times, want 1", item.disables)
	}
}

func TestSetReportsFailures(t *testing.T) {
	tests := []struct {
		name    string
		item    *fakeItem
		enabled bool
		want    string
	}{
		{"install", &fakeItem{enableErr: errors.New("permission denied")}, true, "failed to install login item"},
		{"remove", &fakeItem{installed: true, disableErr: errors.New("permission denied")}, false, "failed to remove login item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newManager(tt.item).Set(tt.enabled)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Set(%v) error = %v, want %q", tt.enabled, err, tt.want)
			}
		})
	}
}

func TestNewApp(t *testing.T) {
	app := NewApp("/usr/local/bin/hassdeskd")

	if app.Name != "io.hassdesk.daemon" {
		t.Errorf("Name = %q", app.Name)
	}
	if app.DisplayName != "hassdesk" {
		t.Errorf("DisplayName = %q", app.DisplayName)
	}
	if len(app.Exec) != 1 || app.Exec[0] != "/usr/local/bin/hassdeskd" {
		t.Errorf("Exec = %v", app.Exec)
	}
}

func TestNewUsesRunningExecutable(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	app, ok := m.item.(*goautostart.App)
	if !ok {
		t.Fatalf("item = %T", m.item)
	}
	if len(app.Exec) != 1 || app.Exec[0] == "" {
		t.Errorf("Exec = %v", app.Exec)
	}
}
