// Package autostart installs and removes the login item that starts the
// tray daemon when the user logs in: an XDG autostart entry on Linux and
// the BSDs, a launch agent on macOS and a Startup folder shortcut on
// Windows.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goautostart "github.com/emersion/go-autostart"

	"github.com/hassdesk/hassdesk/internal/buildinfo"
)

// launchAgentLabel names the login item. It is the desktop file name on
// Linux, the launch agent label on macOS and the shortcut name on Windows.
const launchAgentLabel = "io.hassdesk.daemon"

// loginItem is the platform login item. *goautostart.App implements it.
type loginItem interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// Manager manages the login item for one executable.
type Manager struct {
	item loginItem
}

// New returns a Manager for the running executable.
func New() (*Manager, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return newManager(NewApp(exe)), nil
}

// NewApp describes the login item that starts exec.
func NewApp(exec string) *goautostart.App {
	return &goautostart.App{
		Name:        launchAgentLabel,
		DisplayName: buildinfo.AppName,
		Exec:        []string{exec},
	}
}

func newManager(item loginItem) *Manager {
	return &Manager{item: item}
}

// Enabled reports whether the login item is installed.
func (m *Manager) Enabled() bool {
	return m.item.IsEnabled()
}

// Set installs or removes the login item. Both directions are idempotent.
func (m *Manager) Set(enabled bool) error {
	if enabled {
		if err := m.item.Enable(); err != nil {
			return fmt.Errorf("failed to install login item: %w", err)
		}
		return nil
	}
	if !m.item.IsEnabled() {
		return nil
	}
	if err := m.item.Disable(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove login item: %w", err)
	}
	return nil
}
