// Package tui implements the interactive settings editor for hassdesk.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hassdesk/hassdesk/internal/rpc"
)

// Backend is where the editor reads and writes settings. The daemon's gRPC
// client satisfies it; without a daemon, ListEntities and GetStatus fail and
// the editor works without suggestions.
type Backend interface {
	GetSettings(ctx context.Context, keys ...string) (map[string]interface{}, error)
	SetSetting(ctx context.Context, key string, value interface{}) error
	ListEntities(ctx context.Context) ([]rpc.Entity, error)
	GetStatus(ctx context.Context) (rpc.Status, error)
}

// Run launches the settings editor.
func Run(backend Backend) error {
	p := tea.NewProgram(
		NewModel(backend),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
