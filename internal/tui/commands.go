package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const rpcTimeout = 5 * time.Second

func loadSettingsCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		values, err := b.GetSettings(ctx)
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to load settings: %w", err)}
		}
		return SettingsLoadedMsg{Values: values}
	}
}

func loadEntitiesCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		entities, err := b.ListEntities(ctx)
		if err != nil {
			// The editor works without suggestions.
			return EntitiesLoadedMsg{}
		}
		return EntitiesLoadedMsg{Entities: entities}
	}
}

func loadStatusCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		st, err := b.GetStatus(ctx)
		if err != nil {
			return StatusMsg{}
		}
		return StatusMsg{Status: &st}
	}
}

func saveSettingCmd(b Backend, key string, value interface{}) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		if err := b.SetSetting(ctx, key, value); err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to save %s: %w", key, err), Revert: true}
		}
		return SettingSavedMsg{Key: key}
	}
}

func pollStatusTick() tea.Cmd {
	return tea.Tick(2*time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func clearSavedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearSavedMsg{}
	})
}
