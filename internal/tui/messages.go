package tui

import "github.com/hassdesk/hassdesk/internal/rpc"

// SettingsLoadedMsg carries every setting value from GetSettings.
type SettingsLoadedMsg struct {
	Values map[string]interface{}
}

// EntitiesLoadedMsg carries the entity picker source from ListEntities.
type EntitiesLoadedMsg struct {
	Entities []rpc.Entity
}

// StatusMsg carries the daemon status. Status is nil when the daemon
// cannot be reached.
type StatusMsg struct {
	Status *rpc.Status
}

// SettingSavedMsg signals a setting was written.
type SettingSavedMsg struct {
	Key string
}

// ErrorMsg carries an error to display. Revert asks for the settings to be
// re-read, undoing edits the form already shows.
type ErrorMsg struct {
	Err    error
	Revert bool
}

// TickMsg is a periodic tick for polling.
type TickMsg struct{}

// ClearErrorMsg clears the error display.
type ClearErrorMsg struct{}

// ClearSavedMsg clears the "Saved" indicator.
type ClearSavedMsg struct{}
