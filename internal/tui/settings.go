package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/hassdesk/hassdesk/internal/models"
)

// FieldType defines the type of a settings field.
type FieldType int

const (
	fieldText FieldType = iota
	fieldToggle
	fieldChoice
	fieldSecret
)

// SettingsField is a single field in the settings form.
type SettingsField struct {
	Label     string
	Key       string // setting key
	Value     string
	BoolValue bool
	Type      FieldType
	Choices   []string
}

// SettingsForm manages the settings panel.
type SettingsForm struct {
	fields  []SettingsField
	cursor  int
	editing bool
	input   textinput.Model
	width   int
	height  int
}

// NewSettingsForm creates a new settings form.
func NewSettingsForm() *SettingsForm {
	ti := textinput.New()
	ti.CharLimit = 512
	return &SettingsForm{
		input: ti,
	}
}

// Load populates fields from GetSettings values.
func (s *SettingsForm) Load(values map[string]interface{}) {
	s.fields = []SettingsField{
		{Label: "Start at login", Key: models.KeyAutostart, BoolValue: boolValue(values[models.KeyAutostart]), Type: fieldToggle},
		{Label: "Log level", Key: models.KeyLogLevel, Value: stringValue(values[models.KeyLogLevel], models.DefaultLogLevel), Type: fieldChoice, Choices: models.LogLevels},
		{Label: "Use SSL", Key: models.KeyHomeAssistantSecure, BoolValue: boolValue(values[models.KeyHomeAssistantSecure]), Type: fieldToggle},
		{Label: "Host", Key: models.KeyHomeAssistantHost, Value: stringValue(values[models.KeyHomeAssistantHost], models.DefaultHost), Type: fieldText},
		{Label: "Port", Key: models.KeyHomeAssistantPort, Value: stringValue(values[models.KeyHomeAssistantPort], strconv.Itoa(models.DefaultPort)), Type: fieldText},
		{Label: "Access token", Key: models.KeyHomeAssistantToken, Value: stringValue(values[models.KeyHomeAssistantToken], ""), Type: fieldSecret},
	}
	if s.cursor >= len(s.fields) {
		s.cursor = len(s.fields) - 1
	}
}

// Field returns the field for key.
func (s *SettingsForm) Field(key string) (SettingsField, bool) {
	for _, f := range s.fields {
		if f.Key == key {
			return f, true
		}
	}
	return SettingsField{}, false
}

// SetSize updates dimensions.
func (s *SettingsForm) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.input.Width = width - 24
}

// MoveUp moves cursor up.
func (s *SettingsForm) MoveUp() {
	if !s.editing && s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves cursor down.
func (s *SettingsForm) MoveDown() {
	if !s.editing && s.cursor < len(s.fields)-1 {
		s.cursor++
	}
}

// Toggle flips a boolean field or advances a choice field.
func (s *SettingsForm) Toggle() (changed bool, key string, value interface{}) {
	if s.cursor < 0 || s.cursor >= len(s.fields) {
		return false, "", nil
	}
	f := &s.fields[s.cursor]
	switch f.Type {
	case fieldToggle:
		f.BoolValue = !f.BoolValue
		return true, f.Key, f.BoolValue
	case fieldChoice:
		return s.Cycle(1)
	}
	return false, "", nil
}

// Cycle moves a choice field delta steps through its choices, wrapping.
func (s *SettingsForm) Cycle(delta int) (changed bool, key string, value interface{}) {
	if s.cursor < 0 || s.cursor >= len(s.fields) {
		return false, "", nil
	}
	f := &s.fields[s.cursor]
	if f.Type != fieldChoice || len(f.Choices) == 0 {
		return false, "", nil
	}
	idx := 0
	for i, c := range f.Choices {
		if c == f.Value {
			idx = i
			break
		}
	}
	n := len(f.Choices)
	f.Value = f.Choices[((idx+delta)%n+n)%n]
	return true, f.Key, f.Value
}

// StartEdit begins inline editing of the current text or secret field.
func (s *SettingsForm) StartEdit() bool {
	if s.cursor < 0 || s.cursor >= len(s.fields) {
		return false
	}
	f := s.fields[s.cursor]
	switch f.Type {
	case fieldText:
		s.input.EchoMode = textinput.EchoNormal
	case fieldSecret:
		s.input.EchoMode = textinput.EchoPassword
	default:
		return false
	}
	s.editing = true
	s.input.SetValue(f.Value)
	s.input.CursorEnd()
	s.input.Focus()
	return true
}

// FinishEdit confirms the current edit. A value that cannot be stored is
// reported as an error and leaves the field unchanged.
func (s *SettingsForm) FinishEdit() (changed bool, key string, value interface{}, err error) {
	if !s.editing {
		return false, "", nil, nil
	}
	s.editing = false
	s.input.Blur()

	f := &s.fields[s.cursor]
	newVal := strings.TrimSpace(s.input.Value())
	if newVal == f.Value {
		return false, "", nil, nil
	}

	switch f.Key {
	case models.KeyHomeAssistantHost:
		if newVal == "" {
			return false, "", nil, errors.New("host cannot be empty")
		}
		value = newVal
	case models.KeyHomeAssistantPort:
		port, convErr := strconv.Atoi(newVal)
		if convErr != nil || port < 1 || port > 65535 {
			return false, "", nil, fmt.Errorf("invalid port %q", newVal)
		}
		value = port
	default:
		value = newVal
	}

	f.Value = newVal
	return true, f.Key, value, nil
}

// CancelEdit cancels the current edit.
func (s *SettingsForm) CancelEdit() {
	s.editing = false
	s.input.Blur()
}

// IsEditing returns whether a field is being edited.
func (s *SettingsForm) IsEditing() bool {
	return s.editing
}

// InputModel returns the text input model for Update forwarding.
func (s *SettingsForm) InputModel() *textinput.Model {
	return &s.input
}

// View renders the settings form.
func (s *SettingsForm) View() string {
	if len(s.fields) == 0 {
		return lipgloss.NewStyle().Foreground(colorDim).Render("Loading settings...")
	}

	lines := []string{sectionHeaderStyle.Render("Home Assistant"), ""}
	for i, f := range s.fields {
		var line string
		label := settingsLabelStyle.Render(f.Label + ":")

		switch {
		case f.Type == fieldToggle:
			val := settingsToggleOff.Render("[OFF]")
			if f.BoolValue {
				val = settingsToggleOn.Render("[ON]")
			}
			line = label + " " + val
		case f.Type == fieldChoice:
			line = label + " " + settingsValueStyle.Render("‹ "+f.Value+" ›")
		case s.editing && i == s.cursor:
			line = label + " " + s.input.View()
		default:
			val := f.Value
			switch {
			case val == "":
				val = lipgloss.NewStyle().Foreground(colorDim).Render("(not set)")
			case f.Type == fieldSecret:
				val = settingsValueStyle.Render(strings.Repeat("•", 12))
			default:
				val = settingsValueStyle.Render(val)
			}
			line = label + " " + val
		}

		if i == s.cursor {
			line = settingsCursorStyle.Width(s.width).Render(line)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// boolValue reads a bool from a GetSettings value.
func boolValue(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

// stringValue formats a GetSettings value; numbers arrive as float64 over
// gRPC and as int from the local store.
func stringValue(v interface{}, def string) string {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// listValue reads a string list from a GetSettings value.
func listValue(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
