package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/hassdesk/hassdesk/internal/rpc"
)

const maxPickerRows = 8

// Picker is the add-entity dialog: a text input filtering the entities
// Home Assistant reports. Any domain.object_id can be typed when the daemon
// has no entity list.
type Picker struct {
	input   textinput.Model
	options []rpc.Entity
	matches []rpc.Entity
	cursor  int
	width   int
}

// NewPicker creates a picker over entities, leaving out IDs already
// subscribed.
func NewPicker(entities []rpc.Entity, subscribed []string, width int) *Picker {
	skip := make(map[string]bool, len(subscribed))
	for _, id := range subscribed {
		skip[id] = true
	}
	options := make([]rpc.Entity, 0, len(entities))
	for _, e := range entities {
		if !skip[e.ID] {
			options = append(options, e)
		}
	}

	ti := textinput.New()
	ti.Placeholder = "light.kitchen"
	ti.CharLimit = 255
	ti.Width = pickerWidth(width) - 8
	ti.Focus()

	p := &Picker{input: ti, options: options, width: width}
	p.Filter()
	return p
}

func pickerWidth(width int) int {
	if width > 70 {
		width = 70
	}
	if width < 30 {
		width = 30
	}
	return width
}

// SetQuery replaces the typed text.
func (p *Picker) SetQuery(q string) {
	p.input.SetValue(q)
	p.Filter()
}

// Filter recomputes the matches for the typed text. Matching is a
// case-insensitive substring test on the ID and the friendly name.
func (p *Picker) Filter() {
	q := strings.ToLower(strings.TrimSpace(p.input.Value()))
	p.matches = p.matches[:0]
	for _, e := range p.options {
		if q == "" || strings.Contains(e.ID, q) || strings.Contains(strings.ToLower(e.Name), q) {
			p.matches = append(p.matches, e)
		}
	}
	if p.cursor >= len(p.matches) {
		p.cursor = len(p.matches) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// Matches returns the entities matching the typed text.
func (p *Picker) Matches() []rpc.Entity {
	return p.matches
}

// MoveUp moves the highlighted match up.
func (p *Picker) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the highlighted match down.
func (p *Picker) MoveDown() {
	if p.cursor < len(p.matches)-1 {
		p.cursor++
	}
}

// Value returns the entity ID to add: the highlighted match, or the typed
// text when nothing matches.
func (p *Picker) Value() string {
	if p.cursor < len(p.matches) {
		return p.matches[p.cursor].ID
	}
	return strings.TrimSpace(p.input.Value())
}

// InputModel returns the text input model for update forwarding.
func (p *Picker) InputModel() *textinput.Model {
	return &p.input
}

// View renders the picker.
func (p *Picker) View() string {
	formWidth := pickerWidth(p.width)
	inner := formWidth - 6

	parts := make([]string, 0, maxPickerRows+6)
	parts = append(parts, dialogTitleStyle.Render("Add Entity"))
	parts = append(parts, lipgloss.NewStyle().Bold(true).Render("Entity:"), p.input.View(), "")

	switch {
	case len(p.options) == 0:
		parts = append(parts, dialogDimStyle.Render("No entity list from Home Assistant. Type an ID."))
	case len(p.matches) == 0:
		parts = append(parts, dialogDimStyle.Render("No matches. Enter adds the typed ID."))
	default:
		start := 0
		if p.cursor >= maxPickerRows {
			start = p.cursor - maxPickerRows + 1
		}
		end := start + maxPickerRows
		if end > len(p.matches) {
			end = len(p.matches)
		}
		for i := start; i < end; i++ {
			label := ansi.Truncate(p.matches[i].Label(), inner-2, "…")
			if i == p.cursor {
				parts = append(parts, selectedItemStyle.Width(inner).Render("› "+label))
			} else {
				parts = append(parts, "  "+label)
			}
		}
		if end < len(p.matches) {
			parts = append(parts, dialogDimStyle.Render("  ▼ more"))
		}
	}

	parts = append(parts, "", dialogDimStyle.Render("Enter add  |  ↑/↓ select  |  Esc cancel"))
	return dialogStyle.Width(formWidth).Render(strings.Join(parts, "\n"))
}
