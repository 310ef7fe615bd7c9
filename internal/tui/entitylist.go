package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/hassdesk/hassdesk/internal/rpc"
)

// EntityList edits the ordered list of subscribed entity IDs.
// Add, Remove and Shift return the new list for the caller to save; the
// list itself only changes through SetIDs.
type EntityList struct {
	ids          []string
	known        map[string]rpc.Entity // nil until the daemon answered
	cursor       int
	scrollOffset int
	height       int
}

// NewEntityList creates an empty entity list.
func NewEntityList() *EntityList {
	return &EntityList{}
}

// SetIDs replaces the subscribed IDs.
func (el *EntityList) SetIDs(ids []string) {
	el.ids = append([]string(nil), ids...)
	if el.cursor >= len(el.ids) {
		el.cursor = len(el.ids) - 1
	}
	if el.cursor < 0 {
		el.cursor = 0
	}
	el.ensureVisible()
}

// IDs returns a copy of the subscribed IDs.
func (el *EntityList) IDs() []string {
	return append([]string(nil), el.ids...)
}

// Len returns the number of subscribed IDs.
func (el *EntityList) Len() int {
	return len(el.ids)
}

// SetKnown records the entities Home Assistant reports, for labels.
// A nil slice means the list is not available.
func (el *EntityList) SetKnown(entities []rpc.Entity) {
	if entities == nil {
		el.known = nil
		return
	}
	el.known = make(map[string]rpc.Entity, len(entities))
	for _, e := range entities {
		el.known[e.ID] = e
	}
}

// SetHeight sets the panel height; two lines go to the section header.
func (el *EntityList) SetHeight(h int) {
	el.height = h - 2
	if el.height < 1 {
		el.height = 1
	}
	el.ensureVisible()
}

// Selected returns the ID under the cursor.
func (el *EntityList) Selected() (string, bool) {
	if el.cursor < 0 || el.cursor >= len(el.ids) {
		return "", false
	}
	return el.ids[el.cursor], true
}

// MoveUp moves the cursor up.
func (el *EntityList) MoveUp() {
	if el.cursor > 0 {
		el.cursor--
	}
	el.ensureVisible()
}

// MoveDown moves the cursor down.
func (el *EntityList) MoveDown() {
	if el.cursor < len(el.ids)-1 {
		el.cursor++
	}
	el.ensureVisible()
}

// Add returns the list with id appended, or false when it is already there.
func (el *EntityList) Add(id string) ([]string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	for _, existing := range el.ids {
		if existing == id {
			return nil, false
		}
	}
	return append(el.IDs(), id), true
}

// Remove returns the list without the selected ID.
func (el *EntityList) Remove() ([]string, bool) {
	if _, ok := el.Selected(); !ok {
		return nil, false
	}
	out := make([]string, 0, len(el.ids)-1)
	out = append(out, el.ids[:el.cursor]...)
	return append(out, el.ids[el.cursor+1:]...), true
}

// Shift returns the list with the selected ID moved delta places and moves
// the cursor along with it.
func (el *EntityList) Shift(delta int) ([]string, bool) {
	target := el.cursor + delta
	if _, ok := el.Selected(); !ok || target < 0 || target >= len(el.ids) {
		return nil, false
	}
	out := el.IDs()
	out[el.cursor], out[target] = out[target], out[el.cursor]
	el.cursor = target
	el.ensureVisible()
	return out, true
}

func (el *EntityList) ensureVisible() {
	if el.height <= 0 {
		return
	}
	if el.cursor < el.scrollOffset {
		el.scrollOffset = el.cursor
	}
	if el.cursor >= el.scrollOffset+el.height {
		el.scrollOffset = el.cursor - el.height + 1
	}
}

// View renders the entity list.
func (el *EntityList) View(width int, focused bool) string {
	header := sectionHeaderStyle.Render("Subscribed entities")
	if len(el.ids) == 0 {
		return header + "\n\n" + lipgloss.NewStyle().Foreground(colorDim).Render("No entities. Press 'a' to add one.")
	}

	lines := []string{header, ""}
	height := el.height
	if height < 1 {
		height = len(el.ids)
	}
	end := el.scrollOffset + height
	if end > len(el.ids) {
		end = len(el.ids)
	}

	for i := el.scrollOffset; i < end; i++ {
		id := el.ids[i]
		text, style := el.describe(id)

		maxWidth := width - 2
		if maxWidth > 0 {
			text = ansi.Truncate(text, maxWidth, "…")
		}

		line := style.Render(text)
		if focused && i == el.cursor {
			line = selectedItemStyle.Width(width).Render(text)
		}
		lines = append(lines, "  "+line)
	}

	if el.scrollOffset > 0 {
		lines = append(lines[:2], append([]string{lipgloss.NewStyle().Foreground(colorDim).Render("  ▲ more")}, lines[2:]...)...)
	}
	if end < len(el.ids) {
		lines = append(lines, lipgloss.NewStyle().Foreground(colorDim).Render("  ▼ more"))
	}

	return strings.Join(lines, "\n")
}

// describe returns the row text for id and the style to render it with.
func (el *EntityList) describe(id string) (string, lipgloss.Style) {
	// device_tracker entities are never listed.
	if el.known == nil || strings.HasPrefix(id, "device_tracker.") {
		return id, entityStyle
	}
	e, ok := el.known[id]
	if !ok {
		return id + "  (not found)", entityMissingStyle
	}
	text := e.Label()
	if e.State != "" {
		text += "  " + e.State
	}
	return text, entityStyle
}
