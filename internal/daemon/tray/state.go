// Package tray implements the system tray icon and menu for the daemon.
package tray

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/hassdesk/hassdesk/internal/daemon/menu"
	"github.com/hassdesk/hassdesk/internal/models"
)

//go:embed icon.png
var iconData []byte

// maxEntitySlots is how many entity entries the tray can show.
const maxEntitySlots = 32

// Controller receives menu clicks.
type Controller interface {
	Activate(menu.Entry)
}

// layout picks the entity entries that go into slots, in menu order, and
// the fixed Settings and Exit entries. Entity entries beyond the slot
// capacity are counted in dropped.
func layout(entries []menu.Entry) (slots []menu.Entry, settings, exit menu.Entry, dropped int) {
	settings = menu.Entry{Kind: menu.KindSettings, Label: menu.LabelSettings}
	exit = menu.Entry{Kind: menu.KindExit, Label: menu.LabelExit}

	for _, e := range entries {
		switch e.Kind {
		case menu.KindToggle, menu.KindAction, menu.KindInfo:
			if len(slots) == maxEntitySlots {
				dropped++
				continue
			}
			slots = append(slots, e)
		case menu.KindSettings:
			settings = e
		case menu.KindExit:
			exit = e
		}
	}
	return slots, settings, exit, dropped
}

// statusTitle is the text of the disabled header item.
func statusTitle(st models.DaemonStatus) string {
	switch st.State {
	case models.ConnectionConnected:
		if st.LocationName != "" {
			return "Connected to " + st.LocationName
		}
		return "Connected"
	case models.ConnectionConnecting:
		return "Connecting..."
	case models.ConnectionReconnecting:
		return "Reconnecting..."
	case models.ConnectionFailed:
		return "Connection failed"
	case models.ConnectionUnconfigured:
		return "Not configured"
	default:
		return "Disconnected"
	}
}

// formatTooltip lists the location and the shown entities with their state.
func formatTooltip(view menu.View) string {
	var b strings.Builder
	b.WriteString("Home Assistant")
	if loc := view.Status.LocationName; loc != "" {
		fmt.Fprintf(&b, ": %s", loc)
	}
	if !view.Status.Connected() {
		fmt.Fprintf(&b, " (%s)", view.Status.State)
	}
	for _, st := range view.Entities {
		fmt.Fprintf(&b, "\n%s: %s", st.FriendlyName(), st.State)
		if unit := st.Unit(); unit != "" {
			b.WriteString(" " + unit)
		}
	}
	return b.String()
}

// item is the part of a tray menu item that rendering touches.
type item interface {
	SetTitle(title string)
	SetTooltip(tooltip string)
	Show()
	Hide()
	Check()
	Uncheck()
}

// menuItems are the tray's pre-allocated items. Callers of apply must hold
// renderMu.
type menuItems struct {
	status     item
	check      [maxEntitySlots]item
	plain      [maxEntitySlots]item
	noEntities item
	settings   item
	exit       item
	setTooltip func(string)
}

// apply binds view onto the items.
func (m *menuItems) apply(view menu.View) {
	slots, settings, exit, _ := layout(view.Entries)

	for i := 0; i < maxEntitySlots; i++ {
		if i >= len(slots) {
			m.check[i].Hide()
			m.plain[i].Hide()
			continue
		}
		e := slots[i]
		if e.Kind == menu.KindToggle {
			m.plain[i].Hide()
			m.check[i].SetTitle(e.Label)
			if e.Checked {
				m.check[i].Check()
			} else {
				m.check[i].Uncheck()
			}
			m.check[i].Show()
			continue
		}
		m.check[i].Hide()
		m.plain[i].SetTitle(e.Label)
		if e.Kind == menu.KindInfo {
			m.plain[i].SetTooltip("Open history")
		} else {
			m.plain[i].SetTooltip("")
		}
		m.plain[i].Show()
	}

	if len(slots) == 0 {
		m.noEntities.Show()
	} else {
		m.noEntities.Hide()
	}
	m.settings.SetTitle(settings.Label)
	m.exit.SetTitle(exit.Label)

	m.status.SetTitle(statusTitle(view.Status))
	m.setTooltip(formatTooltip(view))
}
