// Package menu turns the subscribed-entity snapshot and the service catalog
// into the ordered list of tray menu entries.
package menu

import (
	"net/url"

	"github.com/hassdesk/hassdesk/internal/daemon/reconciler"
	"github.com/hassdesk/hassdesk/internal/models"
)

// Kind identifies what a menu entry does.
type Kind int

const (
	// KindToggle is a checkbox bound to the domain's toggle service.
	KindToggle Kind = iota
	// KindAction is a plain entry bound to the domain's turn_on service.
	KindAction
	// KindInfo shows state and opens the entity's history page.
	KindInfo
	KindSeparator
	KindSettings
	KindExit
)

func (k Kind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	case KindAction:
		return "action"
	case KindInfo:
		return "info"
	case KindSeparator:
		return "separator"
	case KindSettings:
		return "settings"
	case KindExit:
		return "exit"
	}
	return "unknown"
}

// Service names used by the entry policy.
const (
	ServiceToggle = "toggle"
	ServiceTurnOn = "turn_on"
)

// Fixed labels.
const (
	LabelSettings = "Settings"
	LabelExit     = "Exit"
)

// Entry describes one tray menu item.
type Entry struct {
	Kind    Kind
	Label   string
	Checked bool

	// Set for entity entries.
	EntityID string
	Domain   string
	Service  string // KindToggle, KindAction
	URL      string // KindInfo
}

// View is everything the tray renders: the menu, the entities behind it and
// the connection status.
type View struct {
	Entries  []Entry
	Entities []models.EntityState
	Status   models.DaemonStatus
}

// Builder builds menus for one Home Assistant instance.
type Builder struct {
	// BaseURL is the instance's HTTP base URL, used for history links.
	BaseURL string
}

// Build returns the menu for the snapshot. The same inputs always produce
// the same entries in the same order.
func (b Builder) Build(snapshot reconciler.Snapshot, catalog models.ServiceCatalog) []Entry {
	entries := make([]Entry, 0, snapshot.Len()+4)
	for _, st := range snapshot.Entities() {
		entries = append(entries, b.entityEntry(st, catalog))
	}
	return append(entries,
		Entry{Kind: KindSeparator},
		Entry{Kind: KindSettings, Label: LabelSettings},
		Entry{Kind: KindSeparator},
		Entry{Kind: KindExit, Label: LabelExit},
	)
}

func (b Builder) entityEntry(st models.EntityState, catalog models.ServiceCatalog) Entry {
	domain := st.Domain()
	e := Entry{
		EntityID: st.EntityID,
		Domain:   domain,
		Label:    st.FriendlyName(),
	}

	switch {
	case catalog.Has(domain, ServiceToggle):
		e.Kind = KindToggle
		e.Service = ServiceToggle
		e.Checked = st.State == models.StateOn
	case catalog.Has(domain, ServiceTurnOn):
		e.Kind = KindAction
		e.Service = ServiceTurnOn
	default:
		e.Kind = KindInfo
		e.Label = InfoLabel(st)
		e.URL = HistoryURL(b.BaseURL, st.EntityID)
	}
	return e
}

// InfoLabel renders "<name> - <state>[ <unit>]".
func InfoLabel(st models.EntityState) string {
	label := st.FriendlyName() + " - " + st.State
	if unit := st.Unit(); unit != "" {
		label += " " + unit
	}
	return label
}

// HistoryURL returns the history page of an entity.
func HistoryURL(baseURL, entityID string) string {
	return baseURL + "/history?entity_id=" + url.QueryEscape(entityID)
}
