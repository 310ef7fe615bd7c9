package models

import (
	"fmt"
	"strings"
)

// Entity attribute names read by the tray.
const (
	AttrFriendlyName = "friendly_name"
	AttrUnit         = "unit_of_measurement"
)

// StateOn is the state value of an entity that is switched on.
const StateOn = "on"

// EntityState is the state of a single Home Assistant entity.
type EntityState struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged string                 `json:"last_changed,omitempty"`
	LastUpdated string                 `json:"last_updated,omitempty"`
}

// Domain returns the part of the entity ID before the first separator.
func (e EntityState) Domain() string {
	return EntityDomain(e.EntityID)
}

// FriendlyName returns the human-readable name, or the entity ID.
func (e EntityState) FriendlyName() string {
	if name, ok := e.Attributes[AttrFriendlyName].(string); ok && name != "" {
		return name
	}
	return e.EntityID
}

// Unit returns the unit of measurement, or "" if the entity has none.
func (e EntityState) Unit() string {
	switch v := e.Attributes[AttrUnit].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// EntityDomain returns the domain of an entity ID ("light.kitchen" -> "light").
func EntityDomain(entityID string) string {
	domain, _, found := strings.Cut(entityID, ".")
	if !found {
		return entityID
	}
	return domain
}

// ServiceCatalog maps a domain to the set of services it provides.
type ServiceCatalog map[string]map[string]struct{}

// NewServiceCatalog builds a catalog from domain -> service names.
func NewServiceCatalog(services map[string][]string) ServiceCatalog {
	c := make(ServiceCatalog, len(services))
	for domain, names := range services {
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		c[domain] = set
	}
	return c
}

// Has reports whether the domain provides the service.
func (c ServiceCatalog) Has(domain, service string) bool {
	_, ok := c[domain][service]
	return ok
}

// HassConfig is the subset of the Home Assistant core config shown by the tray.
type HassConfig struct {
	LocationName string            `json:"location_name"`
	Version      string            `json:"version"`
	TimeZone     string            `json:"time_zone"`
	State        string            `json:"state"`
	UnitSystem   map[string]string `json:"unit_system"`
}

// Connection holds the parameters needed to reach Home Assistant.
type Connection struct {
	Secure bool
	Host   string
	Port   int
	Token  string
}

// BaseURL returns the HTTP base URL, e.g. "http://homeassistant.local:8123".
func (c Connection) BaseURL() string {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// WebSocketURL returns the URL of the Home Assistant WebSocket API.
func (c Connection) WebSocketURL() string {
	scheme := "ws"
	if c.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d/api/websocket", scheme, c.Host, c.Port)
}
