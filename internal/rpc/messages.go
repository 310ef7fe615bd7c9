package rpc

import (
	"fmt"
	"sort"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hassdesk/hassdesk/internal/models"
)

// Status is the daemon status returned by DaemonService.GetStatus.
type Status struct {
	Version   string
	PID       int
	Port      int
	StartedAt time.Time
	models.DaemonStatus
}

// Entity is one entry of HomeAssistantService.ListEntities.
type Entity struct {
	ID     string
	Name   string
	State  string
	Domain string
}

// Label is how entity pickers show the entity: "<name> - <id>".
func (e Entity) Label() string {
	if e.Name == "" || e.Name == e.ID {
		return e.ID
	}
	return e.Name + " - " + e.ID
}

// Value converts a settings value into something structpb accepts.
func Value(v interface{}) interface{} {
	switch t := v.(type) {
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

// SettingsToStruct encodes a key -> value map.
func SettingsToStruct(values map[string]interface{}) (*structpb.Struct, error) {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		m[k] = Value(v)
	}
	return structpb.NewStruct(m)
}

// KeysFromList decodes the GetSettings request.
func KeysFromList(list *structpb.ListValue) ([]string, error) {
	keys := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("setting keys must be strings, got %v", v.AsInterface())
		}
		keys = append(keys, s.StringValue)
	}
	return keys, nil
}

// KeysToList encodes the GetSettings request.
func KeysToList(keys []string) (*structpb.ListValue, error) {
	return structpb.NewList(Value(keys).([]interface{}))
}

// SetRequest encodes a SetSetting request.
func SetRequest(key string, value interface{}) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"key":   key,
		"value": Value(value),
	})
}

// ParseSetRequest decodes a SetSetting request.
func ParseSetRequest(req *structpb.Struct) (string, interface{}, error) {
	fields := req.GetFields()
	key := fields["key"].GetStringValue()
	if key == "" {
		return "", nil, fmt.Errorf("missing setting key")
	}
	value, ok := fields["value"]
	if !ok {
		return "", nil, fmt.Errorf("missing value for %s", key)
	}
	return key, value.AsInterface(), nil
}

// StatusToStruct encodes a Status.
func StatusToStruct(st Status) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"version":       st.Version,
		"pid":           st.PID,
		"port":          st.Port,
		"started_at":    st.StartedAt.UTC().Format(time.RFC3339),
		"state":         string(st.State),
		"url":           st.URL,
		"connection_id": st.ConnectionID,
		"ha_version":    st.HAVersion,
		"location_name": st.LocationName,
		"last_error":    st.LastError,
		"subscribed":    st.Subscribed,
		"visible":       st.Visible,
		"available":     st.Available,
	})
}

// StatusFromStruct decodes a Status.
func StatusFromStruct(s *structpb.Struct) Status {
	f := s.GetFields()
	str := func(k string) string { return f[k].GetStringValue() }
	num := func(k string) int { return int(f[k].GetNumberValue()) }

	st := Status{
		Version: str("version"),
		PID:     num("pid"),
		Port:    num("port"),
		DaemonStatus: models.DaemonStatus{
			State:        models.ConnectionState(str("state")),
			URL:          str("url"),
			ConnectionID: str("connection_id"),
			HAVersion:    str("ha_version"),
			LocationName: str("location_name"),
			LastError:    str("last_error"),
			Subscribed:   num("subscribed"),
			Visible:      num("visible"),
			Available:    num("available"),
		},
	}
	if t, err := time.Parse(time.RFC3339, str("started_at")); err == nil {
		st.StartedAt = t
	}
	return st
}

// EntitiesToStruct encodes the entity list, skipping device trackers.
// Entities are sorted by ID.
func EntitiesToStruct(states []models.EntityState) (*structpb.Struct, error) {
	sorted := make([]models.EntityState, 0, len(states))
	for _, st := range states {
		if st.Domain() == "device_tracker" {
			continue
		}
		sorted = append(sorted, st)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EntityID < sorted[j].EntityID })

	list := make([]interface{}, 0, len(sorted))
	for _, st := range sorted {
		list = append(list, map[string]interface{}{
			"entity_id": st.EntityID,
			"name":      st.FriendlyName(),
			"state":     st.State,
			"domain":    st.Domain(),
		})
	}
	return structpb.NewStruct(map[string]interface{}{"entities": list})
}

// EntitiesFromStruct decodes the entity list.
func EntitiesFromStruct(s *structpb.Struct) []Entity {
	values := s.GetFields()["entities"].GetListValue().GetValues()
	out := make([]Entity, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		out = append(out, Entity{
			ID:     f["entity_id"].GetStringValue(),
			Name:   f["name"].GetStringValue(),
			State:  f["state"].GetStringValue(),
			Domain: f["domain"].GetStringValue(),
		})
	}
	return out
}
