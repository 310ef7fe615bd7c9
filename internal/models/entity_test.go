package models

import "testing"

func TestEntityStateAccessors(t *testing.T) {
	tests := []struct {
		name       string
		entity     EntityState
		wantDomain string
		wantName   string
		wantUnit   string
	}{
		{
			name: "sensor with unit",
			entity: EntityState{
				EntityID:   "sensor.temperature",
				State:      "21.5",
				Attributes: map[string]interface{}{"friendly_name": "Temperature", "unit_of_measurement": "°C"},
			},
			wantDomain: "sensor",
			wantName:   "Temperature",
			wantUnit:   "°C",
		},
		{
			name:       "no attributes",
			entity:     EntityState{EntityID: "light.kitchen", State: "on"},
			wantDomain: "light",
			wantName:   "light.kitchen",
			wantUnit:   "",
		},
		{
			name:       "object id containing dots",
			entity:     EntityState{EntityID: "sensor.a.b"},
			wantDomain: "sensor",
			wantName:   "sensor.a.b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entity.Domain(); got != tt.wantDomain {
				t.Errorf("Domain() = %q, want %q", got, tt.wantDomain)
			}
			if got := tt.entity.FriendlyName(); got != tt.wantName {
				t.Errorf("FriendlyName() = %q, want %q", got, tt.wantName)
			}
			if got := tt.entity.Unit(); got != tt.wantUnit {
				t.Errorf("Unit() = %q, want %q", got, tt.wantUnit)
			}
		})
	}
}

func TestServiceCatalogHas(t *testing.T) {
	c := NewServiceCatalog(map[string][]string{
		"light":  {"toggle", "turn_on", "turn_off"},
		"script": {"turn_on"},
	})

	if !c.Has("light", "toggle") {
		t.Error("light should have toggle")
	}
	if c.Has("script", "toggle") {
		t.Error("script should not have toggle")
	}
	if c.Has("sensor", "turn_on") {
		t.Error("unknown domain should have no services")
	}

	var empty ServiceCatalog
	if empty.Has("light", "toggle") {
		t.Error("nil catalog should have no services")
	}
}
