package menu

import (
	"reflect"
	"testing"

	"github.com/hassdesk/hassdesk/internal/daemon/reconciler"
	"github.com/hassdesk/hassdesk/internal/models"
)

const baseURL = "http://homeassistant.local:8123"

func snapshot(subs []string, states ...models.EntityState) reconciler.Snapshot {
	m := make(map[string]models.EntityState, len(states))
	for _, s := range states {
		m[s.EntityID] = s
	}
	snap, _ := reconciler.Reconcile(subs, m, reconciler.Snapshot{})
	return snap
}

func catalog() models.ServiceCatalog {
	return models.NewServiceCatalog(map[string][]string{
		"light":  {"toggle", "turn_on", "turn_off"},
		"switch": {"toggle"},
		"scene":  {"turn_on"},
	})
}

func TestBuildEntityEntries(t *testing.T) {
	tests := []struct {
		name  string
		state models.EntityState
		want  Entry
	}{
		{
			name: "toggle wins over turn_on",
			state: models.EntityState{
				EntityID:   "light.kitchen",
				State:      "on",
				Attributes: map[string]interface{}{"friendly_name": "Kitchen"},
			},
			want: Entry{Kind: KindToggle, Label: "Kitchen", Checked: true, EntityID: "light.kitchen", Domain: "light", Service: "toggle"},
		},
		{
			name:  "toggle unchecked when not on",
			state: models.EntityState{EntityID: "switch.fan", State: "off"},
			want:  Entry{Kind: KindToggle, Label: "switch.fan", EntityID: "switch.fan", Domain: "switch", Service: "toggle"},
		},
		{
			name: "turn_on only",
			state: models.EntityState{
				EntityID:   "scene.movie",
				State:      "scening",
				Attributes: map[string]interface{}{"friendly_name": "Movie night"},
			},
			want: Entry{Kind: KindAction, Label: "Movie night", EntityID: "scene.movie", Domain: "scene", Service: "turn_on"},
		},
		{
			name: "no services shows state with unit",
			state: models.EntityState{
				EntityID:   "sensor.temperature",
				State:      "21.5",
				Attributes: map[string]interface{}{"friendly_name": "Temperature", "unit_of_measurement": "°C"},
			},
			want: Entry{
				Kind:     KindInfo,
				Label:    "Temperature - 21.5 °C",
				EntityID: "sensor.temperature",
				Domain:   "sensor",
				URL:      baseURL + "/history?entity_id=sensor.temperature",
			},
		},
		{
			name:  "no unit",
			state: models.EntityState{EntityID: "binary_sensor.door", State: "off", Attributes: map[string]interface{}{"friendly_name": "Door"}},
			want: Entry{
				Kind:     KindInfo,
				Label:    "Door - off",
				EntityID: "binary_sensor.door",
				Domain:   "binary_sensor",
				URL:      baseURL + "/history?entity_id=binary_sensor.door",
			},
		},
	}

	b := Builder{BaseURL: baseURL}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := b.Build(snapshot([]string{tt.state.EntityID}, tt.state), catalog())
			if len(entries) != 5 {
				t.Fatalf("got %d entries, want 5", len(entries))
			}
			if !reflect.DeepEqual(entries[0], tt.want) {
				t.Errorf("entry = %+v, want %+v", entries[0], tt.want)
			}
		})
	}
}

func TestBuildTrailingEntries(t *testing.T) {
	entries := Builder{BaseURL: baseURL}.Build(reconciler.Snapshot{}, nil)

	want := []Kind{KindSeparator, KindSettings, KindSeparator, KindExit}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, k := range want {
		if entries[i].Kind != k {
			t.Errorf("entries[%d].Kind = %v, want %v", i, entries[i].Kind, k)
		}
	}
	if entries[1].Label != "Settings" || entries[3].Label != "Exit" {
		t.Errorf("labels = %q, %q", entries[1].Label, entries[3].Label)
	}
}

func TestBuildSkipsMissingEntities(t *testing.T) {
	snap := snapshot([]string{"light.a", "light.b"}, models.EntityState{EntityID: "light.a", State: "on"})
	entries := Builder{BaseURL: baseURL}.Build(snap, catalog())

	var ids []string
	for _, e := range entries {
		if e.EntityID != "" {
			ids = append(ids, e.EntityID)
		}
	}
	if !reflect.DeepEqual(ids, []string{"light.a"}) {
		t.Errorf("entity entries = %v, want [light.a]", ids)
	}
}

func TestBuildIdempotent(t *testing.T) {
	snap := snapshot([]string{"switch.fan", "light.kitchen", "sensor.temp"},
		models.EntityState{EntityID: "light.kitchen", State: "on"},
		models.EntityState{EntityID: "switch.fan", State: "off"},
		models.EntityState{EntityID: "sensor.temp", State: "20"},
	)
	b := Builder{BaseURL: baseURL}
	first := b.Build(snap, catalog())
	second := b.Build(snap, catalog())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Build is not idempotent:\n%+v\n%+v", first, second)
	}
	if first[0].EntityID != "switch.fan" || first[1].EntityID != "light.kitchen" {
		t.Errorf("entries not in subscription order: %+v", first[:3])
	}
}

func TestHistoryURLEscapes(t *testing.T) {
	got := HistoryURL("https://ha.example:443", "sensor.a&b")
	want := "https://ha.example:443/history?entity_id=sensor.a%26b"
	if got != want {
		t.Errorf("HistoryURL() = %q, want %q", got, want)
	}
}
