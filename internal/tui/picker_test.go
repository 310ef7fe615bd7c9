package tui

import (
	"testing"

	"github.com/hassdesk/hassdesk/internal/rpc"
)

var pickerEntities = []rpc.Entity{
	{ID: "light.kitchen", Name: "Kitchen", Domain: "light"},
	{ID: "light.porch", Name: "Front Porch", Domain: "light"},
	{ID: "sensor.temperature", Name: "Temperature", Domain: "sensor"},
	{ID: "switch.fan", Name: "Fan", Domain: "switch"},
}

func matchIDs(p *Picker) []string {
	var ids []string
	for _, e := range p.Matches() {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestPickerFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query lists all but subscribed", "", []string{"light.porch", "sensor.temperature", "switch.fan"}},
		{"matches id", "light", []string{"light.porch"}},
		{"matches name case-insensitively", "PORCH", []string{"light.porch"}},
		{"matches name words", "front", []string{"light.porch"}},
		{"no match", "garage", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPicker(pickerEntities, []string{"light.kitchen"}, 80)
			p.SetQuery(tt.query)
			got := matchIDs(p)
			if len(got) != len(tt.want) {
				t.Fatalf("matches = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("matches = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPickerValue(t *testing.T) {
	p := NewPicker(pickerEntities, nil, 80)
	p.SetQuery("light")
	if got := p.Value(); got != "light.kitchen" {
		t.Errorf("Value() = %q, want first match", got)
	}
	p.MoveDown()
	if got := p.Value(); got != "light.porch" {
		t.Errorf("Value() = %q after MoveDown", got)
	}
	p.MoveDown()
	if got := p.Value(); got != "light.porch" {
		t.Errorf("Value() = %q, cursor went past the last match", got)
	}

	p.SetQuery("binary_sensor.door")
	if got := p.Value(); got != "binary_sensor.door" {
		t.Errorf("Value() = %q, want typed text without matches", got)
	}
}

func TestPickerWithoutEntities(t *testing.T) {
	p := NewPicker(nil, nil, 80)
	p.SetQuery(" cover.garage ")
	if got := p.Value(); got != "cover.garage" {
		t.Errorf("Value() = %q", got)
	}
	if p.View() == "" {
		t.Error("empty view")
	}
}
