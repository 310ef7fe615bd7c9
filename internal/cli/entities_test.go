package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hassdesk/hassdesk/internal/rpc"
)

func TestAddEntities(t *testing.T) {
	next, added, err := addEntities([]string{"light.kitchen"}, []string{"switch.fan", " light.kitchen ", "switch.fan", "cover.garage"})
	if err != nil {
		t.Fatalf("addEntities() error = %v", err)
	}
	if want := []string{"light.kitchen", "switch.fan", "cover.garage"}; !reflect.DeepEqual(next, want) {
		t.Errorf("next = %v, want %v", next, want)
	}
	if want := []string{"switch.fan", "cover.garage"}; !reflect.DeepEqual(added, want) {
		t.Errorf("added = %v, want %v", added, want)
	}

	if _, _, err := addEntities(nil, []string{"kitchen"}); err == nil || !strings.Contains(err.Error(), "not an entity ID") {
		t.Errorf("addEntities(kitchen) error = %v", err)
	}
}

func TestAddEntitiesDoesNotModifyInput(t *testing.T) {
	current := make([]string, 1, 4)
	current[0] = "light.a"
	if _, _, err := addEntities(current, []string{"light.b"}); err != nil {
		t.Fatalf("addEntities() error = %v", err)
	}
	if !reflect.DeepEqual(current, []string{"light.a"}) {
		t.Errorf("current = %v", current)
	}
	if got := current[:2][1]; got != "" {
		t.Errorf("addEntities() wrote %q into the input's spare capacity", got)
	}
}

func TestRemoveEntities(t *testing.T) {
	next, missing := removeEntities(
		[]string{"light.a", "light.b", "light.c"},
		[]string{"light.b", "sensor.x", "sensor.x"},
	)
	if want := []string{"light.a", "light.c"}; !reflect.DeepEqual(next, want) {
		t.Errorf("next = %v, want %v", next, want)
	}
	if want := []string{"sensor.x"}; !reflect.DeepEqual(missing, want) {
		t.Errorf("missing = %v, want %v", missing, want)
	}

	next, missing = removeEntities([]string{"light.a"}, []string{"light.a"})
	if len(next) != 0 || len(missing) != 0 {
		t.Errorf("removeEntities() = %v, %v, want both empty", next, missing)
	}
}

func TestEqualIDs(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, []string{}, true},
		{[]string{"a.b"}, []string{"a.b"}, true},
		{[]string{"a.b", "c.d"}, []string{"c.d", "a.b"}, false},
	}
	for _, tt := range tests {
		if got := equalIDs(tt.a, tt.b); got != tt.want {
			t.Errorf("equalIDs(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFormatSubscribed(t *testing.T) {
	known := []rpc.Entity{{ID: "light.kitchen", Name: "Kitchen", State: "on", Domain: "light"}}

	out := formatSubscribed([]string{"light.kitchen", "switch.gone"}, known)
	for _, want := range []string{"Kitchen - light.kitchen", "on", "switch.gone", "(not found)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if out := formatSubscribed([]string{"switch.gone"}, nil); strings.Contains(out, "not found") {
		t.Errorf("unknown entities marked as not found without an entity list:\n%s", out)
	}
}

func TestFormatAvailable(t *testing.T) {
	known := []rpc.Entity{
		{ID: "light.kitchen", Name: "Kitchen", State: "on"},
		{ID: "switch.fan", Name: "Fan", State: "off"},
	}
	lines := strings.Split(strings.TrimSpace(formatAvailable(known, []string{"switch.fan"})), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if strings.Contains(lines[0], "✓") {
		t.Errorf("unsubscribed entity marked: %q", lines[0])
	}
	if !strings.Contains(lines[1], "✓") {
		t.Errorf("subscribed entity not marked: %q", lines[1])
	}
}
