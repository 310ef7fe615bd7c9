package tui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hassdesk/hassdesk/internal/rpc"
)

func newList(ids ...string) *EntityList {
	el := NewEntityList()
	el.SetHeight(10)
	el.SetIDs(ids)
	return el
}

func TestEntityListAdd(t *testing.T) {
	el := newList("light.kitchen")

	got, ok := el.Add(" switch.fan ")
	if !ok || !reflect.DeepEqual(got, []string{"light.kitchen", "switch.fan"}) {
		t.Errorf("Add() = %v, %v", got, ok)
	}
	if _, ok := el.Add("light.kitchen"); ok {
		t.Error("Add() accepted a duplicate")
	}
	if _, ok := el.Add(""); ok {
		t.Error("Add() accepted an empty ID")
	}
	if el.Len() != 1 {
		t.Errorf("Add() changed the list itself: %v", el.IDs())
	}
}

func TestEntityListRemove(t *testing.T) {
	el := newList("light.a", "light.b", "light.c")
	el.MoveDown()

	got, ok := el.Remove()
	if !ok || !reflect.DeepEqual(got, []string{"light.a", "light.c"}) {
		t.Errorf("Remove() = %v, %v", got, ok)
	}

	el.SetIDs(got)
	if id, _ := el.Selected(); id != "light.c" {
		t.Errorf("Selected() = %q after removal, want light.c", id)
	}

	empty := newList()
	if _, ok := empty.Remove(); ok {
		t.Error("Remove() on empty list")
	}
}

func TestEntityListShift(t *testing.T) {
	el := newList("light.a", "light.b", "light.c")

	if _, ok := el.Shift(-1); ok {
		t.Error("Shift(-1) at top succeeded")
	}

	got, ok := el.Shift(1)
	if !ok || !reflect.DeepEqual(got, []string{"light.b", "light.a", "light.c"}) {
		t.Errorf("Shift(1) = %v, %v", got, ok)
	}
	el.SetIDs(got)
	if id, _ := el.Selected(); id != "light.a" {
		t.Errorf("cursor did not follow the entity: %q", id)
	}
}

func TestEntityListCursorClampedOnShrink(t *testing.T) {
	el := newList("light.a", "light.b", "light.c")
	el.MoveDown()
	el.MoveDown()
	el.SetIDs([]string{"light.a"})

	if id, ok := el.Selected(); !ok || id != "light.a" {
		t.Errorf("Selected() = %q, %v", id, ok)
	}
}

func TestEntityListView(t *testing.T) {
	el := newList("light.kitchen", "sensor.gone", "device_tracker.phone")

	view := el.View(60, true)
	if !strings.Contains(view, "light.kitchen") || strings.Contains(view, "not found") {
		t.Errorf("view without known entities:\n%s", view)
	}

	el.SetKnown([]rpc.Entity{{ID: "light.kitchen", Name: "Kitchen", State: "on", Domain: "light"}})
	view = el.View(60, true)
	for _, want := range []string{"Kitchen - light.kitchen", "sensor.gone  (not found)", "device_tracker.phone"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "device_tracker.phone  (not found)") {
		t.Error("device_tracker marked as not found")
	}

	if view := newList().View(60, true); !strings.Contains(view, "No entities") {
		t.Errorf("empty view:\n%s", view)
	}
}

func TestEntityListScrolls(t *testing.T) {
	el := NewEntityList()
	el.SetHeight(5) // three rows
	el.SetIDs([]string{"light.a", "light.b", "light.c", "light.d", "light.e"})
	for i := 0; i < 4; i++ {
		el.MoveDown()
	}

	view := el.View(40, true)
	if strings.Contains(view, "light.a") || !strings.Contains(view, "light.e") {
		t.Errorf("view did not scroll to the cursor:\n%s", view)
	}
	if !strings.Contains(view, "▲ more") {
		t.Errorf("missing scroll indicator:\n%s", view)
	}
}
