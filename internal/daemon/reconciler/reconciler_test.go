package reconciler

import (
	"slices"
	"testing"

	"github.com/hassdesk/hassdesk/internal/models"
)

func entity(id, state string, attrs map[string]interface{}) models.EntityState {
	return models.EntityState{EntityID: id, State: state, Attributes: attrs}
}

func entityMap(states ...models.EntityState) map[string]models.EntityState {
	m := make(map[string]models.EntityState, len(states))
	for _, s := range states {
		m[s.EntityID] = s
	}
	return m
}

type recorder struct {
	calls []Snapshot
}

func (r *recorder) SnapshotChanged(s Snapshot) {
	r.calls = append(r.calls, s)
}

func TestReconcile(t *testing.T) {
	kitchenOn := entity("light.kitchen", "on", map[string]interface{}{"friendly_name": "Kitchen"})
	kitchenOff := entity("light.kitchen", "off", map[string]interface{}{"friendly_name": "Kitchen"})
	temp := entity("sensor.temp", "21.5", map[string]interface{}{"unit_of_measurement": "°C"})

	base, _ := Reconcile([]string{"light.kitchen", "sensor.temp"}, entityMap(kitchenOn, temp), Snapshot{})

	tests := []struct {
		name     string
		subs     []string
		incoming map[string]models.EntityState
		previous Snapshot
		wantIDs  []string
		changed  bool
	}{
		{
			name:     "first delivery",
			subs:     []string{"light.kitchen", "sensor.temp"},
			incoming: entityMap(kitchenOn, temp),
			wantIDs:  []string{"light.kitchen", "sensor.temp"},
			changed:  true,
		},
		{
			name:     "identical delivery",
			subs:     []string{"light.kitchen", "sensor.temp"},
			incoming: entityMap(kitchenOn, temp),
			previous: base,
			wantIDs:  []string{"light.kitchen", "sensor.temp"},
			changed:  false,
		},
		{
			name:     "state change",
			subs:     []string{"light.kitchen", "sensor.temp"},
			incoming: entityMap(kitchenOff, temp),
			previous: base,
			wantIDs:  []string{"light.kitchen", "sensor.temp"},
			changed:  true,
		},
		{
			name:     "missing upstream is omitted",
			subs:     []string{"a.x", "b.y", "c.z"},
			incoming: entityMap(entity("a.x", "1", nil), entity("c.z", "3", nil)),
			wantIDs:  []string{"a.x", "c.z"},
			changed:  true,
		},
		{
			name:     "entity disappears upstream",
			subs:     []string{"light.kitchen", "sensor.temp"},
			incoming: entityMap(kitchenOn),
			previous: base,
			wantIDs:  []string{"light.kitchen"},
			changed:  true,
		},
		{
			name:     "unsubscribed entities are ignored",
			subs:     []string{"light.kitchen"},
			incoming: entityMap(kitchenOn, temp, entity("switch.fan", "off", nil)),
			wantIDs:  []string{"light.kitchen"},
			changed:  true,
		},
		{
			name:     "nothing subscribed",
			subs:     nil,
			incoming: entityMap(kitchenOn),
			wantIDs:  nil,
			changed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Reconcile(tt.subs, tt.incoming, tt.previous)
			if changed != tt.changed {
				t.Errorf("changed = %v, want %v", changed, tt.changed)
			}
			if !slices.Equal(got.IDs(), tt.wantIDs) {
				t.Errorf("IDs() = %v, want %v", got.IDs(), tt.wantIDs)
			}
		})
	}
}

func TestReconcileKeySetInvariant(t *testing.T) {
	subs := []string{"a.1", "b.2", "c.3", "d.4"}
	incoming := entityMap(entity("b.2", "x", nil), entity("d.4", "y", nil), entity("e.5", "z", nil))

	got, _ := Reconcile(subs, incoming, Snapshot{})
	for _, id := range subs {
		_, inSnap := got.Get(id)
		_, upstream := incoming[id]
		if inSnap != upstream {
			t.Errorf("%s: in snapshot = %v, upstream = %v", id, inSnap, upstream)
		}
	}
	if _, ok := got.Get("e.5"); ok {
		t.Error("unsubscribed entity leaked into snapshot")
	}
}

func TestReconcileIgnoresAttributeOnlyChange(t *testing.T) {
	subs := []string{"sensor.temp"}
	before := entity("sensor.temp", "21.5", map[string]interface{}{"unit_of_measurement": "°C"})
	after := entity("sensor.temp", "21.5", map[string]interface{}{"unit_of_measurement": "°F"})

	prev, _ := Reconcile(subs, entityMap(before), Snapshot{})
	next, changed := Reconcile(subs, entityMap(after), prev)
	if changed {
		t.Fatal("attribute-only change reported as changed")
	}
	st, _ := next.Get("sensor.temp")
	if st.Unit() != "°C" {
		t.Errorf("Unit() = %q, want the previously recorded °C", st.Unit())
	}
}

func TestReconcilerNotifiesOnlyOnChange(t *testing.T) {
	r := New([]string{"light.kitchen"})
	rec := &recorder{}
	r.Subscribe(rec)

	on := entityMap(entity("light.kitchen", "on", nil))
	if !r.ApplyEntities(on) {
		t.Fatal("first delivery should change the snapshot")
	}
	if r.ApplyEntities(on) {
		t.Fatal("identical delivery should not change the snapshot")
	}
	r.ApplyEntities(entityMap(entity("light.kitchen", "on", map[string]interface{}{"brightness": 10})))
	r.ApplyEntities(entityMap(entity("light.kitchen", "off", nil)))

	if len(rec.calls) != 2 {
		t.Fatalf("observer called %d times, want 2", len(rec.calls))
	}
	st, _ := rec.calls[1].Get("light.kitchen")
	if st.State != "off" {
		t.Errorf("last notified state = %q, want off", st.State)
	}
}

func TestReconcilerNoEntityMapYet(t *testing.T) {
	r := New([]string{"light.kitchen"})
	rec := &recorder{}
	r.Subscribe(rec)

	if r.SetSubscriptions([]string{"light.kitchen", "switch.fan"}) {
		t.Error("SetSubscriptions reported work before any entity map")
	}
	r.Refresh()
	if len(rec.calls) != 0 {
		t.Errorf("observer called %d times before any entity map", len(rec.calls))
	}
	if r.Snapshot().Len() != 0 {
		t.Errorf("snapshot has %d entries, want 0", r.Snapshot().Len())
	}
	if got := r.Subscriptions(); !slices.Equal(got, []string{"light.kitchen", "switch.fan"}) {
		t.Errorf("Subscriptions() = %v", got)
	}
}

func TestReconcilerSetSubscriptionsRebuilds(t *testing.T) {
	r := New([]string{"light.kitchen"})
	r.ApplyEntities(entityMap(
		entity("light.kitchen", "on", map[string]interface{}{"friendly_name": "Old"}),
		entity("switch.fan", "off", nil),
	))
	// attribute-only update: not recorded by the incremental path
	r.ApplyEntities(entityMap(
		entity("light.kitchen", "on", map[string]interface{}{"friendly_name": "New"}),
		entity("switch.fan", "off", nil),
	))

	rec := &recorder{}
	r.Subscribe(rec)

	if !r.SetSubscriptions([]string{"switch.fan", "light.kitchen", "switch.fan"}) {
		t.Fatal("SetSubscriptions should rebuild")
	}
	if len(rec.calls) != 1 {
		t.Fatalf("observer called %d times, want 1", len(rec.calls))
	}
	snap := rec.calls[0]
	if !slices.Equal(snap.IDs(), []string{"switch.fan", "light.kitchen"}) {
		t.Errorf("IDs() = %v", snap.IDs())
	}
	st, _ := snap.Get("light.kitchen")
	if st.FriendlyName() != "New" {
		t.Errorf("FriendlyName() = %q, want rebuild to pick up the latest record", st.FriendlyName())
	}

	if r.SetSubscriptions([]string{"switch.fan", "light.kitchen"}) {
		t.Error("unchanged subscription list should be a no-op")
	}
}

func TestReconcilerObserversInOrderAndCancel(t *testing.T) {
	r := New([]string{"a.x"})
	var order []string
	cancelFirst := r.Subscribe(ObserverFunc(func(Snapshot) { order = append(order, "first") }))
	r.Subscribe(ObserverFunc(func(Snapshot) { order = append(order, "second") }))

	r.ApplyEntities(entityMap(entity("a.x", "1", nil)))
	cancelFirst()
	r.ApplyEntities(entityMap(entity("a.x", "2", nil)))

	want := []string{"first", "second", "second"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestReconcilerReset(t *testing.T) {
	r := New([]string{"a.x"})
	rec := &recorder{}
	r.Subscribe(rec)

	r.Reset()
	if len(rec.calls) != 0 {
		t.Fatal("Reset on empty snapshot should not notify")
	}

	r.ApplyEntities(entityMap(entity("a.x", "1", nil)))
	r.Reset()
	if len(rec.calls) != 2 {
		t.Fatalf("observer called %d times, want 2", len(rec.calls))
	}
	if rec.calls[1].Len() != 0 {
		t.Error("Reset should publish an empty snapshot")
	}
	if r.Available() != 0 {
		t.Errorf("Available() = %d after Reset", r.Available())
	}
}
