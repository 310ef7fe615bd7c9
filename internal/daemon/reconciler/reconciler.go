// Package reconciler keeps the snapshot of subscribed entities in step with
// the entity map pushed by Home Assistant and tells observers when the
// snapshot actually changed.
package reconciler

import (
	"slices"

	"github.com/hassdesk/hassdesk/internal/models"
)

// Snapshot is an immutable, ordered view of the subscribed entities that are
// currently present upstream. Order follows the subscription list.
type Snapshot struct {
	ids    []string
	states map[string]models.EntityState
}

// Len returns the number of entities in the snapshot.
func (s Snapshot) Len() int {
	return len(s.ids)
}

// IDs returns the entity IDs in subscription order.
func (s Snapshot) IDs() []string {
	return slices.Clone(s.ids)
}

// Get returns the recorded state of an entity.
func (s Snapshot) Get(entityID string) (models.EntityState, bool) {
	st, ok := s.states[entityID]
	return st, ok
}

// Entities returns the recorded states in subscription order.
func (s Snapshot) Entities() []models.EntityState {
	out := make([]models.EntityState, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.states[id])
	}
	return out
}

func (s *Snapshot) add(st models.EntityState) {
	if s.states == nil {
		s.states = make(map[string]models.EntityState)
	}
	s.ids = append(s.ids, st.EntityID)
	s.states[st.EntityID] = st
}

// Reconcile folds an incoming entity map into the previous snapshot.
//
// Subscribed IDs missing upstream are left out. A subscribed entity is
// re-recorded only when it is new or its state value differs; otherwise the
// previous record is kept, so attribute-only updates are neither recorded nor
// reported. changed is also true when an entity drops out of the snapshot.
func Reconcile(subscriptions []string, incoming map[string]models.EntityState, previous Snapshot) (Snapshot, bool) {
	var next Snapshot
	changed := false

	for _, id := range subscriptions {
		if _, dup := next.states[id]; dup {
			continue
		}
		cur, ok := incoming[id]
		if !ok {
			continue
		}
		if cur.EntityID == "" {
			cur.EntityID = id
		}
		old, had := previous.states[id]
		if had && old.State == cur.State {
			next.add(old)
			continue
		}
		next.add(cur)
		changed = true
	}

	if !changed && next.Len() != previous.Len() {
		changed = true
	}
	if !changed && !slices.Equal(next.ids, previous.ids) {
		changed = true
	}
	return next, changed
}

// Observer is told about every snapshot change.
type Observer interface {
	SnapshotChanged(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// SnapshotChanged calls f(s).
func (f ObserverFunc) SnapshotChanged(s Snapshot) {
	f(s)
}

// Reconciler owns the subscription list, the latest entity map and the
// snapshot derived from them. It is not safe for concurrent use; the daemon
// drives it from a single event goroutine.
type Reconciler struct {
	subscriptions []string
	latest        map[string]models.EntityState
	snapshot      Snapshot

	observers []*observerEntry
}

type observerEntry struct {
	obs Observer
}

// New creates a reconciler for the given subscription list.
func New(subscriptions []string) *Reconciler {
	return &Reconciler{subscriptions: models.NormalizeEntityIDs(subscriptions)}
}

// Subscribe registers an observer. Observers are called synchronously, in
// registration order. The returned function removes the observer.
func (r *Reconciler) Subscribe(obs Observer) (cancel func()) {
	e := &observerEntry{obs: obs}
	r.observers = append(r.observers, e)
	return func() {
		r.observers = slices.DeleteFunc(r.observers, func(o *observerEntry) bool { return o == e })
	}
}

// Snapshot returns the current snapshot.
func (r *Reconciler) Snapshot() Snapshot {
	return r.snapshot
}

// Subscriptions returns the current subscription list.
func (r *Reconciler) Subscriptions() []string {
	return slices.Clone(r.subscriptions)
}

// Available returns how many entities the last entity map contained.
func (r *Reconciler) Available() int {
	return len(r.latest)
}

// ApplyEntities takes a full entity map from upstream and reports whether
// the snapshot changed. Observers are notified only on change.
func (r *Reconciler) ApplyEntities(entities map[string]models.EntityState) bool {
	if entities == nil {
		entities = map[string]models.EntityState{}
	}
	r.latest = entities

	next, changed := Reconcile(r.subscriptions, entities, r.snapshot)
	if !changed {
		return false
	}
	r.snapshot = next
	r.notify()
	return true
}

// SetSubscriptions replaces the subscription list and rebuilds the snapshot
// from scratch against the latest entity map. Before the first entity map
// arrives only the list is stored.
func (r *Reconciler) SetSubscriptions(subscriptions []string) bool {
	subscriptions = models.NormalizeEntityIDs(subscriptions)
	if slices.Equal(subscriptions, r.subscriptions) {
		return false
	}
	r.subscriptions = subscriptions
	if r.latest == nil {
		return false
	}

	r.snapshot, _ = Reconcile(r.subscriptions, r.latest, Snapshot{})
	r.notify()
	return true
}

// Refresh re-notifies observers with the current snapshot, for inputs that
// change how the snapshot is presented but not its content.
func (r *Reconciler) Refresh() {
	if r.latest == nil {
		return
	}
	r.notify()
}

// Reset forgets the entity map and the snapshot, as when the upstream
// connection is replaced. Observers are told if entities disappeared.
func (r *Reconciler) Reset() {
	had := r.snapshot.Len() > 0
	r.latest = nil
	r.snapshot = Snapshot{}
	if had {
		r.notify()
	}
}

func (r *Reconciler) notify() {
	observers := slices.Clone(r.observers)
	for _, e := range observers {
		e.obs.SnapshotChanged(r.snapshot)
	}
}
