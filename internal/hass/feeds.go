package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hassdesk/hassdesk/internal/models"
)

// refetchTimeout bounds the command issued when a change event asks for a
// fresh copy of the config or service catalog.
const refetchTimeout = 30 * time.Second

// SubscribeConfig delivers the core config now and again whenever Home
// Assistant reports core_config_updated.
func (c *Conn) SubscribeConfig(ctx context.Context, fn func(models.HassConfig)) error {
	fetch := func(ctx context.Context) (models.HassConfig, error) {
		var cfg models.HassConfig
		raw, err := c.command(ctx, map[string]interface{}{"type": "get_config"})
		if err != nil {
			return cfg, err
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to decode config: %w", err)
		}
		return cfg, nil
	}
	return subscribeRefetched(ctx, c, "config", []string{"core_config_updated"}, fetch, fn)
}

// SubscribeServices delivers the service catalog now and again whenever a
// service is registered or removed.
func (c *Conn) SubscribeServices(ctx context.Context, fn func(models.ServiceCatalog)) error {
	fetch := func(ctx context.Context) (models.ServiceCatalog, error) {
		raw, err := c.command(ctx, map[string]interface{}{"type": "get_services"})
		if err != nil {
			return nil, err
		}
		var services map[string]map[string]json.RawMessage
		if err := json.Unmarshal(raw, &services); err != nil {
			return nil, fmt.Errorf("failed to decode services: %w", err)
		}
		names := make(map[string][]string, len(services))
		for domain, svcs := range services {
			for name := range svcs {
				names[domain] = append(names[domain], name)
			}
		}
		return models.NewServiceCatalog(names), nil
	}
	return subscribeRefetched(ctx, c, "services", []string{"service_registered", "service_removed"}, fetch, fn)
}

// subscribeRefetched fetches a value, delivers it, and re-fetches it in the
// background on every listed event. A fetch that completes after a newer one
// was started is discarded, so deliveries never go backwards.
func subscribeRefetched[T any](ctx context.Context, c *Conn, name string, events []string, fetch func(context.Context) (T, error), fn func(T)) error {
	var (
		deliverMu sync.Mutex
		latest    atomic.Int64
	)
	refetch := func(ctx context.Context, gen int64) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		deliverMu.Lock()
		defer deliverMu.Unlock()
		if gen != latest.Load() {
			return nil
		}
		fn(v)
		return nil
	}

	onEvent := func(json.RawMessage) {
		gen := latest.Add(1)
		go func() {
			ctx, cancel := context.WithTimeout(c.ctx, refetchTimeout)
			defer cancel()
			if err := refetch(ctx, gen); err != nil {
				c.logger.Warn("Failed to refresh "+name, zap.Error(err))
			}
		}()
	}
	for _, event := range events {
		if err := c.subscribeEvents(ctx, event, onEvent); err != nil {
			return err
		}
	}

	return refetch(ctx, latest.Add(1))
}

type stateChangedEvent struct {
	Data struct {
		EntityID string              `json:"entity_id"`
		NewState *models.EntityState `json:"new_state"`
	} `json:"data"`
}

// entityFeed keeps the full entity map for SubscribeEntities.
type entityFeed struct {
	mu      sync.Mutex
	states  map[string]models.EntityState
	touched map[string]bool
	ready   bool
	fn      func(map[string]models.EntityState)
}

func (f *entityFeed) snapshot() map[string]models.EntityState {
	out := make(map[string]models.EntityState, len(f.states))
	for id, s := range f.states {
		out[id] = s
	}
	return out
}

func (f *entityFeed) onEvent(raw json.RawMessage) {
	var ev stateChangedEvent
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Data.EntityID == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if ev.Data.NewState == nil {
		delete(f.states, ev.Data.EntityID)
	} else {
		f.states[ev.Data.EntityID] = *ev.Data.NewState
	}
	if !f.ready {
		f.touched[ev.Data.EntityID] = true
		return
	}
	f.fn(f.snapshot())
}

// seed merges the get_states result. Entities already changed by an event
// received since subscribing are newer than the listing and are kept.
func (f *entityFeed) seed(states []models.EntityState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range states {
		if f.touched[s.EntityID] {
			continue
		}
		f.states[s.EntityID] = s
	}
	f.touched = nil
	f.ready = true
	f.fn(f.snapshot())
}

// SubscribeEntities delivers the full entity map once the initial listing
// arrives and again after every state_changed event. Each delivery is a
// fresh map owned by the callback.
func (c *Conn) SubscribeEntities(ctx context.Context, fn func(map[string]models.EntityState)) error {
	feed := &entityFeed{
		states:  make(map[string]models.EntityState),
		touched: make(map[string]bool),
		fn:      fn,
	}
	if err := c.subscribeEvents(ctx, "state_changed", feed.onEvent); err != nil {
		return err
	}

	raw, err := c.command(ctx, map[string]interface{}{"type": "get_states"})
	if err != nil {
		return fmt.Errorf("failed to list states: %w", err)
	}
	var states []models.EntityState
	if err := json.Unmarshal(raw, &states); err != nil {
		return fmt.Errorf("failed to decode states: %w", err)
	}
	feed.seed(states)
	return nil
}
