package session

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hassdesk/hassdesk/internal/hass"
	"github.com/hassdesk/hassdesk/internal/models"
)

// Client is an authenticated Home Assistant connection.
type Client interface {
	SubscribeConfig(ctx context.Context, fn func(models.HassConfig)) error
	SubscribeServices(ctx context.Context, fn func(models.ServiceCatalog)) error
	SubscribeEntities(ctx context.Context, fn func(map[string]models.EntityState)) error
	CallService(ctx context.Context, domain, service string, data map[string]interface{}) error
	Version() string
	Done() <-chan struct{}
	Close() error
}

// Dialer opens Client connections.
type Dialer interface {
	Dial(ctx context.Context, conn models.Connection) (Client, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, conn models.Connection) (Client, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, conn models.Connection) (Client, error) {
	return f(ctx, conn)
}

// HassDialer dials the Home Assistant WebSocket API.
func HassDialer(logger *zap.Logger) Dialer {
	return DialerFunc(func(ctx context.Context, conn models.Connection) (Client, error) {
		c, err := hass.Dial(ctx, hass.Options{
			URL:    conn.WebSocketURL(),
			Token:  conn.Token,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// connection is one generation of the upstream connection, including every
// re-dial after a drop. Cancelling ctx stops it; done closes once its
// goroutine has closed the client and exited.
type connection struct {
	gen    uint64
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// connect replaces the current connection with a new one for params.
func (s *Session) connect(params models.Connection) {
	s.disconnect()
	s.gen++

	s.mu.Lock()
	s.status.URL = params.WebSocketURL()
	s.status.HAVersion = ""
	s.status.LocationName = ""
	s.status.ConnectionID = ""
	s.mu.Unlock()

	if params.Token == "" {
		s.logger.Warn("No Home Assistant access token configured, not connecting")
		s.setState(models.ConnectionUnconfigured, "no access token configured")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &connection{
		gen:    s.gen,
		id:     newConnectionID(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.conn = c

	s.mu.Lock()
	s.status.ConnectionID = c.id
	s.mu.Unlock()
	s.setState(models.ConnectionConnecting, "")

	go s.runConnection(c, params)
}

// disconnect cancels the current connection, waits a bounded time for it to
// drain and forgets everything it delivered.
func (s *Session) disconnect() {
	c := s.conn
	if c == nil {
		return
	}
	s.conn = nil
	c.cancel()

	timer := time.NewTimer(s.opts.DrainTimeout)
	defer timer.Stop()
	select {
	case <-c.done:
	case <-timer.C:
		s.logger.Warn("Previous connection did not drain in time", zap.String("connection", c.id))
	}

	s.setClient(nil)
	s.setEntities(nil)
	s.catalog = nil
	s.rec.Reset()
}

func (s *Session) runConnection(c *connection, params models.Connection) {
	defer close(c.done)
	logger := s.logger.With(zap.String("connection", c.id), zap.String("url", params.WebSocketURL()))

	// bo stays nil until the first successful handshake; a failure before
	// that is final.
	var bo backoff.BackOff
	for {
		client, err := s.establish(c, params)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			msg := err.Error()
			if bo == nil {
				logger.Error("Failed to connect to Home Assistant", zap.Error(err))
				_ = s.post(c.ctx, c.gen, func() {
					s.setClient(nil)
					s.setState(models.ConnectionFailed, msg)
				})
				return
			}
			logger.Warn("Reconnect attempt failed", zap.Error(err))
			_ = s.post(c.ctx, c.gen, func() {
				s.setClient(nil)
				s.setState(models.ConnectionReconnecting, msg)
			})
			if !s.wait(c, bo) {
				return
			}
			continue
		}

		if bo == nil {
			bo = s.opts.NewBackOff()
		}
		bo.Reset()

		select {
		case <-client.Done():
			_ = client.Close()
			logger.Warn("Home Assistant connection lost, reconnecting")
			_ = s.post(c.ctx, c.gen, s.onLost)
			if !s.wait(c, bo) {
				return
			}
		case <-c.ctx.Done():
			_ = client.Close()
			return
		}
	}
}

// wait sleeps for the next backoff interval. It returns false when the
// connection was cancelled or the backoff gave up.
func (s *Session) wait(c *connection, bo backoff.BackOff) bool {
	d := bo.NextBackOff()
	if d == backoff.Stop {
		_ = s.post(c.ctx, c.gen, func() { s.setState(models.ConnectionFailed, "gave up reconnecting") })
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// establish dials and subscribes to the three feeds. Feed callbacks post to
// the event loop tagged with the connection's generation.
func (s *Session) establish(c *connection, params models.Connection) (Client, error) {
	client, err := s.opts.Dialer.Dial(c.ctx, params)
	if err != nil {
		return nil, err
	}

	gen := c.gen
	_ = s.post(c.ctx, gen, func() { s.onConnected(client) })

	err = client.SubscribeConfig(c.ctx, func(cfg models.HassConfig) {
		_ = s.post(c.ctx, gen, func() { s.onConfig(cfg) })
	})
	if err == nil {
		err = client.SubscribeServices(c.ctx, func(catalog models.ServiceCatalog) {
			_ = s.post(c.ctx, gen, func() { s.onServices(catalog) })
		})
	}
	if err == nil {
		err = client.SubscribeEntities(c.ctx, func(entities map[string]models.EntityState) {
			_ = s.post(c.ctx, gen, func() { s.onEntities(entities) })
		})
	}
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (s *Session) onConnected(client Client) {
	s.setClient(client)
	s.mu.Lock()
	s.status.HAVersion = client.Version()
	s.mu.Unlock()
	s.setState(models.ConnectionConnected, "")
}

func (s *Session) onConfig(cfg models.HassConfig) {
	s.mu.Lock()
	s.status.LocationName = cfg.LocationName
	if cfg.Version != "" {
		s.status.HAVersion = cfg.Version
	}
	s.mu.Unlock()
	s.rerender()
}

// onServices swaps the catalog. The snapshot is unchanged but entries may
// change kind, so observers are refreshed.
func (s *Session) onServices(catalog models.ServiceCatalog) {
	s.catalog = catalog
	s.rec.Refresh()
}

func (s *Session) onEntities(entities map[string]models.EntityState) {
	s.setEntities(entities)
	if !s.rec.ApplyEntities(entities) {
		s.publishCounts(s.rec.Snapshot())
	}
}

func (s *Session) onLost() {
	s.setClient(nil)
	s.setEntities(nil)
	s.rec.Reset()
	s.setState(models.ConnectionReconnecting, "connection lost")
}

func (s *Session) setClient(c Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
}

func (s *Session) setEntities(entities map[string]models.EntityState) {
	s.mu.Lock()
	s.entities = entities
	s.mu.Unlock()
}
