// Package session owns the daemon's Home Assistant connection and everything
// derived from it: the entity reconciler, the service catalog and the menu.
// All state changes happen on one event goroutine started by Run.
package session

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/daemon/menu"
	"github.com/hassdesk/hassdesk/internal/daemon/reconciler"
	"github.com/hassdesk/hassdesk/internal/models"
)

const (
	defaultDrainTimeout = 2 * time.Second
	serviceCallTimeout  = 10 * time.Second
	eventQueueSize      = 64
)

// ErrStopped is returned when posting to a session whose Run has returned.
var ErrStopped = errors.New("session stopped")

// SettingsSource is the part of the settings store the session reads.
type SettingsSource interface {
	Settings() (models.Settings, error)
	Connection() (models.Connection, error)
	LogLevel() string
}

// Presenter renders the menu. Render is called from the event goroutine.
type Presenter interface {
	Render(menu.View)
}

// Options configures a Session. Store, Dialer and Presenter are required.
type Options struct {
	Store     SettingsSource
	Dialer    Dialer
	Presenter Presenter
	Logger    *zap.Logger

	// Level, when set, follows the log_level setting.
	Level *zap.AtomicLevel

	OpenURL      func(url string) error
	OpenSettings func() error
	Quit         func()
	Autostart    func(enabled bool) error

	// NewBackOff paces re-dials after an established connection drops.
	NewBackOff   func() backoff.BackOff
	DrainTimeout time.Duration
}

type event struct {
	gen uint64 // 0 for events not tied to a connection
	fn  func()
}

// applied is the subset of settings the session last acted on.
type applied struct {
	conn          models.Connection
	subscriptions []string
	level         string
	autostart     bool
}

// Session is constructed once per daemon run.
type Session struct {
	opts   Options
	logger *zap.Logger

	events  chan event
	stopped chan struct{}

	// Owned by the Run goroutine.
	rec      *reconciler.Reconciler
	catalog  models.ServiceCatalog
	settings applied
	gen      uint64
	conn     *connection

	mu       sync.RWMutex
	status   models.DaemonStatus
	view     menu.View
	client   Client
	entities map[string]models.EntityState
}

// New creates a session. Nothing happens until Run.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DrainTimeout == 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	if opts.NewBackOff == nil {
		opts.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 0
			b.MaxInterval = time.Minute
			return b
		}
	}
	return &Session{
		opts:    opts,
		logger:  opts.Logger,
		events:  make(chan event, eventQueueSize),
		stopped: make(chan struct{}),
		status:  models.DaemonStatus{State: models.ConnectionClosed},
	}
}

// Run applies the current settings, connects, and processes events until ctx
// is done. It returns after the connection has been torn down.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)

	s.rec = reconciler.New(nil)
	s.rec.Subscribe(reconciler.ObserverFunc(s.render))
	s.applySettings(true)
	s.render(s.rec.Snapshot())

	for {
		select {
		case <-ctx.Done():
			s.disconnect()
			s.setState(models.ConnectionClosed, "")
			return nil
		case ev := <-s.events:
			if ev.gen != 0 && ev.gen != s.gen {
				continue
			}
			ev.fn()
		}
	}
}

// post queues fn on the event goroutine. Events of a connection that has
// since been replaced are dropped when they are dequeued.
func (s *Session) post(ctx context.Context, gen uint64, fn func()) error {
	select {
	case s.events <- event{gen: gen, fn: fn}:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SettingsChanged asks the session to re-read the settings store and act on
// whatever differs from what it last applied.
func (s *Session) SettingsChanged() {
	_ = s.post(context.Background(), 0, func() { s.applySettings(false) })
}

func (s *Session) applySettings(initial bool) {
	settings, err := s.opts.Store.Settings()
	if err != nil {
		s.logger.Error("Failed to read settings", zap.Error(err))
		return
	}
	prev := s.settings
	next := applied{
		conn:          prev.conn,
		subscriptions: settings.Subscriptions(),
		level:         s.opts.Store.LogLevel(),
		autostart:     settings.AutostartEnabled(),
	}
	// The rest of the settings still apply when the connection cannot be read.
	conn, connErr := s.opts.Store.Connection()
	if connErr != nil {
		s.logger.Error("Failed to read connection settings", zap.Error(connErr))
	} else {
		next.conn = conn
	}
	s.settings = next

	if initial || next.level != prev.level {
		s.applyLogLevel(next.level)
	}
	if initial || next.autostart != prev.autostart {
		s.applyAutostart(next.autostart, initial)
	}
	if initial || !slices.Equal(next.subscriptions, prev.subscriptions) {
		s.logger.Debug("Subscriptions updated", zap.Strings("entities", next.subscriptions))
		if !s.rec.SetSubscriptions(next.subscriptions) {
			s.publishCounts(s.rec.Snapshot())
		}
	}
	switch {
	case connErr != nil:
		if initial {
			s.setState(models.ConnectionFailed, connErr.Error())
		}
	case initial || next.conn != prev.conn:
		s.connect(next.conn)
	}
}

func (s *Session) applyLogLevel(level string) {
	if s.opts.Level == nil {
		return
	}
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		s.logger.Warn("Ignoring log level", zap.String("level", level), zap.Error(err))
		return
	}
	s.opts.Level.SetLevel(lvl)
	s.logger.Info("Log level set", zap.String("level", level))
}

func (s *Session) applyAutostart(enabled, initial bool) {
	if s.opts.Autostart == nil {
		return
	}
	// Leave the login item alone on startup unless the user asked for it.
	if initial && !enabled {
		return
	}
	if err := s.opts.Autostart(enabled); err != nil {
		s.logger.Error("Failed to update login item", zap.Bool("enabled", enabled), zap.Error(err))
		return
	}
	s.logger.Info("Login item updated", zap.Bool("enabled", enabled))
}

// Status returns the current connection status.
func (s *Session) Status() models.DaemonStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// View returns the last rendered view.
func (s *Session) View() menu.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Entities returns every entity known upstream, sorted by ID.
func (s *Session) Entities() []models.EntityState {
	s.mu.RLock()
	out := make([]models.EntityState, 0, len(s.entities))
	for _, st := range s.entities {
		out = append(out, st)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// render is the reconciler observer: it rebuilds the menu from the snapshot.
func (s *Session) render(snap reconciler.Snapshot) {
	builder := menu.Builder{BaseURL: s.settings.conn.BaseURL()}
	view := menu.View{
		Entries:  builder.Build(snap, s.catalog),
		Entities: snap.Entities(),
	}

	s.mu.Lock()
	s.status.Subscribed = len(s.rec.Subscriptions())
	s.status.Visible = snap.Len()
	s.status.Available = s.rec.Available()
	view.Status = s.status
	s.view = view
	s.mu.Unlock()

	s.opts.Presenter.Render(view)
}

func (s *Session) publishCounts(snap reconciler.Snapshot) {
	s.mu.Lock()
	s.status.Subscribed = len(s.rec.Subscriptions())
	s.status.Visible = snap.Len()
	s.status.Available = s.rec.Available()
	s.mu.Unlock()
}

// rerender pushes the current status to the presenter without rebuilding
// the menu.
func (s *Session) rerender() {
	s.mu.Lock()
	s.view.Status = s.status
	view := s.view
	s.mu.Unlock()
	s.opts.Presenter.Render(view)
}

func (s *Session) setState(state models.ConnectionState, lastErr string) {
	s.mu.Lock()
	s.status.State = state
	s.status.LastError = lastErr
	s.mu.Unlock()
	s.rerender()
}

// Activate performs the action behind a menu entry. Service calls run in the
// background and failures are only logged.
func (s *Session) Activate(entry menu.Entry) {
	switch entry.Kind {
	case menu.KindToggle, menu.KindAction:
		s.callService(entry)
	case menu.KindInfo:
		if s.opts.OpenURL == nil || entry.URL == "" {
			return
		}
		if err := s.opts.OpenURL(entry.URL); err != nil {
			s.logger.Error("Failed to open browser", zap.String("url", entry.URL), zap.Error(err))
		}
	case menu.KindSettings:
		if s.opts.OpenSettings == nil {
			return
		}
		if err := s.opts.OpenSettings(); err != nil {
			s.logger.Error("Failed to open settings", zap.Error(err))
		}
	case menu.KindExit:
		if s.opts.Quit != nil {
			s.opts.Quit()
		}
	}
}

func (s *Session) callService(entry menu.Entry) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	logger := s.logger.With(zap.String("entity_id", entry.EntityID), zap.String("service", entry.Domain+"."+entry.Service))
	if client == nil {
		logger.Warn("Not connected, dropping service call")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), serviceCallTimeout)
		defer cancel()
		data := map[string]interface{}{"entity_id": entry.EntityID}
		if err := client.CallService(ctx, entry.Domain, entry.Service, data); err != nil {
			logger.Error("Service call failed", zap.Error(err))
			return
		}
		logger.Debug("Service called")
	}()
}

func newConnectionID() string {
	return uuid.NewString()[:8]
}
