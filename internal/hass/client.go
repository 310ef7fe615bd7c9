// Package hass is a small Home Assistant WebSocket API client: it
// authenticates with a long-lived access token and exposes the three feeds
// the tray needs (core config, service catalog, entity states) plus service
// calls.
package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// maxMessageSize bounds a single frame; get_states on a large install is
// several megabytes.
const maxMessageSize = 32 << 20

var (
	// ErrAuthInvalid is returned by Dial when Home Assistant rejects the token.
	ErrAuthInvalid = errors.New("home assistant rejected the access token")

	// ErrClosed is returned for commands issued on a closed connection.
	ErrClosed = errors.New("home assistant connection closed")
)

// Options configures Dial.
type Options struct {
	URL        string
	Token      string
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Error is a failed command result reported by Home Assistant.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("home assistant: %s: %s", e.Code, e.Message)
}

type message struct {
	ID        int64           `json:"id,omitempty"`
	Type      string          `json:"type"`
	Success   bool            `json:"success,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *Error          `json:"error,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
	HAVersion string          `json:"ha_version,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type result struct {
	data json.RawMessage
	err  error
}

// Conn is an authenticated connection. Subscription callbacks run on the
// connection's read goroutine, one at a time, in the order Home Assistant
// sent the events; they must not block on commands of the same Conn.
type Conn struct {
	ws        *websocket.Conn
	logger    *zap.Logger
	haVersion string

	nextID atomic.Int64

	mu       sync.Mutex
	pending  map[int64]chan result
	handlers map[int64]func(json.RawMessage)
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Dial connects to the WebSocket API and completes the auth handshake.
// ctx bounds only the handshake; the connection lives until Close.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ws, _, err := websocket.Dial(ctx, opts.URL, &websocket.DialOptions{HTTPClient: opts.HTTPClient})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.URL, err)
	}
	ws.SetReadLimit(maxMessageSize)

	version, err := authenticate(ctx, ws, opts.Token)
	if err != nil {
		ws.Close(websocket.StatusPolicyViolation, "authentication failed")
		return nil, err
	}

	connCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		ws:        ws,
		logger:    logger,
		haVersion: version,
		pending:   make(map[int64]chan result),
		handlers:  make(map[int64]func(json.RawMessage)),
		ctx:       connCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go c.readLoop()

	logger.Info("Connected to Home Assistant", zap.String("url", opts.URL), zap.String("version", version))
	return c, nil
}

func authenticate(ctx context.Context, ws *websocket.Conn, token string) (string, error) {
	var msg message
	if err := wsjson.Read(ctx, ws, &msg); err != nil {
		return "", fmt.Errorf("failed to read auth request: %w", err)
	}
	if msg.Type != "auth_required" {
		return "", fmt.Errorf("unexpected handshake message %q", msg.Type)
	}

	if err := wsjson.Write(ctx, ws, map[string]string{"type": "auth", "access_token": token}); err != nil {
		return "", fmt.Errorf("failed to send auth: %w", err)
	}

	if err := wsjson.Read(ctx, ws, &msg); err != nil {
		return "", fmt.Errorf("failed to read auth result: %w", err)
	}
	switch msg.Type {
	case "auth_ok":
		return msg.HAVersion, nil
	case "auth_invalid":
		return "", fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
	default:
		return "", fmt.Errorf("unexpected handshake message %q", msg.Type)
	}
}

// Version returns the Home Assistant version reported during the handshake.
func (c *Conn) Version() string {
	return c.haVersion
}

// Done is closed when the connection's read loop exits, either after Close
// or because the server went away.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns why the read loop exited; nil while the connection is open or
// after a Close.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close closes the connection and waits for the read loop to exit.
func (c *Conn) Close() error {
	c.mu.Lock()
	already := c.closed
	c.closed = true
	c.mu.Unlock()
	if already {
		<-c.done
		return nil
	}

	err := c.ws.Close(websocket.StatusNormalClosure, "")
	c.cancel()
	<-c.done
	return err
}

// readLoop cancels the connection context on exit, which stops the refetch
// goroutines of the feeds.
func (c *Conn) readLoop() {
	defer close(c.done)
	defer c.cancel()

	for {
		var msg message
		err := wsjson.Read(c.ctx, c.ws, &msg)
		if err != nil {
			c.mu.Lock()
			if !c.closed {
				c.err = err
			}
			c.closed = true
			pending := c.pending
			c.pending = make(map[int64]chan result)
			c.mu.Unlock()

			for _, ch := range pending {
				ch <- result{err: ErrClosed}
			}
			if c.err != nil {
				c.logger.Warn("Home Assistant connection lost", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "result", "pong":
			c.mu.Lock()
			ch, ok := c.pending[msg.ID]
			delete(c.pending, msg.ID)
			c.mu.Unlock()
			if !ok {
				continue
			}
			if msg.Type == "result" && !msg.Success {
				e := msg.Error
				if e == nil {
					e = &Error{Code: "unknown_error", Message: "command failed"}
				}
				ch <- result{err: e}
				continue
			}
			ch <- result{data: msg.Result}

		case "event":
			c.mu.Lock()
			handler := c.handlers[msg.ID]
			c.mu.Unlock()
			if handler != nil {
				handler(msg.Event)
			}

		default:
			c.logger.Debug("Ignoring message", zap.String("type", msg.Type), zap.Int64("id", msg.ID))
		}
	}
}

// command sends payload under a fresh message ID and waits for its result.
func (c *Conn) command(ctx context.Context, payload map[string]interface{}) (json.RawMessage, error) {
	return c.commandWithID(ctx, c.nextID.Add(1), payload)
}

func (c *Conn) commandWithID(ctx context.Context, id int64, payload map[string]interface{}) (json.RawMessage, error) {
	ch := make(chan result, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	payload["id"] = id
	if err := wsjson.Write(ctx, c.ws, payload); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to send %v: %w", payload["type"], err)
	}

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	}
}

// subscribeEvents registers handler for eventType. The handler is installed
// before the request goes out so no event following the result is missed.
func (c *Conn) subscribeEvents(ctx context.Context, eventType string, handler func(json.RawMessage)) error {
	id := c.nextID.Add(1)

	c.mu.Lock()
	c.handlers[id] = handler
	c.mu.Unlock()

	_, err := c.commandWithID(ctx, id, map[string]interface{}{
		"type":       "subscribe_events",
		"event_type": eventType,
	})
	if err != nil {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
		return fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
	}
	return nil
}

// CallService invokes domain.service with data as service_data.
func (c *Conn) CallService(ctx context.Context, domain, service string, data map[string]interface{}) error {
	_, err := c.command(ctx, map[string]interface{}{
		"type":         "call_service",
		"domain":       domain,
		"service":      service,
		"service_data": data,
	})
	if err != nil {
		return fmt.Errorf("failed to call %s.%s: %w", domain, service, err)
	}
	return nil
}
