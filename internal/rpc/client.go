package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client talks to a running daemon.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for the daemon at addr. The connection is made
// lazily on the first call.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetSettings returns the values of keys, or of every key when none are
// given. Numbers come back as float64 and lists as []interface{}.
func (c *Client) GetSettings(ctx context.Context, keys ...string) (map[string]interface{}, error) {
	req, err := KeysToList(keys)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodGetSettings, req, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// SetSetting validates and stores one setting.
func (c *Client) SetSetting(ctx context.Context, key string, value interface{}) error {
	req, err := SetRequest(key, value)
	if err != nil {
		return fmt.Errorf("cannot encode value for %s: %w", key, err)
	}
	return c.conn.Invoke(ctx, MethodSetSetting, req, new(emptypb.Empty))
}

// GetStatus returns the daemon status.
func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodGetStatus, new(emptypb.Empty), out); err != nil {
		return Status{}, err
	}
	return StatusFromStruct(out), nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.conn.Invoke(ctx, MethodShutdown, new(emptypb.Empty), new(emptypb.Empty))
}

// ListEntities returns the entities known to the daemon, sorted by ID.
func (c *Client) ListEntities(ctx context.Context) ([]Entity, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodListEntities, new(emptypb.Empty), out); err != nil {
		return nil, err
	}
	return EntitiesFromStruct(out), nil
}
