package cli

import (
	"errors"
	"fmt"

	"github.com/hassdesk/hassdesk/internal/config"
	"github.com/hassdesk/hassdesk/internal/rpc"
)

var errDaemonNotRunning = errors.New("daemon not running")

// connectDaemon creates a gRPC client for the running daemon.
func connectDaemon() (*rpc.Client, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return nil, fmt.Errorf("failed to load daemon info: %w", err)
	}
	if !running || info == nil {
		return nil, errDaemonNotRunning
	}
	return rpc.Dial(info.Address())
}
