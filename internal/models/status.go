package models

// ConnectionState describes where the daemon is in its connection lifecycle.
type ConnectionState string

const (
	ConnectionUnconfigured ConnectionState = "unconfigured"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
	ConnectionReconnecting ConnectionState = "reconnecting"
	ConnectionFailed       ConnectionState = "failed"
	ConnectionClosed       ConnectionState = "closed"
)

// DaemonStatus is the daemon's view of its Home Assistant connection.
type DaemonStatus struct {
	State        ConnectionState
	URL          string
	ConnectionID string
	HAVersion    string
	LocationName string
	LastError    string

	// Subscribed is the length of the subscription list, Visible the number
	// of those present upstream and Available the size of the entity map.
	Subscribed int
	Visible    int
	Available  int
}

// Connected reports whether an authenticated connection is up.
func (s DaemonStatus) Connected() bool {
	return s.State == ConnectionConnected
}
