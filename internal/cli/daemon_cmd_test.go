package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/hassdesk/hassdesk/internal/models"
	"github.com/hassdesk/hassdesk/internal/rpc"
)

func TestFormatStatus(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	st := rpc.Status{
		Version:   "1.0.0",
		PID:       4242,
		Port:      50051,
		StartedAt: now.Add(-90 * time.Second),
		DaemonStatus: models.DaemonStatus{
			State:        models.ConnectionFailed,
			URL:          "ws://ha.local:8123/api/websocket",
			LocationName: "Home",
			LastError:    "auth_invalid",
			Subscribed:   3,
			Visible:      2,
			Available:    40,
		},
	}

	out := formatStatus(st, now)
	for _, want := range []string{"1.0.0", "4242", "50051", "1m30s", "failed", "ws://ha.local:8123/api/websocket", "Home", "auth_invalid", "3 subscribed, 2 visible, 40 available"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "HA version") {
		t.Errorf("status shows an unknown HA version:\n%s", out)
	}
}

func TestStateStyle(t *testing.T) {
	tests := []struct {
		state models.ConnectionState
		want  string
	}{
		{models.ConnectionConnected, badgeConnected.Render("x")},
		{models.ConnectionReconnecting, badgePending.Render("x")},
		{models.ConnectionUnconfigured, badgeIdle.Render("x")},
	}
	for _, tt := range tests {
		if got := stateStyle(tt.state).Render("x"); got != tt.want {
			t.Errorf("stateStyle(%s) = %q, want %q", tt.state, got, tt.want)
		}
	}
}
