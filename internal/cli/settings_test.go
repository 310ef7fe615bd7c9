package cli

import (
	"testing"

	"github.com/hassdesk/hassdesk/internal/models"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  interface{}
		reveal bool
		want   string
	}{
		{"bool", models.KeyAutostart, true, false, "true"},
		{"daemon port", models.KeyHomeAssistantPort, float64(8123), false, "8123"},
		{"local port", models.KeyHomeAssistantPort, 8123, false, "8123"},
		{"host", models.KeyHomeAssistantHost, "ha.local", false, "ha.local"},
		{"empty token", models.KeyHomeAssistantToken, "", false, "(not set)"},
		{"masked token", models.KeyHomeAssistantToken, "abcdefghijkl", false, "••••••••ijkl"},
		{"short token", models.KeyHomeAssistantToken, "abc", false, "••••••••"},
		{"revealed token", models.KeyHomeAssistantToken, "abcdefghijkl", true, "abcdefghijkl"},
		{"daemon list", models.KeyHomeAssistantSubscribedEntities, []interface{}{"light.a", "switch.b"}, false, "light.a, switch.b"},
		{"local list", models.KeyHomeAssistantSubscribedEntities, []string{"light.a"}, false, "light.a"},
		{"missing", models.KeyLogLevel, nil, false, "(not set)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.key, tt.value, tt.reveal); got != tt.want {
				t.Errorf("formatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}
