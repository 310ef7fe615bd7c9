package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hassdesk/hassdesk/internal/buildinfo"
	"github.com/hassdesk/hassdesk/internal/models"
	"github.com/hassdesk/hassdesk/internal/rpc"
)

func renderHeader(status *rpc.Status, focusedPanel, width int) string {
	dot := lipgloss.NewStyle().Foreground(colorCyan).Render("●")
	name := lipgloss.NewStyle().Bold(true).Render(buildinfo.AppName)

	tabs := renderTabs([]string{"Settings", "Entities"}, focusedPanel)
	badge := renderConnectionBadge(status)

	left := fmt.Sprintf(" %s %s  %s", dot, name, tabs)
	right := badge + " "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderTabs(tabs []string, active int) string {
	var parts []string
	for i, tab := range tabs {
		if i == active {
			parts = append(parts, activeTabStyle.Render(tab))
		} else {
			parts = append(parts, inactiveTabStyle.Render(tab))
		}
	}
	return strings.Join(parts, tabSepStyle.Render(" | "))
}

// connectionBadge returns the header badge text for status.
func connectionBadge(status *rpc.Status) (string, lipgloss.Style) {
	if status == nil {
		return "○ Daemon not running", badgeIdleStyle
	}
	switch status.State {
	case models.ConnectionConnected:
		text := "● Connected"
		if status.LocationName != "" {
			text += " to " + status.LocationName
		}
		if status.HAVersion != "" {
			text += " (" + status.HAVersion + ")"
		}
		return text, badgeConnectedStyle
	case models.ConnectionConnecting:
		return "● Connecting", badgePendingStyle
	case models.ConnectionReconnecting:
		return "● Reconnecting", badgePendingStyle
	case models.ConnectionFailed:
		return "● Connection failed", badgeFailedStyle
	case models.ConnectionUnconfigured:
		return "○ No access token", badgePendingStyle
	}
	return "○ Disconnected", badgeIdleStyle
}

func renderConnectionBadge(status *rpc.Status) string {
	text, style := connectionBadge(status)
	return style.Render(text)
}
