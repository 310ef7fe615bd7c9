package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// confirmMode values.
const (
	confirmNone   = 0
	confirmRemove = 1
)

func renderStatusBar(m *Model, width int) string {
	if m.confirmMode == confirmRemove {
		return renderConfirmBar(fmt.Sprintf("Remove %s? (y/n)", m.confirmEntity), width)
	}

	if m.err != nil {
		return renderErrorBar(m.err.Error(), width)
	}

	if m.showSaved {
		return renderSavedBar(width)
	}

	left := " " + getKeyHints(m)

	right := ""
	if n := m.entityList.Len(); n > 0 {
		right = lipgloss.NewStyle().Foreground(colorDim).Render(fmt.Sprintf("%d subscribed", n)) + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func getKeyHints(m *Model) string {
	switch m.openDialog {
	case dialogPicker:
		return keyHint("Enter", "add") + "  " + keyHint("Esc", "cancel")
	case dialogHelp:
		return keyHint("Esc", "close")
	}

	if m.focusedPanel == 0 && m.settingsForm.IsEditing() {
		return keyHint("Enter", "save") + "  " + keyHint("Esc", "cancel")
	}

	base := keyHint("Ctrl+q", "quit") + "  " + keyHint("?", "help") + "  " + keyHint("Tab", "switch")
	if m.focusedPanel == 0 {
		return base + "  " + keyHint("j/k", "navigate") + "  " +
			keyHint("Enter", "edit") + "  " + keyHint("Space", "toggle")
	}
	return base + "  " + keyHint("a", "add") + "  " + keyHint("x", "remove") + "  " +
		keyHint("K/J", "reorder")
}

func keyHint(k, desc string) string {
	if k == "" {
		return hintStyle.Render(desc)
	}
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}

func renderConfirmBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorYellow).
		Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "0"}).
		Width(width).
		Render(" " + msg)
}

func renderErrorBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorRed).
		Width(width).
		Render(" " + msg)
}

func renderSavedBar(width int) string {
	return statusBarStyle.
		Width(width).
		Render(" " + lipgloss.NewStyle().Foreground(colorGreen).Render("Saved"))
}
