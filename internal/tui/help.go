package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	keys  []helpKey
}

type helpKey struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "Global",
		keys: []helpKey{
			{"Ctrl+q", "Quit"},
			{"? / Ctrl+h", "Toggle help"},
			{"Tab", "Switch panel focus"},
		},
	},
	{
		title: "Settings",
		keys: []helpKey{
			{"j/k ↑/↓", "Navigate fields"},
			{"Enter", "Edit text field"},
			{"Space", "Toggle / next choice"},
			{"h/l ←/→", "Change log level"},
			{"Esc", "Cancel edit"},
		},
	},
	{
		title: "Entities",
		keys: []helpKey{
			{"j/k ↑/↓", "Navigate entities"},
			{"a / Enter", "Add entity"},
			{"x", "Remove entity"},
			{"K/J", "Move entity up/down"},
		},
	},
	{
		title: "Add Entity",
		keys: []helpKey{
			{"(type)", "Filter by ID or name"},
			{"↑/↓", "Select match"},
			{"Enter", "Add"},
			{"Esc", "Cancel"},
		},
	},
}

// renderHelp renders the help dialog.
func renderHelp(width int) string {
	maxWidth := 60
	if width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	title := dialogTitleStyle.Render("Keyboard Shortcuts")
	sections := make([]string, 0, len(helpSections)*4+3)
	sections = append(sections, title)

	for _, sec := range helpSections {
		header := lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Render(sec.title)
		sections = append(sections, "", header)

		for _, k := range sec.keys {
			keyCol := lipgloss.NewStyle().
				Width(14).
				Foreground(colorWhite).
				Bold(true).
				Render(k.key)
			descCol := lipgloss.NewStyle().
				Foreground(colorDim).
				Render(k.desc)
			sections = append(sections, "  "+keyCol+descCol)
		}
	}

	sections = append(sections, "", lipgloss.NewStyle().Foreground(colorDim).Render("Press Esc or ? to close"))

	content := strings.Join(sections, "\n")
	return dialogStyle.Width(maxWidth).Render(content)
}
