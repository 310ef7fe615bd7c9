package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// panelLayout holds computed dimensions for the settings and entity panels.
type panelLayout struct {
	leftWidth     int
	rightWidth    int
	contentHeight int
}

// computeLayout splits width between the two bordered panels, leaving one
// line for the header and one for the status bar.
func computeLayout(width, height int) panelLayout {
	contentHeight := height - 2
	if contentHeight < 3 {
		contentHeight = 3
	}
	leftWidth := width / 2
	return panelLayout{
		leftWidth:     leftWidth,
		rightWidth:    width - leftWidth,
		contentHeight: contentHeight,
	}
}

// innerSize returns the content area of a panel of the given outer width.
func (l panelLayout) innerSize(outer int) (width, height int) {
	width, height = outer-2, l.contentHeight-2
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

func renderPanels(leftContent, rightContent string, layout panelLayout, focusedPanel int) string {
	leftStyle, rightStyle := unfocusedBorderStyle, unfocusedBorderStyle
	if focusedPanel == 0 {
		leftStyle = focusedBorderStyle
	} else {
		rightStyle = focusedBorderStyle
	}

	lw, h := layout.innerSize(layout.leftWidth)
	rw, _ := layout.innerSize(layout.rightWidth)

	left := leftStyle.Width(lw).Height(h).Render(truncateContent(leftContent, lw, h))
	right := rightStyle.Width(rw).Height(h).Render(truncateContent(rightContent, rw, h))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// truncateContent clips content to width columns and height lines.
func truncateContent(content string, width, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}
