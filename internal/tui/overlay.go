package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// dialog is the box shown over the settings screen, if any.
type dialog int

const (
	dialogNone dialog = iota
	dialogHelp
	// dialogPicker is the add-entity picker.
	dialogPicker
)

// placeDialog draws box centered over a dimmed copy of screen. Rows of box
// that fall below the screen are dropped.
func placeDialog(screen, box string, width, height int) string {
	rows := strings.Split(screen, "\n")
	for i, row := range rows {
		rows[i] = dialogDimStyle.Render(row)
	}

	boxRows := strings.Split(box, "\n")
	top := max((height-len(boxRows))/2, 1)
	left := max((width-boxWidth(boxRows))/2, 1)

	for i, boxRow := range boxRows {
		if top+i >= len(rows) {
			break
		}
		rows[top+i] = spliceRow(rows[top+i], boxRow, left)
	}
	return strings.Join(rows, "\n")
}

func boxWidth(rows []string) int {
	w := 0
	for _, row := range rows {
		w = max(w, lipgloss.Width(row))
	}
	return w
}

// spliceRow replaces the cells of row starting at column left with insert.
// Styles are reset around insert so the dimmed row does not bleed into it.
func spliceRow(row, insert string, left int) string {
	end := left + lipgloss.Width(insert)
	tail := ""
	if w := lipgloss.Width(row); end < w {
		tail = ansi.Cut(row, end, w)
	}
	return ansi.Truncate(row, left, "") + "\033[0m" + insert + "\033[0m" + tail
}
