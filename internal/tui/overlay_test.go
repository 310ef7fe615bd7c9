package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestPlaceDialogCentersBox(t *testing.T) {
	screen := strings.Join([]string{
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
	}, "\n")

	got := strings.Split(ansi.Strip(placeDialog(screen, "AB\nCD", 10, 5)), "\n")
	want := []string{
		"..........",
		"....AB....",
		"....CD....",
		"..........",
		"..........",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlaceDialogDropsRowsBelowScreen(t *testing.T) {
	screen := "....\n...."
	box := "X\nY\nZ"

	got := strings.Split(ansi.Strip(placeDialog(screen, box, 4, 2)), "\n")
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[1] != ".X.." {
		t.Errorf("row 1 = %q, want the first box row at the top margin", got[1])
	}
}

func TestSpliceRowKeepsTail(t *testing.T) {
	if got := ansi.Strip(spliceRow("abcdef", "XY", 2)); got != "abXYef" {
		t.Errorf("spliceRow() = %q, want abXYef", got)
	}
	if got := ansi.Strip(spliceRow("abc", "XYZ", 1)); got != "aXYZ" {
		t.Errorf("spliceRow() past the end = %q, want aXYZ", got)
	}
}
