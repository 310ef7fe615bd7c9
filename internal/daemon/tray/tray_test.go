package tray

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hassdesk/hassdesk/internal/daemon/menu"
	"github.com/hassdesk/hassdesk/internal/models"
)

// fakeItem records the last title and visibility it was given.
type fakeItem struct {
	mu      sync.Mutex
	title   string
	visible bool
	checked bool
}

func (f *fakeItem) SetTitle(title string) {
	f.mu.Lock()
	f.title = title
	f.mu.Unlock()
}

func (f *fakeItem) SetTooltip(string) {}

func (f *fakeItem) Show() {
	f.mu.Lock()
	f.visible = true
	f.mu.Unlock()
}

func (f *fakeItem) Hide() {
	f.mu.Lock()
	f.visible = false
	f.mu.Unlock()
}

func (f *fakeItem) Check() {
	f.mu.Lock()
	f.checked = true
	f.mu.Unlock()
}

func (f *fakeItem) Uncheck() {
	f.mu.Lock()
	f.checked = false
	f.mu.Unlock()
}

func (f *fakeItem) Title() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.title
}

func (f *fakeItem) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

type fakeMenu struct {
	*menuItems
	checks  [maxEntitySlots]*fakeItem
	status  *fakeItem
	tipMu   sync.Mutex
	tooltip string
}

func newFakeMenu() *fakeMenu {
	fm := &fakeMenu{menuItems: &menuItems{}, status: &fakeItem{}}
	fm.menuItems.status = fm.status
	for i := 0; i < maxEntitySlots; i++ {
		fm.checks[i] = &fakeItem{}
		fm.menuItems.check[i] = fm.checks[i]
		fm.menuItems.plain[i] = &fakeItem{}
	}
	fm.noEntities = &fakeItem{}
	fm.settings = &fakeItem{}
	fm.exit = &fakeItem{}
	fm.setTooltip = func(s string) {
		fm.tipMu.Lock()
		fm.tooltip = s
		fm.tipMu.Unlock()
	}
	return fm
}

func (fm *fakeMenu) Tooltip() string {
	fm.tipMu.Lock()
	defer fm.tipMu.Unlock()
	return fm.tooltip
}

// resetTray installs items as the tray's menu and restores the package
// state when the test ends.
func resetTray(t *testing.T, it *menuItems) {
	t.Helper()
	mu.Lock()
	items, latest = it, nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		items, latest = nil, nil
		slotEntries = [maxEntitySlots]menu.Entry{}
		mu.Unlock()
	})
}

func numberedView(n int) menu.View {
	return menu.View{
		Entries: []menu.Entry{
			{Kind: menu.KindToggle, Label: fmt.Sprintf("Light %d", n), EntityID: "light.kitchen", Checked: n%2 == 0},
			{Kind: menu.KindSettings, Label: menu.LabelSettings},
			{Kind: menu.KindExit, Label: menu.LabelExit},
		},
		Status: models.DaemonStatus{State: models.ConnectionConnected, LocationName: fmt.Sprintf("Home %d", n)},
	}
}

func TestRenderBeforeReadyIsShownOnReady(t *testing.T) {
	resetTray(t, nil)

	Render(numberedView(1))
	Render(numberedView(2))

	fm := newFakeMenu()
	mu.Lock()
	items = fm.menuItems
	mu.Unlock()
	flush()

	if got := fm.checks[0].Title(); got != "Light 2" {
		t.Errorf("slot title = %q, want the newest view", got)
	}
	if !fm.checks[0].Visible() {
		t.Error("toggle slot hidden")
	}
	if got := fm.Tooltip(); got != "Home Assistant: Home 2" {
		t.Errorf("tooltip = %q", got)
	}
	if fm.checks[1].Visible() {
		t.Error("unused slot visible")
	}
}

func TestConcurrentRendersShowOneView(t *testing.T) {
	fm := newFakeMenu()
	resetTray(t, fm.menuItems)

	var wg sync.WaitGroup
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Render(numberedView(n))
		}(n)
	}
	wg.Wait()

	// The slot and the tooltip must come from the same view, and that view
	// must be the one Render stored last.
	mu.Lock()
	last := *latest
	mu.Unlock()
	if got, want := fm.checks[0].Title(), last.Entries[0].Label; got != want {
		t.Errorf("slot title = %q, want %q", got, want)
	}
	if got, want := fm.Tooltip(), formatTooltip(last); got != want {
		t.Errorf("tooltip = %q, want %q", got, want)
	}
	if got, want := fm.status.Title(), statusTitle(last.Status); got != want {
		t.Errorf("status = %q, want %q", got, want)
	}
}
