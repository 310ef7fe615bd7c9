package tray

import (
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/hassdesk/hassdesk/internal/daemon/menu"
)

var (
	controller Controller
	logger     = zap.NewNop()
	onStart    func()
	onExit     func()

	settingsItem *systray.MenuItem
	exitItem     *systray.MenuItem

	// Entries currently bound to the slots and fixed items, and the view
	// waiting to be shown.
	mu            sync.Mutex
	items         *menuItems // nil until the tray is ready
	latest        *menu.View
	slotEntries   [maxEntitySlots]menu.Entry
	settingsEntry = menu.Entry{Kind: menu.KindSettings, Label: menu.LabelSettings}
	exitEntry     = menu.Entry{Kind: menu.KindExit, Label: menu.LabelExit}

	// renderMu serializes item updates.
	renderMu sync.Mutex
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called when the tray is ready (start the session and gRPC
// server here). onExitFn is called when the tray exits (cleanup here).
func Run(c Controller, l *zap.Logger, onStartFn, onExitFn func()) {
	controller = c
	if l != nil {
		logger = l
	}
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

// Presenter renders session views into the tray.
type Presenter struct{}

// Render implements session.Presenter.
func (Presenter) Render(view menu.View) {
	Render(view)
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip("Home Assistant")

	it := &menuItems{setTooltip: systray.SetTooltip}

	status := systray.AddMenuItem("Starting...", "")
	status.Disable()
	it.status = status

	systray.AddSeparator()

	checks := make([]*systray.MenuItem, maxEntitySlots)
	plains := make([]*systray.MenuItem, maxEntitySlots)
	for i := 0; i < maxEntitySlots; i++ {
		checks[i] = systray.AddMenuItemCheckbox("", "", false)
		checks[i].Hide()
		plains[i] = systray.AddMenuItem("", "")
		plains[i].Hide()
		it.check[i] = checks[i]
		it.plain[i] = plains[i]
	}

	noEntities := systray.AddMenuItem("No entities", "")
	noEntities.Disable()
	it.noEntities = noEntities

	systray.AddSeparator()
	settingsItem = systray.AddMenuItem(menu.LabelSettings, "Edit hassdesk settings")
	it.settings = settingsItem
	systray.AddSeparator()
	exitItem = systray.AddMenuItem(menu.LabelExit, "Quit hassdesk")
	it.exit = exitItem

	mu.Lock()
	items = it
	mu.Unlock()
	flush()

	if onStart != nil {
		onStart()
	}

	for i := 0; i < maxEntitySlots; i++ {
		go handleClicks(checks[i].ClickedCh, i)
		go handleClicks(plains[i].ClickedCh, i)
	}
	go handleFixedClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks(ch <-chan struct{}, slot int) {
	for range ch {
		mu.Lock()
		entry := slotEntries[slot]
		mu.Unlock()
		if entry.EntityID == "" || controller == nil {
			continue
		}
		controller.Activate(entry)
	}
}

func handleFixedClicks() {
	for {
		var entry menu.Entry
		select {
		case <-settingsItem.ClickedCh:
			mu.Lock()
			entry = settingsEntry
			mu.Unlock()
		case <-exitItem.ClickedCh:
			mu.Lock()
			entry = exitEntry
			mu.Unlock()
		}
		if controller != nil {
			controller.Activate(entry)
		}
	}
}

// Render shows view in the tray. A view rendered before the tray is ready
// is kept and shown once it is.
func Render(view menu.View) {
	slots, settings, exit, dropped := layout(view.Entries)

	mu.Lock()
	latest = &view
	for i := range slotEntries {
		slotEntries[i] = menu.Entry{}
	}
	copy(slotEntries[:], slots)
	settingsEntry = settings
	exitEntry = exit
	mu.Unlock()

	if dropped > 0 {
		logger.Warn("Too many entities for the tray menu", zap.Int("shown", len(slots)), zap.Int("dropped", dropped))
	}
	flush()
}

// flush shows the most recent view. Whichever caller flushes last shows the
// newest view, so concurrent renders cannot leave an older one on screen.
func flush() {
	renderMu.Lock()
	defer renderMu.Unlock()

	mu.Lock()
	view, it := latest, items
	mu.Unlock()
	if view == nil || it == nil {
		return
	}
	it.apply(*view)
}
