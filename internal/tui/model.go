package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hassdesk/hassdesk/internal/models"
	"github.com/hassdesk/hassdesk/internal/rpc"
)

const (
	minWidth  = 60
	minHeight = 16
)

// Model is the root Bubbletea model for the settings editor.
type Model struct {
	backend Backend

	// Data
	loaded   bool
	entities []rpc.Entity // nil when the daemon has no entity list
	status   *rpc.Status  // nil when the daemon is not running

	// UI state
	focusedPanel  int // 0=settings, 1=entities
	openDialog    dialog
	width         int
	height        int

	// Confirm mode
	confirmMode   int
	confirmEntity string

	// Status display
	err       error
	showSaved bool

	// Child components
	settingsForm *SettingsForm
	entityList   *EntityList
	picker       *Picker
}

// NewModel creates the initial editor model.
func NewModel(backend Backend) Model {
	return Model{
		backend:      backend,
		settingsForm: NewSettingsForm(),
		entityList:   NewEntityList(),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadSettingsCmd(m.backend),
		loadEntitiesCmd(m.backend),
		loadStatusCmd(m.backend),
		pollStatusTick(),
	)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case SettingsLoadedMsg:
		m.loaded = true
		m.settingsForm.Load(msg.Values)
		m.entityList.SetIDs(listValue(msg.Values[models.KeyHomeAssistantSubscribedEntities]))
		return m, nil

	case EntitiesLoadedMsg:
		m.entities = msg.Entities
		m.entityList.SetKnown(msg.Entities)
		return m, nil

	case StatusMsg:
		m.status = msg.Status
		return m, nil

	case SettingSavedMsg:
		m.err = nil
		m.showSaved = true
		return m, tea.Batch(
			loadSettingsCmd(m.backend),
			loadStatusCmd(m.backend),
			clearSavedAfter(2*time.Second),
		)

	case ErrorMsg:
		m.err = msg.Err
		cmds := []tea.Cmd{clearErrorAfter(5 * time.Second)}
		if msg.Revert {
			// Undo optimistic edits by re-reading what was stored.
			cmds = append(cmds, loadSettingsCmd(m.backend))
		}
		return m, tea.Batch(cmds...)

	case TickMsg:
		cmds := []tea.Cmd{loadStatusCmd(m.backend), pollStatusTick()}
		if m.entities == nil {
			cmds = append(cmds, loadEntitiesCmd(m.backend))
		}
		return m, tea.Batch(cmds...)

	case ClearErrorMsg:
		m.err = nil
		return m, nil

	case ClearSavedMsg:
		m.showSaved = false
		return m, nil
	}

	return m, nil
}

// ── Key handling ─────────────────────────────────────────────────

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirmMode != confirmNone {
		return m.handleConfirmKey(msg)
	}

	if m.openDialog != dialogNone {
		return m.handleDialogKey(msg)
	}

	// A text field in edit mode takes every key but quit.
	if m.focusedPanel == 0 && m.settingsForm.IsEditing() {
		if key.Matches(msg, globalKeys.Quit) {
			return tea.Quit
		}
		return m.handleSettingsKey(msg)
	}

	switch {
	case key.Matches(msg, globalKeys.Quit):
		return tea.Quit
	case key.Matches(msg, globalKeys.Help):
		m.openDialog = dialogHelp
		return nil
	case key.Matches(msg, globalKeys.Tab):
		m.focusedPanel = 1 - m.focusedPanel
		return nil
	}

	if m.focusedPanel == 0 {
		return m.handleSettingsKey(msg)
	}
	return m.handleEntityKey(msg)
}

func (m *Model) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	if m.settingsForm.IsEditing() {
		switch msg.Type {
		case tea.KeyEnter:
			changed, k, v, err := m.settingsForm.FinishEdit()
			if err != nil {
				m.err = err
				return clearErrorAfter(5 * time.Second)
			}
			if changed {
				return m.save(k, v)
			}
			return nil
		case tea.KeyEscape:
			m.settingsForm.CancelEdit()
			return nil
		default:
			ti := m.settingsForm.InputModel()
			newTI, cmd := ti.Update(msg)
			*ti = newTI
			return cmd
		}
	}

	switch {
	case key.Matches(msg, settingsKeys.Up):
		m.settingsForm.MoveUp()
	case key.Matches(msg, settingsKeys.Down):
		m.settingsForm.MoveDown()
	case key.Matches(msg, settingsKeys.Left):
		if changed, k, v := m.settingsForm.Cycle(-1); changed {
			return m.save(k, v)
		}
	case key.Matches(msg, settingsKeys.Right):
		if changed, k, v := m.settingsForm.Cycle(1); changed {
			return m.save(k, v)
		}
	case key.Matches(msg, settingsKeys.Toggle):
		if changed, k, v := m.settingsForm.Toggle(); changed {
			return m.save(k, v)
		}
	case key.Matches(msg, settingsKeys.Enter):
		if m.settingsForm.StartEdit() {
			return textinput.Blink
		}
		if changed, k, v := m.settingsForm.Toggle(); changed {
			return m.save(k, v)
		}
	}
	return nil
}

func (m *Model) handleEntityKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, entityListKeys.Up):
		m.entityList.MoveUp()
	case key.Matches(msg, entityListKeys.Down):
		m.entityList.MoveDown()
	case key.Matches(msg, entityListKeys.MoveUp):
		if ids, ok := m.entityList.Shift(-1); ok {
			return m.saveEntities(ids)
		}
	case key.Matches(msg, entityListKeys.MoveDown):
		if ids, ok := m.entityList.Shift(1); ok {
			return m.saveEntities(ids)
		}
	case key.Matches(msg, entityListKeys.Add):
		m.picker = NewPicker(m.entities, m.entityList.IDs(), m.width)
		m.openDialog = dialogPicker
		return textinput.Blink
	case key.Matches(msg, entityListKeys.Delete):
		if id, ok := m.entityList.Selected(); ok {
			m.confirmMode = confirmRemove
			m.confirmEntity = id
		}
	}
	return nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, confirmKeys.Yes):
		m.confirmMode = confirmNone
		if ids, ok := m.entityList.Remove(); ok {
			return m.saveEntities(ids)
		}
	case key.Matches(msg, confirmKeys.No), key.Matches(msg, confirmKeys.Cancel):
		m.confirmMode = confirmNone
	}
	return nil
}

func (m *Model) handleDialogKey(msg tea.KeyMsg) tea.Cmd {
	switch m.openDialog {
	case dialogHelp:
		if key.Matches(msg, dialogKeys.Cancel) || key.Matches(msg, globalKeys.Help) {
			m.openDialog = dialogNone
		}
		return nil

	case dialogPicker:
		return m.handlePickerKey(msg)
	}
	return nil
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, dialogKeys.Cancel):
		m.closePicker()
		return nil
	case key.Matches(msg, dialogKeys.Up):
		m.picker.MoveUp()
		return nil
	case key.Matches(msg, dialogKeys.Down):
		m.picker.MoveDown()
		return nil
	case key.Matches(msg, dialogKeys.Save):
		id := m.picker.Value()
		if !strings.Contains(id, ".") {
			m.err = fmt.Errorf("%q is not an entity ID (domain.object_id)", id)
			return clearErrorAfter(5 * time.Second)
		}
		m.closePicker()
		if ids, ok := m.entityList.Add(id); ok {
			return m.saveEntities(ids)
		}
		return nil
	}

	ti := m.picker.InputModel()
	newTI, cmd := ti.Update(msg)
	*ti = newTI
	m.picker.Filter()
	return cmd
}

func (m *Model) closePicker() {
	m.openDialog = dialogNone
	m.picker = nil
}

// save writes one setting through the backend.
func (m *Model) save(key string, value interface{}) tea.Cmd {
	return saveSettingCmd(m.backend, key, value)
}

// saveEntities shows ids right away and writes them through the backend.
func (m *Model) saveEntities(ids []string) tea.Cmd {
	m.entityList.SetIDs(ids)
	return m.save(models.KeyHomeAssistantSubscribedEntities, ids)
}

func (m *Model) updateDimensions() {
	layout := computeLayout(m.width, m.height)
	lw, h := layout.innerSize(layout.leftWidth)
	m.settingsForm.SetSize(lw, h)
	m.entityList.SetHeight(h)
}

// ── View ─────────────────────────────────────────────────────────

// View renders the editor.
func (m Model) View() string {
	if m.width < minWidth || m.height < minHeight {
		sizeStr := fmt.Sprintf("%dx%d", m.width, m.height)
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(colorYellow).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				"Terminal too small",
				lipgloss.NewStyle().Foreground(colorDim).Render(
					fmt.Sprintf("Need %dx%d, have ", minWidth, minHeight)+lipgloss.NewStyle().Bold(true).Render(sizeStr),
				),
			))
	}

	if !m.loaded {
		text := "Loading settings..."
		if m.err != nil {
			text = m.err.Error()
		}
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(colorDim).
			Render(text)
	}

	layout := computeLayout(m.width, m.height)
	rw, _ := layout.innerSize(layout.rightWidth)

	header := renderHeader(m.status, m.focusedPanel, m.width)
	panels := renderPanels(m.settingsForm.View(), m.entityList.View(rw, m.focusedPanel == 1), layout, m.focusedPanel)
	statusBar := renderStatusBar(&m, m.width)

	view := lipgloss.JoinVertical(lipgloss.Left, header, panels, statusBar)

	var box string
	switch m.openDialog {
	case dialogHelp:
		box = renderHelp(m.width)
	case dialogPicker:
		if m.picker != nil {
			box = m.picker.View()
		}
	}
	if box != "" {
		view = placeDialog(view, box, m.width, m.height)
	}

	return view
}
