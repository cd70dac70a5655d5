package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/exploremaine/explore/internal/areas"
	"github.com/exploremaine/explore/internal/prefs"
	"github.com/exploremaine/explore/internal/state"
)

// Screen is the active top-level screen.
type Screen int

const (
	ScreenList Screen = iota
	ScreenMap
)

// Controller is the part of the explore controller the UI drives.
type Controller interface {
	MapID() string
	UiState() state.UiState
	Subscribe() (<-chan state.UiState, func())
	SelectArea(area areas.AreaInfo)
	ClearSelection()
	RequestDownload(area areas.AreaInfo) bool
	RequestDelete(area areas.AreaInfo) bool
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Prefs      prefs.Prefs
	PrefsPath  string
	// AreaPath maps an area title to its offline location for display. Nil
	// hides the path.
	AreaPath func(title string) string
	Logger   zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	controller  Controller
	updates     <-chan state.UiState
	unsubscribe func()
	keys        keyMap
	prefsPath   string
	prefs       prefs.Prefs
	areaPath    func(string) string
	logger      zerolog.Logger

	// UI state
	theme  Theme
	screen Screen
	width  int
	height int
	ready  bool

	// Data state
	ui state.UiState

	// List state
	highlighted int
	spinner     spinner.Model

	// Map screen
	mapViewport viewport.Model

	showHelp bool
	modal    Modal
}

// New creates a new Bubble Tea model subscribed to the controller. Run
// releases the subscription when the program exits.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.Prefs.Theme
	if themeName == "" {
		themeName = prefs.Default().Theme
	}

	m := Model{
		ctx:        ctx,
		controller: opts.Controller,
		keys:       DefaultKeyMap(),
		prefsPath:  opts.PrefsPath,
		prefs:      opts.Prefs,
		areaPath:   opts.AreaPath,
		logger:     opts.Logger.With().Str("component", "ui").Logger(),
		theme:      GetTheme(themeName),
		screen:     ScreenList,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if m.controller != nil {
		m.updates, m.unsubscribe = m.controller.Subscribe()
		m.ui = m.controller.UiState()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.updates != nil {
		cmds = append(cmds, waitForState(m.updates))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.mapViewport = viewport.New(msg.Width, max(msg.Height-chromeHeight, 1))
		}
		m.ready = true
		m.mapViewport.Width = msg.Width
		m.mapViewport.Height = max(msg.Height-chromeHeight, 1)
		m.refreshMapViewport()
		return m, nil

	case stateMsg:
		m.applyState(state.UiState(msg))
		return m, waitForState(m.updates)

	case deleteConfirmedMsg:
		m.requestDelete(msg.area)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// applyState installs a newer projection, ignoring stale ones.
func (m *Model) applyState(ui state.UiState) {
	if ui.Version < m.ui.Version {
		return
	}
	m.ui = ui
	if m.highlighted >= len(ui.Areas) {
		m.highlighted = max(len(ui.Areas)-1, 0)
	}
	m.refreshMapViewport()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
				m.logger.Warn().Err(err).Msg("could not save preferences")
			}
		}
		m.refreshMapViewport()
		return m, nil
	}

	switch m.screen {
	case ScreenMap:
		return m.handleMapKey(msg)
	default:
		return m.handleListKey(msg)
	}
}

// handleListKey processes keyboard input for the area list.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.OpenMap) && m.ui.HasMapInfo() {
		m.openMap(nil)
		return m, nil
	}

	count := len(m.ui.Areas)
	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.highlighted < count-1 {
			m.highlighted++
		}
	case key.Matches(msg, m.keys.Up):
		if m.highlighted > 0 {
			m.highlighted--
		}
	case key.Matches(msg, m.keys.Top):
		m.highlighted = 0
	case key.Matches(msg, m.keys.Bottom):
		m.highlighted = count - 1
	case key.Matches(msg, m.keys.OpenArea):
		area := m.ui.Areas[m.highlighted]
		m.openMap(&area)
	case key.Matches(msg, m.keys.Download):
		m.requestDownload(m.ui.Areas[m.highlighted])
	case key.Matches(msg, m.keys.Delete):
		return m.confirmDelete(m.ui.Areas[m.highlighted])
	}
	return m, nil
}

// handleMapKey processes keyboard input for the map screen. Actions apply to
// the selected area, if any.
func (m Model) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.screen = ScreenList
		return m, nil
	case key.Matches(msg, m.keys.Download):
		if m.ui.Selected != nil {
			m.requestDownload(*m.ui.Selected)
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if m.ui.Selected != nil {
			return m.confirmDelete(*m.ui.Selected)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.mapViewport, cmd = m.mapViewport.Update(msg)
	return m, cmd
}

// openMap switches to the map screen for area, or for the whole web map when
// area is nil.
func (m *Model) openMap(area *areas.AreaInfo) {
	if area != nil {
		m.controller.SelectArea(*area)
	} else {
		m.controller.ClearSelection()
	}
	m.applyState(m.controller.UiState())
	m.screen = ScreenMap
	m.mapViewport.GotoTop()
}

func (m *Model) requestDownload(area areas.AreaInfo) {
	if m.controller.RequestDownload(area) {
		m.applyState(m.controller.UiState())
	}
}

func (m *Model) requestDelete(area areas.AreaInfo) {
	if m.controller.RequestDelete(area) {
		m.applyState(m.controller.UiState())
	}
}

// confirmDelete deletes a downloaded area, asking first when the preference
// is on. Other statuses are left to the controller to ignore.
func (m Model) confirmDelete(area areas.AreaInfo) (tea.Model, tea.Cmd) {
	if m.prefs.ConfirmDelete && area.Status == areas.Downloaded {
		m.modal = newConfirmDeleteModal(area)
		return m, nil
	}
	m.requestDelete(area)
	return m, nil
}

// highlightedArea returns the area under the list cursor.
func (m Model) highlightedArea() (areas.AreaInfo, bool) {
	if m.highlighted < 0 || m.highlighted >= len(m.ui.Areas) {
		return areas.AreaInfo{}, false
	}
	return m.ui.Areas[m.highlighted], true
}

// renderMain renders header, command bar and the active screen.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.screen {
	case ScreenMap:
		b.WriteString(m.mapViewport.View())
	default:
		b.WriteString(m.renderList())
	}
	return b.String()
}

// Messages

type stateMsg state.UiState

// Commands

func waitForState(updates <-chan state.UiState) tea.Cmd {
	return func() tea.Msg {
		ui, ok := <-updates
		if !ok {
			return nil
		}
		return stateMsg(ui)
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	m := New(opts)
	if m.unsubscribe != nil {
		defer m.unsubscribe()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
