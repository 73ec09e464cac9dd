// Package monitor is the live TUI dashboard: progress profile, sync
// queue and recent activity, refreshed on a timer, with outbox status
// transitions streamed in as they happen.
package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hartley/lx/internal/models"
	"github.com/hartley/lx/internal/outbox"
	"github.com/hartley/lx/internal/store"
	"github.com/hartley/lx/internal/version"
)

// Panel represents which panel is active
type Panel int

const (
	PanelProgress Panel = iota
	PanelQueue
	PanelActivity
)

// Model is the main Bubble Tea model for the monitor TUI
type Model struct {
	Store   *store.Store
	Manager *outbox.Manager

	// Window dimensions
	Width  int
	Height int

	// Panel data
	Profile    *models.Profile
	SyncStatus models.SyncStatusSnapshot
	Queue      []models.QueueItem
	Activity   []models.ActivityRecord

	// UI state
	ActivePanel  Panel
	ScrollOffset map[Panel]int
	ShowHelp     bool
	LastRefresh  time.Time
	Err          error

	// Configuration
	RefreshInterval time.Duration
	Version         string

	UpdateInfo *version.UpdateAvailableMsg

	Spinner spinner.Model

	statusCh    chan models.SyncStatusSnapshot
	unsubscribe func()
}

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// MinHeight is the minimum terminal height for proper display
const MinHeight = 15

// TickMsg triggers a data refresh
type TickMsg time.Time

// StatusMsg carries an outbox status transition
type StatusMsg models.SyncStatusSnapshot

// RefreshDataMsg carries refreshed data
type RefreshDataMsg struct {
	Profile   *models.Profile
	Queue     []models.QueueItem
	Activity  []models.ActivityRecord
	Err       error
	Timestamp time.Time
}

// NewModel creates a new monitor model. The manager's status feed is
// subscribed immediately so no transition between now and Init is lost.
func NewModel(st *store.Store, manager *outbox.Manager, interval time.Duration) Model {
	m := Model{
		Store:           st,
		Manager:         manager,
		RefreshInterval: interval,
		ScrollOffset:    make(map[Panel]int),
		ActivePanel:     PanelProgress,
		statusCh:        make(chan models.SyncStatusSnapshot, 8),
	}
	m.Spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(streakStyle))
	m.SyncStatus = manager.Status()
	ch := m.statusCh
	m.unsubscribe = manager.Subscribe(func(snap models.SyncStatusSnapshot) {
		select {
		case ch <- snap:
		default: // drop if the UI is behind; the next transition catches up
		}
	})
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchData(),
		m.scheduleTick(),
		m.waitForStatus(),
		m.Spinner.Tick,
		version.CheckAsync(m.Version),
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.fetchData(), m.scheduleTick())

	case StatusMsg:
		m.SyncStatus = models.SyncStatusSnapshot(msg)
		return m, tea.Batch(m.fetchData(), m.waitForStatus())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case version.UpdateAvailableMsg:
		m.UpdateInfo = &msg
		return m, nil

	case RefreshDataMsg:
		m.Profile = msg.Profile
		m.Queue = msg.Queue
		m.Activity = msg.Activity
		m.Err = msg.Err
		m.LastRefresh = msg.Timestamp
		return m, nil
	}

	return m, nil
}

// handleKey processes key input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit

	case "tab":
		m.ActivePanel = (m.ActivePanel + 1) % 3
		return m, nil

	case "shift+tab":
		m.ActivePanel = (m.ActivePanel + 2) % 3
		return m, nil

	case "1":
		m.ActivePanel = PanelProgress
		return m, nil

	case "2":
		m.ActivePanel = PanelQueue
		return m, nil

	case "3":
		m.ActivePanel = PanelActivity
		return m, nil

	case "j", "down":
		m.ScrollOffset[m.ActivePanel]++
		return m, nil

	case "k", "up":
		if m.ScrollOffset[m.ActivePanel] > 0 {
			m.ScrollOffset[m.ActivePanel]--
		}
		return m, nil

	case "s":
		// Manual drain request; result arrives as a StatusMsg
		go m.Manager.Drain()
		return m, nil

	case "r":
		return m, m.fetchData()

	case "?":
		m.ShowHelp = !m.ShowHelp
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

// scheduleTick returns a command that sends a TickMsg after the refresh interval
func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchData returns a command that fetches all data and sends a RefreshDataMsg
func (m Model) fetchData() tea.Cmd {
	st := m.Store
	return func() tea.Msg {
		return FetchData(st)
	}
}

// waitForStatus blocks on the next outbox transition
func (m Model) waitForStatus() tea.Cmd {
	ch := m.statusCh
	return func() tea.Msg {
		return StatusMsg(<-ch)
	}
}
