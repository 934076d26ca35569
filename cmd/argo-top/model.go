package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moznion/go-optional"
)

// Application states.
const (
	StateConnect = iota
	StateDashboard
)

// Dashboard tables.
const (
	TabPositions = iota
	TabStrategies
)

const killSwitchReason = "dashboard"

// Model is the main Bubble Tea model of the runtime dashboard.
type Model struct {
	state      int
	tab        int
	urlInput   textinput.Model
	positions  table.Model
	strategies table.Model
	snapshot   optional.Option[Snapshot]
	err        error
	width      int
	height     int

	connect  func(baseURL string) Fetcher
	fetcher  Fetcher
	baseURL  string
	interval time.Duration
	seq      int
}

// NewModel creates a Model on the connect screen. connect builds the Fetcher
// once an address is confirmed.
func NewModel(baseURL string, interval time.Duration, connect func(baseURL string) Fetcher) Model {
	return Model{
		state:      StateConnect,
		tab:        TabPositions,
		urlInput:   NewURLInput(baseURL),
		positions:  NewPositionsTable(),
		strategies: NewStrategiesTable(),
		snapshot:   optional.None[Snapshot](),
		err:        nil,
		connect:    connect,
		fetcher:    nil,
		baseURL:    "",
		interval:   interval,
		seq:        0,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != StateConnect {
				return m, tea.Quit
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.positions.SetWidth(msg.Width)
		m.positions.SetHeight(msg.Height - 10)
		m.strategies.SetWidth(msg.Width)
		m.strategies.SetHeight(msg.Height - 10)

		return m, nil

	case SnapshotMsg:
		if m.state != StateDashboard {
			return m, nil
		}

		m.snapshot = optional.Some(msg.Snapshot)
		m.err = nil
		m.positions = UpdatePositionRows(m.positions, msg.Snapshot.Portfolio)
		m.strategies = UpdateStrategyRows(m.strategies, msg.Snapshot.Strategies)

		return m, m.scheduleRefresh()

	case FetchErrorMsg:
		m.err = msg.Err
		if m.state != StateDashboard {
			return m, nil
		}

		return m, m.scheduleRefresh()

	case KillSwitchMsg:
		if snap, err := m.snapshot.Take(); err == nil {
			snap.KillSwitch = msg.State
			m.snapshot = optional.Some(snap)
		}

		return m, nil

	case refreshMsg:
		if m.state != StateDashboard || msg.seq != m.seq {
			return m, nil
		}

		return m, fetchCmd(m.fetcher)
	}

	switch m.state {
	case StateConnect:
		return m.updateConnect(msg)
	case StateDashboard:
		return m.updateDashboard(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	if m.state != StateDashboard {
		return m, nil
	}

	m.state = StateConnect
	m.fetcher = nil
	m.baseURL = ""
	m.snapshot = optional.None[Snapshot]()
	m.err = nil
	m.seq++
	m.positions.SetRows(nil)
	m.strategies.SetRows(nil)
	m.urlInput.Focus()

	return m, textinput.Blink
}

func (m Model) updateConnect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		address := strings.TrimSpace(m.urlInput.Value())
		if address != "" {
			m.fetcher = m.connect(address)
			m.baseURL = address
			m.state = StateDashboard
			m.urlInput.Blur()

			return m, fetchCmd(m.fetcher)
		}
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)

	return m, cmd
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab":
			m.tab = (m.tab + 1) % 2

			return m, nil
		case "r":
			return m, fetchCmd(m.fetcher)
		case "k":
			enabled := false
			if snap, err := m.snapshot.Take(); err == nil {
				enabled = snap.KillSwitch.Enabled
			}

			return m, killSwitchCmd(m.fetcher, !enabled)
		}
	}

	var cmd tea.Cmd
	if m.tab == TabStrategies {
		m.strategies, cmd = m.strategies.Update(msg)
	} else {
		m.positions, cmd = m.positions.Update(msg)
	}

	return m, cmd
}

// scheduleRefresh invalidates earlier schedules so only one poll loop runs.
func (m *Model) scheduleRefresh() tea.Cmd {
	m.seq++
	seq := m.seq

	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return refreshMsg{seq: seq}
	})
}

func fetchCmd(f Fetcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*requestTimeout)
		defer cancel()

		snap, err := f.Fetch(ctx)
		if err != nil {
			return FetchErrorMsg{Err: err}
		}

		return SnapshotMsg{Snapshot: snap}
	}
}

func killSwitchCmd(f Fetcher, enabled bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		state, err := f.SetKillSwitch(ctx, enabled, killSwitchReason)
		if err != nil {
			return FetchErrorMsg{Err: fmt.Errorf("failed to toggle kill switch: %w", err)}
		}

		return KillSwitchMsg{State: state}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateConnect:
		s.WriteString(TitleStyle.Render("Argo Runtime - Connect"))
		s.WriteString("\n\n")
		s.WriteString("Control plane address:\n\n")
		s.WriteString(m.urlInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to connect, ctrl+c to quit"))

	case StateDashboard:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Argo Runtime - %s", m.baseURL)))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		snap, err := m.snapshot.Take()
		if err != nil {
			s.WriteString("Waiting for data...\n")
		} else {
			if snap.KillSwitch.Enabled {
				s.WriteString(HaltedStyle.Render(fmt.Sprintf("KILL SWITCH ENGAGED: %s", snap.KillSwitch.Reason)))
				s.WriteString("\n")
			}

			s.WriteString(RenderSummary(snap))
			s.WriteString("\n")
			s.WriteString(m.renderTabs())
			s.WriteString("\n")

			if m.tab == TabStrategies {
				s.WriteString(m.strategies.View())
			} else {
				s.WriteString(m.positions.View())
			}
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("tab: switch table | k: toggle kill switch | r: refresh | Esc: disconnect | q: quit"))
	}

	return s.String()
}

func (m Model) renderTabs() string {
	names := []string{"Positions", "Strategies"}

	for i, name := range names {
		if i == m.tab {
			names[i] = ActiveTabStyle.Render(name)
		}
	}

	return strings.Join(names, "   ")
}
