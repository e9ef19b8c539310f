package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/easycue/easycue/internal/buildinfo"
	"github.com/easycue/easycue/internal/models"
)

// Model is the root Bubbletea model for the monitor.
type Model struct {
	client ServiceClient

	info      models.ServiceInfo
	connected bool
	loaded    bool

	busy        bool // an action is in flight
	confirmStop bool
	notice      string
	err         error

	spinner spinner.Model
	help    help.Model
	width   int
	height  int
}

// NewModel creates the initial monitor model.
func NewModel(client ServiceClient) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = stateTransitionStyle

	return Model{
		client:  client,
		spinner: sp,
		help:    help.New(),
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchStatusCmd(m.client),
		tickCmd(),
		m.spinner.Tick,
	)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		return m, tea.Batch(fetchStatusCmd(m.client), tickCmd())

	case StatusMsg:
		// Polls can return out of order; keep the newest snapshot.
		if !m.loaded || msg.Info.Seq >= m.info.Seq {
			m.info = msg.Info
		}
		m.connected = true
		m.loaded = true
		return m, nil

	case DisconnectedMsg:
		m.connected = false
		return m, nil

	case ActionDoneMsg:
		m.busy = false
		m.err = nil
		m.notice = msg.Message
		return m, tea.Batch(fetchStatusCmd(m.client), clearNoticeCmd())

	case CopiedMsg:
		m.err = nil
		m.notice = "Copied " + msg.Address
		return m, clearNoticeCmd()

	case ErrorMsg:
		m.busy = false
		m.err = msg.Err
		m.notice = ""
		return m, fetchStatusCmd(m.client)

	case ClearNoticeMsg:
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmStop {
		switch {
		case key.Matches(msg, keys.Yes):
			m.confirmStop = false
			return m.startAction(m.client.StopService)
		case key.Matches(msg, keys.No):
			m.confirmStop = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, keys.Refresh):
		return m, fetchStatusCmd(m.client)
	case key.Matches(msg, keys.Copy):
		return m, copyAddressCmd()
	}

	if m.busy || !m.connected {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Start):
		return m.startAction(m.client.StartService)
	case key.Matches(msg, keys.Stop):
		if m.info.Status.IsRunning() {
			m.confirmStop = true
			return m, nil
		}
		return m.startAction(m.client.StopService)
	case key.Matches(msg, keys.Toggle):
		return m.startAction(m.client.ToggleService)
	}

	return m, nil
}

func (m Model) startAction(call func(ctx context.Context) (string, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	m.err = nil
	m.notice = ""
	return m, actionCmd(call)
}

// View renders the monitor.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(buildinfo.AppName))
	b.WriteString(" ")
	b.WriteString(hintStyle.Render(buildinfo.Version))
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.renderStatus()))
	b.WriteString("\n")

	b.WriteString(renderStatusBar(&m, m.width))
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))

	return b.String()
}

func (m Model) renderStatus() string {
	if !m.loaded {
		return m.spinner.View() + " Connecting to daemon..."
	}

	lines := []string{
		row("Status", m.renderState()),
	}
	if m.info.PID > 0 {
		lines = append(lines, row("PID", valueStyle.Render(fmt.Sprint(m.info.PID))))
	}
	if !m.info.StartedAt.IsZero() {
		uptime := time.Since(m.info.StartedAt).Truncate(time.Second)
		lines = append(lines, row("Uptime", valueStyle.Render(uptime.String())))
	}
	lines = append(lines, row("Address", valueStyle.Render(models.ServiceAddress)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderState() string {
	s := m.info.Status
	switch s.State {
	case models.StateStopped:
		return stateStoppedStyle.Render("○ stopped")
	case models.StateStarting, models.StateStopping:
		return m.spinner.View() + stateTransitionStyle.Render(s.State.String())
	case models.StateRunning:
		return stateRunningStyle.Render("● running")
	case models.StateError:
		return stateErrorStyle.Render("✕ error: " + s.Message)
	}
	return s.String()
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}
