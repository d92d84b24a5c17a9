package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/priyxstudio/botdeck/internal/manager"
	"github.com/priyxstudio/botdeck/internal/models"
)

// ---- Styles ----------------------------------------------------------------

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	offStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
)

// ---- Messages --------------------------------------------------------------

// SnapshotMsg carries a new copy of the bot aggregate.
type SnapshotMsg struct{ Bot models.Bot }

// StatusMsg carries the result of a status poll.
type StatusMsg struct{ Status manager.Status }

type toggledMsg struct {
	active bool
	err    error
}

// ---- Model -----------------------------------------------------------------

// Model is the bubbletea model of the dashboard.
type Model struct {
	width int

	bot    models.Bot
	status manager.Status
	groups table.Model

	busy    bool
	note    string
	noteErr bool

	// Toggle starts the bot when start is true and stops it otherwise. It runs
	// outside of the bubbletea event loop.
	Toggle func(start bool) (bool, error)
	// Refresh requests an immediate status poll.
	Refresh func()
}

// New returns the dashboard for bot.
func New(bot models.Bot, toggle func(start bool) (bool, error), refresh func()) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Group", Width: 16},
			{Title: "Valid", Width: 6},
			{Title: "Attendance", Width: 11},
			{Title: "Code", Width: 12},
		}),
		table.WithHeight(8),
		table.WithFocused(false),
	)
	m := Model{groups: t, Toggle: toggle, Refresh: refresh}
	m.setBot(bot)
	return m
}

func (m *Model) setBot(b models.Bot) {
	m.bot = b
	rows := make([]table.Row, len(b.Groups))
	for i, g := range b.Groups {
		attendance := "stopped"
		if g.AttendanceActive {
			attendance = "running"
		}
		rows[i] = table.Row{g.Name, yesNo(g.IsValid), attendance, g.Code()}
	}
	m.groups.SetRows(rows)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if m.busy || m.bot.ID == 0 || m.Toggle == nil {
				return m, nil
			}
			m.busy = true
			start := !m.bot.IsActive
			if start {
				m.note, m.noteErr = "starting bot…", false
			} else {
				m.note, m.noteErr = "stopping bot…", false
			}
			toggle := m.Toggle
			return m, func() tea.Msg {
				active, err := toggle(start)
				return toggledMsg{active: active, err: err}
			}
		case "r":
			if m.Refresh != nil {
				m.Refresh()
				m.note, m.noteErr = "refreshing…", false
			}
			return m, nil
		}

	case SnapshotMsg:
		m.setBot(msg.Bot)

	case StatusMsg:
		m.status = msg.Status
		if m.note == "refreshing…" {
			m.note = ""
		}

	case toggledMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.note, m.noteErr = msg.err.Error(), true
		case msg.active:
			m.note, m.noteErr = "bot started", false
		default:
			m.note, m.noteErr = "bot stopped", false
		}
	}

	var cmd tea.Cmd
	m.groups, cmd = m.groups.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.bot.ID == 0 {
		return headerStyle.Render("botdeck") + "\n\n  No bot has been created yet. Run \"botdeck bot create\" first.\n\n" +
			helpStyle.Render("q quit") + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("botdeck · " + m.bot.Name))
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(m.summary()))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.groups.View()))
	b.WriteString("\n")
	if m.note != "" {
		style := noteStyle
		if m.noteErr {
			style = offStyle
		}
		b.WriteString(" " + style.Render(m.note) + "\n")
	}
	b.WriteString(helpStyle.Render("s start/stop · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) summary() string {
	lines := []string{
		row("Server", m.bot.ServerAddress),
		row("Reachable", m.reachable()),
		row("Bot", onOff(m.bot.IsActive, "running", "stopped")),
		row("Mode", onOff(m.bot.DeveloperMode, "development", "production")),
	}
	if m.status.ServerOnline {
		c := m.status.MemberCount
		lines = append(lines, row("Members", fmt.Sprintf("%d online · %d offline · %d total", c.Online, c.Offline, c.Total)))
	}
	if m.status.Err != nil {
		lines = append(lines, row("Last error", offStyle.Render(m.status.Err.Error())))
	}
	checked := "never"
	if !m.status.CheckedAt.IsZero() {
		checked = m.status.CheckedAt.Format(time.TimeOnly)
	}
	lines = append(lines, row("Checked", checked))
	return strings.Join(lines, "\n")
}

func (m Model) reachable() string {
	if m.status.CheckedAt.IsZero() {
		return labelStyle.Render("unknown")
	}
	return onOff(m.status.ServerOnline, "online", "offline")
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-11s", label)) + " " + value
}

func onOff(v bool, on, off string) string {
	if v {
		return onStyle.Render(on)
	}
	return offStyle.Render(off)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
