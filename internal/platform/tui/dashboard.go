package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/invaders/internal/config"
	"github.com/vovakirdan/invaders/internal/protocol"
)

// Dashboard layout constants
const (
	minFieldHeight = 6  // Below this the field is not drawn
	chromeHeight   = 10 // Title, status, result and help lines
)

// DashboardConfig describes the canvas the dashboard projects.
type DashboardConfig struct {
	CanvasWidth  float64
	CanvasHeight float64
	PlatformY    float64
}

// DashboardConfigFrom extracts the canvas geometry from game settings.
func DashboardConfigFrom(g config.GameConfig) DashboardConfig {
	return DashboardConfig{
		CanvasWidth:  g.CanvasWidth,
		CanvasHeight: g.CanvasHeight,
		PlatformY:    g.PlatformY,
	}
}

// envelopeMsg carries one feed update into the Bubble Tea loop.
type envelopeMsg protocol.Envelope

// feedClosedMsg reports that the feed ended.
type feedClosedMsg struct{}

// DashboardModel is the Bubble Tea model for the spectator dashboard.
type DashboardModel struct {
	cfg  DashboardConfig
	feed Feed

	table table.Model
	help  help.Model
	keys  DashboardKeyMap

	width  int
	height int

	state        *protocol.GameStateMsg
	lastOver     *protocol.GameOverMsg
	lastUpdate   time.Time
	now          time.Time
	showField    bool
	disconnected bool
	quitting     bool
}

// NewDashboardModel creates a dashboard reading from feed.
func NewDashboardModel(cfg DashboardConfig, feed Feed, width, height int) DashboardModel {
	h := help.New()
	h.ShowAll = false
	h.Width = width

	m := DashboardModel{
		cfg:       cfg,
		feed:      feed,
		keys:      DefaultDashboardKeyMap(),
		help:      h,
		width:     width,
		height:    height,
		showField: true,
		now:       time.Now(),
	}
	m.table = m.createTable()
	return m
}

// createTable creates the player table sized for the current window.
func (m *DashboardModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Player", Width: 16},
		{Title: "Avatar", Width: 8},
		{Title: "Score", Width: 7},
		{Title: "Depth", Width: 7},
		{Title: "Status", Width: 7},
	}
	if extra := m.width - 4 - 60; extra > 0 {
		columns[1].Width += min(extra, 16)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.tableHeight(), 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func (m *DashboardModel) tableHeight() int {
	h := m.height - chromeHeight
	if m.showField {
		h -= m.fieldHeight()
	}
	return min(h, 8)
}

func (m *DashboardModel) fieldHeight() int {
	return max((m.height-chromeHeight)/2, 0)
}

// updateTableRows ranks players by score, then nickname.
func (m *DashboardModel) updateTableRows() {
	if m.state == nil {
		m.table.SetRows(nil)
		return
	}

	players := make([]protocol.PlayerState, 0, len(m.state.Players))
	for _, p := range m.state.Players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Nickname < players[j].Nickname
	})

	rows := make([]table.Row, len(players))
	for i, p := range players {
		status := "alive"
		if !p.IsAlive {
			status = "dead"
		}
		depth := 0
		if m.cfg.PlatformY > 0 {
			depth = int(p.Y / m.cfg.PlatformY * 100)
		}
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			p.Nickname,
			p.InvaderAvatarType + "/" + p.InvaderAvatarColor,
			fmt.Sprintf("%d", p.Score),
			fmt.Sprintf("%d%%", depth),
			status,
		}
	}
	m.table.SetRows(rows)
}

// Init starts reading the feed and the clock.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.waitForEnvelope(), tickCmd())
}

// waitForEnvelope returns a command that waits for the next feed update.
func (m DashboardModel) waitForEnvelope() tea.Cmd {
	return func() tea.Msg {
		if m.feed == nil {
			return feedClosedMsg{}
		}
		env, ok := <-m.feed.Updates()
		if !ok {
			return feedClosedMsg{}
		}
		return envelopeMsg(env)
	}
}

// Update handles messages for the dashboard.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case envelopeMsg:
		m.apply(protocol.Envelope(msg))
		return m, m.waitForEnvelope()

	case feedClosedMsg:
		m.disconnected = true
		return m, nil

	case TickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			if m.feed != nil {
				m.feed.Close()
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.ToggleField):
			m.showField = !m.showField
			m.table = m.createTable()
			m.updateTableRows()
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// apply decodes one envelope into the dashboard state. Unknown or malformed
// envelopes are ignored.
func (m *DashboardModel) apply(env protocol.Envelope) {
	switch env.Name {
	case protocol.GameStateName:
		var s protocol.GameStateMsg
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return
		}
		m.state = &s
		m.lastUpdate = m.now
		m.updateTableRows()

	case protocol.GameOverName:
		var over protocol.GameOverMsg
		if err := json.Unmarshal(env.Data, &over); err != nil {
			return
		}
		m.lastOver = &over
	}
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(centerText("INVADERS - SPECTATOR", m.width)))
	b.WriteString("\n\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(boxStyle.Render(m.renderTableContent()))
	b.WriteString("\n")

	if m.showField && m.fieldHeight() >= minFieldHeight {
		field := NewField(max(m.width-4, 10), m.fieldHeight(), m.cfg.CanvasWidth, m.cfg.CanvasHeight)
		field.DrawGameState(m.state, m.cfg.PlatformY)
		b.WriteString(boxStyle.Render(field.Render()))
		b.WriteString("\n")
	}

	if m.lastOver != nil {
		resultStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
		b.WriteString(resultStyle.Render(fmt.Sprintf(
			"Last game: winner %s | 2nd %s | 3rd %s | %d players",
			m.lastOver.Winner,
			orDash(m.lastOver.FirstRunnerUp),
			orDash(m.lastOver.SecondRunnerUp),
			m.lastOver.TotalPlayers,
		)))
		b.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m DashboardModel) statusLine() string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.disconnected {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("feed disconnected")
	}
	if m.state == nil {
		return dim.Render("waiting for the server...")
	}

	phase := "waiting for players"
	if m.state.GameOn {
		phase = "in progress"
	}
	parts := []string{
		phase,
		fmt.Sprintf("%d players", m.state.PlayerCount),
	}
	if m.state.ShipBody != nil {
		parts = append(parts, fmt.Sprintf("ship x=%.0f", m.state.ShipBody[0]))
	}
	if m.state.KillerBullet != "" {
		parts = append(parts, "last hit "+shortID(m.state.KillerBullet))
	}
	if age := m.now.Sub(m.lastUpdate); age >= 2*clockInterval {
		parts = append(parts, fmt.Sprintf("stale %s", age.Truncate(time.Second)))
	}
	return dim.Render(strings.Join(parts, " | "))
}

// renderTableContent renders the table or an empty message.
func (m DashboardModel) renderTableContent() string {
	if m.state == nil || len(m.state.Players) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(1, 4)
		return emptyStyle.Render("No invaders yet.")
	}
	return m.table.View()
}

// IsQuitting returns true if the user asked to leave.
func (m DashboardModel) IsQuitting() bool {
	return m.quitting
}

// RunDashboard runs the dashboard in the local terminal until the user quits.
func RunDashboard(cfg DashboardConfig, feed Feed, width, height int) error {
	p := tea.NewProgram(
		NewDashboardModel(cfg, feed, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

func centerText(text string, width int) string {
	textWidth := lipgloss.Width(text)
	if textWidth >= width {
		return text
	}
	return strings.Repeat(" ", (width-textWidth)/2) + text
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortID trims a prefixed uuid to its first block.
func shortID(id string) string {
	i := strings.IndexByte(id, '-')
	if i < 0 || len(id) <= i+9 {
		return id
	}
	return id[:i+9]
}
