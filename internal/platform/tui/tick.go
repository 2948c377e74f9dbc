package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg refreshes time-dependent parts of the dashboard.
type TickMsg time.Time

// clockInterval is how often the "last update" age is redrawn.
const clockInterval = time.Second

func tickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
