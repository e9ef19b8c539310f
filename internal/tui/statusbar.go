package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func renderStatusBar(m *Model, width int) string {
	var left string
	switch {
	case m.confirmStop:
		left = warningStyle.Render("Stop service? (y/n)")
	case m.err != nil:
		left = errorStyle.Render("Error: " + m.err.Error())
	case m.busy:
		left = m.spinner.View() + "Working..."
	case m.notice != "":
		left = noticeStyle.Render(m.notice)
	}

	right := lipgloss.NewStyle().Foreground(colorGreen).Render("Connected")
	if !m.connected {
		right = lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("⚠ Disconnected")
	}

	if maxLeft := width - lipgloss.Width(right) - 3; width > 0 && lipgloss.Width(left) > maxLeft && maxLeft > 0 {
		left = ansi.Truncate(left, maxLeft, "…")
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := " " + left + lipgloss.NewStyle().Width(gap).Render("") + right + " "
	return statusBarStyle.Render(line)
}
