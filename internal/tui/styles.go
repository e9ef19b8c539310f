package tui

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "254", Dark: "236"})

	labelStyle = lipgloss.NewStyle().Foreground(colorDim).Width(9)
	valueStyle = lipgloss.NewStyle().Foreground(colorWhite)
	hintStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// Service state styles.
var (
	stateStoppedStyle    = lipgloss.NewStyle().Foreground(colorDim)
	stateTransitionStyle = lipgloss.NewStyle().Foreground(colorYellow)
	stateRunningStyle    = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	stateErrorStyle      = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	noticeStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
)
