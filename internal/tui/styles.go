package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#00BFFF")
	colorSuccess = lipgloss.Color("#00E676")
	colorDanger  = lipgloss.Color("#FF5252")
	colorMuted   = lipgloss.Color("#636363")
	colorWhite   = lipgloss.Color("#EEEEEE")
	colorSurface = lipgloss.Color("#1E1E2E")
)

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleOK = lipgloss.NewStyle().
		Foreground(colorSuccess)

	styleError = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	styleFooterKey = lipgloss.NewStyle().
			Foreground(colorPrimary)

	styleFooterDesc = lipgloss.NewStyle().
			Foreground(colorMuted)
)
