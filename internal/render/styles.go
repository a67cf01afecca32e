package render

import "github.com/charmbracelet/lipgloss"

var (
	colorRod     = lipgloss.Color("#8C8C8C")
	colorPoint   = lipgloss.Color("#636363")
	colorPlate   = lipgloss.Color("#FFD700")
	colorGhost   = lipgloss.Color("#5B8DEF")
	colorSelect  = lipgloss.Color("#00E676")
	colorDanger  = lipgloss.Color("#FF5252")
	colorHeading = lipgloss.Color("#00BFFF")
)

var (
	styleRod       = lipgloss.NewStyle().Foreground(colorRod)
	stylePoint     = lipgloss.NewStyle().Foreground(colorPoint)
	stylePlate     = lipgloss.NewStyle().Foreground(colorPlate).Bold(true)
	styleGhost     = lipgloss.NewStyle().Foreground(colorGhost)
	styleSelected  = lipgloss.NewStyle().Foreground(colorSelect).Bold(true)
	styleIllegal   = lipgloss.NewStyle().Foreground(colorDanger)
	styleAxis      = lipgloss.NewStyle().Foreground(colorPoint)
	styleHeading   = lipgloss.NewStyle().Foreground(colorHeading).Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(colorPoint)
	styleFrame     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPoint).Padding(0, 1)
	styleCursorRow = lipgloss.NewStyle().Foreground(colorSelect).Bold(true)
)

// Selection indicator prepended to the active ghost row.
const selectionIndicator = "▎"
