package tui

import "github.com/charmbracelet/lipgloss"

// One Dark Pro color palette
var (
	ColorFgPrimary   = lipgloss.Color("#ABB2BF")
	ColorFgSecondary = lipgloss.Color("#828997")
	ColorFgMuted     = lipgloss.Color("#636B78")

	ColorRed    = lipgloss.Color("#E06C75")
	ColorGreen  = lipgloss.Color("#98C379")
	ColorYellow = lipgloss.Color("#E5C07B")
	ColorBlue   = lipgloss.Color("#61AFEF")
	ColorCyan   = lipgloss.Color("#56B6C2")

	ColorBorder = lipgloss.Color("#3F4451")
)

// Component styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true).
			PaddingLeft(1)

	CountStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)

	CountFlashStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	TempoStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	RequiredStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	ClockStyle = lipgloss.NewStyle().
			Foreground(ColorFgPrimary)

	StateStyle = lipgloss.NewStyle().
			Foreground(ColorFgSecondary).
			Italic(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorFgMuted)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 3)
)
