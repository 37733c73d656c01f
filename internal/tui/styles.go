package tui

import "charm.land/lipgloss/v2"

var (
	colorPrimary   = lipgloss.Color("#cba6f7")
	colorSecondary = lipgloss.Color("#89b4fa")
	colorText      = lipgloss.Color("#cdd6f4")
	colorSubtext   = lipgloss.Color("#a6adc8")
	colorMuted     = lipgloss.Color("#6c7086")
	colorSuccess   = lipgloss.Color("#a6e3a1")
	colorError     = lipgloss.Color("#f38ba8")
)

var (
	styleTitle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleProgress = lipgloss.NewStyle().Foreground(colorMuted)
	styleQuestion = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	styleOption   = lipgloss.NewStyle().Foreground(colorSubtext)
	styleCursor   = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	styleChecked  = lipgloss.NewStyle().Foreground(colorSuccess)
	styleError    = lipgloss.NewStyle().Foreground(colorError)
	styleHelp     = lipgloss.NewStyle().Foreground(colorMuted)
	styleModal    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2)
)
