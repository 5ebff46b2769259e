package ui

import "github.com/charmbracelet/lipgloss"

// Console styles shared by the capability report, the status lines and
// the progress display. Bright ANSI colors keep output readable on both
// dark and light terminals.
var (
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	WarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	FaintStyle   = lipgloss.NewStyle().Faint(true)

	// LabelStyle renders the protocol variant name in front of each
	// progress row.
	LabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)
