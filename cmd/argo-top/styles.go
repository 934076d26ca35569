package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	// HaltedStyle for the engaged kill switch banner.
	HaltedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	// ActiveTabStyle marks the selected table.
	ActiveTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// FormatPnL formats a PnL figure with a direction marker.
func FormatPnL(value float64) string {
	s := fmt.Sprintf("%.2f", value)

	switch {
	case value > 0:
		return s + " ▲"
	case value < 0:
		return s + " ▼"
	default:
		return s
	}
}
