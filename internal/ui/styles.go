package ui

import "github.com/charmbracelet/lipgloss"

// Styles defines all lipgloss styles used in the CLI
var Styles = struct {
	Bold       lipgloss.Style
	Dim        lipgloss.Style
	Accent     lipgloss.Style
	SuccessBox lipgloss.Style
	ErrorBox   lipgloss.Style
	PanelBox   lipgloss.Style
}{
	Bold:   lipgloss.NewStyle().Bold(true),
	Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("86")),

	SuccessBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("42")).
		Padding(0, 1).
		Width(80),

	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(0, 1).
		Width(80),

	PanelBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1),
}
