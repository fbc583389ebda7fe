package ui

import "github.com/charmbracelet/lipgloss"

var (
	createdStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("35")).
			PaddingLeft(1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("35"))

	skippedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(8)

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))
)
