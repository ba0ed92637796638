package ui

import "github.com/charmbracelet/lipgloss"

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("110"))

	styleFilterActive = lipgloss.NewStyle().
				Foreground(lipgloss.Color("215"))

	styleRow = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleRowSelected = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("237"))

	styleDetail = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			PaddingLeft(4)

	styleStatus = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	styleWarning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))

	styleDropdown = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	styleDropdownCursor = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("215"))
)
