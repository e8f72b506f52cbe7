package tui

import "github.com/charmbracelet/lipgloss"

const defaultHabitColor = "#40c463"

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	emptyCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	futureCellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235"))

	todayCellStyle = lipgloss.NewStyle().Underline(true)
)

func checkedCellStyle(color string) lipgloss.Style {
	if color == "" {
		color = defaultHabitColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
