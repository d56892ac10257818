package ui

import (
	"github.com/charmbracelet/lipgloss"

	"taskpad/internal/todo"
)

var (
	colorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	colorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorBlue).
			Padding(0, 1)

	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	completedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(colorGray)
	badgeStyle     = lipgloss.NewStyle().Foreground(colorGray)
	helpStyle      = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	emptyStyle     = lipgloss.NewStyle().Foreground(colorGray).Italic(true)

	statusInfo    = lipgloss.NewStyle().Foreground(colorBlue)
	statusSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	statusError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

func priorityStyle(p todo.Priority) lipgloss.Style {
	switch p {
	case todo.PriorityHigh:
		return lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	case todo.PriorityMedium:
		return lipgloss.NewStyle().Foreground(colorYellow)
	case todo.PriorityLow:
		return lipgloss.NewStyle().Foreground(colorGreen)
	default:
		return badgeStyle
	}
}
