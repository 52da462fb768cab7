package display

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gabe/consultant/internal/models"
)

// Styles for status rendering
var (
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5c9cf5"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7fd88f"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e06c75"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c07b"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#56b6c2"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// ProblemStatus renders a problem status with its color
func ProblemStatus(s models.ProblemStatus) string {
	switch s {
	case models.ProblemStatusPending:
		return mutedStyle.Render(string(s))
	case models.ProblemStatusHearing:
		return warnStyle.Render(string(s))
	case models.ProblemStatusProcessing:
		return activeStyle.Render(string(s))
	case models.ProblemStatusDone:
		return successStyle.Render(string(s))
	case models.ProblemStatusFailed:
		return failureStyle.Render(string(s))
	default:
		return string(s)
	}
}

// DocumentStatus renders a document status with its color
func DocumentStatus(s models.DocumentStatus) string {
	switch s {
	case models.DocumentStatusPending:
		return mutedStyle.Render(string(s))
	case models.DocumentStatusProcessing:
		return activeStyle.Render(string(s))
	case models.DocumentStatusDone:
		return successStyle.Render(string(s))
	case models.DocumentStatusFailed:
		return failureStyle.Render(string(s))
	default:
		return string(s)
	}
}

// ID renders an identifier
func ID(id string) string {
	return idStyle.Render(id)
}

// Header renders a bold section header
func Header(s string) string {
	return headerStyle.Render(s)
}

// Muted renders secondary text
func Muted(s string) string {
	return mutedStyle.Render(s)
}
