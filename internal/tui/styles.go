package tui

import "github.com/charmbracelet/lipgloss"

// OpenCode theme colors (dark mode)
var (
	bgColor             = lipgloss.Color("#0a0a0a") // main background
	bgPanelColor        = lipgloss.Color("#141414") // panel background
	backgroundMenuColor = lipgloss.Color("#1e1e1e") // menu background

	borderSubtleColor = lipgloss.Color("#3c3c3c")

	primaryColor   = lipgloss.Color("#fab283") // warm peach
	secondaryColor = lipgloss.Color("#5c9cf5") // blue

	errorColor   = lipgloss.Color("#e06c75")
	successColor = lipgloss.Color("#7fd88f")

	textColor      = lipgloss.Color("#eeeeee")
	textMutedColor = lipgloss.Color("#808080")
)

var baseStyle = lipgloss.NewStyle().Background(bgColor)

var logoStyle = baseStyle.
	Foreground(textColor).
	Bold(true)

var (
	titleStyle = baseStyle.
			Foreground(textColor).
			Bold(true)

	errorStyle = baseStyle.
			Foreground(errorColor)

	helpStyle = baseStyle.
			Foreground(textMutedColor)

	mutedStyle = baseStyle.
			Foreground(textMutedColor)

	userLabelStyle = baseStyle.
			Foreground(secondaryColor).
			Bold(true)

	assistantLabelStyle = baseStyle.
				Foreground(primaryColor).
				Bold(true)

	monitorStyle = lipgloss.NewStyle().
			Background(bgPanelColor).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(borderSubtleColor)

	labelStyle = baseStyle.
			Foreground(primaryColor).
			Bold(true)

	valueStyle = baseStyle.
			Foreground(textMutedColor)

	keyStyle = baseStyle.
			Foreground(textColor).
			Bold(true)

	sidebarStyle = lipgloss.NewStyle().
			Background(bgPanelColor).
			Padding(1, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(borderSubtleColor)

	sidebarHeaderStyle = lipgloss.NewStyle().
				Background(bgPanelColor).
				Foreground(primaryColor).
				Bold(true)

	menuStyle = lipgloss.NewStyle().
			Background(backgroundMenuColor).
			Padding(0, 1)

	menuSelectedStyle = lipgloss.NewStyle().
				Background(backgroundMenuColor).
				Foreground(primaryColor).
				Bold(true)

	toastInfoStyle = lipgloss.NewStyle().
			Foreground(successColor)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

func toastStyle(level ToastLevel) lipgloss.Style {
	if level == ToastError {
		return toastErrorStyle
	}
	return toastInfoStyle
}
