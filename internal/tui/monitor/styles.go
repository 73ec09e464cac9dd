package monitor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hartley/lx/internal/models"
)

var (
	// Base colors
	primaryColor   = lipgloss.Color("212")
	secondaryColor = lipgloss.Color("141")
	mutedColor     = lipgloss.Color("241")
	successColor   = lipgloss.Color("42")
	warningColor   = lipgloss.Color("214")
	errorColor     = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle     = lipgloss.NewStyle().Foreground(errorColor)
	xpStyle        = lipgloss.NewStyle().Foreground(primaryColor)
	streakStyle    = lipgloss.NewStyle().Foreground(warningColor)
	strongStyle    = lipgloss.NewStyle().Foreground(successColor)
	weakStyle      = lipgloss.NewStyle().Foreground(errorColor)

	// Connectivity badges in the footer
	onlineBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(successColor)

	offlineBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(errorColor)

	syncingBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(warningColor)

	// Queue kind badges
	kindStyles = map[models.QueueKind]lipgloss.Style{
		models.KindActivity:         lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.KindAnalytics:        lipgloss.NewStyle().Foreground(secondaryColor),
		models.KindProgressSnapshot: lipgloss.NewStyle().Foreground(successColor),
	}

	// Section headers
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginTop(1)
)

// formatKind renders a queue kind badge
func formatKind(k models.QueueKind) string {
	style, ok := kindStyles[k]
	if !ok {
		return string(k)
	}
	return style.Render("[" + string(k) + "]")
}

// formatDifficulty renders a difficulty tier with color
func formatDifficulty(d models.DifficultyTier) string {
	switch d {
	case models.DifficultyHigh:
		return errorStyle.Render(string(d))
	case models.DifficultyMid:
		return streakStyle.Render(string(d))
	default:
		return subtleStyle.Render(string(d))
	}
}
