// Package output provides styled terminal output helpers (success,
// error, profile and leaderboard formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/hartley/lx/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	xpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	localStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)
)

func init() {
	// Piped output gets plain text
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// OutputMode determines output format
type OutputMode int

const (
	ModeShort OutputMode = iota
	ModeLong
	ModeJSON
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidInput  = "invalid_input"
	ErrCodeDuplicate     = "duplicate"
	ErrCodeDatabaseError = "database_error"
	ErrCodeSyncError     = "sync_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	fmt.Printf(`{"error":{"code":"%s","message":"%s"}}`, code, message)
	fmt.Println()
}

// FormatXP formats an XP amount
func FormatXP(xp int) string {
	return xpStyle.Render(fmt.Sprintf("%d XP", xp))
}

// FormatLevel renders a level with progress toward the next one
func FormatLevel(totalXP int) string {
	level := models.LevelForXP(totalXP)
	into := totalXP % models.XPPerLevel
	return fmt.Sprintf("%s %s", titleStyle.Render(fmt.Sprintf("Level %d", level)),
		subtleStyle.Render(fmt.Sprintf("(%d/%d to next)", into, models.XPPerLevel)))
}

// FormatProfile renders the full profile view
func FormatProfile(p *models.Profile) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(p.DisplayName))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s  %s\n", FormatLevel(p.TotalXP), FormatXP(p.TotalXP)))
	sb.WriteString(fmt.Sprintf("Streak: %s", FormatStreak(p.StreakDays)))
	if p.LastActive != nil {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf("  last active %s", FormatTimeAgo(*p.LastActive))))
	}
	sb.WriteString("\n")

	if len(p.Subjects) > 0 {
		sb.WriteString(SectionHeader("subjects"))
		for _, subject := range sortedSubjects(p) {
			s := p.Subjects[subject]
			sb.WriteString(fmt.Sprintf("  %s  %d done, avg %.1f, %s\n",
				titleStyle.Render(subject), s.QuizzesCompleted, s.AverageScore, FormatXP(s.SubjectXP)))
			if len(s.WeakTopics) > 0 {
				sb.WriteString(warningStyle.Render(fmt.Sprintf("    weak: %s", strings.Join(s.WeakTopics, ", "))))
				sb.WriteString("\n")
			}
			if len(s.StrongTopics) > 0 {
				sb.WriteString(successStyle.Render(fmt.Sprintf("    strong: %s", strings.Join(s.StrongTopics, ", "))))
				sb.WriteString("\n")
			}
		}
	}

	if len(p.Achievements) > 0 {
		sb.WriteString(SectionHeader("achievements"))
		for _, a := range p.Achievements {
			sb.WriteString(FormatAchievement(&a))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func sortedSubjects(p *models.Profile) []string {
	subjects := make([]string, 0, len(p.Subjects))
	for s := range p.Subjects {
		subjects = append(subjects, s)
	}
	for i := 1; i < len(subjects); i++ {
		for j := i; j > 0 && subjects[j] < subjects[j-1]; j-- {
			subjects[j], subjects[j-1] = subjects[j-1], subjects[j]
		}
	}
	return subjects
}

// FormatStreak formats a streak day count
func FormatStreak(days int) string {
	switch {
	case days <= 0:
		return subtleStyle.Render("none")
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// FormatAchievement formats one unlocked achievement line
func FormatAchievement(a *models.Achievement) string {
	return fmt.Sprintf("  %s %s %s",
		successStyle.Render("★"),
		titleStyle.Render(a.Name),
		subtleStyle.Render(fmt.Sprintf("(%s, %s)", a.Category, a.UnlockedAt.Format("2006-01-02"))))
}

// FormatLeaderboard renders ranked entries, marking the local row
func FormatLeaderboard(entries []models.LeaderboardEntry, scope models.LeaderboardScope) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Leaderboard (%s)", scope)))
	sb.WriteString("\n")
	for _, e := range entries {
		name := e.DisplayName
		if e.Local {
			name = localStyle.Render(name + " (you)")
		}
		sb.WriteString(fmt.Sprintf("  %2d. %s  %s\n", e.Rank, name, FormatXP(e.XP)))
	}
	return sb.String()
}

// FormatSyncStatus renders the outbox status snapshot
func FormatSyncStatus(s models.SyncStatusSnapshot) string {
	var parts []string
	if s.Online {
		parts = append(parts, onlineStyle.Render("online"))
	} else {
		parts = append(parts, errorStyle.Render("offline"))
	}
	if s.SyncInProgress {
		parts = append(parts, warningStyle.Render("syncing"))
	}
	parts = append(parts, fmt.Sprintf("%d pending", s.PendingCount))
	if s.LastSyncAt != nil {
		parts = append(parts, subtleStyle.Render("last sync "+FormatTimeAgo(*s.LastSyncAt)))
	} else {
		parts = append(parts, subtleStyle.Render("never synced"))
	}
	return strings.Join(parts, "  ")
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}
