package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hartley/lx/internal/models"
)

// renderView renders the complete TUI view
func (m Model) renderView() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	if m.Err != nil {
		return m.renderError()
	}

	if m.ShowHelp {
		return m.renderHelp()
	}

	// Calculate panel heights (3 panels + footer)
	availableHeight := m.Height - 3
	panelHeight := availableHeight / 3

	progress := m.renderProgressPanel(panelHeight)
	queue := m.renderQueuePanel(panelHeight)
	activity := m.renderActivityPanel(panelHeight)

	panels := lipgloss.JoinVertical(lipgloss.Left,
		progress,
		queue,
		activity,
	)

	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, panels, footer)
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder

	s.WriteString("lx monitor (resize for full view)\n\n")

	if m.Profile != nil {
		s.WriteString(fmt.Sprintf("Level %d  %d XP  streak %d\n",
			m.Profile.Level, m.Profile.TotalXP, m.Profile.StreakDays))
	}
	s.WriteString(fmt.Sprintf("Pending: %d\n", m.SyncStatus.PendingCount))

	s.WriteString("\nq:quit r:refresh ?:help")

	return s.String()
}

// renderError renders an error message
func (m Model) renderError() string {
	return fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.Err)
}

// renderProgressPanel renders the profile panel (Panel 1)
func (m Model) renderProgressPanel(height int) string {
	var content strings.Builder

	if m.Profile == nil {
		content.WriteString(subtleStyle.Render("No profile yet — record an activity to start"))
		return m.wrapPanel("PROGRESS", content.String(), height, PanelProgress)
	}

	p := m.Profile
	into := p.TotalXP % models.XPPerLevel

	content.WriteString(fmt.Sprintf("%s  %s  %s\n",
		titleStyle.Render(p.DisplayName),
		xpStyle.Render(fmt.Sprintf("Level %d (%d XP)", p.Level, p.TotalXP)),
		streakStyle.Render(fmt.Sprintf("streak %d", p.StreakDays))))
	content.WriteString(renderXPBar(into, models.XPPerLevel, 30))
	content.WriteString("\n")

	if len(p.Subjects) > 0 {
		content.WriteString(sectionHeader.Render("SUBJECTS:"))
		content.WriteString("\n")
		for subject, s := range p.Subjects {
			line := fmt.Sprintf("  %s  %d done, avg %.1f, %d XP",
				titleStyle.Render(subject), s.QuizzesCompleted, s.AverageScore, s.SubjectXP)
			if len(s.StrongTopics) > 0 {
				line += "  " + strongStyle.Render("+"+strings.Join(s.StrongTopics, ",+"))
			}
			if len(s.WeakTopics) > 0 {
				line += "  " + weakStyle.Render("-"+strings.Join(s.WeakTopics, ",-"))
			}
			content.WriteString(line)
			content.WriteString("\n")
		}
	}

	if len(p.Achievements) > 0 {
		latest := p.Achievements[len(p.Achievements)-1]
		content.WriteString(subtleStyle.Render(fmt.Sprintf("%d achievements, latest: %s", len(p.Achievements), latest.Name)))
		content.WriteString("\n")
	}

	return m.wrapPanel("PROGRESS", content.String(), height, PanelProgress)
}

// renderXPBar draws a fixed-width progress bar toward the next level
func renderXPBar(current, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := current * width / total
	if filled > width {
		filled = width
	}
	bar := xpStyle.Render(strings.Repeat("█", filled)) + subtleStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("  %s %d/%d", bar, current, total)
}

// renderQueuePanel renders the sync queue panel (Panel 2)
func (m Model) renderQueuePanel(height int) string {
	var content strings.Builder

	if len(m.Queue) == 0 {
		content.WriteString(subtleStyle.Render("Queue empty — everything delivered"))
	} else {
		offset := m.ScrollOffset[PanelQueue]
		visible := m.visibleItems(len(m.Queue), offset, height-2)

		for i := offset; i < offset+visible && i < len(m.Queue); i++ {
			item := m.Queue[i]
			content.WriteString(fmt.Sprintf("  %s %s %s\n",
				timestampStyle.Render(item.EnqueuedAt.Local().Format("01-02 15:04")),
				formatKind(item.Kind),
				subtleStyle.Render(fmt.Sprintf("#%d", item.ID))))
		}
	}

	title := fmt.Sprintf("SYNC QUEUE (%d)", len(m.Queue))
	return m.wrapPanel(title, content.String(), height, PanelQueue)
}

// renderActivityPanel renders the recent activity panel (Panel 3)
func (m Model) renderActivityPanel(height int) string {
	var content strings.Builder

	if len(m.Activity) == 0 {
		content.WriteString(subtleStyle.Render("No recorded activity"))
	} else {
		offset := m.ScrollOffset[PanelActivity]
		visible := m.visibleItems(len(m.Activity), offset, height-2)

		for i := offset; i < offset+visible && i < len(m.Activity); i++ {
			content.WriteString(m.formatActivityLine(&m.Activity[i]))
			content.WriteString("\n")
		}
	}

	return m.wrapPanel("RECENT ACTIVITY", content.String(), height, PanelActivity)
}

// formatActivityLine formats a single cached activity record
func (m Model) formatActivityLine(rec *models.ActivityRecord) string {
	return fmt.Sprintf("  %s %s %s %s %s",
		timestampStyle.Render(rec.CompletedAt.Local().Format("01-02 15:04")),
		titleStyle.Render(rec.Subject),
		formatDifficulty(rec.Difficulty),
		fmt.Sprintf("%d/%d", rec.CorrectUnits, rec.TotalUnits),
		subtleStyle.Render(fmt.Sprintf("score %d, %ds", rec.RawScore, rec.ElapsedSeconds)))
}

// renderFooter renders the footer with key bindings and sync state
func (m Model) renderFooter() string {
	keys := helpStyle.Render("q:quit  tab:switch  j/k:scroll  s:sync  r:refresh  ?:help")

	var badge string
	switch {
	case m.SyncStatus.SyncInProgress:
		badge = m.Spinner.View() + syncingBadge.Render(" SYNCING ")
	case m.SyncStatus.Online:
		badge = onlineBadge.Render(" ONLINE ")
	default:
		badge = offlineBadge.Render(" OFFLINE ")
	}

	pending := ""
	if m.SyncStatus.PendingCount > 0 {
		pending = streakStyle.Render(fmt.Sprintf(" %d pending ", m.SyncStatus.PendingCount))
	}

	lastSync := subtleStyle.Render("never synced")
	if m.SyncStatus.LastSyncAt != nil {
		lastSync = timestampStyle.Render("synced " + m.SyncStatus.LastSyncAt.Local().Format("15:04:05"))
	}

	update := ""
	if m.UpdateInfo != nil {
		update = streakStyle.Render(fmt.Sprintf(" %s available ", m.UpdateInfo.LatestVersion))
	}

	padding := m.Width - lipgloss.Width(keys) - lipgloss.Width(update) - lipgloss.Width(badge) - lipgloss.Width(pending) - lipgloss.Width(lastSync) - 2
	if padding < 0 {
		padding = 0
	}

	return fmt.Sprintf(" %s%s%s%s%s%s", keys, strings.Repeat(" ", padding), update, badge, pending, lastSync)
}

// renderHelp renders the help overlay
func (m Model) renderHelp() string {
	help := `
LX MONITOR - Key Bindings

NAVIGATION:
  Tab / Shift+Tab   Switch between panels
  1 / 2 / 3         Jump to panel
  j / k             Scroll viewport

ACTIONS:
  s                 Trigger a sync drain
  r                 Force refresh
  q / Ctrl+C        Quit

Press ? to close help
`
	return helpStyle.Render(help)
}

// wrapPanel wraps content in a panel with title and border
func (m Model) wrapPanel(title, content string, height int, panel Panel) string {
	style := panelStyle
	if m.ActivePanel == panel {
		style = activePanelStyle
	}

	titleStr := panelTitleStyle.Render(title)

	contentWidth := m.Width - 4

	lines := strings.Split(content, "\n")
	contentHeight := height - 3

	for len(lines) < contentHeight {
		lines = append(lines, "")
	}
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}

	for i, line := range lines {
		if lipgloss.Width(line) > contentWidth {
			lines[i] = truncateString(line, contentWidth)
		}
	}

	body := strings.Join(lines, "\n")

	inner := lipgloss.JoinVertical(lipgloss.Left, titleStr, body)

	return style.Width(m.Width - 2).Render(inner)
}

// visibleItems calculates how many items can be shown given scroll offset and height
func (m Model) visibleItems(total, offset, height int) int {
	remaining := total - offset
	if remaining > height {
		return height
	}
	return remaining
}

// truncateString truncates a string to maxLen with ellipsis
func truncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	if len(s) > maxLen-3 {
		return s[:maxLen-3] + "..."
	}
	return s
}
