package bubbletea

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/tyr/internal/models"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")) // Cyan

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	riskStyles = map[models.RiskLevel]lipgloss.Style{
		models.RiskCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.RiskHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.RiskMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		models.RiskLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	}

	successIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render("✓")
	failIcon    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	runningIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Render("⟳")
	pendingIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("○")

	boldStyle  = lipgloss.NewStyle().Bold(true)
	grayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// View renders the entire UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderFiles(),
		m.renderSummary(),
	}
	if m.errors.Len() > 0 {
		sections = append(sections, m.renderErrors())
	}
	if m.showFinalSummary {
		sections = append(sections, m.renderBox("Scan Complete", m.finalMessage))
	}

	nonEmpty := sections[:0]
	for _, s := range sections {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, nonEmpty...)
}

func (m Model) renderHeader() string {
	elapsed := m.now().Sub(m.startTime).Round(time.Second)

	lines := []string{
		fmt.Sprintf("Directory: %s | Pattern: %s", m.directory, m.pattern),
		fmt.Sprintf("Provider: %s | Run: %s | Elapsed: %s", m.provider, m.runID, elapsed),
	}
	if len(m.files) > m.infoMaxHeight {
		lines = append(lines, grayStyle.Render("Navigation: ↑↓/jk = scroll, g/G = top/bottom, PgUp/PgDn = page, q = quit"))
	} else {
		lines = append(lines, grayStyle.Render("Press q or Ctrl+C to quit"))
	}
	return m.renderBox("Tyr Threat Scan", lines)
}

func (m Model) renderFiles() string {
	if len(m.files) == 0 {
		return ""
	}

	offset := min(m.infoScrollOffset, m.maxScroll())
	end := min(offset+m.infoMaxHeight, len(m.files))

	rows := make([][]string, 0, end-offset)
	for _, f := range m.files[offset:end] {
		rows = append(rows, []string{
			f.Path,
			formatStatus(f.Status),
			formatDuration(f.Duration),
			formatOutcome(f),
		})
	}

	table := Table{
		Headers: []string{"File", "Status", "Time", "Result"},
		Fixed:   []int{32, 10, 7, 0},
		Rows:    rows,
		Width:   m.boxWidth(),
	}

	title := "Files"
	if len(m.files) > m.infoMaxHeight {
		title = fmt.Sprintf("Files (%d-%d of %d)", offset+1, end, len(m.files))
	}
	return m.renderBox(title, []string{table.Render()})
}

func (m Model) renderSummary() string {
	s := m.Summary()
	done, failed, total := m.Counts()

	parts := []string{
		boldStyle.Render(fmt.Sprintf("Files: %d/%d", done, total)),
		boldStyle.Render(fmt.Sprintf("Threats: %d", s.Total)),
	}
	for _, level := range []models.RiskLevel{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow} {
		if n := s.ByRiskLevel[level]; n > 0 {
			parts = append(parts, riskStyles[level].Render(fmt.Sprintf("%s: %d", level, n)))
		}
	}
	if failed > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("Failed: %d", failed)))
	}
	return m.renderBox("Threat Summary", []string{strings.Join(parts, "  ")})
}

func (m Model) renderErrors() string {
	entries := m.errors.Items()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = errorStyle.Render(fmt.Sprintf("[%s] %s: %s", e.Kind, e.Path, e.Message))
	}
	return m.renderBox("Recent Errors", lines)
}

func (m Model) renderBox(title string, lines []string) string {
	return boxStyle.
		Width(m.boxWidth()).
		Render(titleStyle.Render(title) + "\n\n" + strings.Join(lines, "\n"))
}

func (m Model) boxWidth() int {
	const maxWidth = 120
	if m.width < maxWidth {
		return m.width - 2
	}
	return maxWidth
}

func formatStatus(status FileStatus) string {
	switch status {
	case FileStatusRunning:
		return runningIcon + " Running"
	case FileStatusSuccess:
		return successIcon + " Done"
	case FileStatusFailed:
		return failIcon + " Failed"
	default:
		return pendingIcon + " Pending"
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// formatOutcome summarizes a finished file as threat counts and score.
func formatOutcome(f FileState) string {
	switch f.Status {
	case FileStatusFailed:
		return fmt.Sprintf("[%s] %s", f.Kind, f.Message)
	case FileStatusSuccess:
		if f.Result == nil || len(f.Result.Threats) == 0 {
			return "No threats"
		}
		s := models.Summarize(f.Result)
		var parts []string
		for _, level := range []models.RiskLevel{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow} {
			if n := s.ByRiskLevel[level]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(string(level))))
			}
		}
		if len(parts) == 0 {
			return fmt.Sprintf("%d threats (score %s)", s.Total, formatScore(f.Result.Score()))
		}
		return fmt.Sprintf("%d threats: %s (score %s)", s.Total, strings.Join(parts, ", "), formatScore(f.Result.Score()))
	case FileStatusRunning:
		return "Analyzing..."
	default:
		return ""
	}
}

func formatScore(score float64) string {
	return fmt.Sprintf("%g", score)
}
