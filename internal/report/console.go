package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

var (
	headerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")) // Red
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))            // Orange
	mediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))            // Yellow
	lowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))             // Green
	unknownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))            // Gray

	boldStyle  = lipgloss.NewStyle().Bold(true)
	grayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	successIcon = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render("✓")
	failIcon    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
)

// title upper-cases the first letter of each word and leaves the rest alone,
// so acronyms such as API survive. Casers carry state, so each call gets its
// own.
func title(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

// RiskStyle returns the fixed colour style for a risk level.
func RiskStyle(level models.RiskLevel) lipgloss.Style {
	switch level {
	case models.RiskCritical:
		return criticalStyle
	case models.RiskHigh:
		return highStyle
	case models.RiskMedium:
		return mediumStyle
	case models.RiskLow:
		return lowStyle
	default:
		return unknownStyle
	}
}

// ConsoleFormat renders human-readable terminal output.
type ConsoleFormat struct {
	logger  logger.Logger
	minRisk models.RiskLevel
}

// NewConsoleFormat creates a console renderer.
func NewConsoleFormat(opts Options) *ConsoleFormat {
	return &ConsoleFormat{logger: loggerFrom(opts), minRisk: opts.MinRisk}
}

// Name returns the format identifier.
func (f *ConsoleFormat) Name() string { return FormatConsole }

// Description returns a human-readable description.
func (f *ConsoleFormat) Description() string {
	return "Colorized terminal report"
}

// Extension returns the file extension used when writing to disk.
func (f *ConsoleFormat) Extension() string { return ".txt" }

// Render writes result to w.
func (f *ConsoleFormat) Render(w io.Writer, result *models.AnalysisResult) error {
	if result == nil {
		return ErrNilResult
	}
	var b strings.Builder
	f.writeResult(&b, result)
	f.logger.Debug("Rendered console report", "threats", len(result.Threats))
	_, err := io.WriteString(w, b.String())
	return err
}

func (f *ConsoleFormat) writeResult(b *strings.Builder, result *models.AnalysisResult) {
	b.WriteString(headerStyle.Render(titleStyle.Render("STRIDE Threat Analysis")))
	b.WriteString("\n")

	meta := make([]string, 0, 4)
	if result.InputType != "" {
		meta = append(meta, "Input: "+title(result.InputType.Description()))
	}
	if result.Provider != "" {
		meta = append(meta, "Provider: "+result.Provider)
	}
	if !result.AnalyzedAt.IsZero() {
		meta = append(meta, "Analyzed: "+result.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if result.ID != "" {
		meta = append(meta, "ID: "+result.ID)
	}
	if len(meta) > 0 {
		b.WriteString(grayStyle.Render(strings.Join(meta, "  ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	score := result.Score()
	fmt.Fprintf(b, "%s %s\n",
		boldStyle.Render("Overall Risk Score:"),
		RiskStyle(ScoreBand(score)).Render(formatScore(score)+"/100"))

	summary := models.Summarize(result)
	fmt.Fprintf(b, "%s %d\n", boldStyle.Render("Threats:"), summary.Total)
	f.writeCounts(b, summary)
	b.WriteString("\n")

	shown := listed(result.Threats, f.minRisk)
	if len(shown) < len(result.Threats) {
		b.WriteString(grayStyle.Render(fmt.Sprintf("Showing %d of %d threats at or above %s", len(shown), len(result.Threats), f.minRisk)))
		b.WriteString("\n\n")
	}

	for i, t := range shown {
		f.writeThreat(b, i+1, t)
	}

	if len(result.Recommendations) > 0 {
		b.WriteString(titleStyle.Render("Recommendations"))
		b.WriteString("\n")
		for i, r := range result.Recommendations {
			fmt.Fprintf(b, "  %d. %s\n", i+1, r)
		}
	}
}

func (f *ConsoleFormat) writeCounts(b *strings.Builder, summary models.Summary) {
	levels := make([]string, 0, 5)
	for _, level := range models.RiskLevels() {
		levels = append(levels, RiskStyle(level).Render(fmt.Sprintf("%s %d", level, summary.ByRiskLevel[level])))
	}
	if n := summary.ByRiskLevel[models.RiskUnknown]; n > 0 {
		levels = append(levels, unknownStyle.Render(fmt.Sprintf("Unknown %d", n)))
	}
	b.WriteString("  " + strings.Join(levels, "  ") + "\n")

	categories := make([]string, 0, 7)
	for _, c := range append(models.Categories(), models.CategoryUnknown) {
		if n := summary.ByCategory[c]; n > 0 {
			categories = append(categories, fmt.Sprintf("%s %d", c.DisplayName(), n))
		}
	}
	if len(categories) > 0 {
		b.WriteString("  " + grayStyle.Render(strings.Join(categories, "  ")) + "\n")
	}
}

func (f *ConsoleFormat) writeThreat(b *strings.Builder, n int, t models.Threat) {
	style := RiskStyle(t.RiskLevel)
	fmt.Fprintf(b, "%d. %s %s %s\n", n, style.Render("["+string(t.RiskLevel)+"]"), boldStyle.Render(t.ID), t.Title)
	fmt.Fprintf(b, "   Category: %s\n", t.Category.DisplayName())
	if t.Description != "" {
		fmt.Fprintf(b, "   %s\n", t.Description)
	}
	if t.Impact != "" {
		fmt.Fprintf(b, "   Impact: %s\n", t.Impact)
	}
	if len(t.AttackPath) > 0 {
		b.WriteString("   Attack path:\n")
		for i, step := range t.AttackPath {
			fmt.Fprintf(b, "     %d. %s\n", i+1, step)
		}
	}
	if len(t.AffectedComponents) > 0 {
		fmt.Fprintf(b, "   Affected: %s\n", strings.Join(t.AffectedComponents, ", "))
	}
	if len(t.Mitigations) > 0 {
		b.WriteString("   Mitigations:\n")
		for _, m := range t.Mitigations {
			fmt.Fprintf(b, "     - %s %s\n", m.Title,
				grayStyle.Render(fmt.Sprintf("(effort: %s, effectiveness: %s)", m.Effort, m.Effectiveness)))
			if m.Description != "" {
				fmt.Fprintf(b, "       %s\n", m.Description)
			}
		}
	}
	if t.EducationalNote != "" {
		fmt.Fprintf(b, "   %s %s\n", titleStyle.Render("Learn:"), t.EducationalNote)
	}
	b.WriteString("\n")
}

// RenderBatch writes one line per file followed by an aggregate summary.
func (f *ConsoleFormat) RenderBatch(w io.Writer, batch *models.BatchResult) error {
	if batch == nil {
		return ErrNilResult
	}
	var b strings.Builder

	b.WriteString(headerStyle.Render(titleStyle.Render("STRIDE Batch Scan")))
	b.WriteString("\n")
	b.WriteString(grayStyle.Render(fmt.Sprintf("Run: %s  Directory: %s  Pattern: %s", batch.RunID, batch.Directory, batch.Pattern)))
	b.WriteString("\n\n")

	entries := batchEntries(batch)
	for _, e := range entries {
		if e.err != nil {
			fmt.Fprintf(&b, "%s %s %s\n", failIcon, e.path, errorStyle.Render(fmt.Sprintf("[%s] %s", e.err.Kind, e.err.Message)))
			continue
		}
		r := e.result.Result
		score := r.Score()
		fmt.Fprintf(&b, "%s %s %s %s\n", successIcon, e.path,
			grayStyle.Render(fmt.Sprintf("(%s, %d threats)", e.result.InputType, len(r.Threats))),
			RiskStyle(ScoreBand(score)).Render(formatScore(score)+"/100"))
	}
	b.WriteString("\n")

	summary := batch.Summary()
	fmt.Fprintf(&b, "%s %d of %d files succeeded\n", boldStyle.Render("Result:"), batch.Succeeded(), batch.Total())
	fmt.Fprintf(&b, "%s %d\n", boldStyle.Render("Threats:"), summary.Total)
	f.writeCounts(&b, summary)

	if f.minRisk != "" {
		for _, e := range entries {
			if e.result == nil {
				continue
			}
			shown := listed(e.result.Result.Threats, f.minRisk)
			if len(shown) == 0 {
				continue
			}
			b.WriteString("\n" + titleStyle.Render(e.path) + "\n")
			for i, t := range shown {
				f.writeThreat(&b, i+1, t)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

type batchEntry struct {
	result *models.FileResult
	err    *models.FileError
	path   string
}

// batchEntries interleaves results and errors back into path order.
func batchEntries(batch *models.BatchResult) []batchEntry {
	entries := make([]batchEntry, 0, batch.Total())
	i, j := 0, 0
	for i < len(batch.Results) || j < len(batch.Errors) {
		switch {
		case j >= len(batch.Errors) || (i < len(batch.Results) && batch.Results[i].Path < batch.Errors[j].Path):
			entries = append(entries, batchEntry{result: &batch.Results[i], path: batch.Results[i].Path})
			i++
		default:
			entries = append(entries, batchEntry{err: &batch.Errors[j], path: batch.Errors[j].Path})
			j++
		}
	}
	return entries
}
