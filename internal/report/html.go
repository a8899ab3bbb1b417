package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

//go:embed templates/*
var templateFS embed.FS

// HTMLFormat renders a single self-contained HTML document with inline
// styles and no external resources.
type HTMLFormat struct {
	logger  logger.Logger
	tmpl    *template.Template
	now     func() time.Time
	minRisk models.RiskLevel
}

// NewHTMLFormat parses the embedded templates.
func NewHTMLFormat(opts Options) (*HTMLFormat, error) {
	tmpl, err := template.New("report").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &HTMLFormat{
		logger:  loggerFrom(opts),
		tmpl:    tmpl,
		now:     time.Now,
		minRisk: opts.MinRisk,
	}, nil
}

// Name returns the format identifier.
func (f *HTMLFormat) Name() string { return FormatHTML }

// Description returns a human-readable description.
func (f *HTMLFormat) Description() string {
	return "Self-contained HTML report for offline sharing"
}

// Extension returns the file extension used when writing to disk.
func (f *HTMLFormat) Extension() string { return ".html" }

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"riskClass": func(level models.RiskLevel) string {
			return "risk-" + strings.ToLower(string(level))
		},
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04:05 UTC")
		},
		"title":      title,
		"join":       strings.Join,
		"riskLevels": models.RiskLevels,
		"categories": models.Categories,
	}
}

// htmlDocument holds all data for the report template.
type htmlDocument struct {
	GeneratedAt time.Time
	Batch       *htmlBatch
	Title       string
	Sections    []htmlSection
}

type htmlSection struct {
	Result    *models.AnalysisResult
	Summary   models.Summary
	Heading   string
	Score     string
	ScoreBand models.RiskLevel
	MinRisk   models.RiskLevel
	Threats   []models.Threat
	Hidden    int
	Unknown   int
}

type htmlBatch struct {
	RunID     string
	Directory string
	Pattern   string
	Rows      []htmlRow
	Total     int
	Succeeded int
}

type htmlRow struct {
	Error     *models.FileError
	Path      string
	InputType string
	Score     string
	Threats   int
}

func (f *HTMLFormat) section(heading string, result *models.AnalysisResult) htmlSection {
	shown := listed(result.Threats, f.minRisk)
	summary := models.Summarize(result)
	return htmlSection{
		Heading:   heading,
		Result:    result,
		Summary:   summary,
		Score:     formatScore(result.Score()),
		ScoreBand: ScoreBand(result.Score()),
		MinRisk:   f.minRisk,
		Threats:   shown,
		Hidden:    len(result.Threats) - len(shown),
		Unknown:   summary.ByRiskLevel[models.RiskUnknown],
	}
}

// Render writes result as an HTML document.
func (f *HTMLFormat) Render(w io.Writer, result *models.AnalysisResult) error {
	if result == nil {
		return ErrNilResult
	}
	doc := htmlDocument{
		Title:       "STRIDE Threat Analysis",
		GeneratedAt: f.now(),
		Sections:    []htmlSection{f.section("", result)},
	}
	return f.execute(w, doc)
}

// RenderBatch writes one document with a table of files and a section per
// successful file.
func (f *HTMLFormat) RenderBatch(w io.Writer, batch *models.BatchResult) error {
	if batch == nil {
		return ErrNilResult
	}

	hb := &htmlBatch{
		RunID:     batch.RunID,
		Directory: batch.Directory,
		Pattern:   batch.Pattern,
		Total:     batch.Total(),
		Succeeded: batch.Succeeded(),
	}
	doc := htmlDocument{
		Title:       "STRIDE Batch Scan",
		GeneratedAt: f.now(),
		Batch:       hb,
	}

	for _, e := range batchEntries(batch) {
		if e.err != nil {
			hb.Rows = append(hb.Rows, htmlRow{Path: e.path, Error: e.err})
			continue
		}
		r := e.result.Result
		hb.Rows = append(hb.Rows, htmlRow{
			Path:      e.path,
			InputType: string(e.result.InputType),
			Threats:   len(r.Threats),
			Score:     formatScore(r.Score()),
		})
		doc.Sections = append(doc.Sections, f.section(e.path, r))
	}

	return f.execute(w, doc)
}

func (f *HTMLFormat) execute(w io.Writer, doc htmlDocument) error {
	// Render to a buffer so a template failure never leaves a partial file.
	var buf bytes.Buffer
	if err := f.tmpl.ExecuteTemplate(&buf, "report.html", doc); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	size := buf.Len()
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing HTML report: %w", err)
	}
	f.logger.Debug("Rendered HTML report", "sections", len(doc.Sections), "bytes", size)
	return nil
}
