package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// jsonResult fixes the field order of the analysis document.
type jsonResult struct {
	Threats          []models.Threat `json:"threats"`
	OverallRiskScore *float64        `json:"overall_risk_score"`
	Recommendations  []string        `json:"recommendations,omitempty"`
}

type jsonFile struct {
	Path      string           `json:"path"`
	InputType models.InputType `json:"input_type"`
	Result    jsonResult       `json:"result"`
}

type jsonBatch struct {
	RunID     string             `json:"run_id"`
	Directory string             `json:"directory"`
	Pattern   string             `json:"pattern"`
	Files     []jsonFile         `json:"files"`
	Errors    []models.FileError `json:"errors"`
}

func toJSONResult(r *models.AnalysisResult) jsonResult {
	threats := r.Threats
	if threats == nil {
		threats = []models.Threat{}
	}
	return jsonResult{
		Threats:          threats,
		OverallRiskScore: r.OverallRiskScore,
		Recommendations:  r.Recommendations,
	}
}

// JSONFormat renders the canonical machine-readable document.
type JSONFormat struct {
	logger logger.Logger
}

// NewJSONFormat creates a JSON renderer. MinRisk is ignored: the JSON
// document always carries every threat.
func NewJSONFormat(opts Options) *JSONFormat {
	return &JSONFormat{logger: loggerFrom(opts)}
}

// Name returns the format identifier.
func (f *JSONFormat) Name() string { return FormatJSON }

// Description returns a human-readable description.
func (f *JSONFormat) Description() string {
	return "Canonical JSON document for CI gating and diffing"
}

// Extension returns the file extension used when writing to disk.
func (f *JSONFormat) Extension() string { return ".json" }

// Render writes result as indented JSON.
func (f *JSONFormat) Render(w io.Writer, result *models.AnalysisResult) error {
	if result == nil {
		return ErrNilResult
	}
	return encode(w, toJSONResult(result))
}

// RenderBatch writes the batch document.
func (f *JSONFormat) RenderBatch(w io.Writer, batch *models.BatchResult) error {
	if batch == nil {
		return ErrNilResult
	}

	doc := jsonBatch{
		RunID:     batch.RunID,
		Directory: batch.Directory,
		Pattern:   batch.Pattern,
		Files:     make([]jsonFile, 0, len(batch.Results)),
		Errors:    batch.Errors,
	}
	if doc.Errors == nil {
		doc.Errors = []models.FileError{}
	}
	for _, fr := range batch.Results {
		doc.Files = append(doc.Files, jsonFile{
			Path:      fr.Path,
			InputType: fr.InputType,
			Result:    toJSONResult(fr.Result),
		})
	}

	f.logger.Debug("Rendering batch JSON", "files", len(doc.Files), "errors", len(doc.Errors))
	return encode(w, doc)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}
