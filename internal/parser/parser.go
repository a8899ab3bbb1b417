// Package parser turns raw backend text into a validated AnalysisResult.
//
// The policy is deliberately asymmetric: a response without a threats array
// fails with a malformed ParseError, while field-level drift such as an
// unrecognized risk level is normalized and logged.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joshsymonds/tyr/internal/models"
	"github.com/joshsymonds/tyr/pkg/logger"
)

// Parser validates backend responses.
type Parser struct {
	logger logger.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for drift warnings.
func WithLogger(log logger.Logger) Option {
	return func(p *Parser) {
		p.logger = log
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{logger: logger.GetGlobalLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse validates raw with a default Parser.
func Parse(raw string) (*models.AnalysisResult, error) {
	return New().Parse(raw)
}

// Parse extracts and validates an AnalysisResult from raw backend text.
func (p *Parser) Parse(raw string) (*models.AnalysisResult, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	threatsRaw, ok := obj["threats"]
	if !ok || isNull(threatsRaw) {
		return nil, malformed("response has no threats array")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(threatsRaw, &items); err != nil {
		pe := malformed("threats is not an array")
		pe.Err = err
		return nil, pe
	}

	result := &models.AnalysisResult{
		Threats: make([]models.Threat, 0, len(items)),
	}

	ids := make(map[string]bool, len(items))
	for i, item := range items {
		threat, ok := p.threat(i, item)
		if !ok {
			continue
		}
		threat.ID = uniqueID(threat.ID, i, ids)
		result.Threats = append(result.Threats, threat)
	}

	if scoreRaw, ok := obj["overall_risk_score"]; ok && !isNull(scoreRaw) {
		var score float64
		if err := json.Unmarshal(scoreRaw, &score); err != nil {
			p.logger.Warn("Ignoring mis-typed overall_risk_score", "value", string(scoreRaw))
		} else {
			result.OverallRiskScore = &score
		}
	}

	result.Recommendations = p.stringList("recommendations", obj["recommendations"])

	return result, nil
}

// decodeObject parses raw as a JSON object, falling back to the first
// balanced {...} block that decodes when raw carries prose or code fences.
func decodeObject(raw string) (map[string]json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, malformed("empty response")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
		return obj, nil
	}

	for from := 0; from < len(trimmed); {
		block, next, ok := extractObject(trimmed, from)
		if ok {
			obj = nil
			if err := json.Unmarshal([]byte(block), &obj); err == nil && obj != nil {
				return obj, nil
			}
		}
		from = next
	}

	return nil, malformed("no JSON object found in response")
}

func (p *Parser) threat(index int, raw json.RawMessage) (models.Threat, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		p.logger.Warn("Skipping threat entry that is not an object", "index", index)
		return models.Threat{}, false
	}

	t := models.Threat{
		ID:                 p.identifier(fields["id"]),
		Title:              p.str(fields, "title"),
		Description:        p.str(fields, "description"),
		Impact:             p.str(fields, "impact"),
		EducationalNote:    p.str(fields, "educational_note"),
		AttackPath:         p.stringList("attack_path", fields["attack_path"]),
		AffectedComponents: dedupe(p.stringList("affected_components", fields["affected_components"])),
		Mitigations:        p.mitigations(fields["mitigations"]),
	}

	category := p.str(fields, "category")
	t.Category = models.NormalizeCategory(category)
	if t.Category == models.CategoryUnknown && category != "" {
		p.logger.Warn("Unrecognized threat category", "index", index, "category", category)
	}

	risk := p.str(fields, "risk_level")
	t.RiskLevel = models.NormalizeRiskLevel(risk)
	if t.RiskLevel == models.RiskUnknown && risk != "" {
		p.logger.Warn("Unrecognized risk level", "index", index, "risk_level", risk)
	}

	return t, true
}

func (p *Parser) mitigations(raw json.RawMessage) []models.Mitigation {
	if raw == nil || isNull(raw) {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		p.logger.Warn("Ignoring mitigations that are not an array")
		return nil
	}

	out := make([]models.Mitigation, 0, len(items))
	for _, item := range items {
		var title string
		if json.Unmarshal(item, &title) == nil {
			out = append(out, models.Mitigation{
				Title:         title,
				Effort:        models.EffortUnknown,
				Effectiveness: models.EffectivenessUnknown,
			})
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			p.logger.Warn("Skipping mitigation that is not an object")
			continue
		}
		out = append(out, models.Mitigation{
			Title:         p.str(fields, "title"),
			Description:   p.str(fields, "description"),
			Effort:        models.NormalizeEffort(p.str(fields, "effort")),
			Effectiveness: models.NormalizeEffectiveness(p.str(fields, "effectiveness")),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// str returns a string field, or "" when it is absent or not a string.
func (p *Parser) str(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		p.logger.Warn("Ignoring mis-typed field", "field", key, "value", string(raw))
		return ""
	}
	return s
}

// identifier accepts string or numeric ids.
func (p *Parser) identifier(raw json.RawMessage) string {
	if raw == nil || isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	p.logger.Warn("Ignoring mis-typed threat id", "value", string(raw))
	return ""
}

// stringList accepts an array of strings, dropping non-string elements. A bare
// string is treated as a one-element list.
func (p *Parser) stringList(field string, raw json.RawMessage) []string {
	if raw == nil || isNull(raw) {
		return nil
	}

	var single string
	if json.Unmarshal(raw, &single) == nil {
		return []string{single}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		p.logger.Warn("Ignoring mis-typed list", "field", field)
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			p.logger.Warn("Dropping non-string list element", "field", field, "value", string(item))
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// uniqueID synthesizes an id for unnamed threats and suffixes duplicates.
func uniqueID(id string, index int, seen map[string]bool) string {
	if id == "" {
		id = fmt.Sprintf("T%03d", index+1)
	}
	candidate := id
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	seen[candidate] = true
	return candidate
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
