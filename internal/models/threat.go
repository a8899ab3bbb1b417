// Package models contains the threat analysis data structures shared by the
// parser, scorer, reporters and batch scanner.
package models

import "time"

// Mitigation is a countermeasure proposed for a threat.
type Mitigation struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Effort        Effort        `json:"effort"`
	Effectiveness Effectiveness `json:"effectiveness"`
}

// Threat is a single STRIDE-categorized threat.
type Threat struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Category           Category     `json:"category"`
	RiskLevel          RiskLevel    `json:"risk_level"`
	Description        string       `json:"description"`
	Impact             string       `json:"impact,omitempty"`
	AttackPath         []string     `json:"attack_path,omitempty"`
	AffectedComponents []string     `json:"affected_components,omitempty"`
	Mitigations        []Mitigation `json:"mitigations,omitempty"`
	EducationalNote    string       `json:"educational_note,omitempty"`
}

// AnalysisResult is the validated outcome of one analysis. It is treated as a
// value object: nothing downstream of the parser modifies it in place.
//
// Only Threats, OverallRiskScore and Recommendations are serialized; the
// remaining fields describe the run that produced the result.
type AnalysisResult struct {
	AnalyzedAt       time.Time `json:"-"`
	OverallRiskScore *float64  `json:"overall_risk_score"`
	ID               string    `json:"-"`
	InputType        InputType `json:"-"`
	Provider         string    `json:"-"`
	Threats          []Threat  `json:"threats"`
	Recommendations  []string  `json:"recommendations,omitempty"`
}

// HasScore reports whether an overall score has been assigned.
func (r *AnalysisResult) HasScore() bool {
	return r.OverallRiskScore != nil
}

// Score returns the overall risk score, or 0 when none has been assigned.
func (r *AnalysisResult) Score() float64 {
	if r.OverallRiskScore == nil {
		return 0
	}
	return *r.OverallRiskScore
}

// WithScore returns a copy of r carrying score.
func (r AnalysisResult) WithScore(score float64) AnalysisResult {
	r.OverallRiskScore = &score
	return r
}

// HighestRisk returns the most severe risk level among the threats.
func (r *AnalysisResult) HighestRisk() RiskLevel {
	highest := RiskUnknown
	for _, t := range r.Threats {
		if t.RiskLevel.Rank() > highest.Rank() {
			highest = t.RiskLevel
		}
	}
	return highest
}

// CountAtOrAbove counts threats at level or more severe.
func (r *AnalysisResult) CountAtOrAbove(level RiskLevel) int {
	n := 0
	for _, t := range r.Threats {
		if t.RiskLevel != RiskUnknown && t.RiskLevel.AtLeast(level) {
			n++
		}
	}
	return n
}
