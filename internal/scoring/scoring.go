// Package scoring supplies the aggregate risk score when the backend omits it.
package scoring

import (
	"fmt"

	"github.com/joshsymonds/tyr/internal/models"
)

// Weights are the per-threat contributions used by the fallback score.
type Weights struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`
	Cap      float64 `yaml:"cap"`
}

// DefaultWeights returns 25/15/8/3 capped at 100.
func DefaultWeights() Weights {
	return Weights{
		Critical: 25,
		High:     15,
		Medium:   8,
		Low:      3,
		Cap:      100,
	}
}

// Validate checks that no weight is negative and the cap lies in (0,100].
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"critical": w.Critical,
		"high":     w.High,
		"medium":   w.Medium,
		"low":      w.Low,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", name, v)
		}
	}
	if w.Cap <= 0 || w.Cap > 100 {
		return fmt.Errorf("weight cap must be in (0, 100], got %v", w.Cap)
	}
	return nil
}

// For returns the weight contributed by one threat of the given level.
func (w Weights) For(level models.RiskLevel) float64 {
	switch level {
	case models.RiskCritical:
		return w.Critical
	case models.RiskHigh:
		return w.High
	case models.RiskMedium:
		return w.Medium
	case models.RiskLow:
		return w.Low
	default:
		return 0
	}
}

// Scorer computes fallback scores.
type Scorer struct {
	weights Weights
}

// New creates a Scorer using w.
func New(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// NewDefault creates a Scorer with DefaultWeights.
func NewDefault() *Scorer {
	return New(DefaultWeights())
}

// Weights returns the weights in use.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Compute returns the weighted threat score capped at the configured cap.
func (s *Scorer) Compute(threats []models.Threat) float64 {
	total := 0.0
	for _, t := range threats {
		total += s.weights.For(t.RiskLevel)
	}
	if total > s.weights.Cap {
		return s.weights.Cap
	}
	return total
}

// Score returns a copy of result that always carries an overall score in
// [0,100]. A score already present and in range is kept. result itself is
// never modified.
func (s *Scorer) Score(result *models.AnalysisResult) *models.AnalysisResult {
	if result == nil {
		return nil
	}
	if result.HasScore() && InRange(result.Score()) {
		scored := *result
		return &scored
	}
	scored := result.WithScore(s.Compute(result.Threats))
	return &scored
}

// InRange reports whether score is a valid overall risk score.
func InRange(score float64) bool {
	return score >= 0 && score <= 100
}
