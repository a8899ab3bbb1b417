package models

import "strings"

// RiskLevel is the ordinal severity of a threat.
type RiskLevel string

// Risk levels. RiskUnknown collects values the backend spelled in a way we
// could not map.
const (
	RiskCritical RiskLevel = "Critical"
	RiskHigh     RiskLevel = "High"
	RiskMedium   RiskLevel = "Medium"
	RiskLow      RiskLevel = "Low"
	RiskUnknown  RiskLevel = "Unknown"
)

// RiskLevels returns the known risk levels from most to least severe.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow}
}

// NormalizeRiskLevel maps free-form backend text onto a RiskLevel.
// Unrecognized values become RiskUnknown.
func NormalizeRiskLevel(value string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical", "very high", "very-high", "veryhigh":
		return RiskCritical
	case "high":
		return RiskHigh
	case "medium", "moderate":
		return RiskMedium
	case "low", "minor":
		return RiskLow
	default:
		return RiskUnknown
	}
}

// ParseRiskLevel parses a user-supplied level such as a CLI threshold.
func ParseRiskLevel(value string) (RiskLevel, bool) {
	level := NormalizeRiskLevel(value)
	return level, level != RiskUnknown
}

// Rank orders levels: Critical is 4, Low is 1 and Unknown is 0.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r is as severe as minimum or more.
func (r RiskLevel) AtLeast(minimum RiskLevel) bool {
	return r.Rank() >= minimum.Rank()
}

// Effort is the implementation cost of a mitigation.
type Effort string

// Mitigation effort levels.
const (
	EffortLow     Effort = "Low"
	EffortMedium  Effort = "Medium"
	EffortHigh    Effort = "High"
	EffortUnknown Effort = "Unknown"
)

// NormalizeEffort maps backend text onto an Effort.
func NormalizeEffort(value string) Effort {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return EffortLow
	case "medium", "moderate":
		return EffortMedium
	case "high":
		return EffortHigh
	default:
		return EffortUnknown
	}
}

// Effectiveness is how fully a mitigation addresses its threat.
type Effectiveness string

// Mitigation effectiveness levels.
const (
	EffectivenessPartial  Effectiveness = "Partial"
	EffectivenessHigh     Effectiveness = "High"
	EffectivenessComplete Effectiveness = "Complete"
	EffectivenessUnknown  Effectiveness = "Unknown"
)

// NormalizeEffectiveness maps backend text onto an Effectiveness.
func NormalizeEffectiveness(value string) Effectiveness {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "partial", "low", "medium":
		return EffectivenessPartial
	case "high":
		return EffectivenessHigh
	case "complete", "full":
		return EffectivenessComplete
	default:
		return EffectivenessUnknown
	}
}
