package models

// Summary aggregates threat counts for display.
type Summary struct {
	ByRiskLevel map[RiskLevel]int
	ByCategory  map[Category]int
	Total       int
}

// Summarize counts the threats of result by risk level and by category.
func Summarize(result *AnalysisResult) Summary {
	s := Summary{
		ByRiskLevel: make(map[RiskLevel]int),
		ByCategory:  make(map[Category]int),
	}
	if result == nil {
		return s
	}
	for _, t := range result.Threats {
		s.Total++
		s.ByRiskLevel[t.RiskLevel]++
		s.ByCategory[t.Category]++
	}
	return s
}

// Merge adds the counts of other into s.
func (s *Summary) Merge(other Summary) {
	if s.ByRiskLevel == nil {
		s.ByRiskLevel = make(map[RiskLevel]int)
	}
	if s.ByCategory == nil {
		s.ByCategory = make(map[Category]int)
	}
	s.Total += other.Total
	for k, v := range other.ByRiskLevel {
		s.ByRiskLevel[k] += v
	}
	for k, v := range other.ByCategory {
		s.ByCategory[k] += v
	}
}
