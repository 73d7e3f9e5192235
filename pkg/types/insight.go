// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperInsight is the structured analysis of a single paper. Every field is
// always populated: a failed generation yields a fallback value with
// MethodologyScore 0.
type PaperInsight struct {
	Background          string   `json:"background" yaml:"background"`
	Methods             string   `json:"methods" yaml:"methods"`
	Results             string   `json:"results" yaml:"results"`
	Conclusions         string   `json:"conclusions" yaml:"conclusions"`
	KeyFindings         []string `json:"key_findings" yaml:"key_findings"`
	MethodologyScore    int      `json:"methodology_score" yaml:"methodology_score"`
	MethodologyCritique string   `json:"methodology_critique" yaml:"methodology_critique"`
}

// Failed reports whether the insight is a fallback produced after a
// generation failure. Valid scores are 1-10.
func (p PaperInsight) Failed() bool {
	return p.MethodologyScore == 0
}

// Rigor is a coarse label for a methodology score.
type Rigor string

const (
	RigorHigh   Rigor = "high"
	RigorMedium Rigor = "medium"
	RigorLow    Rigor = "low"
)

// Rigor buckets the methodology score: 8 and above is high, 5 and above
// medium, anything else low.
func (p PaperInsight) Rigor() Rigor {
	switch {
	case p.MethodologyScore >= 8:
		return RigorHigh
	case p.MethodologyScore >= 5:
		return RigorMedium
	default:
		return RigorLow
	}
}

// ComparisonInsight is the cross-paper analysis of two or more papers.
// TabularData holds a markdown table.
type ComparisonInsight struct {
	Title       string   `json:"title" yaml:"title"`
	Hypothesis  string   `json:"hypothesis" yaml:"hypothesis"`
	Methodology string   `json:"methodology" yaml:"methodology"`
	TabularData string   `json:"tabular_data" yaml:"tabular_data"`
	Conclusion  string   `json:"conclusion" yaml:"conclusion"`
	KeyFindings []string `json:"key_findings" yaml:"key_findings"`
}
