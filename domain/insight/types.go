package insight

import (
	"fmt"
	"math"
)

// Rating is the shared four-level scale used for model health status and for
// per-metric interpretations
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingModerate  Rating = "moderate"
	RatingPoor      Rating = "poor"
)

// Valid reports whether r is one of the four known ratings
func (r Rating) Valid() bool {
	switch r {
	case RatingExcellent, RatingGood, RatingModerate, RatingPoor:
		return true
	}
	return false
}

// Priority ranks a recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities for display, high first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Factor tags attached to the model health block
const (
	FactorStrongR2            = "strong_r2"
	FactorModerateR2          = "moderate_r2"
	FactorSignificantVars     = "significant_vars"
	FactorFewSignificantVars  = "few_significant_vars"
	FactorModelSignificant    = "model_significant"
	FactorModelNotSignificant = "model_not_significant"
)

// Metric names of the three key insights
const (
	MetricExplanatoryPower     = "explanatory_power"
	MetricVariableSignificance = "variable_significance"
	MetricModelValidity        = "model_validity"
)

// ============================================================================
// INPUT
// ============================================================================

// Summary is everything the synthesizer needs from a regression result
type Summary struct {
	RSquared            float64 `json:"rSquared"`
	AdjustedRSquared    float64 `json:"adjustedRSquared"`
	FTestPValue         float64 `json:"fTestPValue"`
	SignificantVarCount int     `json:"significantVarCount"`
	TotalVarCount       int     `json:"totalVarCount"`
	DependentVariable   string  `json:"dependentVariable"`
	SampleSize          int     `json:"sampleSize,omitempty"` // 0 when unknown
}

// SignificanceRatio is significant/total, or 0 when there are no variables
func (s Summary) SignificanceRatio() float64 {
	if s.TotalVarCount <= 0 {
		return 0
	}
	return float64(s.SignificantVarCount) / float64(s.TotalVarCount)
}

// Validate checks the summary ranges. Synthesize itself never fails; callers
// at the service boundary use this to reject nonsense input.
func (s Summary) Validate() error {
	if !inUnit(s.RSquared) {
		return fmt.Errorf("rSquared must be in [0,1], got %v", s.RSquared)
	}
	if math.IsNaN(s.AdjustedRSquared) || math.IsInf(s.AdjustedRSquared, 0) || s.AdjustedRSquared > 1 {
		return fmt.Errorf("adjustedRSquared must be a finite value <= 1, got %v", s.AdjustedRSquared)
	}
	if !inUnit(s.FTestPValue) {
		return fmt.Errorf("F-test p-value must be in [0,1], got %v", s.FTestPValue)
	}
	if s.TotalVarCount < 0 || s.SignificantVarCount < 0 {
		return fmt.Errorf("variable counts must be non-negative")
	}
	if s.SignificantVarCount > s.TotalVarCount {
		return fmt.Errorf("significant variables (%d) exceed total variables (%d)", s.SignificantVarCount, s.TotalVarCount)
	}
	if s.SampleSize < 0 {
		return fmt.Errorf("sample size must be non-negative")
	}
	return nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// ============================================================================
// OUTPUT
// ============================================================================

// ModelHealth is the composite 0-100 score with its status and factor tags
type ModelHealth struct {
	Score   int      `json:"score"`
	Status  Rating   `json:"status"`
	Factors []string `json:"factors"`
}

// KeyInsight is one headline metric
type KeyInsight struct {
	Metric         string  `json:"metric"`
	Value          float64 `json:"value"`
	Interpretation Rating  `json:"interpretation"`
	Description    string  `json:"description"`
}

// Recommendation is one suggested next action
type Recommendation struct {
	Priority Priority `json:"priority"`
	Action   string   `json:"action"`
	Reason   string   `json:"reason"`
}

// TechnicalNote is one diagnostic finding
type TechnicalNote struct {
	Category    string `json:"category"`
	Finding     string `json:"finding"`
	Implication string `json:"implication"`
}

// Record is the full insight payload, also the wire response of the insight service
type Record struct {
	ModelHealth     ModelHealth      `json:"modelHealth"`
	KeyInsights     []KeyInsight     `json:"keyInsights"`
	Recommendations []Recommendation `json:"recommendations"`
	TechnicalNotes  []TechnicalNote  `json:"technicalNotes"`
}

// Validate is the schema check applied to records that come from outside the
// process (language model replies, remote insight service)
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("insight record is nil")
	}
	if r.ModelHealth.Score < 0 || r.ModelHealth.Score > 100 {
		return fmt.Errorf("modelHealth.score must be in [0,100], got %d", r.ModelHealth.Score)
	}
	if !r.ModelHealth.Status.Valid() {
		return fmt.Errorf("modelHealth.status %q is not a known rating", r.ModelHealth.Status)
	}
	if len(r.KeyInsights) == 0 {
		return fmt.Errorf("keyInsights must not be empty")
	}
	for i, ki := range r.KeyInsights {
		if ki.Metric == "" {
			return fmt.Errorf("keyInsights[%d].metric is empty", i)
		}
		if !ki.Interpretation.Valid() {
			return fmt.Errorf("keyInsights[%d].interpretation %q is not a known rating", i, ki.Interpretation)
		}
	}
	for i, rec := range r.Recommendations {
		if !rec.Priority.Valid() {
			return fmt.Errorf("recommendations[%d].priority %q is not a known priority", i, rec.Priority)
		}
		if rec.Action == "" {
			return fmt.Errorf("recommendations[%d].action is empty", i)
		}
	}
	for i, note := range r.TechnicalNotes {
		if note.Category == "" || note.Finding == "" {
			return fmt.Errorf("technicalNotes[%d] is incomplete", i)
		}
	}
	return nil
}

// KeyInsight returns the insight with the given metric name
func (r *Record) KeyInsight(metric string) (KeyInsight, bool) {
	for _, ki := range r.KeyInsights {
		if ki.Metric == metric {
			return ki, true
		}
	}
	return KeyInsight{}, false
}
