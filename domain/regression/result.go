package regression

import (
	"regdash/domain/insight"
)

// SignificanceTier is the star marker shown next to an estimate
type SignificanceTier string

const (
	TierNone  SignificanceTier = ""
	TierOne   SignificanceTier = "*"
	TierTwo   SignificanceTier = "**"
	TierThree SignificanceTier = "***"
)

// Conventional p-value cut-offs behind the tiers
const (
	AlphaThree = 0.001
	AlphaTwo   = 0.01
	AlphaOne   = 0.05
)

// Valid reports whether t is one of the four tiers
func (t SignificanceTier) Valid() bool {
	switch t {
	case TierNone, TierOne, TierTwo, TierThree:
		return true
	}
	return false
}

// IsSignificant is true for any non-blank tier
func (t SignificanceTier) IsSignificant() bool { return t != TierNone }

// TierForPValue maps a p-value onto the conventional tiers
func TierForPValue(p float64) SignificanceTier {
	switch {
	case p < AlphaThree:
		return TierThree
	case p < AlphaTwo:
		return TierTwo
	case p < AlphaOne:
		return TierOne
	default:
		return TierNone
	}
}

// Estimate holds the statistics of one term
type Estimate struct {
	Coefficient   float64          `json:"coefficient"`
	StandardError float64          `json:"standardError"`
	TStatistic    float64          `json:"tStatistic"`
	PValue        float64          `json:"pValue"`
	Significance  SignificanceTier `json:"significance"`
}

// CoefficientEstimate is the estimate of one independent variable
type CoefficientEstimate struct {
	Variable string `json:"variable"`
	Estimate
}

// Placeholder summary statistics reported until a real estimator is plugged in
const (
	MockObservationCount = 1000
	MockRSquared         = 0.742
	MockAdjustedRSquared = 0.738
	MockFStatistic       = 87.3
	MockFTestPValue      = 0.0
)

// Result is one regression output as shown on the results step
type Result struct {
	Kind              ModelKind             `json:"modelType"`
	DependentVariable string                `json:"dependentVariable"`
	ObservationCount  int                   `json:"nObservations"`
	RSquared          float64               `json:"rSquared"`
	AdjustedRSquared  float64               `json:"adjustedRSquared"`
	FStatistic        float64               `json:"fStatistic"`
	FTestPValue       float64               `json:"pValueF"`
	Intercept         Estimate              `json:"intercept"`
	Coefficients      []CoefficientEstimate `json:"coefficients"`
}

// SignificantCount counts coefficients carrying any tier. The intercept is
// not counted.
func (r *Result) SignificantCount() int {
	n := 0
	for _, c := range r.Coefficients {
		if c.Significance.IsSignificant() {
			n++
		}
	}
	return n
}

// Significant returns the coefficients with a tier, in table order
func (r *Result) Significant() []CoefficientEstimate {
	out := make([]CoefficientEstimate, 0, len(r.Coefficients))
	for _, c := range r.Coefficients {
		if c.Significance.IsSignificant() {
			out = append(out, c)
		}
	}
	return out
}

// Summary extracts the fields the insight synthesizer reads
func (r *Result) Summary() insight.Summary {
	return insight.Summary{
		RSquared:            r.RSquared,
		AdjustedRSquared:    r.AdjustedRSquared,
		FTestPValue:         r.FTestPValue,
		SignificantVarCount: r.SignificantCount(),
		TotalVarCount:       len(r.Coefficients),
		DependentVariable:   r.DependentVariable,
		SampleSize:          r.ObservationCount,
	}
}

// Clone returns a deep copy
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	out.Coefficients = append([]CoefficientEstimate(nil), r.Coefficients...)
	return &out
}
