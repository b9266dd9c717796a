package insight

import (
	"fmt"
	"math"
)

// Classification thresholds shared by every consumer of the insight record.
const (
	StrongFitThreshold       = 0.7  // R² above this is "strong"
	GoodFitThreshold         = 0.5  // R² above this is "good"; below it residual checks become urgent
	SignificanceAlpha        = 0.05 // F-test p below this marks the model significant
	SignificantShareMajority = 0.5  // share of significant variables that counts as "most"
	SignificantShareHigh     = 0.7  // share above this rates as excellent
)

// Health score weights
const (
	weightFit         = 40
	weightSignificant = 30
	weightValidity    = 30
)

// Status breakpoints
const (
	excellentScore = 80
	goodScore      = 65
	moderateScore  = 50
)

// HealthScore combines fit, significance share and overall validity into 0-100
func HealthScore(s Summary) int {
	valid := 0.0
	if s.FTestPValue < SignificanceAlpha {
		valid = 1
	}
	score := int(math.Round(s.RSquared*weightFit + s.SignificanceRatio()*weightSignificant + valid*weightValidity))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// StatusForScore maps a health score onto its status tier
func StatusForScore(score int) Rating {
	switch {
	case score >= excellentScore:
		return RatingExcellent
	case score >= goodScore:
		return RatingGood
	case score >= moderateScore:
		return RatingModerate
	default:
		return RatingPoor
	}
}

// Synthesize derives the insight record from summary statistics. It is a pure
// function: the same summary always produces the same record. A summary with
// no variables is treated as having a significance share of zero.
func Synthesize(s Summary) *Record {
	score := HealthScore(s)
	ratio := s.SignificanceRatio()
	fewSignificant := float64(s.SignificantVarCount) < float64(s.TotalVarCount)*SignificantShareMajority
	modelSignificant := s.FTestPValue < SignificanceAlpha

	return &Record{
		ModelHealth: ModelHealth{
			Score:   score,
			Status:  StatusForScore(score),
			Factors: factors(s, modelSignificant),
		},
		KeyInsights:     keyInsights(s, ratio, modelSignificant),
		Recommendations: recommendations(s, fewSignificant),
		TechnicalNotes:  technicalNotes(s, fewSignificant, modelSignificant),
	}
}

func factors(s Summary, modelSignificant bool) []string {
	fit := FactorModerateR2
	if s.RSquared > StrongFitThreshold {
		fit = FactorStrongR2
	}
	vars := FactorFewSignificantVars
	if float64(s.SignificantVarCount) > float64(s.TotalVarCount)*SignificantShareMajority {
		vars = FactorSignificantVars
	}
	validity := FactorModelNotSignificant
	if modelSignificant {
		validity = FactorModelSignificant
	}
	return []string{fit, vars, validity}
}

// FitRating grades R² on the key-insight scale
func FitRating(r2 float64) Rating {
	switch {
	case r2 > StrongFitThreshold:
		return RatingExcellent
	case r2 > GoodFitThreshold:
		return RatingGood
	default:
		return RatingModerate
	}
}

func keyInsights(s Summary, ratio float64, modelSignificant bool) []KeyInsight {
	sigRating := RatingModerate
	if ratio > SignificantShareHigh {
		sigRating = RatingExcellent
	}

	validity := KeyInsight{
		Metric:         MetricModelValidity,
		Value:          s.FTestPValue,
		Interpretation: RatingPoor,
		Description:    "Model lacks significance",
	}
	if modelSignificant {
		validity.Interpretation = RatingExcellent
		validity.Description = "Model is statistically valid"
	}

	return []KeyInsight{
		{
			Metric:         MetricExplanatoryPower,
			Value:          s.RSquared * 100,
			Interpretation: FitRating(s.RSquared),
			Description:    fmt.Sprintf("Model explains %.1f%% of variance", s.RSquared*100),
		},
		{
			Metric:         MetricVariableSignificance,
			Value:          ratio * 100,
			Interpretation: sigRating,
			Description:    fmt.Sprintf("%d of %d variables are significant", s.SignificantVarCount, s.TotalVarCount),
		},
		validity,
	}
}

func recommendations(s Summary, fewSignificant bool) []Recommendation {
	residual := PriorityMedium
	if s.RSquared < GoodFitThreshold {
		residual = PriorityHigh
	}
	selection := PriorityLow
	if fewSignificant {
		selection = PriorityHigh
	}

	return []Recommendation{
		{Priority: residual, Action: "Check residual diagnostics", Reason: "Verify model assumptions"},
		{Priority: selection, Action: "Review variable selection", Reason: "Many variables lack significance"},
		{Priority: PriorityMedium, Action: "Test interaction terms", Reason: "May capture additional relationships"},
		{Priority: PriorityLow, Action: "Cross-validate results", Reason: "Ensure model robustness"},
	}
}

func technicalNotes(s Summary, fewSignificant, modelSignificant bool) []TechnicalNote {
	fit := "Limited explanatory ability"
	if s.RSquared > StrongFitThreshold {
		fit = "Strong predictive power"
	}
	power := "Model may not be meaningful"
	if modelSignificant {
		power = "Model significantly better than baseline"
	}
	selection := "Good variable selection"
	if fewSignificant {
		selection = "Consider removing non-significant variables"
	}

	return []TechnicalNote{
		{Category: "Model Fit", Finding: fmt.Sprintf("R² = %.3f", s.RSquared), Implication: fit},
		{Category: "Statistical Power", Finding: fmt.Sprintf("F-test p = %.3f", s.FTestPValue), Implication: power},
		{Category: "Variable Selection", Finding: fmt.Sprintf("%d/%d significant", s.SignificantVarCount, s.TotalVarCount), Implication: selection},
	}
}
