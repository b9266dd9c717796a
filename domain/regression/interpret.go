package regression

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"regdash/domain/insight"
)

// Interpretation is the plain-language block under the coefficient table
type Interpretation struct {
	FitLabel     insight.Rating `json:"fitLabel"`
	OverallFit   string         `json:"overallFit"`
	Significance string         `json:"significance"`
	ModelValid   bool           `json:"modelValid"`
	Validity     string         `json:"validity"`
	KeyFindings  []string       `json:"keyFindings"`
}

// Interpret builds the interpretation block for a result
func (r *Result) Interpret() Interpretation {
	label := insight.FitRating(r.RSquared)
	valid := r.FTestPValue < insight.SignificanceAlpha

	validity := "The F-statistic suggests the model may not be statistically significant overall."
	if valid {
		validity = "The F-statistic indicates the model is statistically significant overall."
	}

	sig := r.Significant()
	findings := make([]string, 0, len(sig))
	for _, c := range sig {
		findings = append(findings, fmt.Sprintf("%s: %s relationship (β = %.3f, %s)",
			c.Variable, direction(c.Coefficient), c.Coefficient, c.Significance))
	}

	return Interpretation{
		FitLabel: label,
		OverallFit: fmt.Sprintf("The model shows %s fit with an R² of %.2f, explaining %.1f%% of the variance in %s.",
			label, r.RSquared, r.RSquared*100, r.DependentVariable),
		Significance: fmt.Sprintf("%d out of %d independent variables are statistically significant.",
			len(sig), len(r.Coefficients)),
		ModelValid:  valid,
		Validity:    validity,
		KeyFindings: findings,
	}
}

func direction(coef float64) string {
	if coef > 0 {
		return "Positive"
	}
	return "Negative"
}

// Equation renders the fitted equation, e.g. "GDP = 1.250 +0.300×age -2.000×urban + ε"
func (r *Result) Equation() string {
	terms := make([]string, 0, len(r.Coefficients))
	for _, c := range r.Coefficients {
		sign := ""
		if c.Coefficient >= 0 {
			sign = "+"
		}
		terms = append(terms, fmt.Sprintf("%s%.3f×%s", sign, c.Coefficient, c.Variable))
	}
	eq := fmt.Sprintf("%s = %.3f", r.DependentVariable, r.Intercept.Coefficient)
	if len(terms) > 0 {
		eq += " " + strings.Join(terms, " ")
	}
	return eq + " + ε"
}

// CoefficientNote is the per-variable reading of one coefficient
type CoefficientNote struct {
	Variable     string           `json:"variable"`
	Coefficient  float64          `json:"coefficient"`
	Significance SignificanceTier `json:"significance"`
	Text         string           `json:"text"`
	Caveat       string           `json:"caveat,omitempty"`
}

// CoefficientInterpretations explains each coefficient in turn, followed by
// the intercept
func (r *Result) CoefficientInterpretations() []CoefficientNote {
	notes := make([]CoefficientNote, 0, len(r.Coefficients)+1)
	for _, c := range r.Coefficients {
		verb := "decreases"
		if c.Coefficient > 0 {
			verb = "increases"
		}
		note := CoefficientNote{
			Variable:     c.Variable,
			Coefficient:  c.Coefficient,
			Significance: c.Significance,
			Text: fmt.Sprintf("For each one-unit increase in %s, %s %s by approximately %.3f units, holding all other variables constant.",
				c.Variable, r.DependentVariable, verb, math.Abs(c.Coefficient)),
		}
		if !c.Significance.IsSignificant() {
			note.Caveat = "This effect is not statistically significant."
		}
		notes = append(notes, note)
	}

	text := fmt.Sprintf("The expected value of %s when all independent variables equal zero.", r.DependentVariable)
	if r.Intercept.Significance.IsSignificant() {
		text += fmt.Sprintf(" (%s)", r.Intercept.Significance)
	}
	notes = append(notes, CoefficientNote{
		Variable:     "Intercept",
		Coefficient:  r.Intercept.Coefficient,
		Significance: r.Intercept.Significance,
		Text:         text,
	})
	return notes
}

// ScoreCard is the compact health panel: fit stars plus significance band
type ScoreCard struct {
	FitStars         int     `json:"fitStars"`
	FitLabel         string  `json:"fitLabel"`
	SignificantShare float64 `json:"significantShare"`
	Band             string  `json:"band"`
	ModelValid       bool    `json:"modelValid"`
}

// FitStars grades R² on a 2-5 star scale
func FitStars(r2 float64) (int, string) {
	switch {
	case r2 > 0.7:
		return 5, "Excellent"
	case r2 > 0.5:
		return 4, "Good"
	case r2 > 0.3:
		return 3, "Moderate"
	default:
		return 2, "Weak"
	}
}

// SignificanceBand grades the share of significant predictors
func SignificanceBand(share float64) string {
	switch {
	case share > 0.7:
		return "good"
	case share > 0.4:
		return "fair"
	default:
		return "poor"
	}
}

// ScoreCard builds the health panel for a result
func (r *Result) ScoreCard() ScoreCard {
	stars, label := FitStars(r.RSquared)
	share := r.Summary().SignificanceRatio()
	return ScoreCard{
		FitStars:         stars,
		FitLabel:         label,
		SignificantShare: share,
		Band:             SignificanceBand(share),
		ModelValid:       r.FTestPValue < insight.SignificanceAlpha,
	}
}

// CoefficientStats summarises effect magnitudes across the predictors
type CoefficientStats struct {
	MeanAbsCoefficient float64 `json:"meanAbsCoefficient"`
	MaxAbsTStatistic   float64 `json:"maxAbsTStatistic"`
	MedianStdError     float64 `json:"medianStdError"`
	Strongest          string  `json:"strongest"` // variable with the largest |t|
}

// CoefficientStats computes magnitude statistics; zero value when there are
// no coefficients
func (r *Result) CoefficientStats() CoefficientStats {
	if len(r.Coefficients) == 0 {
		return CoefficientStats{}
	}

	absCoef := make([]float64, len(r.Coefficients))
	absT := make([]float64, len(r.Coefficients))
	se := make([]float64, len(r.Coefficients))
	best := 0
	for i, c := range r.Coefficients {
		absCoef[i] = math.Abs(c.Coefficient)
		absT[i] = math.Abs(c.TStatistic)
		se[i] = c.StandardError
		if absT[i] > absT[best] {
			best = i
		}
	}

	mean, _ := stats.Mean(absCoef)
	maxT, _ := stats.Max(absT)
	median, _ := stats.Median(se)

	return CoefficientStats{
		MeanAbsCoefficient: mean,
		MaxAbsTStatistic:   maxT,
		MedianStdError:     median,
		Strongest:          r.Coefficients[best].Variable,
	}
}

// Highlights carries the coefficient statistics the narrative quotes
func (r *Result) Highlights() insight.Highlights {
	if r == nil {
		return insight.Highlights{}
	}
	cs := r.CoefficientStats()
	return insight.Highlights{
		Strongest:          cs.Strongest,
		MaxAbsTStatistic:   cs.MaxAbsTStatistic,
		MeanAbsCoefficient: cs.MeanAbsCoefficient,
	}
}
