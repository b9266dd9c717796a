package insight

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section is one titled block of the prose rendering
type Section struct {
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

// Highlights are coefficient-level facts the record itself does not carry.
// The zero value means none are known.
type Highlights struct {
	Strongest          string  // predictor with the largest |t|
	MaxAbsTStatistic   float64
	MeanAbsCoefficient float64
}

// Narrative restates an insight record as three prose sections (model summary,
// variable importance, practical use). It reads only the record, so a reply
// from an external service renders the same way as a local one.
func Narrative(r *Record, dependentVariable string) []Section {
	return NarrativeWithHighlights(r, dependentVariable, Highlights{})
}

// NarrativeWithHighlights is Narrative with the variable importance section
// naming the strongest predictor when h carries one
func NarrativeWithHighlights(r *Record, dependentVariable string, h Highlights) []Section {
	if r == nil {
		return nil
	}
	dv := dependentVariable
	if dv == "" {
		dv = "the dependent variable"
	}

	return []Section{
		{Title: "Model Summary", Paragraphs: summaryParagraphs(r, dv)},
		{Title: "Variable Importance", Paragraphs: importanceParagraphs(r, h)},
		{Title: "Practical Use", Paragraphs: practicalParagraphs(r, dv)},
	}
}

func summaryParagraphs(r *Record, dv string) []string {
	first := fmt.Sprintf("Model health scores %d out of 100, which places it in the %s tier.",
		r.ModelHealth.Score, r.ModelHealth.Status)
	if ki, ok := r.KeyInsight(MetricExplanatoryPower); ok {
		first = fmt.Sprintf("The model explains %.1f%% of the variance in %s (explanatory power: %s). ",
			ki.Value, dv, ki.Interpretation) + first
	}

	var second string
	switch {
	case hasFactor(r, FactorStrongR2):
		second = "With R² above 0.7 the fitted relationship is strong enough to support prediction, not only description."
	default:
		second = "R² sits at or below 0.7, so a large share of the variation is left unexplained and predictions should carry wide error bands."
	}
	return []string{first, second}
}

func importanceParagraphs(r *Record, h Highlights) []string {
	var first string
	if ki, ok := r.KeyInsight(MetricVariableSignificance); ok {
		first = fmt.Sprintf("%s (%.0f%% of the predictors), which rates as %s.",
			strings.TrimSuffix(ki.Description, "."), ki.Value, ki.Interpretation)
	} else {
		first = "The share of significant predictors was not reported."
	}

	second := "Most predictors carry a detectable effect, so the current variable selection looks sound."
	if hasFactor(r, FactorFewSignificantVars) {
		second = "Fewer than half of the predictors carry a detectable effect. Dropping the non-significant ones would give a simpler model with little loss of fit."
	}
	if h.Strongest != "" {
		second += fmt.Sprintf(" The strongest signal comes from %s (|t| = %.2f); the average effect size across predictors is %.3f.",
			h.Strongest, h.MaxAbsTStatistic, h.MeanAbsCoefficient)
	}
	return []string{first, second}
}

func practicalParagraphs(r *Record, dv string) []string {
	first := fmt.Sprintf("The F-test does not clear the 0.05 level, so the model should not yet drive decisions about %s.", dv)
	if ki, ok := r.KeyInsight(MetricModelValidity); ok && ki.Value < SignificanceAlpha {
		first = fmt.Sprintf("The F-test is significant (p = %.3f), so the model does better than a no-predictor baseline and can inform directional decisions about %s.", ki.Value, dv)
	}

	recs := make([]Recommendation, len(r.Recommendations))
	copy(recs, r.Recommendations)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority.Rank() < recs[j].Priority.Rank() })

	steps := make([]string, 0, len(recs))
	for _, rec := range recs {
		if rec.Action == "" {
			continue
		}
		steps = append(steps, fmt.Sprintf("%s (%s priority)", lowerFirst(rec.Action), rec.Priority))
	}
	second := "No follow-up actions were suggested."
	if len(steps) > 0 {
		second = "Suggested next steps, most urgent first: " + strings.Join(steps, "; ") + "."
	}
	return []string{first, second}
}

// lowerFirst lower-cases the first rune so an action can continue a sentence
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func hasFactor(r *Record, tag string) bool {
	for _, f := range r.ModelHealth.Factors {
		if f == tag {
			return true
		}
	}
	return false
}

// Markdown renders narrative sections as a Markdown document
func Markdown(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		for _, p := range s.Paragraphs {
			b.WriteString(p)
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
