package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"regdash/domain/insight"
	"regdash/domain/regression"
)

var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorGreen  = color.New(color.FgGreen)
	colorBold   = color.New(color.Bold)
)

// colorTier highlights significance markers; blank tiers stay plain
func colorTier(tier regression.SignificanceTier) string {
	switch tier {
	case regression.TierThree:
		return colorGreen.Sprint(string(tier))
	case regression.TierTwo:
		return colorYellow.Sprint(string(tier))
	case regression.TierOne:
		return colorRed.Sprint(string(tier))
	default:
		return ""
	}
}

// colorRating colors insight ratings
func colorRating(r insight.Rating) string {
	switch r {
	case insight.RatingExcellent, insight.RatingGood:
		return colorGreen.Sprint(string(r))
	case insight.RatingModerate:
		return colorYellow.Sprint(string(r))
	case insight.RatingPoor:
		return colorRed.Sprint(string(r))
	default:
		return string(r)
	}
}

func pad(s string, width int, right bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// writeCoefficientTable prints the coefficient table with the intercept first.
// Cells are padded before coloring so escape codes do not skew the widths.
func writeCoefficientTable(w io.Writer, res *regression.Result, decimals int) {
	headers := []string{"Variable", "Coefficient", "Std. Error", "t-value", "p-value", "Sig."}
	type row struct {
		cells []string
		tier  regression.SignificanceTier
	}

	format := func(v float64) string { return fmt.Sprintf("%.*f", decimals, v) }
	rowFor := func(name string, est regression.Estimate) row {
		return row{
			cells: []string{name, format(est.Coefficient), format(est.StandardError),
				format(est.TStatistic), format(est.PValue), string(est.Significance)},
			tier: est.Significance,
		}
	}

	rows := []row{rowFor("(Intercept)", res.Intercept)}
	for _, c := range res.Coefficients {
		rows = append(rows, rowFor(c.Variable, c.Estimate))
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, r := range rows {
		for i, cell := range r.cells {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	last := len(headers) - 1
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprint(w, colorBold.Sprint(pad(h, widths[i], i > 0 && i < last)))
	}
	fmt.Fprintln(w)

	for _, r := range rows {
		for i, cell := range r.cells {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			if i == last {
				fmt.Fprint(w, colorTier(r.tier))
				continue
			}
			fmt.Fprint(w, pad(cell, widths[i], i > 0))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Significance: *** p<0.001, ** p<0.01, * p<0.05")
}

// writeModelSummary prints the summary statistics and the interpretation block
func writeModelSummary(w io.Writer, res *regression.Result) {
	in := res.Interpret()
	fmt.Fprintf(w, "\n%s\n", colorBold.Sprint("Model Summary"))
	fmt.Fprintf(w, "  Model:          %s\n", res.Kind.Title())
	fmt.Fprintf(w, "  Observations:   %d\n", res.ObservationCount)
	fmt.Fprintf(w, "  R²:             %.3f\n", res.RSquared)
	fmt.Fprintf(w, "  Adjusted R²:    %.3f\n", res.AdjustedRSquared)
	fmt.Fprintf(w, "  F-statistic:    %.1f (p = %.3f)\n", res.FStatistic, res.FTestPValue)
	fmt.Fprintf(w, "  Equation:       %s\n", res.Equation())

	fmt.Fprintf(w, "\n%s\n", colorBold.Sprint("Interpretation"))
	fmt.Fprintf(w, "  %s\n  %s\n  %s\n", in.OverallFit, in.Significance, in.Validity)
	for _, f := range in.KeyFindings {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

// writeInsights prints an insight record as a compact report
func writeInsights(w io.Writer, rec *insight.Record) {
	fmt.Fprintf(w, "%s %d/100 (%s)\n", colorBold.Sprint("Model health:"),
		rec.ModelHealth.Score, colorRating(rec.ModelHealth.Status))
	if len(rec.ModelHealth.Factors) > 0 {
		fmt.Fprintf(w, "  factors: %s\n", strings.Join(rec.ModelHealth.Factors, ", "))
	}

	fmt.Fprintf(w, "\n%s\n", colorBold.Sprint("Key insights"))
	for _, k := range rec.KeyInsights {
		fmt.Fprintf(w, "  %s = %.3f [%s] %s\n", k.Metric, k.Value, colorRating(k.Interpretation), k.Description)
	}

	fmt.Fprintf(w, "\n%s\n", colorBold.Sprint("Recommendations"))
	for _, r := range rec.Recommendations {
		fmt.Fprintf(w, "  [%s] %s: %s\n", r.Priority, r.Action, r.Reason)
	}

	fmt.Fprintf(w, "\n%s\n", colorBold.Sprint("Technical notes"))
	for _, n := range rec.TechnicalNotes {
		fmt.Fprintf(w, "  %s: %s %s\n", n.Category, n.Finding, n.Implication)
	}
}
