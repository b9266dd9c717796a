package excel

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regdash/domain/insight"
	"regdash/domain/regression"
	"regdash/internal/errors"
)

func sampleResult() *regression.Result {
	return &regression.Result{
		Kind:              regression.KindLinear,
		DependentVariable: "GDP",
		ObservationCount:  regression.MockObservationCount,
		RSquared:          regression.MockRSquared,
		AdjustedRSquared:  regression.MockAdjustedRSquared,
		FStatistic:        regression.MockFStatistic,
		FTestPValue:       regression.MockFTestPValue,
		Intercept:         regression.Estimate{Coefficient: 1.23456, StandardError: 0.5, TStatistic: 1.1, PValue: 0.3, Significance: regression.TierTwo},
		Coefficients: []regression.CoefficientEstimate{
			{Variable: "age", Estimate: regression.Estimate{Coefficient: 0.3, StandardError: 0.2, TStatistic: 2.5, PValue: 0.4, Significance: regression.TierThree}},
			{Variable: "urban", Estimate: regression.Estimate{Coefficient: -2, StandardError: 1, TStatistic: -2.9, PValue: 0.1}},
		},
	}
}

func rows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	out, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return out
}

func TestWorkbook_Defaults(t *testing.T) {
	f, err := NewExporter(DefaultTableOptions()).Workbook(sampleResult(), nil)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetCoefficients, SheetModel}, f.GetSheetList())

	r := rows(t, f, SheetCoefficients)
	assert.Equal(t, "Regression Results", r[0][0])
	assert.Equal(t, []string{"Variable", "Coefficient", "Std. Error", "t-statistic", "P-value", "Significance"}, r[2])
	assert.Equal(t, []string{"Intercept", "1.235", "0.5", "1.1", "0.3", "**"}, r[3], "intercept first, rounded to 3 decimals")
	assert.Equal(t, "age", r[4][0])
	assert.Equal(t, "***", r[4][5])
	assert.Equal(t, "urban", r[5][0])
	assert.Equal(t, SignificanceLegend, r[len(r)-1][0])

	m := rows(t, f, SheetModel)
	assert.Equal(t, []string{"Model type", "Linear"}, m[1])
	assert.Equal(t, []string{"Observations", "1000"}, m[3])
	assert.Equal(t, []string{"R²", "0.742"}, m[4])
	assert.Equal(t, []string{"Significant predictors", "1 of 2"}, m[8])
}

func TestWorkbook_CustomOptions(t *testing.T) {
	opts := TableOptions{
		Headers:  map[Column]string{ColumnCoefficient: "β", ColumnPValue: "p"},
		Decimals: 1,
	}
	f, err := NewExporter(opts).Workbook(sampleResult(), nil)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetCoefficients}, f.GetSheetList(), "model sheet omitted")

	r := rows(t, f, SheetCoefficients)
	assert.Equal(t, []string{"Variable", "β", "Std. Error", "t-statistic", "p"}, r[0], "no title and no significance column")
	assert.Equal(t, "1.2", r[1][1])
	for _, row := range r {
		for _, cell := range row {
			assert.NotEqual(t, SignificanceLegend, cell)
		}
	}
}

func TestWorkbook_WithInsights(t *testing.T) {
	res := sampleResult()
	rec := insight.Synthesize(res.Summary())

	f, err := NewExporter(DefaultTableOptions()).Workbook(res, rec)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), SheetInsights)
	r := rows(t, f, SheetInsights)
	assert.Equal(t, "Model health", r[0][0])
	assert.Equal(t, []string{"Score", "Status", "Factors"}, r[1])
	assert.Equal(t, string(rec.ModelHealth.Status), r[2][1])

	var sawRecommendations bool
	for _, row := range r {
		if len(row) > 0 && row[0] == "Recommendations" {
			sawRecommendations = true
		}
	}
	assert.True(t, sawRecommendations)
}

func TestWrite_And_Save(t *testing.T) {
	exp := NewExporter(DefaultTableOptions())

	var buf bytes.Buffer
	require.NoError(t, exp.Write(&buf, sampleResult(), nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Intercept", rows(t, f, SheetCoefficients)[3][0])
	f.Close()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, exp.Save(path, sampleResult(), nil))
	f, err = excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 2)
}

func TestWorkbook_NilResult(t *testing.T) {
	_, err := NewExporter(DefaultTableOptions()).Workbook(nil, nil)
	assert.Error(t, err)
}

func TestTableOptions_Normalized(t *testing.T) {
	assert.Equal(t, DefaultDecimals, NewExporter(TableOptions{}).Options().Decimals)
	assert.Equal(t, MaxDecimals, NewExporter(TableOptions{Decimals: 12}).Options().Decimals)
	assert.Equal(t, "Variable", TableOptions{}.Header(ColumnVariable))
}

func TestLoadTableOptions_OverridesBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title: Wage model
decimals: 2
showSignificance: false
headers:
  coefficient: Beta
  pValue: "p"
`), 0o600))

	base := DefaultTableOptions()
	base.Headers = map[Column]string{ColumnVariable: "Predictor"}
	opts, err := LoadTableOptions(path, base)
	require.NoError(t, err)

	assert.Equal(t, "Wage model", opts.Title)
	assert.Equal(t, 2, opts.Decimals)
	assert.False(t, opts.ShowSignificance)
	assert.True(t, opts.IncludeModelStats, "keys missing from the file keep base values")
	assert.Equal(t, "Predictor", opts.Header(ColumnVariable))
	assert.Equal(t, "Beta", opts.Header(ColumnCoefficient))
	assert.Equal(t, "p", opts.Header(ColumnPValue))
	assert.Len(t, base.Headers, 1, "base headers are not mutated")

	f, err := NewExporter(opts).Workbook(sampleResult(), nil)
	require.NoError(t, err)
	defer f.Close()
	got := rows(t, f, SheetCoefficients)
	assert.Contains(t, got[2], "Beta")
	assert.NotContains(t, got[2], "Significance")
}

func TestParseTableOptions_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown column", "headers:\n  beta: B\n"},
		{"too many decimals", "decimals: 9\n"},
		{"zero decimals", "decimals: 0\n"},
		{"malformed", "title: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTableOptions([]byte(tt.doc), DefaultTableOptions())
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}

	_, err := LoadTableOptions(filepath.Join(t.TempDir(), "missing.yaml"), DefaultTableOptions())
	assert.Error(t, err)
}
