package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regdash/adapters/excel"
	"regdash/domain/insight"
	"regdash/domain/regression"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("VARIABLE_CATALOG", "")
	t.Setenv("EXPORT_OPTIONS", "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSynthesize_Table(t *testing.T) {
	out, err := run(t, "synthesize", "-y", "GDP", "-x", "age,income", "--seed", "7")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Variable"))
	assert.True(t, strings.HasPrefix(lines[1], "(Intercept)"))
	assert.True(t, strings.HasPrefix(lines[2], "age"))
	assert.True(t, strings.HasPrefix(lines[3], "income"))
	assert.Contains(t, out, "Significance: *** p<0.001")
	assert.Contains(t, out, "Adjusted R²:    0.738")
}

func TestSynthesize_JSONIsReproducible(t *testing.T) {
	first, err := run(t, "synthesize", "-y", "urban", "-x", "age", "--kind", "logistic", "--seed", "11", "--json")
	require.NoError(t, err)
	second, err := run(t, "synthesize", "-y", "urban", "-x", "age", "--kind", "logistic", "--seed", "11", "--json")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var res regression.Result
	require.NoError(t, json.Unmarshal([]byte(first), &res))
	assert.Equal(t, regression.KindLogistic, res.Kind)
	assert.Equal(t, "urban", res.DependentVariable)
	require.Len(t, res.Coefficients, 1)
}

func TestSynthesize_RejectsBadSelection(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no independents", []string{"synthesize", "-y", "GDP"}},
		{"unknown variable", []string{"synthesize", "-y", "GDP", "-x", "shoe_size"}},
		{"duplicate", []string{"synthesize", "-y", "GDP", "-x", "age,age"}},
		{"dependent as independent", []string{"synthesize", "-y", "GDP", "-x", "GDP"}},
		{"bad kind", []string{"synthesize", "-y", "GDP", "-x", "age", "--kind", "ridge"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestInsights_TemplateJSON(t *testing.T) {
	out, err := run(t, "insights", "--r2", "0.742", "--adj-r2", "0.738", "--f-p", "0",
		"--significant", "3", "--total", "5", "--dependent", "GDP", "--json")
	require.NoError(t, err)

	var rec insight.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, 78, rec.ModelHealth.Score)
	assert.Equal(t, insight.RatingGood, rec.ModelHealth.Status)
}

func TestInsights_ReportAndNarrative(t *testing.T) {
	args := []string{"insights", "--r2", "0.742", "--adj-r2", "0.738", "--f-p", "0",
		"--significant", "3", "--total", "5", "--dependent", "GDP"}

	out, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Model health: 78/100 (good)")

	out, err = run(t, append(args, "--narrative")...)
	require.NoError(t, err)
	assert.Contains(t, out, "## ")
}

func TestInsights_RejectsInvalidSummary(t *testing.T) {
	_, err := run(t, "insights", "--r2", "1.5", "--total", "2")
	assert.Error(t, err)
}

func TestExport_WritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := run(t, "export", "-y", "GDP", "-x", "age,income,urban", "--seed", "3",
		"--out", path, "--insights", "--decimals", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 coefficients")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t, []string{excel.SheetCoefficients, excel.SheetModel, excel.SheetInsights}, f.GetSheetList())
}

func TestExport_AppliesOptionsFile(t *testing.T) {
	dir := t.TempDir()
	optsPath := filepath.Join(dir, "table.yaml")
	require.NoError(t, os.WriteFile(optsPath, []byte("title: \"\"\nheaders:\n  coefficient: Beta\n"), 0o600))
	path := filepath.Join(dir, "out.xlsx")

	_, err := run(t, "export", "-y", "GDP", "-x", "age", "--seed", "3", "--out", path, "--options", optsPath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	header, err := f.GetRows(excel.SheetCoefficients)
	require.NoError(t, err)
	assert.Equal(t, "Beta", header[0][1], "empty title puts the header on the first row")

	_, err = run(t, "export", "-y", "GDP", "-x", "age", "--out", path, "--options", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteCoefficientTable_AlignsColumns(t *testing.T) {
	res := &regression.Result{
		Intercept: regression.Estimate{Coefficient: 1.5, StandardError: 0.25, PValue: 0.02, Significance: regression.TierOne},
		Coefficients: []regression.CoefficientEstimate{
			{Variable: "education_level", Estimate: regression.Estimate{Coefficient: -12.126, StandardError: 1, PValue: 0.5}},
		},
	}
	var buf bytes.Buffer
	writeCoefficientTable(&buf, res, 2)

	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "Variable         Coefficient  Std. Error  t-value  p-value  Sig.", lines[0])
	assert.Equal(t, "(Intercept)             1.50        0.25     0.00     0.02  *", lines[1])
	assert.Equal(t, "education_level       -12.13        1.00     0.00     0.50  ", lines[2])
}
