package excel

import (
	"fmt"
	"io"
	"log"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"regdash/domain/insight"
	"regdash/domain/regression"
)

// Sheet names of the exported workbook
const (
	SheetCoefficients = "Coefficients"
	SheetModel        = "Model"
	SheetInsights     = "Insights"
)

// SignificanceLegend is written under the coefficient table
const SignificanceLegend = "Significance codes: *** p<0.001, ** p<0.01, * p<0.05"

// Exporter writes regression results to xlsx workbooks
type Exporter struct {
	opts TableOptions
}

// NewExporter creates an exporter; zero-valued options fall back to defaults
func NewExporter(opts TableOptions) *Exporter {
	return &Exporter{opts: opts.normalized()}
}

// Options returns the effective table options
func (e *Exporter) Options() TableOptions { return e.opts }

// Write streams the workbook to w. rec may be nil when no insights exist.
func (e *Exporter) Write(w io.Writer, res *regression.Result, rec *insight.Record) error {
	f, err := e.Workbook(res, rec)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save writes the workbook to path
func (e *Exporter) Save(path string, res *regression.Result, rec *insight.Record) error {
	f, err := e.Workbook(res, rec)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	log.Printf("[ExcelExporter] wrote %s (%d coefficients, insights=%t)", path, len(res.Coefficients), rec != nil)
	return nil
}

// Workbook builds the workbook in memory. The caller closes it.
func (e *Exporter) Workbook(res *regression.Result, rec *insight.Record) (*excelize.File, error) {
	if res == nil {
		return nil, fmt.Errorf("no regression result to export")
	}

	f := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetCoefficients); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	styles, err := newStyles(f, e.opts.Decimals)
	if err != nil {
		return nil, err
	}

	if err := e.writeCoefficients(f, styles, res); err != nil {
		return nil, fmt.Errorf("coefficients sheet: %w", err)
	}
	if e.opts.IncludeModelStats {
		if err := e.writeModel(f, styles, res); err != nil {
			return nil, fmt.Errorf("model sheet: %w", err)
		}
	}
	if rec != nil {
		if err := e.writeInsights(f, styles, rec); err != nil {
			return nil, fmt.Errorf("insights sheet: %w", err)
		}
	}

	ok = true
	return f, nil
}

type styles struct {
	bold   int
	title  int
	number int
}

func newStyles(f *excelize.File, decimals int) (styles, error) {
	var s styles
	var err error
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("bold style: %w", err)
	}
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err != nil {
		return s, fmt.Errorf("title style: %w", err)
	}
	numFmt := "0"
	if decimals > 0 {
		numFmt += "." + strings.Repeat("0", decimals)
	}
	if s.number, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return s, fmt.Errorf("number style: %w", err)
	}
	return s, nil
}

func (e *Exporter) writeCoefficients(f *excelize.File, st styles, res *regression.Result) error {
	sheet := SheetCoefficients
	row := 1

	if e.opts.Title != "" {
		if err := f.SetCellValue(sheet, "A1", e.opts.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", "A1", st.title); err != nil {
			return err
		}
		row = 3
	}

	columns := e.opts.columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = e.opts.Header(c)
	}
	if err := setRow(f, sheet, row, header, st.bold); err != nil {
		return err
	}
	row++

	firstNumeric := row
	if err := setRow(f, sheet, row, e.estimateRow(columns, "Intercept", res.Intercept), -1); err != nil {
		return err
	}
	row++
	for _, c := range res.Coefficients {
		if err := setRow(f, sheet, row, e.estimateRow(columns, c.Variable, c.Estimate), -1); err != nil {
			return err
		}
		row++
	}

	from, _ := excelize.CoordinatesToCellName(2, firstNumeric)
	to, _ := excelize.CoordinatesToCellName(5, row-1)
	if err := f.SetCellStyle(sheet, from, to, st.number); err != nil {
		return err
	}

	if e.opts.ShowSignificance {
		cell, _ := excelize.CoordinatesToCellName(1, row+1)
		if err := f.SetCellValue(sheet, cell, SignificanceLegend); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 22)
}

func (e *Exporter) estimateRow(columns []Column, name string, est regression.Estimate) []interface{} {
	out := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		switch c {
		case ColumnVariable:
			out = append(out, name)
		case ColumnCoefficient:
			out = append(out, e.round(est.Coefficient))
		case ColumnStdError:
			out = append(out, e.round(est.StandardError))
		case ColumnTStatistic:
			out = append(out, e.round(est.TStatistic))
		case ColumnPValue:
			out = append(out, e.round(est.PValue))
		case ColumnSignificance:
			out = append(out, string(est.Significance))
		}
	}
	return out
}

func (e *Exporter) writeModel(f *excelize.File, st styles, res *regression.Result) error {
	sheet := SheetModel
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Statistic", "Value"},
		{"Model type", res.Kind.Title()},
		{"Dependent variable", res.DependentVariable},
		{"Observations", res.ObservationCount},
		{"R²", e.round(res.RSquared)},
		{"Adjusted R²", e.round(res.AdjustedRSquared)},
		{"F-statistic", e.round(res.FStatistic)},
		{"F-test p-value", e.round(res.FTestPValue)},
		{"Significant predictors", fmt.Sprintf("%d of %d", res.SignificantCount(), len(res.Coefficients))},
		{"Equation", res.Equation()},
	}
	for i, r := range rows {
		style := -1
		if i == 0 {
			style = st.bold
		}
		if err := setRow(f, sheet, i+1, r, style); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}

func (e *Exporter) writeInsights(f *excelize.File, st styles, rec *insight.Record) error {
	sheet := SheetInsights
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	row := 1
	put := func(values []interface{}, style int) error {
		err := setRow(f, sheet, row, values, style)
		row++
		return err
	}

	blocks := []struct {
		title  []interface{}
		header []interface{}
		rows   [][]interface{}
	}{
		{
			title:  []interface{}{"Model health"},
			header: []interface{}{"Score", "Status", "Factors"},
			rows:   [][]interface{}{{rec.ModelHealth.Score, string(rec.ModelHealth.Status), strings.Join(rec.ModelHealth.Factors, ", ")}},
		},
		{
			title:  []interface{}{"Key insights"},
			header: []interface{}{"Metric", "Value", "Interpretation", "Description"},
		},
		{
			title:  []interface{}{"Recommendations"},
			header: []interface{}{"Priority", "Action", "Reason"},
		},
		{
			title:  []interface{}{"Technical notes"},
			header: []interface{}{"Category", "Finding", "Implication"},
		},
	}
	for _, ki := range rec.KeyInsights {
		blocks[1].rows = append(blocks[1].rows, []interface{}{ki.Metric, e.round(ki.Value), string(ki.Interpretation), ki.Description})
	}
	for _, r := range rec.Recommendations {
		blocks[2].rows = append(blocks[2].rows, []interface{}{string(r.Priority), r.Action, r.Reason})
	}
	for _, n := range rec.TechnicalNotes {
		blocks[3].rows = append(blocks[3].rows, []interface{}{n.Category, n.Finding, n.Implication})
	}

	for i, b := range blocks {
		if i > 0 {
			row++
		}
		if err := put(b.title, st.title); err != nil {
			return err
		}
		if err := put(b.header, st.bold); err != nil {
			return err
		}
		for _, r := range b.rows {
			if err := put(r, -1); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(sheet, "A", "D", 24)
}

func (e *Exporter) round(v float64) float64 {
	p := math.Pow(10, float64(e.opts.Decimals))
	return math.Round(v*p) / p
}

// setRow writes values from column A; style < 0 leaves the row unstyled
func setRow(f *excelize.File, sheet string, row int, values []interface{}, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return err
	}
	if style < 0 || len(values) == 0 {
		return nil
	}
	end, _ := excelize.CoordinatesToCellName(len(values), row)
	return f.SetCellStyle(sheet, start, end, style)
}
