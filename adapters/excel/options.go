package excel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"regdash/internal/errors"
)

// Column identifies one column of the coefficient table
type Column string

const (
	ColumnVariable     Column = "variable"
	ColumnCoefficient  Column = "coefficient"
	ColumnStdError     Column = "standardError"
	ColumnTStatistic   Column = "tStatistic"
	ColumnPValue       Column = "pValue"
	ColumnSignificance Column = "significance"
)

var defaultHeaders = map[Column]string{
	ColumnVariable:     "Variable",
	ColumnCoefficient:  "Coefficient",
	ColumnStdError:     "Std. Error",
	ColumnTStatistic:   "t-statistic",
	ColumnPValue:       "P-value",
	ColumnSignificance: "Significance",
}

// Decimal places accepted by TableOptions
const (
	DefaultDecimals = 3
	MaxDecimals     = 6
)

// TableOptions customises the exported coefficient table
type TableOptions struct {
	Title             string            `json:"title" yaml:"title"`
	ShowSignificance  bool              `json:"showSignificance" yaml:"showSignificance"`
	IncludeModelStats bool              `json:"includeModelStats" yaml:"includeModelStats"`
	Headers           map[Column]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Decimals          int               `json:"decimals" yaml:"decimals"`
}

// DefaultTableOptions shows everything with three decimals
func DefaultTableOptions() TableOptions {
	return TableOptions{
		Title:             "Regression Results",
		ShowSignificance:  true,
		IncludeModelStats: true,
		Decimals:          DefaultDecimals,
	}
}

// Header returns the label of a column, preferring a custom one
func (o TableOptions) Header(c Column) string {
	if h, ok := o.Headers[c]; ok && h != "" {
		return h
	}
	return defaultHeaders[c]
}

func (o TableOptions) columns() []Column {
	cols := []Column{ColumnVariable, ColumnCoefficient, ColumnStdError, ColumnTStatistic, ColumnPValue}
	if o.ShowSignificance {
		cols = append(cols, ColumnSignificance)
	}
	return cols
}

func (o TableOptions) normalized() TableOptions {
	if o.Decimals <= 0 {
		o.Decimals = DefaultDecimals
	}
	if o.Decimals > MaxDecimals {
		o.Decimals = MaxDecimals
	}
	return o
}

// LoadTableOptions reads a YAML options file over base. Keys the file leaves
// out keep their base values; header overrides merge with base headers.
func LoadTableOptions(path string, base TableOptions) (TableOptions, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, errors.ConfigInvalid(fmt.Sprintf("read export options %s: %v", path, err))
	}
	opts, err := ParseTableOptions(raw, base)
	if err != nil {
		return base, errors.Wrapf(err, "export options %s", path)
	}
	return opts, nil
}

// ParseTableOptions decodes a YAML options document over base
func ParseTableOptions(raw []byte, base TableOptions) (TableOptions, error) {
	opts := base
	opts.Headers = make(map[Column]string, len(base.Headers))
	for k, v := range base.Headers {
		opts.Headers[k] = v
	}

	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return base, errors.ConfigInvalid(fmt.Sprintf("invalid export options YAML: %v", err))
	}
	for c := range opts.Headers {
		if _, ok := defaultHeaders[c]; !ok {
			return base, errors.ConfigInvalid(fmt.Sprintf("unknown table column %q", c))
		}
	}
	if opts.Decimals < 1 || opts.Decimals > MaxDecimals {
		return base, errors.ConfigInvalid(fmt.Sprintf("decimals must be between 1 and %d", MaxDecimals))
	}
	return opts, nil
}
