package insight

import (
	"fmt"
	"math"
)

// Request is the wire shape accepted by insight services. Every numeric field
// travels as a plain float.
type Request struct {
	RSquared          float64  `json:"rSquared"`
	AdjustedRSquared  float64  `json:"adjustedRSquared"`
	PValueF           float64  `json:"pValueF"`
	SignificantVars   float64  `json:"significantVars"`
	TotalVars         float64  `json:"totalVars"`
	DependentVariable string   `json:"dependentVariable"`
	SampleSize        *float64 `json:"sampleSize,omitempty"`
}

// NewRequest builds the wire request for a summary
func NewRequest(s Summary) Request {
	req := Request{
		RSquared:          s.RSquared,
		AdjustedRSquared:  s.AdjustedRSquared,
		PValueF:           s.FTestPValue,
		SignificantVars:   float64(s.SignificantVarCount),
		TotalVars:         float64(s.TotalVarCount),
		DependentVariable: s.DependentVariable,
	}
	if s.SampleSize > 0 {
		n := float64(s.SampleSize)
		req.SampleSize = &n
	}
	return req
}

// Summary converts the wire request back into synthesizer input. Counts must
// be whole numbers.
func (r Request) Summary() (Summary, error) {
	sig, err := wholeCount("significantVars", r.SignificantVars)
	if err != nil {
		return Summary{}, err
	}
	total, err := wholeCount("totalVars", r.TotalVars)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		RSquared:            r.RSquared,
		AdjustedRSquared:    r.AdjustedRSquared,
		FTestPValue:         r.PValueF,
		SignificantVarCount: sig,
		TotalVarCount:       total,
		DependentVariable:   r.DependentVariable,
	}
	if r.SampleSize != nil {
		n, err := wholeCount("sampleSize", *r.SampleSize)
		if err != nil {
			return Summary{}, err
		}
		s.SampleSize = n
	}
	return s, s.Validate()
}

func wholeCount(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%s must be a non-negative whole number, got %v", field, v)
	}
	return int(v), nil
}
