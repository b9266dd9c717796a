// Package synth produces mock regression results. The numbers are drawn at
// random and the summary statistics are fixed placeholders; a real estimator
// can replace it behind ports.ResultSynthesizer.
package synth

import (
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"regdash/domain/regression"
	"regdash/ports"
)

// Draw ranges for predictor estimates
const (
	coefLimit = 5.0
	seLimit   = 2.0
	tLimit    = 3.0
)

// Draw ranges for the intercept
const (
	interceptCoefLimit = 10.0
	interceptSELimit   = 3.0
	interceptTLimit    = 2.0
)

// Cumulative cut-offs of the sequential tier draw
const (
	tierThreeCut = 0.3
	tierTwoCut   = 0.5
	tierOneCut   = 0.7

	interceptTierTwoCut = 0.5
)

// Synthesizer implements ports.ResultSynthesizer with random draws
type Synthesizer struct {
	mu              sync.Mutex
	src             rand.Source
	consistentTiers bool
}

var _ ports.ResultSynthesizer = (*Synthesizer)(nil)

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithSeed makes the output reproducible
func WithSeed(seed uint64) Option {
	return func(s *Synthesizer) {
		s.src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
}

// WithConsistentTiers derives each predictor's tier from its drawn p-value
// instead of drawing it independently. The intercept keeps its own draw.
func WithConsistentTiers() Option {
	return func(s *Synthesizer) {
		s.consistentTiers = true
	}
}

// New creates a synthesizer seeded from the runtime's random source unless
// WithSeed is given
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return s
}

// Synthesize draws one estimate per independent variable, in order, plus the
// intercept. Summary statistics are the fixed placeholders and do not depend
// on the configuration.
func (s *Synthesizer) Synthesize(cfg regression.ModelConfiguration) *regression.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	coefficients := make([]regression.CoefficientEstimate, 0, len(cfg.IndependentVariables))
	for _, name := range cfg.IndependentVariables {
		est := regression.Estimate{
			Coefficient:   s.uniform(-coefLimit, coefLimit),
			StandardError: s.uniform(0, seLimit),
			TStatistic:    s.uniform(-tLimit, tLimit),
			PValue:        s.uniform(0, 1),
		}
		if s.consistentTiers {
			est.Significance = regression.TierForPValue(est.PValue)
		} else {
			est.Significance = s.drawTier()
		}
		coefficients = append(coefficients, regression.CoefficientEstimate{Variable: name, Estimate: est})
	}

	intercept := regression.Estimate{
		Coefficient:   s.uniform(-interceptCoefLimit, interceptCoefLimit),
		StandardError: s.uniform(0, interceptSELimit),
		TStatistic:    s.uniform(-interceptTLimit, interceptTLimit),
		PValue:        s.uniform(0, 1),
		Significance:  regression.TierOne,
	}
	if s.uniform(0, 1) < interceptTierTwoCut {
		intercept.Significance = regression.TierTwo
	}

	return &regression.Result{
		Kind:              cfg.Kind,
		DependentVariable: cfg.DependentVariable,
		ObservationCount:  regression.MockObservationCount,
		RSquared:          regression.MockRSquared,
		AdjustedRSquared:  regression.MockAdjustedRSquared,
		FStatistic:        regression.MockFStatistic,
		FTestPValue:       regression.MockFTestPValue,
		Intercept:         intercept,
		Coefficients:      coefficients,
	}
}

func (s *Synthesizer) uniform(min, max float64) float64 {
	return distuv.Uniform{Min: min, Max: max, Src: s.src}.Rand()
}

// drawTier makes up to three fresh draws: *** on the first success, then **,
// then *. It is deliberately unrelated to the displayed p-value.
func (s *Synthesizer) drawTier() regression.SignificanceTier {
	switch {
	case s.uniform(0, 1) < tierThreeCut:
		return regression.TierThree
	case s.uniform(0, 1) < tierTwoCut:
		return regression.TierTwo
	case s.uniform(0, 1) < tierOneCut:
		return regression.TierOne
	}
	return regression.TierNone
}
