package ports

import "regdash/domain/regression"

// ResultSynthesizer turns a model configuration into a regression result.
// The mock implementation can be swapped for a real estimator without
// touching any consumer.
type ResultSynthesizer interface {
	Synthesize(cfg regression.ModelConfiguration) *regression.Result
}
