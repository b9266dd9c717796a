package ports

import (
	"context"

	"regdash/domain/insight"
)

// InsightGenerator produces an insight record for a summary request.
// Implementations report every failure as errors.InsightFailed.
type InsightGenerator interface {
	Generate(ctx context.Context, req insight.Request) (*insight.Record, error)
}
