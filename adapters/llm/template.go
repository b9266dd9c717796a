package llm

import (
	"context"
	"log"
	"time"

	"regdash/domain/insight"
	"regdash/internal/errors"
	"regdash/ports"
)

// TemplateGenerator answers with the local rule-based synthesizer after a
// simulated round trip
type TemplateGenerator struct {
	Delay time.Duration
}

var _ ports.InsightGenerator = (*TemplateGenerator)(nil)

// NewTemplateGenerator creates a template generator; a negative delay means none
func NewTemplateGenerator(delay time.Duration) *TemplateGenerator {
	if delay < 0 {
		delay = 0
	}
	return &TemplateGenerator{Delay: delay}
}

func (g *TemplateGenerator) Generate(ctx context.Context, req insight.Request) (*insight.Record, error) {
	summary, err := req.Summary()
	if err != nil {
		return nil, errors.InsightFailed(err)
	}

	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			log.Printf("[TemplateGenerator] cancelled while waiting: %v", ctx.Err())
			return nil, errors.InsightFailed(ctx.Err())
		case <-timer.C:
		}
	}

	return insight.Synthesize(summary), nil
}
