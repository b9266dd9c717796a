package llm

import (
	"context"
	"sync"

	"regdash/domain/insight"
	"regdash/internal/errors"
)

// MockGenerator is a scriptable generator for tests
type MockGenerator struct {
	Record *insight.Record // returned when set
	Error  error           // wrapped as an insight failure when set

	mu       sync.Mutex
	requests []insight.Request
}

func (m *MockGenerator) Generate(ctx context.Context, req insight.Request) (*insight.Record, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.InsightFailed(err)
	}
	if m.Error != nil {
		return nil, errors.InsightFailed(m.Error)
	}
	if m.Record != nil {
		return m.Record, nil
	}
	summary, err := req.Summary()
	if err != nil {
		return nil, errors.InsightFailed(err)
	}
	return insight.Synthesize(summary), nil
}

// Requests returns the requests seen so far
func (m *MockGenerator) Requests() []insight.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]insight.Request(nil), m.requests...)
}
