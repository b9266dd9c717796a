package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"regdash/domain/insight"
	"regdash/internal/errors"
	"regdash/ports"
)

// maxResponseBytes bounds how much of an insight API reply is read
const maxResponseBytes = 1 << 20

// RemoteGenerator calls a regdash insight API over HTTP
type RemoteGenerator struct {
	BaseURL string
	client  *http.Client
}

var _ ports.InsightGenerator = (*RemoteGenerator)(nil)

// NewRemoteGenerator creates a client for the insight API at baseURL
func NewRemoteGenerator(baseURL string, timeout time.Duration) (*RemoteGenerator, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.ConfigInvalid("remote provider requires INSIGHT_API_URL")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RemoteGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (g *RemoteGenerator) Generate(ctx context.Context, req insight.Request) (*insight.Record, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, errors.InsightFailed(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/insights", bytes.NewReader(raw))
	if err != nil {
		return nil, errors.InsightFailed(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, errors.InsightFailed(fmt.Errorf("insight api request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, errors.InsightFailed(fmt.Errorf("read response: %w", err))
	}
	if len(body) > maxResponseBytes {
		return nil, errors.InsightFailed(fmt.Errorf("insight api response exceeds %d bytes", maxResponseBytes))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.InsightFailed(fmt.Errorf("insight api http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return decodeRecord("insight api", string(body))
}
