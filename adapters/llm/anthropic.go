package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"regdash/domain/insight"
	"regdash/internal/errors"
	"regdash/ports"
)

// AnthropicGenerator asks the Messages API for the insight record
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

var _ ports.InsightGenerator = (*AnthropicGenerator)(nil)

// NewAnthropicGenerator creates a generator that sends the key as a bearer
// token. Retries are left to the caller.
func NewAnthropicGenerator(cfg Config) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.ConfigInvalid("anthropic provider requires ANTHROPIC_API_KEY")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAuthToken(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
	}, nil
}

// Model returns the model id sent with each request
func (g *AnthropicGenerator) Model() string { return g.model }

func (g *AnthropicGenerator) Generate(ctx context.Context, req insight.Request) (*insight.Record, error) {
	if _, err := req.Summary(); err != nil {
		return nil, errors.InsightFailed(err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(req))),
		},
	})
	if err != nil {
		log.Printf("[AnthropicGenerator] request failed after %v: %v", time.Since(start), err)
		return nil, errors.InsightFailed(fmt.Errorf("anthropic request: %w", err))
	}

	// only the first text block carries the JSON
	var text string
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text = variant.Text
			break
		}
	}
	log.Printf("[AnthropicGenerator] %s replied in %v (%d output tokens)", g.model, time.Since(start), msg.Usage.OutputTokens)

	return decodeRecord("anthropic", text)
}
