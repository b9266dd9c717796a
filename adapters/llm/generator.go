package llm

import (
	"fmt"
	"log"
	"strings"

	"regdash/internal/errors"
	"regdash/ports"
)

// NewGenerator builds the generator named by cfg.Provider. An empty provider
// means template.
func NewGenerator(cfg Config) (ports.InsightGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderTemplate:
		log.Printf("[InsightGenerator] using template provider (delay %v)", cfg.Delay)
		return NewTemplateGenerator(cfg.Delay), nil
	case ProviderAnthropic:
		g, err := NewAnthropicGenerator(cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("[InsightGenerator] using anthropic provider (model %s)", g.Model())
		return g, nil
	case ProviderRemote:
		g, err := NewRemoteGenerator(cfg.RemoteURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		log.Printf("[InsightGenerator] using remote provider at %s", g.BaseURL)
		return g, nil
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown insight provider %q (want template, anthropic or remote)", cfg.Provider))
	}
}
