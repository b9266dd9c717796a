package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"regdash/domain/insight"
	"regdash/internal/errors"
)

// Provider names accepted by NewGenerator
const (
	ProviderTemplate  = "template"
	ProviderAnthropic = "anthropic"
	ProviderRemote    = "remote"
)

// Defaults for the hosted insight call
const (
	DefaultModel     = "claude-3-haiku-20240307"
	DefaultMaxTokens = 1000
	DefaultDelay     = 2 * time.Second
	DefaultTimeout   = 30 * time.Second
)

// Config selects and configures an insight generator
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string // Anthropic endpoint override
	RemoteURL string // regdash insight API
	Delay     time.Duration
	Timeout   time.Duration
}

// BuildPrompt renders the single user message sent to the language model
func BuildPrompt(req insight.Request) string {
	return fmt.Sprintf(`Analyze this regression model. Respond in JSON format only:

Model Stats:
- R²: %s
- Adj R²: %s
- F-test p: %s
- Significant vars: %s/%s
- DV: %s

Required JSON structure:
{
  "modelHealth": {"score": 0-100, "status": "excellent|good|moderate|poor", "factors": ["factor1", "factor2"]},
  "keyInsights": [{"metric": "explanatory_power", "value": 74.2, "interpretation": "good", "description": "brief"}],
  "recommendations": [{"priority": "high", "action": "brief_action", "reason": "brief_reason"}],
  "technicalNotes": [{"category": "fit", "finding": "brief", "implication": "brief"}]
}

Keep all text concise. Max 3 insights, 4 recommendations, 3 technical notes.`,
		num(req.RSquared), num(req.AdjustedRSquared), num(req.PValueF),
		num(req.SignificantVars), num(req.TotalVars), req.DependentVariable)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// decodeRecord parses a model or service reply into a schema-checked record
func decodeRecord(source, content string) (*insight.Record, error) {
	cleaned := cleanJSONContent(content)
	if cleaned == "" {
		return nil, errors.InsightFailed(fmt.Errorf("%s returned an empty reply", source))
	}

	var rec insight.Record
	if err := json.Unmarshal([]byte(cleaned), &rec); err != nil {
		log.Printf("[InsightGenerator] %s reply is not valid JSON (%d bytes): %v", source, len(cleaned), err)
		return nil, errors.InsightFailed(fmt.Errorf("%s reply is not valid JSON: %w", source, err))
	}
	if err := rec.Validate(); err != nil {
		log.Printf("[InsightGenerator] %s reply failed schema check: %v", source, err)
		return nil, errors.InsightFailed(fmt.Errorf("%s reply failed schema check: %w", source, err))
	}
	return &rec, nil
}

// cleanJSONContent strips markdown fences and leading chatter so the object
// can be decoded
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") && len(content) >= 6 {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if trimmed == "" ||
			strings.HasPrefix(lower, "here is") ||
			strings.HasPrefix(lower, "the json") ||
			strings.HasPrefix(lower, "output:") ||
			strings.HasPrefix(lower, "response:") ||
			strings.HasPrefix(lower, "##") {
			continue
		}
		kept = append(kept, line)
	}
	content = strings.TrimSpace(strings.Join(kept, "\n"))

	// anything before the first brace is prose
	if i := strings.Index(content, "{"); i > 0 {
		content = content[i:]
	}
	if i := strings.LastIndex(content, "}"); i >= 0 && i < len(content)-1 {
		content = content[:i+1]
	}
	return content
}
