package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdash/domain/regression"
	"regdash/internal/errors"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "GIN_MODE", "SESSION_TTL",
		"INSIGHT_API_PORT", "INSIGHT_API_ENABLED", "CORS_ORIGINS", "INSIGHT_API_TIMEOUT",
		"INSIGHT_PROVIDER", "ANTHROPIC_API_KEY", "LLM_MODEL", "LLM_MAX_TOKENS",
		"ANTHROPIC_BASE_URL", "INSIGHT_API_URL", "INSIGHT_DELAY", "LLM_TIMEOUT",
		"SYNTH_SEED", "SYNTH_CONSISTENT_TIERS", "VARIABLE_CATALOG",
		"EXPORT_TITLE", "EXPORT_DECIMALS", "EXPORT_OPTIONS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionTTL)
	assert.Equal(t, "8081", cfg.InsightAPI.Port)
	assert.True(t, cfg.InsightAPI.Enabled)
	assert.Equal(t, []string{"*"}, cfg.InsightAPI.CORSOrigins)
	assert.Equal(t, "template", cfg.AI.Provider)
	assert.Equal(t, "claude-3-haiku-20240307", cfg.AI.Model)
	assert.Equal(t, 1000, cfg.AI.MaxTokens)
	assert.Equal(t, 2*time.Second, cfg.AI.Delay)
	assert.Zero(t, cfg.Synth.Seed)
	assert.False(t, cfg.Synth.ConsistentTiers)
	assert.Empty(t, cfg.Catalog.Path)
	assert.Equal(t, "Regression Results", cfg.Export.Title)
	assert.Equal(t, 3, cfg.Export.Decimals)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("INSIGHT_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("INSIGHT_DELAY", "250ms")
	t.Setenv("SYNTH_SEED", "42")
	t.Setenv("SYNTH_CONSISTENT_TIERS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.InsightAPI.CORSOrigins)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.AI.Delay)
	assert.Equal(t, uint64(42), cfg.Synth.Seed)
	assert.True(t, cfg.Synth.ConsistentTiers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"anthropic without key", map[string]string{"INSIGHT_PROVIDER": "anthropic"}},
		{"remote without url", map[string]string{"INSIGHT_PROVIDER": "remote"}},
		{"unknown provider", map[string]string{"INSIGHT_PROVIDER": "openai"}},
		{"bad seed", map[string]string{"SYNTH_SEED": "-3"}},
		{"port clash", map[string]string{"PORT": "8081"}},
		{"zero tokens", map[string]string{"LLM_MAX_TOKENS": "0"}},
		{"too many decimals", map[string]string{"EXPORT_DECIMALS": "9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, regression.DefaultCatalog(), c)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
variables:
  - name: price
    type: continuous
    description: Sale price
  - name: rooms
    type: categorical
  - name: garden
    type: binary
`), 0o644))

	c, err = LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c, 3)
	assert.Equal(t, regression.Variable{Name: "price", Type: regression.TypeContinuous, Description: "Sale price"}, c[0])

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestParseCatalog_Rejects(t *testing.T) {
	_, err := ParseCatalog([]byte("variables: ["))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("variables: []"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("variables:\n  - name: x\n    type: ordinal\n"))
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
