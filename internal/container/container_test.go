package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdash/adapters/excel"
	"regdash/adapters/llm"
	"regdash/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: "0", GinMode: "test", SessionTTL: time.Hour},
		InsightAPI: config.InsightAPIConfig{Port: "0", CORSOrigins: []string{"*"}, RequestTimeout: time.Second},
		AI:         config.AIConfig{Provider: llm.ProviderTemplate, MaxTokens: 1000},
		Synth:      config.SynthConfig{Seed: 7, ConsistentTiers: true},
		Export:     config.ExportConfig{Title: "Wages", Decimals: 2},
	}
}

func TestNew_RejectsNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_WiresDashboard(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	assert.Len(t, c.Catalog, 10)
	assert.IsType(t, &llm.TemplateGenerator{}, c.Generator)

	ctx := context.Background()
	state, err := c.Dashboard.NewSession(ctx)
	require.NoError(t, err)
	_, err = c.Dashboard.SetDependent(ctx, state.ID, "GDP")
	require.NoError(t, err)
	_, err = c.Dashboard.AddIndependent(ctx, state.ID, "age")
	require.NoError(t, err)
	state, err = c.Dashboard.Advance(ctx, state.ID)
	require.NoError(t, err)

	require.NotNil(t, state.Result)
	assert.Equal(t, 1, c.Sessions.Len())

	opts, err := c.TableOptions()
	require.NoError(t, err)
	assert.Equal(t, "Wages", opts.Title)
	assert.Equal(t, 2, opts.Decimals)
}

func TestTableOptions_FromFile(t *testing.T) {
	cfg := testConfig()
	cfg.Export.OptionsPath = filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(cfg.Export.OptionsPath,
		[]byte("decimals: 4\nheaders:\n  variable: Predictor\n"), 0o600))

	c, err := New(cfg)
	require.NoError(t, err)
	opts, err := c.TableOptions()
	require.NoError(t, err)
	assert.Equal(t, "Wages", opts.Title, "title from env stays when the file omits it")
	assert.Equal(t, 4, opts.Decimals)
	assert.Equal(t, "Predictor", opts.Header(excel.ColumnVariable))

	_, err = c.DashboardServer()
	require.NoError(t, err)

	cfg.Export.OptionsPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = c.DashboardServer()
	assert.Error(t, err)
}

func TestNew_BadCatalogPath(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Path = "/does/not/exist.yaml"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Provider = "openai"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestSynthOptions(t *testing.T) {
	assert.Empty(t, SynthOptions(config.SynthConfig{}))
	assert.Len(t, SynthOptions(config.SynthConfig{Seed: 1, ConsistentTiers: true}), 2)
}

func TestServe_StopsOnCancel(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
