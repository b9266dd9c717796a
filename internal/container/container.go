package container

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"regdash/adapters/excel"
	"regdash/adapters/llm"
	"regdash/adapters/memory"
	"regdash/adapters/synth"
	"regdash/app"
	"regdash/domain/regression"
	"regdash/internal"
	"regdash/internal/config"
	"regdash/internal/insightapi"
	"regdash/ports"
	"regdash/ui"
)

// sweepInterval is how often idle sessions are checked for expiry
const sweepInterval = time.Minute

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Catalog     regression.Catalog
	Sessions    *memory.SessionStore
	Synthesizer *synth.Synthesizer
	Generator   ports.InsightGenerator

	Dashboard *app.DashboardService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: internal.NewDefaultLogger(),
	}

	if err := c.initDomain(); err != nil {
		return nil, fmt.Errorf("failed to initialize domain: %w", err)
	}
	if err := c.initAdapters(); err != nil {
		return nil, fmt.Errorf("failed to initialize adapters: %w", err)
	}

	c.Dashboard = app.NewDashboardService(c.Sessions, c.Synthesizer, c.Generator, c.Catalog, c.Logger)

	log.Printf("[Container] ready: %d variables, provider %s, session ttl %v",
		len(c.Catalog), cfg.AI.Provider, cfg.Server.SessionTTL)
	return c, nil
}

func (c *Container) initDomain() error {
	catalog, err := config.LoadCatalog(c.Config.Catalog.Path)
	if err != nil {
		return err
	}
	c.Catalog = catalog
	return nil
}

func (c *Container) initAdapters() error {
	c.Sessions = memory.NewSessionStore(c.Config.Server.SessionTTL)
	c.Synthesizer = synth.New(SynthOptions(c.Config.Synth)...)

	generator, err := llm.NewGenerator(LLMConfig(c.Config.AI))
	if err != nil {
		return err
	}
	c.Generator = generator
	return nil
}

// SynthOptions translates synthesizer settings into constructor options
func SynthOptions(cfg config.SynthConfig) []synth.Option {
	var opts []synth.Option
	if cfg.Seed != 0 {
		opts = append(opts, synth.WithSeed(cfg.Seed))
	}
	if cfg.ConsistentTiers {
		opts = append(opts, synth.WithConsistentTiers())
	}
	return opts
}

// LLMConfig translates AI settings into the generator factory config
func LLMConfig(cfg config.AIConfig) llm.Config {
	return llm.Config{
		Provider:  cfg.Provider,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		BaseURL:   cfg.BaseURL,
		RemoteURL: cfg.RemoteURL,
		Delay:     cfg.Delay,
		Timeout:   cfg.Timeout,
	}
}

// TableOptions returns the export defaults from config, with the options
// file applied last when one is set
func (c *Container) TableOptions() (excel.TableOptions, error) {
	opts := excel.DefaultTableOptions()
	opts.Title = c.Config.Export.Title
	opts.Decimals = c.Config.Export.Decimals
	if c.Config.Export.OptionsPath == "" {
		return opts, nil
	}
	return excel.LoadTableOptions(c.Config.Export.OptionsPath, opts)
}

// DashboardServer builds the gin dashboard
func (c *Container) DashboardServer() (*ui.Server, error) {
	table, err := c.TableOptions()
	if err != nil {
		return nil, err
	}
	return ui.NewServer(c.Dashboard, ui.Options{
		GinMode: c.Config.Server.GinMode,
		Table:   table,
	})
}

// InsightServer builds the standalone insight API around the configured generator
func (c *Container) InsightServer() *insightapi.Server {
	return insightapi.NewServer(":"+c.Config.InsightAPI.Port, insightapi.Config{
		AllowedOrigins: c.Config.InsightAPI.CORSOrigins,
		RequestTimeout: c.Config.InsightAPI.RequestTimeout,
	}, c.Generator)
}

// Serve runs the dashboard, the insight API when enabled, and the session
// sweeper until ctx is cancelled or one of them fails.
func (c *Container) Serve(ctx context.Context) error {
	dashboard, err := c.DashboardServer()
	if err != nil {
		return fmt.Errorf("failed to build dashboard server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreClosed(dashboard.Run(ctx, ":"+c.Config.Server.Port))
	})
	switch {
	case !c.Config.InsightAPI.Enabled:
	case c.Config.AI.Provider == llm.ProviderRemote:
		log.Printf("[Container] insight API not started: provider is remote and would call itself")
	default:
		api := c.InsightServer()
		g.Go(func() error {
			return ignoreClosed(api.Run(ctx))
		})
	}
	g.Go(func() error {
		c.Sessions.RunSweeper(ctx, sweepInterval)
		return nil
	})

	err = g.Wait()
	c.Close()
	return err
}

// Close waits for in-flight insight generation to settle
func (c *Container) Close() {
	if c.Dashboard != nil {
		c.Dashboard.Wait()
	}
	log.Printf("[Container] closed")
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
