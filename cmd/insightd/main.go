// Command insightd runs the insight API on its own, for dashboards configured
// with INSIGHT_PROVIDER=remote.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"regdash/adapters/llm"
	"regdash/internal/config"
	"regdash/internal/container"
	"regdash/internal/insightapi"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.AI.Provider == llm.ProviderRemote {
		log.Fatalf("insightd cannot use the remote provider; set INSIGHT_PROVIDER to template or anthropic")
	}

	generator, err := llm.NewGenerator(container.LLMConfig(cfg.AI))
	if err != nil {
		log.Fatalf("Failed to create insight generator: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := insightapi.NewServer(":"+cfg.InsightAPI.Port, insightapi.Config{
		AllowedOrigins: cfg.InsightAPI.CORSOrigins,
		RequestTimeout: cfg.InsightAPI.RequestTimeout,
	}, generator)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("Insight API failed: %v", err)
	}
}
