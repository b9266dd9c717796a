package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"regdash/internal/config"
	"regdash/internal/container"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Dashboard on :%s, insight API enabled=%t on :%s",
		appConfig.Server.Port, appConfig.InsightAPI.Enabled, appConfig.InsightAPI.Port)

	if err := appContainer.Serve(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
