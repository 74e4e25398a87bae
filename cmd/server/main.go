package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/playreversi/backend/internal/api"
	"github.com/playreversi/backend/internal/config"
	"github.com/playreversi/backend/internal/logger"
	"github.com/playreversi/backend/internal/server"
	"github.com/playreversi/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize the file logger
	if err := logger.Init(cfg.LogPath); err != nil {
		log.Printf("Couldn't open log file %s, logging to stderr: %v", cfg.LogPath, err)
	}
	defer logger.Shutdown()

	// Start the game coordinator
	coordinator := server.NewCoordinator(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coordinator.Run(ctx)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	api.SetupRoutes(router, ws.NewHandler(coordinator, cfg), cfg)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	logger.Success("Server started at %s", addr)

	if err := router.Run(addr); err != nil {
		logger.Error("Failed to start server: %v", err)
		log.Fatalf("Failed to start server: %v", err)
	}
}
