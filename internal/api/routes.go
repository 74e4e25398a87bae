package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/playreversi/backend/internal/api/handlers"
	"github.com/playreversi/backend/internal/config"
	"github.com/playreversi/backend/internal/ws"
)

// SetupRoutes configures the HTTP surface: the health probe and the
// WebSocket entry point, behind CORS for the frontend dev server.
func SetupRoutes(router *gin.Engine, wsHandler *ws.Handler, cfg *config.Config) {
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.AllowedOrigin},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       time.Hour,
	}))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/ws", wsHandler.Serve)
}
