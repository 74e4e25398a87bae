package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/playreversi/backend/internal/config"
	"github.com/playreversi/backend/internal/logger"
)

// Handler upgrades HTTP requests on the /ws route into game sessions.
type Handler struct {
	coordinator Coordinator
	cfg         *config.Config
	upgrader    websocket.Upgrader
}

// NewHandler builds the upgrade handler. Only the configured frontend
// origin (and non-browser clients, which send no Origin) may connect.
func NewHandler(coordinator Coordinator, cfg *config.Config) *Handler {
	return &Handler{
		coordinator: coordinator,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == cfg.AllowedOrigin
			},
		},
	}
}

// Serve is the gin handler for GET /ws. It blocks for the lifetime of the
// session.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	NewSession(conn, h.coordinator, h.cfg).Run()
}
