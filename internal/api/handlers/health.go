package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck is the liveness probe.
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "Healthy!")
}
