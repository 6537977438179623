package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is reported by the index route
const Version = "1.0.0"

// Index godoc
// @Summary Service information
// @Tags Health
// @Produce json
// @Success 200
// @Router / [get]
func (h *Handler) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "WhatsApp AI relay is running",
		"version": Version,
		"endpoints": gin.H{
			"webhook":  "POST /webhook",
			"gancho":   "POST /gancho",
			"messages": "GET /api/messages",
			"send":     "POST /api/send",
			"health":   "GET /health",
			"ping":     "GET /ping",
		},
	})
}

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200
// @Router /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// Ping godoc
// @Summary Ping
// @Tags Health
// @Produce json
// @Success 200
// @Router /ping [get]
func (h *Handler) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
