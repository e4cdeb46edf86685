package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/tabextract/internal/session"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	session *session.Session
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sess *session.Session) *HealthHandler {
	return &HealthHandler{session: sess, started: time.Now()}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"job_running": h.session.IsRunning(),
		"uptime":      time.Since(h.started).Round(time.Second).String(),
	})
}
