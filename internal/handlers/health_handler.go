package handlers

import (
	"context"
	"net/http"
	"time"

	"learnapp/internal/config"
	"learnapp/internal/observability"
	"learnapp/internal/version"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and build metadata
type HealthHandler struct {
	db          Pinger
	serviceName string
	logger      *observability.Logger
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(db Pinger, serviceName string, logger *observability.Logger) *HealthHandler {
	return &HealthHandler{db: db, serviceName: serviceName, logger: logger}
}

// Health handles GET /health. A failed database ping yields 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.HealthCheckTimeout)
	defer cancel()

	status := gin.H{
		"status":    "healthy",
		"service":   h.serviceName,
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.db == nil {
		status["status"], status["database"] = "unhealthy", "not configured"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn(ctx, "Health check database ping failed", map[string]interface{}{"error": err.Error()})
		status["status"], status["database"] = "unhealthy", "disconnected"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Version handles GET /version
func (h *HealthHandler) Version(c *gin.Context) {
	info := version.Get()
	c.JSON(http.StatusOK, gin.H{
		"service":    h.serviceName,
		"version":    info.Version,
		"commit":     info.Commit,
		"build_time": info.BuildTime,
		"go_version": info.GoVersion,
	})
}
