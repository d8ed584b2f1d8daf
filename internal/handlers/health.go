package handlers

import (
	"context"
	"net/http"
	"time"

	"chessmistry-api/internal/stats"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether storage is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	metrics *stats.Collector
}

func NewHealthHandler(db Pinger, metrics *stats.Collector) *HealthHandler {
	return &HealthHandler{
		db:      db,
		metrics: metrics,
	}
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	isHealthy := true
	dbStatus := "up"
	statusCode := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	// Check database connection
	if err := h.db.Ping(ctx); err != nil {
		isHealthy = false
		dbStatus = "down"
		statusCode = http.StatusServiceUnavailable
	}

	response := gin.H{
		"status":         map[bool]string{true: "healthy", false: "unhealthy"}[isHealthy],
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(h.metrics.Uptime().Seconds()),
		"dependencies": gin.H{
			"database": dbStatus,
		},
	}

	// Handle Prometheus format if requested
	if c.GetHeader("Accept") == "text/plain" {
		c.String(statusCode, "health_status %d\ndatabase_status %d\n",
			map[bool]int{true: 1, false: 0}[isHealthy],
			map[string]int{"up": 1, "down": 0}[dbStatus])
		return
	}

	c.JSON(statusCode, response)
}
