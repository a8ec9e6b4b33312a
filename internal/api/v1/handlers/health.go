package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// storeHealth, metadataHealth, and queueHealth are narrow interfaces so
// HealthHandler depends only on what it calls, not the full
// Store/DB/Queue surface.
type storeHealth interface {
	Health(ctx context.Context) error
}

type metadataHealth interface {
	Health(ctx context.Context) error
}

type queueHealth interface {
	Health(ctx context.Context) error
}

// HealthHandler reports composite ClickHouse + Postgres + queue
// reachability (§4.4).
type HealthHandler struct {
	store    storeHealth
	metadata metadataHealth
	queue    queueHealth
}

func NewHealthHandler(store storeHealth, metadata metadataHealth, queue queueHealth) *HealthHandler {
	return &HealthHandler{store: store, metadata: metadata, queue: queue}
}

// Check godoc
// @Summary  Composite health check
// @Tags     health
// @Produce  json
// @Router   /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	components := gin.H{}
	healthy := true

	if err := h.store.Health(ctx); err != nil {
		components["store"] = gin.H{"status": "down", "error": err.Error()}
		healthy = false
	} else {
		components["store"] = gin.H{"status": "up"}
	}

	if err := h.metadata.Health(ctx); err != nil {
		components["metadata"] = gin.H{"status": "down", "error": err.Error()}
		healthy = false
	} else {
		components["metadata"] = gin.H{"status": "up"}
	}

	if err := h.queue.Health(ctx); err != nil {
		components["queue"] = gin.H{"status": "down", "error": err.Error()}
		healthy = false
	} else {
		components["queue"] = gin.H{"status": "up"}
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{"status": overall, "components": components})
}
