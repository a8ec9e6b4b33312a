package handlers

import (
	"net/http"

	"github.com/flexprice/flexprice/internal/domain/alert"
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/gin-gonic/gin"
)

// AlertsHandler exposes the alert store's list/acknowledge surface.
// Evaluation scheduling and notification delivery are out of scope
// here (§9 treats alert delivery as an external collaborator).
type AlertsHandler struct {
	instances alert.InstanceRepository
}

func NewAlertsHandler(instances alert.InstanceRepository) *AlertsHandler {
	return &AlertsHandler{instances: instances}
}

// ListAlerts godoc
// @Summary  List fired alert instances for the caller's tenant
// @Tags     alerts
// @Produce  json
// @Router   /api/v1/alerts [get]
func (h *AlertsHandler) ListAlerts(c *gin.Context) {
	tenantID := types.GetTenantID(c.Request.Context())
	onlyUnacknowledged := c.Query("unacknowledged") == "true"

	instances, err := h.instances.List(c.Request.Context(), tenantID, onlyUnacknowledged)
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to list alerts").Mark(ierr.ErrInternal))
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": instances})
}

// AcknowledgeAlert godoc
// @Summary  Acknowledge a fired alert instance
// @Tags     alerts
// @Produce  json
// @Param    id path string true "alert instance id"
// @Router   /api/v1/alerts/{id}/acknowledge [post]
func (h *AlertsHandler) AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")
	by := c.GetHeader("X-User-Id")
	if by == "" {
		by = types.GetTenantID(c.Request.Context())
	}

	if err := h.instances.Acknowledge(c.Request.Context(), id, by); err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to acknowledge alert").Mark(ierr.ErrNotFound))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}
