package handlers

import (
	"net/http"
	"time"

	"github.com/flexprice/flexprice/internal/domain/billingrule"
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/pricing"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/gin-gonic/gin"
)

// PricingHandler exposes a dry-run cost estimate over the same rule
// selection and calculation path the event processor uses (§4.2),
// without writing an event. Supplements the ingest/query surface
// spec.md names; useful for clients previewing cost before sending.
type PricingHandler struct {
	rules billingrule.Repository
}

func NewPricingHandler(rules billingrule.Repository) *PricingHandler {
	return &PricingHandler{rules: rules}
}

type estimateRequest struct {
	ServiceType     string        `json:"service_type" binding:"required"`
	ServiceProvider string        `json:"service_provider" binding:"required"`
	ModelOrTier     *string       `json:"model_or_tier"`
	Metrics         types.JSONMap `json:"metrics"`
}

// Estimate godoc
// @Summary  Estimate the cost of a hypothetical event
// @Tags     pricing
// @Accept   json
// @Produce  json
// @Router   /api/v1/pricing/estimate [post]
func (h *PricingHandler) Estimate(c *gin.Context) {
	var req estimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.NewError("malformed request body").WithHint(err.Error()).Mark(ierr.ErrValidation))
		return
	}

	tenantID := types.GetTenantID(c.Request.Context())
	serviceType := types.ServiceType(req.ServiceType)
	if err := serviceType.Validate(); err != nil {
		c.Error(ierr.NewError("invalid service_type").Mark(ierr.ErrValidation))
		return
	}

	candidates, err := h.rules.FindApplicable(c.Request.Context(), tenantID, serviceType, req.ServiceProvider, req.ModelOrTier, time.Now().UTC())
	if err != nil {
		c.Error(ierr.WithError(err).WithHint("failed to look up billing rules").Mark(ierr.ErrInternal))
		return
	}

	rule := pricing.SelectRule(candidates)
	result := pricing.Calculate(serviceType, req.Metrics, rule)

	c.JSON(http.StatusOK, gin.H{
		"total_cost":         result.TotalCost,
		"base_cost":          result.BaseCost,
		"billing_unit":       result.BillingUnit,
		"unit_count":         result.UnitCount,
		"rate_per_unit":      result.RatePerUnit,
		"calculation_method": result.CalculationMethod,
		"rule_matched":       rule != nil,
	})
}
