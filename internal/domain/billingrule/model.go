package billingrule

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
)

// Tier is one step of a piecewise tiered_rates schedule: units in
// [UpTo(previous tier), UpTo) are charged at Rate. A nil UpTo on the
// last tier means "and beyond".
type Tier struct {
	UpTo *decimal.Decimal `json:"up_to,omitempty"`
	Rate decimal.Decimal  `json:"rate"`
}

// TierSchedule is the JSONB-backed []Tier column.
type TierSchedule []Tier

func (t *TierSchedule) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal tiered_rates value: %v", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, t)
}

func (t TierSchedule) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal(TierSchedule{})
	}
	return json.Marshal(t)
}

// BillingRule prices one (service_type, provider, model_or_tier) tuple
// (§3). Selection picks the most specific active rule whose
// [EffectiveFrom, EffectiveUntil) contains the event's timestamp.
type BillingRule struct {
	ID                string            `db:"id" json:"id"`
	ServiceType       types.ServiceType `db:"service_type" json:"service_type"`
	Provider          string            `db:"provider" json:"provider"`
	ModelOrTier       *string           `db:"model_or_tier" json:"model_or_tier,omitempty"`
	BillingUnit       types.BillingUnit `db:"billing_unit" json:"billing_unit"`
	RatePerUnit       decimal.Decimal   `db:"rate_per_unit" json:"rate_per_unit"`
	TieredRates       TierSchedule      `db:"tiered_rates" json:"tiered_rates,omitempty"`
	MinimumCharge     decimal.Decimal   `db:"minimum_charge" json:"minimum_charge"`
	CalculationMethod types.CalculationMethod `db:"calculation_method" json:"calculation_method"`
	EffectiveFrom     time.Time         `db:"effective_from" json:"effective_from"`
	EffectiveUntil    *time.Time        `db:"effective_until" json:"effective_until,omitempty"`
	IsActive          bool              `db:"is_active" json:"is_active"`
	types.BaseModel
}

// AppliesAt reports whether the rule is active and its effective
// window contains t (spec §3's [effective_from, effective_until) rule).
func (r *BillingRule) AppliesAt(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if t.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveUntil != nil && !t.Before(*r.EffectiveUntil) {
		return false
	}
	return true
}

// Specificity ranks model-specific rules above provider-default ones,
// used by the selection algorithm to break ties among applicable rules.
func (r *BillingRule) Specificity() int {
	if r.ModelOrTier != nil && *r.ModelOrTier != "" {
		return 1
	}
	return 0
}

func New(tenantID string, serviceType types.ServiceType, provider string) *BillingRule {
	now := time.Now().UTC()
	return &BillingRule{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RULE),
		ServiceType:       serviceType,
		Provider:          provider,
		RatePerUnit:       decimal.Zero,
		MinimumCharge:     decimal.Zero,
		CalculationMethod: types.CalculationMethodMultiply,
		EffectiveFrom:     now,
		IsActive:          true,
		BaseModel: types.BaseModel{
			TenantID:  tenantID,
			Status:    types.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

type Repository interface {
	Get(ctx context.Context, id string) (*BillingRule, error)
	// FindApplicable returns all active rules for (tenant, service_type,
	// provider[, model_or_tier]) whose window could contain `at`; the
	// pricing engine picks the most specific, most recent match.
	FindApplicable(ctx context.Context, tenantID string, serviceType types.ServiceType, provider string, modelOrTier *string, at time.Time) ([]*BillingRule, error)
	List(ctx context.Context, tenantID string) ([]*BillingRule, error)
	Upsert(ctx context.Context, r *BillingRule) error
}
