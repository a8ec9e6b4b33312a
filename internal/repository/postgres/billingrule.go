package postgres

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/domain/billingrule"
	ierr "github.com/flexprice/flexprice/internal/errors"
	pg "github.com/flexprice/flexprice/internal/postgres"
	"github.com/flexprice/flexprice/internal/types"
)

type BillingRuleRepository struct {
	db *pg.DB
}

func NewBillingRuleRepository(db *pg.DB) billingrule.Repository {
	return &BillingRuleRepository{db: db}
}

func (r *BillingRuleRepository) Get(ctx context.Context, id string) (*billingrule.BillingRule, error) {
	var rule billingrule.BillingRule
	query := `SELECT * FROM billing_rules WHERE id = $1`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &rule, query, id); err != nil {
		return nil, ierr.WithError(err).WithHint("billing rule not found").Mark(ierr.ErrNotFound)
	}
	return &rule, nil
}

// FindApplicable fetches every active rule matching (tenant,
// service_type, provider) whose window could contain `at`; the caller
// (pricing engine) narrows to the most specific/most recent match
// since "most-specific-wins" is a ranking the SQL layer shouldn't own.
func (r *BillingRuleRepository) FindApplicable(ctx context.Context, tenantID string, serviceType types.ServiceType, provider string, modelOrTier *string, at time.Time) ([]*billingrule.BillingRule, error) {
	query := `SELECT * FROM billing_rules
		WHERE tenant_id = $1 AND service_type = $2 AND provider = $3 AND is_active = true
		AND effective_from <= $4 AND (effective_until IS NULL OR effective_until > $4)
		AND (model_or_tier IS NULL OR model_or_tier = $5)
		ORDER BY effective_from DESC`

	var modelArg interface{}
	if modelOrTier != nil {
		modelArg = *modelOrTier
	}

	var rules []*billingrule.BillingRule
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rules, query, tenantID, string(serviceType), provider, at, modelArg); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to find applicable billing rules").Mark(ierr.ErrInternal)
	}
	return rules, nil
}

func (r *BillingRuleRepository) List(ctx context.Context, tenantID string) ([]*billingrule.BillingRule, error) {
	var rules []*billingrule.BillingRule
	query := `SELECT * FROM billing_rules WHERE tenant_id = $1 ORDER BY service_type, provider, effective_from DESC`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rules, query, tenantID); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list billing rules").Mark(ierr.ErrInternal)
	}
	return rules, nil
}

func (r *BillingRuleRepository) Upsert(ctx context.Context, rule *billingrule.BillingRule) error {
	query := `INSERT INTO billing_rules (
		id, tenant_id, service_type, provider, model_or_tier, billing_unit, rate_per_unit,
		tiered_rates, minimum_charge, calculation_method, effective_from, effective_until,
		is_active, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :service_type, :provider, :model_or_tier, :billing_unit, :rate_per_unit,
		:tiered_rates, :minimum_charge, :calculation_method, :effective_from, :effective_until,
		:is_active, :status, :created_at, :updated_at, :created_by, :updated_by
	) ON CONFLICT (id) DO UPDATE SET
		rate_per_unit = EXCLUDED.rate_per_unit,
		tiered_rates = EXCLUDED.tiered_rates,
		minimum_charge = EXCLUDED.minimum_charge,
		effective_until = EXCLUDED.effective_until,
		is_active = EXCLUDED.is_active,
		updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return ierr.WithError(err).WithHint("failed to upsert billing rule").Mark(ierr.ErrInternal)
	}
	return nil
}
