package billingsummary

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
)

// BillingSummary is the per-tenant, per-month rollup keyed on
// (tenant_id, billing_year, billing_month) (§3).
type BillingSummary struct {
	ID             string          `db:"id" json:"id"`
	BillingYear    int             `db:"billing_year" json:"billing_year"`
	BillingMonth   int             `db:"billing_month" json:"billing_month"`
	TotalCost      decimal.Decimal `db:"total_cost" json:"total_cost"`
	CostByService  types.JSONMap   `db:"cost_by_service" json:"cost_by_service"`
	CostByUser     types.JSONMap   `db:"cost_by_user" json:"cost_by_user"`
	TotalEvents    int64           `db:"total_events" json:"total_events"`
	ActiveUsers    int64           `db:"active_users" json:"active_users"`
	IsFinalized    bool            `db:"is_finalized" json:"is_finalized"`
	FinalizedAt    *time.Time      `db:"finalized_at" json:"finalized_at,omitempty"`
	types.BaseModel
}

func New(tenantID string, year, month int) *BillingSummary {
	now := time.Now().UTC()
	return &BillingSummary{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_SUMMARY),
		BillingYear:   year,
		BillingMonth:  month,
		TotalCost:     decimal.Zero,
		CostByService: types.JSONMap{},
		CostByUser:    types.JSONMap{},
		BaseModel: types.BaseModel{
			TenantID:  tenantID,
			Status:    types.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Finalize marks the summary immutable; the aggregation engine stops
// rewriting it once set (spec §4.6's month-close semantics).
func (b *BillingSummary) Finalize() {
	now := time.Now().UTC()
	b.IsFinalized = true
	b.FinalizedAt = &now
}

type Repository interface {
	Upsert(ctx context.Context, b *BillingSummary) error
	Get(ctx context.Context, tenantID string, year, month int) (*BillingSummary, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*BillingSummary, error)
}
