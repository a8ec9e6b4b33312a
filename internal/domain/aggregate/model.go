package aggregate

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
)

// UsageAggregate is a rolled-up counter over one (tenant, period,
// service_type, service_provider, user_id) dimension tuple (§3).
type UsageAggregate struct {
	ID                string     `db:"id" json:"id"`
	PeriodStart       time.Time  `db:"period_start" json:"period_start"`
	PeriodEnd         time.Time  `db:"period_end" json:"period_end"`
	PeriodType        types.PeriodType `db:"period_type" json:"period_type"`
	ServiceType       *string    `db:"service_type" json:"service_type,omitempty"`
	ServiceProvider   *string    `db:"service_provider" json:"service_provider,omitempty"`
	UserID            *string    `db:"user_id" json:"user_id,omitempty"`
	EventCount        int64      `db:"event_count" json:"event_count"`
	UniqueUsers       int64      `db:"unique_users" json:"unique_users"`
	ErrorCount        int64      `db:"error_count" json:"error_count"`
	TotalCost         decimal.Decimal `db:"total_cost" json:"total_cost"`
	ErrorRate         decimal.Decimal `db:"error_rate" json:"error_rate"`
	AvgLatencyMs      decimal.Decimal `db:"avg_latency_ms" json:"avg_latency_ms"`
	P95LatencyMs      decimal.Decimal `db:"p95_latency_ms" json:"p95_latency_ms"`
	AggregatedMetrics types.JSONMap   `db:"aggregated_metrics" json:"aggregated_metrics"`
	types.BaseModel
}

// Key is the composite identity spec §3 declares unique: (tenant_id,
// period_start, period_type, service_type, service_provider, user_id).
type Key struct {
	TenantID        string
	PeriodStart     time.Time
	PeriodType      types.PeriodType
	ServiceType     *string
	ServiceProvider *string
	UserID          *string
}

func New(tenantID string, k Key, periodEnd time.Time) *UsageAggregate {
	now := time.Now().UTC()
	return &UsageAggregate{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AGGREGATE),
		PeriodStart:     k.PeriodStart,
		PeriodEnd:       periodEnd,
		PeriodType:      k.PeriodType,
		ServiceType:     k.ServiceType,
		ServiceProvider: k.ServiceProvider,
		UserID:          k.UserID,
		TotalCost:       decimal.Zero,
		ErrorRate:       decimal.Zero,
		AvgLatencyMs:    decimal.Zero,
		P95LatencyMs:    decimal.Zero,
		AggregatedMetrics: types.JSONMap{},
		BaseModel: types.BaseModel{
			TenantID:  tenantID,
			Status:    types.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// Repository persists UsageAggregates to Postgres, upserted on Key.
type Repository interface {
	Upsert(ctx context.Context, a *UsageAggregate) error
	Get(ctx context.Context, tenantID string, k Key) (*UsageAggregate, error)
	List(ctx context.Context, f ListFilter) ([]*UsageAggregate, error)
}

type ListFilter struct {
	TenantID    string
	PeriodType  types.PeriodType
	From, To    time.Time
	ServiceType *string
	Limit       int
	Offset      int
}
