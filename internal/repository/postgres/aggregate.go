package postgres

import (
	"context"

	"github.com/flexprice/flexprice/internal/domain/aggregate"
	ierr "github.com/flexprice/flexprice/internal/errors"
	pg "github.com/flexprice/flexprice/internal/postgres"
)

type AggregateRepository struct {
	db *pg.DB
}

func NewAggregateRepository(db *pg.DB) aggregate.Repository {
	return &AggregateRepository{db: db}
}

// Upsert writes on the composite identity spec §3 names: (tenant_id,
// period_start, period_type, service_type, service_provider, user_id).
// NULLs in the nullable dimension columns need the `IS NOT DISTINCT
// FROM` comparator everywhere a partial unique index would otherwise
// treat two NULLs as distinct.
func (r *AggregateRepository) Upsert(ctx context.Context, a *aggregate.UsageAggregate) error {
	query := `INSERT INTO usage_aggregates (
		id, tenant_id, period_start, period_end, period_type, service_type, service_provider, user_id,
		event_count, unique_users, error_count, total_cost, error_rate, avg_latency_ms, p95_latency_ms,
		aggregated_metrics, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :period_start, :period_end, :period_type, :service_type, :service_provider, :user_id,
		:event_count, :unique_users, :error_count, :total_cost, :error_rate, :avg_latency_ms, :p95_latency_ms,
		:aggregated_metrics, :status, :created_at, :updated_at, :created_by, :updated_by
	) ON CONFLICT (tenant_id, period_start, period_type, service_type, service_provider, user_id) DO UPDATE SET
		period_end = EXCLUDED.period_end,
		event_count = EXCLUDED.event_count,
		unique_users = EXCLUDED.unique_users,
		error_count = EXCLUDED.error_count,
		total_cost = EXCLUDED.total_cost,
		error_rate = EXCLUDED.error_rate,
		avg_latency_ms = EXCLUDED.avg_latency_ms,
		p95_latency_ms = EXCLUDED.p95_latency_ms,
		aggregated_metrics = EXCLUDED.aggregated_metrics,
		updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return ierr.WithError(err).WithHint("failed to upsert usage aggregate").Mark(ierr.ErrInternal)
	}
	return nil
}

func (r *AggregateRepository) Get(ctx context.Context, tenantID string, k aggregate.Key) (*aggregate.UsageAggregate, error) {
	query := `SELECT * FROM usage_aggregates
		WHERE tenant_id = $1 AND period_start = $2 AND period_type = $3
		AND service_type IS NOT DISTINCT FROM $4
		AND service_provider IS NOT DISTINCT FROM $5
		AND user_id IS NOT DISTINCT FROM $6`
	var a aggregate.UsageAggregate
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &a, query, tenantID, k.PeriodStart, string(k.PeriodType), k.ServiceType, k.ServiceProvider, k.UserID); err != nil {
		return nil, ierr.WithError(err).WithHint("usage aggregate not found").Mark(ierr.ErrNotFound)
	}
	return &a, nil
}

func (r *AggregateRepository) List(ctx context.Context, f aggregate.ListFilter) ([]*aggregate.UsageAggregate, error) {
	query := `SELECT * FROM usage_aggregates
		WHERE tenant_id = $1 AND period_type = $2 AND period_start >= $3 AND period_start < $4`
	args := []interface{}{f.TenantID, string(f.PeriodType), f.From, f.To}
	if f.ServiceType != nil {
		query += ` AND service_type = $5`
		args = append(args, *f.ServiceType)
	}
	query += ` ORDER BY period_start DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + itoa(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + itoa(f.Offset)
	}

	var aggregates []*aggregate.UsageAggregate
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &aggregates, query, args...); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list usage aggregates").Mark(ierr.ErrInternal)
	}
	return aggregates, nil
}
