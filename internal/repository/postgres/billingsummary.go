package postgres

import (
	"context"

	"github.com/flexprice/flexprice/internal/domain/billingsummary"
	ierr "github.com/flexprice/flexprice/internal/errors"
	pg "github.com/flexprice/flexprice/internal/postgres"
)

type BillingSummaryRepository struct {
	db *pg.DB
}

func NewBillingSummaryRepository(db *pg.DB) billingsummary.Repository {
	return &BillingSummaryRepository{db: db}
}

func (r *BillingSummaryRepository) Upsert(ctx context.Context, b *billingsummary.BillingSummary) error {
	query := `INSERT INTO billing_summaries (
		id, tenant_id, billing_year, billing_month, total_cost, cost_by_service, cost_by_user,
		total_events, active_users, is_finalized, finalized_at, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :billing_year, :billing_month, :total_cost, :cost_by_service, :cost_by_user,
		:total_events, :active_users, :is_finalized, :finalized_at, :status, :created_at, :updated_at, :created_by, :updated_by
	) ON CONFLICT (tenant_id, billing_year, billing_month) DO UPDATE SET
		total_cost = CASE WHEN billing_summaries.is_finalized THEN billing_summaries.total_cost ELSE EXCLUDED.total_cost END,
		cost_by_service = CASE WHEN billing_summaries.is_finalized THEN billing_summaries.cost_by_service ELSE EXCLUDED.cost_by_service END,
		cost_by_user = CASE WHEN billing_summaries.is_finalized THEN billing_summaries.cost_by_user ELSE EXCLUDED.cost_by_user END,
		total_events = CASE WHEN billing_summaries.is_finalized THEN billing_summaries.total_events ELSE EXCLUDED.total_events END,
		active_users = CASE WHEN billing_summaries.is_finalized THEN billing_summaries.active_users ELSE EXCLUDED.active_users END,
		is_finalized = billing_summaries.is_finalized OR EXCLUDED.is_finalized,
		finalized_at = COALESCE(billing_summaries.finalized_at, EXCLUDED.finalized_at),
		updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return ierr.WithError(err).WithHint("failed to upsert billing summary").Mark(ierr.ErrInternal)
	}
	return nil
}

func (r *BillingSummaryRepository) Get(ctx context.Context, tenantID string, year, month int) (*billingsummary.BillingSummary, error) {
	var b billingsummary.BillingSummary
	query := `SELECT * FROM billing_summaries WHERE tenant_id = $1 AND billing_year = $2 AND billing_month = $3`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &b, query, tenantID, year, month); err != nil {
		return nil, ierr.WithError(err).WithHint("billing summary not found").Mark(ierr.ErrNotFound)
	}
	return &b, nil
}

func (r *BillingSummaryRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*billingsummary.BillingSummary, error) {
	var summaries []*billingsummary.BillingSummary
	query := `SELECT * FROM billing_summaries WHERE tenant_id = $1 ORDER BY billing_year DESC, billing_month DESC LIMIT $2 OFFSET $3`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &summaries, query, tenantID, limit, offset); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list billing summaries").Mark(ierr.ErrInternal)
	}
	return summaries, nil
}
