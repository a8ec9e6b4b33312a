package postgres

import (
	"context"

	"github.com/flexprice/flexprice/internal/domain/tenant"
	ierr "github.com/flexprice/flexprice/internal/errors"
	pg "github.com/flexprice/flexprice/internal/postgres"
)

type TenantRepository struct {
	db *pg.DB
}

func NewTenantRepository(db *pg.DB) tenant.Repository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	query := `INSERT INTO tenants (id, name, settings, rate_limit, usage_quota, billing_contact, status, created_at, updated_at)
		VALUES (:id, :name, :settings, :rate_limit, :usage_quota, :billing_contact, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return ierr.WithError(err).WithHint("failed to create tenant").Mark(ierr.ErrInternal)
	}
	return nil
}

func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	query := `UPDATE tenants SET name=:name, settings=:settings, rate_limit=:rate_limit,
		usage_quota=:usage_quota, billing_contact=:billing_contact, status=:status, updated_at=:updated_at
		WHERE id=:id`
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return ierr.WithError(err).WithHint("failed to update tenant").Mark(ierr.ErrInternal)
	}
	return nil
}

func (r *TenantRepository) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	query := `SELECT * FROM tenants WHERE id = $1 AND status != 'deleted'`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &t, query, id); err != nil {
		return nil, ierr.WithError(err).WithHint("tenant not found").Mark(ierr.ErrNotFound)
	}
	return &t, nil
}

func (r *TenantRepository) List(ctx context.Context) ([]*tenant.Tenant, error) {
	var tenants []*tenant.Tenant
	query := `SELECT * FROM tenants WHERE status != 'deleted' ORDER BY created_at DESC`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &tenants, query); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list tenants").Mark(ierr.ErrInternal)
	}
	return tenants, nil
}
