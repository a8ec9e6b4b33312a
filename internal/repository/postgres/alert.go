package postgres

import (
	"context"

	"github.com/flexprice/flexprice/internal/domain/alert"
	ierr "github.com/flexprice/flexprice/internal/errors"
	pg "github.com/flexprice/flexprice/internal/postgres"
)

type AlertConfigRepository struct {
	db *pg.DB
}

func NewAlertConfigRepository(db *pg.DB) alert.ConfigRepository {
	return &AlertConfigRepository{db: db}
}

func (r *AlertConfigRepository) List(ctx context.Context, tenantID string) ([]*alert.AlertConfiguration, error) {
	var configs []*alert.AlertConfiguration
	query := `SELECT * FROM alert_configurations WHERE tenant_id = $1 AND status != 'deleted' ORDER BY created_at DESC`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &configs, query, tenantID); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list alert configurations").Mark(ierr.ErrInternal)
	}
	return configs, nil
}

func (r *AlertConfigRepository) Get(ctx context.Context, id string) (*alert.AlertConfiguration, error) {
	var c alert.AlertConfiguration
	query := `SELECT * FROM alert_configurations WHERE id = $1`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, id); err != nil {
		return nil, ierr.WithError(err).WithHint("alert configuration not found").Mark(ierr.ErrNotFound)
	}
	return &c, nil
}

func (r *AlertConfigRepository) Upsert(ctx context.Context, c *alert.AlertConfiguration) error {
	query := `INSERT INTO alert_configurations (
		id, tenant_id, name, metric, threshold, period_type, service_type, is_active,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :name, :metric, :threshold, :period_type, :service_type, :is_active,
		:status, :created_at, :updated_at, :created_by, :updated_by
	) ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, threshold = EXCLUDED.threshold, is_active = EXCLUDED.is_active,
		updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).WithHint("failed to upsert alert configuration").Mark(ierr.ErrInternal)
	}
	return nil
}

type AlertInstanceRepository struct {
	db *pg.DB
}

func NewAlertInstanceRepository(db *pg.DB) alert.InstanceRepository {
	return &AlertInstanceRepository{db: db}
}

func (r *AlertInstanceRepository) List(ctx context.Context, tenantID string, onlyUnacknowledged bool) ([]*alert.AlertInstance, error) {
	query := `SELECT * FROM alert_instances WHERE tenant_id = $1`
	if onlyUnacknowledged {
		query += ` AND acknowledged = false`
	}
	query += ` ORDER BY triggered_at DESC`
	var instances []*alert.AlertInstance
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &instances, query, tenantID); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list alert instances").Mark(ierr.ErrInternal)
	}
	return instances, nil
}

func (r *AlertInstanceRepository) Get(ctx context.Context, id string) (*alert.AlertInstance, error) {
	var i alert.AlertInstance
	query := `SELECT * FROM alert_instances WHERE id = $1`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &i, query, id); err != nil {
		return nil, ierr.WithError(err).WithHint("alert instance not found").Mark(ierr.ErrNotFound)
	}
	return &i, nil
}

func (r *AlertInstanceRepository) Create(ctx context.Context, i *alert.AlertInstance) error {
	query := `INSERT INTO alert_instances (
		id, tenant_id, config_id, triggered_at, observed_value, acknowledged, acknowledged_at, acknowledged_by,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :config_id, :triggered_at, :observed_value, :acknowledged, :acknowledged_at, :acknowledged_by,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)`
	if _, err := r.db.NamedExecContext(ctx, query, i); err != nil {
		return ierr.WithError(err).WithHint("failed to create alert instance").Mark(ierr.ErrInternal)
	}
	return nil
}

func (r *AlertInstanceRepository) Acknowledge(ctx context.Context, id, by string) error {
	query := `UPDATE alert_instances SET acknowledged = true, acknowledged_at = now(), acknowledged_by = $2, updated_at = now() WHERE id = $1`
	if _, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, by); err != nil {
		return ierr.WithError(err).WithHint("failed to acknowledge alert instance").Mark(ierr.ErrInternal)
	}
	return nil
}
