package postgres

import (
	"context"

	"github.com/flexprice/flexprice/internal/domain/registry"
	ierr "github.com/flexprice/flexprice/internal/errors"
	pg "github.com/flexprice/flexprice/internal/postgres"
	"github.com/flexprice/flexprice/internal/types"
)

type ServiceRegistryRepository struct {
	db *pg.DB
}

func NewServiceRegistryRepository(db *pg.DB) registry.Repository {
	return &ServiceRegistryRepository{db: db}
}

func (r *ServiceRegistryRepository) Get(ctx context.Context, serviceType types.ServiceType) (*registry.ServiceConfig, error) {
	var c registry.ServiceConfig
	query := `SELECT * FROM service_registry WHERE service_type = $1 AND is_active = true`
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &c, query, string(serviceType)); err != nil {
		return nil, ierr.WithError(err).WithHint("service registry entry not found").Mark(ierr.ErrNotFound)
	}
	return &c, nil
}

func (r *ServiceRegistryRepository) List(ctx context.Context) ([]*registry.ServiceConfig, error) {
	var configs []*registry.ServiceConfig
	query := `SELECT * FROM service_registry ORDER BY service_type`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &configs, query); err != nil {
		return nil, ierr.WithError(err).WithHint("failed to list service registry").Mark(ierr.ErrInternal)
	}
	return configs, nil
}

func (r *ServiceRegistryRepository) Upsert(ctx context.Context, c *registry.ServiceConfig) error {
	query := `INSERT INTO service_registry (
		id, service_type, providers, required_fields, optional_fields,
		billing_config, aggregation_rules, validation_schema, is_active, version, created_at, updated_at
	) VALUES (
		:id, :service_type, :providers, :required_fields, :optional_fields,
		:billing_config, :aggregation_rules, :validation_schema, :is_active, :version, :created_at, :updated_at
	) ON CONFLICT (service_type) DO UPDATE SET
		providers = EXCLUDED.providers,
		required_fields = EXCLUDED.required_fields,
		optional_fields = EXCLUDED.optional_fields,
		billing_config = EXCLUDED.billing_config,
		aggregation_rules = EXCLUDED.aggregation_rules,
		validation_schema = EXCLUDED.validation_schema,
		is_active = EXCLUDED.is_active,
		version = EXCLUDED.version,
		updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).WithHint("failed to upsert service registry entry").Mark(ierr.ErrInternal)
	}
	return nil
}
