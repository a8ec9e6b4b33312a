package registry

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/types"
)

// ServiceConfig is the per-service_type configuration entry —
// spec §3's ServiceRegistry (tenant-independent, global catalog).
type ServiceConfig struct {
	ID                string          `db:"id" json:"id"`
	ServiceType       types.ServiceType `db:"service_type" json:"service_type"`
	Providers         types.StringSet `db:"providers" json:"providers"`
	RequiredFields    types.StringSet `db:"required_fields" json:"required_fields"`
	OptionalFields    types.StringSet `db:"optional_fields" json:"optional_fields"`
	BillingConfig     types.JSONMap   `db:"billing_config" json:"billing_config"`
	AggregationRules  types.JSONMap   `db:"aggregation_rules" json:"aggregation_rules"`
	ValidationSchema  types.JSONMap   `db:"validation_schema" json:"validation_schema"`
	IsActive          bool            `db:"is_active" json:"is_active"`
	Version           int             `db:"version" json:"version"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

func New(serviceType types.ServiceType) *ServiceConfig {
	now := time.Now().UTC()
	return &ServiceConfig{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SERVICE_CONFIG),
		ServiceType: serviceType,
		IsActive:    true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

type Repository interface {
	Get(ctx context.Context, serviceType types.ServiceType) (*ServiceConfig, error)
	List(ctx context.Context) ([]*ServiceConfig, error)
	Upsert(ctx context.Context, c *ServiceConfig) error
}
