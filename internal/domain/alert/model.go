package alert

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
)

// AlertMetric is what an AlertConfiguration's threshold watches.
type AlertMetric string

const (
	AlertMetricCost       AlertMetric = "cost"
	AlertMetricErrorRate  AlertMetric = "error_rate"
	AlertMetricEventCount AlertMetric = "event_count"
	AlertMetricLatencyP95 AlertMetric = "latency_p95"
)

// AlertConfiguration is a tenant's threshold definition (§3). Detection
// and delivery are an external collaborator's job; the core only
// persists configurations and the instances they produce.
type AlertConfiguration struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Metric      AlertMetric     `db:"metric" json:"metric"`
	Threshold   decimal.Decimal `db:"threshold" json:"threshold"`
	PeriodType  types.PeriodType `db:"period_type" json:"period_type"`
	ServiceType *string         `db:"service_type" json:"service_type,omitempty"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	types.BaseModel
}

// AlertInstance is a fired alert against a configuration.
type AlertInstance struct {
	ID             string          `db:"id" json:"id"`
	ConfigID       string          `db:"config_id" json:"config_id"`
	TriggeredAt    time.Time       `db:"triggered_at" json:"triggered_at"`
	ObservedValue  decimal.Decimal `db:"observed_value" json:"observed_value"`
	Acknowledged   bool            `db:"acknowledged" json:"acknowledged"`
	AcknowledgedAt *time.Time      `db:"acknowledged_at" json:"acknowledged_at,omitempty"`
	AcknowledgedBy string          `db:"acknowledged_by" json:"acknowledged_by,omitempty"`
	types.BaseModel
}

func NewConfig(tenantID, name string, metric AlertMetric, threshold decimal.Decimal, period types.PeriodType) *AlertConfiguration {
	now := time.Now().UTC()
	return &AlertConfiguration{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALERT_CONFIG),
		Name:       name,
		Metric:     metric,
		Threshold:  threshold,
		PeriodType: period,
		IsActive:   true,
		BaseModel: types.BaseModel{
			TenantID:  tenantID,
			Status:    types.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func NewInstance(tenantID, configID string, observedValue decimal.Decimal) *AlertInstance {
	now := time.Now().UTC()
	return &AlertInstance{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALERT_INSTANCE),
		ConfigID:    configID,
		TriggeredAt: now,
		ObservedValue: observedValue,
		BaseModel: types.BaseModel{
			TenantID:  tenantID,
			Status:    types.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (a *AlertInstance) Acknowledge(by string) {
	now := time.Now().UTC()
	a.Acknowledged = true
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = by
}

type ConfigRepository interface {
	List(ctx context.Context, tenantID string) ([]*AlertConfiguration, error)
	Get(ctx context.Context, id string) (*AlertConfiguration, error)
	Upsert(ctx context.Context, c *AlertConfiguration) error
}

type InstanceRepository interface {
	List(ctx context.Context, tenantID string, onlyUnacknowledged bool) ([]*AlertInstance, error)
	Get(ctx context.Context, id string) (*AlertInstance, error)
	Create(ctx context.Context, i *AlertInstance) error
	Acknowledge(ctx context.Context, id, by string) error
}
