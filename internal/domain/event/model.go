package event

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
)

// UsageEvent is the fact table: one row per ingested usage record (§3).
// Stored in ClickHouse, not Postgres — ingest volume and the
// (tenant_id, timestamp) access pattern favor a column store.
type UsageEvent struct {
	ID              string          `ch:"id" json:"id"`
	EventID         string          `ch:"event_id" json:"event_id"`
	TenantID        string          `ch:"tenant_id" json:"tenant_id"`
	Timestamp       time.Time       `ch:"timestamp" json:"timestamp"`
	UserID          string          `ch:"user_id" json:"user_id"`
	ServiceType     types.ServiceType `ch:"service_type" json:"service_type"`
	ServiceProvider string          `ch:"service_provider" json:"service_provider"`
	EventType       string          `ch:"event_type" json:"event_type"`
	Metrics         types.JSONMap   `ch:"metrics" json:"metrics"`
	Metadata        types.JSONMap   `ch:"metadata" json:"metadata"`
	Tags            types.StringSet `ch:"tags" json:"tags"`
	BillingInfo     types.JSONMap   `ch:"billing_info" json:"billing_info"`
	TotalCost       decimal.Decimal `ch:"total_cost" json:"total_cost"`
	Status          types.EventStatus `ch:"status" json:"status"`
	ErrorMessage    string          `ch:"error_message" json:"error_message,omitempty"`
	RetryCount      int             `ch:"retry_count" json:"retry_count"`
	SessionID       string          `ch:"session_id" json:"session_id,omitempty"`
	RequestID       string          `ch:"request_id" json:"request_id,omitempty"`
	CreatedAt       time.Time       `ch:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `ch:"updated_at" json:"updated_at"`
}

// NewPending builds the event row ingest writes before the processor
// picks it up: status=pending, cost and billing_info unset.
func NewPending(tenantID string, raw *NormalizedEvent) *UsageEvent {
	now := time.Now().UTC()
	return &UsageEvent{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventID:         raw.EventID,
		TenantID:        tenantID,
		Timestamp:       raw.Timestamp,
		UserID:          raw.UserID,
		ServiceType:     raw.ServiceType,
		ServiceProvider: raw.ServiceProvider,
		EventType:       raw.EventType,
		Metrics:         raw.Metrics,
		Metadata:        raw.Metadata,
		Tags:            raw.Tags,
		BillingInfo:     types.JSONMap{},
		TotalCost:       decimal.Zero,
		Status:          types.EventStatusPending,
		RetryCount:      0,
		SessionID:       raw.SessionID,
		RequestID:       raw.RequestID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// NormalizedEvent is the validator's output: a raw ingest payload that
// has passed per-service_type field and bound checks (§4.1).
type NormalizedEvent struct {
	EventID         string
	Timestamp       time.Time
	UserID          string
	ServiceType     types.ServiceType
	ServiceProvider string
	EventType       string
	Metrics         types.JSONMap
	Metadata        types.JSONMap
	Tags            types.StringSet
	SessionID       string
	RequestID       string
}

// Repository persists UsageEvents to ClickHouse. Only fully-processed
// rows are ever written — the pending/processing/failed states live
// transiently in the queue payload, not the store (§4.5 only upserts
// on success; failures are re-queued or dead-lettered, never stored).
type Repository interface {
	Insert(ctx context.Context, e *UsageEvent) error
	BulkInsert(ctx context.Context, events []*UsageEvent) error
	GetByEventID(ctx context.Context, tenantID, eventID string) (*UsageEvent, error)
	List(ctx context.Context, f ListFilter) ([]*UsageEvent, error)
	// DistinctTenants lists tenants with completed events in [from, to),
	// the aggregator's per-cycle fan-out set (§4.6).
	DistinctTenants(ctx context.Context, from, to time.Time) ([]string, error)
}

// ListFilter scopes GET /api/v1/usage (§4.7).
type ListFilter struct {
	TenantID        string
	From, To        time.Time
	ServiceType     *types.ServiceType
	ServiceProvider *string
	UserID          *string
	Status          *types.EventStatus
	Limit           int
	Offset          int
}
