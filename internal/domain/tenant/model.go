package tenant

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flexprice/flexprice/internal/types"
)

// RateLimit is the per-tenant request budget enforced by the ingest
// API's sliding-window limiter (§4.4). Stored as JSONB, the same
// pattern types.JSONMap uses for open mappings.
type RateLimit struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
}

func (r *RateLimit) Scan(value interface{}) error { return scanJSON(value, r) }
func (r RateLimit) Value() (driver.Value, error)   { return json.Marshal(r) }

func (u *UsageQuota) Scan(value interface{}) error { return scanJSON(value, u) }
func (u UsageQuota) Value() (driver.Value, error)  { return json.Marshal(u) }

func (b *BillingContact) Scan(value interface{}) error { return scanJSON(value, b) }
func (b BillingContact) Value() (driver.Value, error)  { return json.Marshal(b) }

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}

// UsageQuota is an optional monthly ceiling; exceeding it is surfaced
// by alerts, not enforced by the ingest path (spec keeps quota
// enforcement out of scope for the core).
type UsageQuota struct {
	MonthlyEventLimit int64 `json:"monthly_event_limit,omitempty"`
	MonthlyCostLimit  string `json:"monthly_cost_limit,omitempty"`
}

// BillingContact is where invoices/alerts would be routed by an
// external collaborator.
type BillingContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Tenant is the top-level identity every tenant-scoped entity hangs
// off of (§3). tenant_id is unique and used as the API key's subject.
type Tenant struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Settings       types.JSONMap   `db:"settings" json:"settings"`
	RateLimit      RateLimit       `db:"rate_limit" json:"rate_limit"`
	UsageQuota     UsageQuota      `db:"usage_quota" json:"usage_quota"`
	BillingContact BillingContact  `db:"billing_contact" json:"billing_contact"`
	Status         types.Status    `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func New(name string) *Tenant {
	now := time.Now().UTC()
	return &Tenant{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TENANT),
		Name:      name,
		Settings:  types.JSONMap{},
		RateLimit: RateLimit{RequestsPerMinute: 600, Burst: 60},
		Status:    types.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type Repository interface {
	Get(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context) ([]*Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
}
