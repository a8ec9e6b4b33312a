package event

import (
	"testing"
	"time"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNewPending_CopiesNormalizedFieldsAndZeroesCost(t *testing.T) {
	ts := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	raw := &NormalizedEvent{
		EventID:         "evt-1",
		Timestamp:       ts,
		UserID:          "user-1",
		ServiceType:     types.ServiceTypeLLM,
		ServiceProvider: "openai",
		EventType:       "completion",
		Metrics:         types.JSONMap{"total_tokens": 100.0},
		Tags:            types.StringSet{"beta"},
		SessionID:       "sess-1",
		RequestID:       "req-1",
	}

	got := NewPending("tenant-1", raw)

	assert.Equal(t, "tenant-1", got.TenantID)
	assert.Equal(t, "evt-1", got.EventID)
	assert.Equal(t, ts, got.Timestamp)
	assert.Equal(t, types.ServiceTypeLLM, got.ServiceType)
	assert.Equal(t, types.EventStatusPending, got.Status)
	assert.True(t, got.TotalCost.IsZero())
	assert.Equal(t, 0, got.RetryCount)
	assert.NotEmpty(t, got.ID)
	assert.Empty(t, got.BillingInfo)
}
