package aggregate

import (
	"testing"
	"time"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestNew_SetsKeyAndZeroesCounters(t *testing.T) {
	periodStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.Add(24 * time.Hour)
	serviceType := "llm_service"
	k := Key{
		TenantID:    "tenant-1",
		PeriodStart: periodStart,
		PeriodType:  types.PeriodDay,
		ServiceType: &serviceType,
	}

	got := New("tenant-1", k, periodEnd)

	assert.Equal(t, "tenant-1", got.TenantID)
	assert.Equal(t, periodStart, got.PeriodStart)
	assert.Equal(t, periodEnd, got.PeriodEnd)
	assert.Equal(t, types.PeriodDay, got.PeriodType)
	assert.Same(t, &serviceType, got.ServiceType)
	assert.True(t, got.TotalCost.IsZero())
	assert.True(t, got.ErrorRate.IsZero())
	assert.True(t, got.AvgLatencyMs.IsZero())
	assert.True(t, got.P95LatencyMs.IsZero())
	assert.Equal(t, types.StatusActive, got.Status)
	assert.NotEmpty(t, got.ID)
}
