package alert

import (
	"testing"

	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewConfig_DefaultsToActive(t *testing.T) {
	got := NewConfig("tenant-1", "cost spike", AlertMetricCost, decimal.NewFromInt(100), types.PeriodDay)

	assert.Equal(t, "tenant-1", got.TenantID)
	assert.Equal(t, AlertMetricCost, got.Metric)
	assert.True(t, got.Threshold.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.IsActive)
	assert.NotEmpty(t, got.ID)
}

func TestNewInstance_StartsUnacknowledged(t *testing.T) {
	got := NewInstance("tenant-1", "config-1", decimal.NewFromInt(150))

	assert.Equal(t, "config-1", got.ConfigID)
	assert.False(t, got.Acknowledged)
	assert.Nil(t, got.AcknowledgedAt)
	assert.Empty(t, got.AcknowledgedBy)
}

func TestAcknowledge_SetsFlagTimestampAndActor(t *testing.T) {
	got := NewInstance("tenant-1", "config-1", decimal.NewFromInt(150))

	got.Acknowledge("ops-user")

	assert.True(t, got.Acknowledged)
	assert.Equal(t, "ops-user", got.AcknowledgedBy)
	assert.NotNil(t, got.AcknowledgedAt)
}
