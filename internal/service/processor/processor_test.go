package processor

import (
	"testing"

	"github.com/flexprice/flexprice/internal/domain/event"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() *event.UsageEvent {
	return &event.UsageEvent{
		EventID:         "evt-1",
		TenantID:        "tenant-1",
		UserID:          "user-1",
		ServiceType:     types.ServiceTypeLLM,
		ServiceProvider: "openai",
		EventType:       "completion",
	}
}

func TestRequireFields_AllPresentPasses(t *testing.T) {
	require.NoError(t, requireFields(validEvent()))
}

func TestRequireFields_MissingFieldReported(t *testing.T) {
	e := validEvent()
	e.TenantID = ""
	err := requireFields(e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant_id")
}

func TestApplyCalculationRule_TotalTokens(t *testing.T) {
	e := validEvent()
	e.Metrics = types.JSONMap{"input_tokens": float64(10), "output_tokens": float64(15)}

	value, ok := applyCalculationRule(e, "total_tokens")
	require.True(t, ok)
	assert.Equal(t, float64(25), value)
}

func TestApplyCalculationRule_CostPerToken(t *testing.T) {
	e := validEvent()
	e.Metrics = types.JSONMap{"total_tokens": float64(100)}
	e.TotalCost = decimal.NewFromFloat(2.0)

	value, ok := applyCalculationRule(e, "cost_per_token")
	require.True(t, ok)
	assert.Equal(t, 0.02, value)
}

func TestApplyCalculationRule_UnknownCalculationIgnored(t *testing.T) {
	_, ok := applyCalculationRule(validEvent(), "unknown_calc")
	assert.False(t, ok)
}

func TestNumericMetric_CoercesSupportedTypes(t *testing.T) {
	m := types.JSONMap{"a": float64(1.5), "b": int(2), "c": int64(3), "d": "not a number"}

	v, ok := numericMetric(m, "a")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = numericMetric(m, "b")
	assert.True(t, ok)
	assert.Equal(t, float64(2), v)

	_, ok = numericMetric(m, "d")
	assert.False(t, ok)

	_, ok = numericMetric(m, "missing")
	assert.False(t, ok)
}
