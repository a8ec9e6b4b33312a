package aggregator

import (
	"testing"
	"time"

	"github.com/flexprice/flexprice/internal/domain/aggregate"
	"github.com/flexprice/flexprice/internal/domain/event"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignToPeriod(t *testing.T) {
	// Wednesday, 2026-07-15 14:37:22 UTC
	ts := time.Date(2026, 7, 15, 14, 37, 22, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 7, 15, 14, 0, 0, 0, time.UTC), alignToPeriod(ts, types.PeriodHour))
	assert.Equal(t, time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), alignToPeriod(ts, types.PeriodDay))
	assert.Equal(t, time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC), alignToPeriod(ts, types.PeriodWeek)) // Monday
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), alignToPeriod(ts, types.PeriodMonth))
}

func TestPeriodBoundaries_TilesAndClampsFinalBucket(t *testing.T) {
	start := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(2*24*time.Hour + 6*time.Hour) // 2.25 days

	bounds := periodBoundaries(types.PeriodDay, start, end)
	require.Len(t, bounds, 3)
	assert.Equal(t, start, bounds[0].start)
	assert.Equal(t, start.AddDate(0, 0, 1), bounds[0].end)
	assert.Equal(t, end, bounds[2].end) // last bucket clamped
}

func TestPercentile95_NearestRank(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1) // 1..100
	}
	assert.Equal(t, float64(95), percentile95(values))
}

func TestPopulateAggregate_CountsAndCost(t *testing.T) {
	events := []*event.UsageEvent{
		{UserID: "u1", TotalCost: decimal.NewFromFloat(1.5), Metrics: types.JSONMap{"latency_ms": float64(100)}},
		{UserID: "u2", TotalCost: decimal.NewFromFloat(2.5), Metrics: types.JSONMap{"latency_ms": float64(200)}},
		{UserID: "u1", TotalCost: decimal.NewFromFloat(1.0), Metrics: types.JSONMap{}},
	}

	agg := &aggregate.UsageAggregate{}
	populateAggregate(agg, events)

	assert.EqualValues(t, 3, agg.EventCount)
	assert.EqualValues(t, 2, agg.UniqueUsers)
	assert.True(t, agg.TotalCost.Equal(decimal.NewFromFloat(5.0)))
	assert.True(t, agg.AvgLatencyMs.Equal(decimal.NewFromFloat(150)))
}

func TestServiceMetrics_LLMSumsTokens(t *testing.T) {
	events := []*event.UsageEvent{
		{Metrics: types.JSONMap{"input_tokens": float64(10), "output_tokens": float64(20)}},
		{Metrics: types.JSONMap{"input_tokens": float64(30), "output_tokens": float64(40)}},
	}
	metrics := serviceMetrics(types.ServiceTypeLLM, events)
	assert.Equal(t, float64(40), metrics["total_input_tokens"])
	assert.Equal(t, float64(60), metrics["total_output_tokens"])
}

func TestTopUsersByEventCount_OrdersByCountDescending(t *testing.T) {
	byUser := map[string][]*event.UsageEvent{
		"a": {{}, {}, {}},
		"b": {{}},
		"c": {{}, {}},
	}
	top := topUsersByEventCount(byUser, 2)
	assert.Equal(t, []string{"a", "c"}, top)
}
