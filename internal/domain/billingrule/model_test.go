package billingrule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppliesAt(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rule     BillingRule
		at       time.Time
		expected bool
	}{
		{
			name:     "inactive rule never applies",
			rule:     BillingRule{IsActive: false, EffectiveFrom: from},
			at:       from,
			expected: false,
		},
		{
			name:     "before effective_from",
			rule:     BillingRule{IsActive: true, EffectiveFrom: from},
			at:       from.Add(-time.Hour),
			expected: false,
		},
		{
			name:     "within open-ended window",
			rule:     BillingRule{IsActive: true, EffectiveFrom: from},
			at:       from.Add(24 * time.Hour),
			expected: true,
		},
		{
			name:     "at effective_until boundary is excluded",
			rule:     BillingRule{IsActive: true, EffectiveFrom: from, EffectiveUntil: &until},
			at:       until,
			expected: false,
		},
		{
			name:     "just before effective_until boundary is included",
			rule:     BillingRule{IsActive: true, EffectiveFrom: from, EffectiveUntil: &until},
			at:       until.Add(-time.Second),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rule.AppliesAt(tt.at))
		})
	}
}

func TestSpecificity(t *testing.T) {
	model := "gpt-4"
	withModel := BillingRule{ModelOrTier: &model}
	assert.Equal(t, 1, withModel.Specificity())

	empty := ""
	withEmptyModel := BillingRule{ModelOrTier: &empty}
	assert.Equal(t, 0, withEmptyModel.Specificity())

	providerDefault := BillingRule{}
	assert.Equal(t, 0, providerDefault.Specificity())
}

func TestTierSchedule_ValueThenScanRoundTrips(t *testing.T) {
	tier := decimal.NewFromInt(1000)
	schedule := TierSchedule{
		{UpTo: &tier, Rate: decimal.NewFromFloat(0.01)},
		{UpTo: nil, Rate: decimal.NewFromFloat(0.005)},
	}

	raw, err := schedule.Value()
	require.NoError(t, err)

	bytes, ok := raw.([]byte)
	require.True(t, ok)

	var got TierSchedule
	require.NoError(t, got.Scan(bytes))

	require.Len(t, got, 2)
	assert.True(t, got[0].UpTo.Equal(tier))
	assert.True(t, got[0].Rate.Equal(decimal.NewFromFloat(0.01)))
	assert.Nil(t, got[1].UpTo)
}

func TestTierSchedule_ScanNilClears(t *testing.T) {
	got := TierSchedule{{Rate: decimal.NewFromInt(1)}}
	require.NoError(t, got.Scan(nil))
	assert.Nil(t, got)
}

func TestNew_DefaultsToActiveWithZeroRates(t *testing.T) {
	got := New("tenant-1", "llm_service", "openai")

	assert.True(t, got.IsActive)
	assert.True(t, got.RatePerUnit.IsZero())
	assert.True(t, got.MinimumCharge.IsZero())
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "tenant-1", got.TenantID)
}
