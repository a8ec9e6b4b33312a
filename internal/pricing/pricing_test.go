package pricing

import (
	"testing"
	"time"

	"github.com/flexprice/flexprice/internal/domain/billingrule"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_NilRuleBillsZero(t *testing.T) {
	result := Calculate(types.ServiceTypeLLM, types.JSONMap{"total_tokens": 1000}, nil)
	assert.True(t, result.TotalCost.IsZero())
	assert.Equal(t, types.CalculationMethod("none"), result.CalculationMethod)
}

func TestCalculate_LLMTokensFlatRate(t *testing.T) {
	rule := &billingrule.BillingRule{
		BillingUnit:       types.BillingUnitTokens,
		RatePerUnit:       decimal.NewFromFloat(0.002),
		MinimumCharge:     decimal.Zero,
		CalculationMethod: types.CalculationMethodMultiply,
	}
	result := Calculate(types.ServiceTypeLLM, types.JSONMap{"total_tokens": float64(1500)}, rule)
	require.True(t, result.UnitCount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, result.TotalCost.Equal(decimal.NewFromFloat(3.0)), "got %s", result.TotalCost)
}

func TestCalculate_MinimumChargeFloor(t *testing.T) {
	rule := &billingrule.BillingRule{
		BillingUnit:       types.BillingUnitTokens,
		RatePerUnit:       decimal.NewFromFloat(0.001),
		MinimumCharge:     decimal.NewFromFloat(5.0),
		CalculationMethod: types.CalculationMethodMultiply,
	}
	result := Calculate(types.ServiceTypeLLM, types.JSONMap{"total_tokens": float64(100)}, rule)
	assert.True(t, result.TotalCost.Equal(decimal.NewFromFloat(5.0)), "got %s", result.TotalCost)
}

func TestCalculate_TieredRates(t *testing.T) {
	tier1 := decimal.NewFromInt(1000)
	tier2 := decimal.NewFromInt(5000)
	rule := &billingrule.BillingRule{
		BillingUnit:   types.BillingUnitTokens,
		RatePerUnit:   decimal.NewFromFloat(0.01),
		MinimumCharge: decimal.Zero,
		TieredRates: billingrule.TierSchedule{
			{UpTo: &tier1, Rate: decimal.NewFromFloat(0.01)},
			{UpTo: &tier2, Rate: decimal.NewFromFloat(0.005)},
			{UpTo: nil, Rate: decimal.NewFromFloat(0.002)},
		},
	}
	// 1000 units at 0.01 + 4000 units at 0.005 + 1000 units at 0.002 = 10 + 20 + 2 = 32
	result := Calculate(types.ServiceTypeLLM, types.JSONMap{"total_tokens": float64(6000)}, rule)
	assert.True(t, result.TotalCost.Equal(decimal.NewFromFloat(32.0)), "got %s", result.TotalCost)
}

func TestCalculate_APIRequestsDefaultsToOne(t *testing.T) {
	rule := &billingrule.BillingRule{
		BillingUnit:       types.BillingUnitRequests,
		RatePerUnit:       decimal.NewFromFloat(0.1),
		CalculationMethod: types.CalculationMethodMultiply,
	}
	result := Calculate(types.ServiceTypeAPI, types.JSONMap{}, rule)
	assert.True(t, result.UnitCount.Equal(decimal.NewFromInt(1)))
}

func TestSelectRule_PrefersModelSpecificOverProviderDefault(t *testing.T) {
	model := "gpt-4"
	providerDefault := &billingrule.BillingRule{EffectiveFrom: time.Unix(100, 0)}
	modelSpecific := &billingrule.BillingRule{ModelOrTier: &model, EffectiveFrom: time.Unix(0, 0)}

	got := SelectRule([]*billingrule.BillingRule{providerDefault, modelSpecific})
	assert.Same(t, modelSpecific, got)
}

func TestSelectRule_PicksMostRecentEffectiveFrom(t *testing.T) {
	older := &billingrule.BillingRule{EffectiveFrom: time.Unix(100, 0)}
	newer := &billingrule.BillingRule{EffectiveFrom: time.Unix(200, 0)}

	got := SelectRule([]*billingrule.BillingRule{older, newer})
	assert.Same(t, newer, got)
}

func TestSelectRule_EmptyCandidatesReturnsNil(t *testing.T) {
	assert.Nil(t, SelectRule(nil))
}
