// Package pricing computes the cost of a usage event against a
// selected billing rule. Grounded on original_source's
// shared/utils/billing.py: same unit-count table, tiered piecewise
// schedule, minimum-charge floor, 6-decimal rounding — reimplemented
// with shopspring/decimal since money is never a float in this stack.
package pricing

import (
	"time"

	"github.com/flexprice/flexprice/internal/domain/billingrule"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/shopspring/decimal"
)

const roundingPlaces = 6

// Result mirrors calculate_event_cost's return shape.
type Result struct {
	TotalCost         decimal.Decimal
	BaseCost          decimal.Decimal
	BillingUnit       types.BillingUnit
	UnitCount         decimal.Decimal
	RatePerUnit       decimal.Decimal
	CalculationMethod types.CalculationMethod
	MinimumCharge     decimal.Decimal
	CalculatedAt      time.Time
}

// Calculate prices one event's metrics against a rule. A nil rule
// means no match was found — the event is billed zero, matching the
// original's "no billing_rule" branch.
func Calculate(serviceType types.ServiceType, metrics types.JSONMap, rule *billingrule.BillingRule) Result {
	now := time.Now().UTC()
	if rule == nil {
		return Result{
			TotalCost:         decimal.Zero,
			BaseCost:          decimal.Zero,
			BillingUnit:       types.BillingUnitUnknown,
			UnitCount:         decimal.Zero,
			RatePerUnit:       decimal.Zero,
			CalculationMethod: "none",
			CalculatedAt:      now,
		}
	}

	unitCount := calculateUnitCount(serviceType, rule.BillingUnit, metrics)

	var baseCost decimal.Decimal
	switch rule.CalculationMethod {
	case types.CalculationMethodSum:
		baseCost = sumMetrics(metrics).Mul(rule.RatePerUnit)
	default: // multiply and custom both fall back to unit_count * rate, matching the original
		baseCost = unitCount.Mul(rule.RatePerUnit)
	}

	totalCost := decimal.Max(baseCost, rule.MinimumCharge)

	if len(rule.TieredRates) > 0 {
		totalCost = applyTieredRates(unitCount, rule.TieredRates)
	}

	return Result{
		TotalCost:         totalCost.Round(roundingPlaces),
		BaseCost:          baseCost.Round(roundingPlaces),
		BillingUnit:       rule.BillingUnit,
		UnitCount:         unitCount,
		RatePerUnit:       rule.RatePerUnit,
		CalculationMethod: rule.CalculationMethod,
		MinimumCharge:     rule.MinimumCharge,
		CalculatedAt:      now,
	}
}

// calculateUnitCount ports _calculate_unit_count's per-service_type,
// per-billing_unit table verbatim.
func calculateUnitCount(serviceType types.ServiceType, unit types.BillingUnit, metrics types.JSONMap) decimal.Decimal {
	switch serviceType {
	case types.ServiceTypeLLM:
		switch unit {
		case types.BillingUnitTokens:
			return metricDecimal(metrics, "total_tokens")
		case types.BillingUnitRequests:
			return decimal.NewFromInt(1)
		}
	case types.ServiceTypeDocumentProcessor:
		switch unit {
		case types.BillingUnitPages:
			return metricDecimal(metrics, "pages_processed")
		case types.BillingUnitBytes:
			return metricDecimal(metrics, "file_size_bytes")
		case types.BillingUnitRequests:
			return decimal.NewFromInt(1)
		}
	case types.ServiceTypeAPI:
		switch unit {
		case types.BillingUnitRequests:
			if v, ok := metrics["request_count"]; ok {
				return toDecimal(v)
			}
			return decimal.NewFromInt(1)
		case types.BillingUnitBytes:
			return metricDecimal(metrics, "payload_size_bytes").Add(metricDecimal(metrics, "response_size_bytes"))
		case types.BillingUnitMinutes:
			return metricDecimal(metrics, "response_time_ms").Div(decimal.NewFromInt(60000))
		}
	}
	return decimal.NewFromInt(1)
}

// applyTieredRates ports _apply_tiered_rates: units consumed
// front-to-back across ascending tiers, each charged at its own rate.
func applyTieredRates(unitCount decimal.Decimal, tiers billingrule.TierSchedule) decimal.Decimal {
	total := decimal.Zero
	remaining := unitCount
	consumed := decimal.Zero

	for _, tier := range tiers {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		var tierCapacity decimal.Decimal
		if tier.UpTo == nil {
			tierCapacity = remaining
		} else {
			tierCapacity = tier.UpTo.Sub(consumed)
			if tierCapacity.IsNegative() {
				tierCapacity = decimal.Zero
			}
		}

		tierUnits := decimal.Min(remaining, tierCapacity)
		if tierUnits.IsNegative() {
			tierUnits = decimal.Zero
		}

		total = total.Add(tierUnits.Mul(tier.Rate))
		remaining = remaining.Sub(tierUnits)
		consumed = consumed.Add(tierUnits)
	}

	return total
}

func sumMetrics(metrics types.JSONMap) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range metrics {
		sum = sum.Add(toDecimal(v))
	}
	return sum
}

func metricDecimal(metrics types.JSONMap, key string) decimal.Decimal {
	v, ok := metrics[key]
	if !ok {
		return decimal.Zero
	}
	return toDecimal(v)
}

func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
