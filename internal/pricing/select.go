package pricing

import (
	"sort"

	"github.com/flexprice/flexprice/internal/domain/billingrule"
)

// SelectRule picks the most-specific, most-recent applicable rule from
// a candidate set already scoped to (tenant, service_type, provider)
// with a window that can contain the event timestamp — spec §3's
// "model-specific before provider-default" tie-break, then most
// recent effective_from.
func SelectRule(candidates []*billingrule.BillingRule) *billingrule.BillingRule {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Specificity() != candidates[j].Specificity() {
			return candidates[i].Specificity() > candidates[j].Specificity()
		}
		return candidates[i].EffectiveFrom.After(candidates[j].EffectiveFrom)
	})
	return candidates[0]
}
