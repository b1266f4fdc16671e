package pricing

import (
	"fmt"

	"usage-pricing/core/types"
)

// ValidateTiers reports suspicious tier lists without changing them.
// CalculateTiered trusts the caller's order; this is for callers that want
// to surface configuration mistakes (gaps, overlaps, inverted bounds).
func ValidateTiers(tiers []types.PricingTier) []string {
	var warnings []string

	for i, tier := range tiers {
		label := tierName(tier, i+1)

		if tier.MinUsage.IsNegative() {
			warnings = append(warnings, fmt.Sprintf("%s: min_usage %s is negative", label, tier.MinUsage))
		}
		if tier.Rate.IsNegative() {
			warnings = append(warnings, fmt.Sprintf("%s: rate %s is negative", label, tier.Rate))
		}
		if tier.MaxUsage != nil && tier.MaxUsage.LessThanOrEqual(tier.MinUsage) {
			warnings = append(warnings, fmt.Sprintf("%s: max_usage %s is not above min_usage %s, tier absorbs nothing",
				label, tier.MaxUsage, tier.MinUsage))
		}
		if tier.Unlimited() && i < len(tiers)-1 {
			warnings = append(warnings, fmt.Sprintf("%s: unlimited tier is followed by %d more tier(s) that can never apply",
				label, len(tiers)-1-i))
		}

		if i == 0 {
			if tier.MinUsage.IsPositive() {
				warnings = append(warnings, fmt.Sprintf("%s: first tier starts at %s, usage below it is priced in this tier",
					label, tier.MinUsage))
			}
			continue
		}

		prev := tiers[i-1]
		if prev.MaxUsage == nil {
			continue
		}
		switch {
		case tier.MinUsage.GreaterThan(*prev.MaxUsage):
			warnings = append(warnings, fmt.Sprintf("%s: gap between %s and %s", label, prev.MaxUsage, tier.MinUsage))
		case tier.MinUsage.LessThan(*prev.MaxUsage):
			warnings = append(warnings, fmt.Sprintf("%s: overlaps previous tier (starts at %s, previous ends at %s)",
				label, tier.MinUsage, prev.MaxUsage))
		}
	}

	return warnings
}
