// Package pricing computes usage charges: tiered prices and overage against
// allowances. All functions are pure and safe for concurrent use.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"usage-pricing/core/types"
)

// CalculateTiered prices usage across tiers in the order given.
//
// Tiers are consumed until usage runs out; tiers after that point do not
// appear in the breakdown. An unlimited tier absorbs all remaining usage, a
// bounded tier absorbs at most MaxUsage-MinUsage. Negative usage is not
// defended against and yields an empty result.
func CalculateTiered(usage decimal.Decimal, tiers []types.PricingTier) types.TieredResult {
	result := types.TieredResult{
		TotalCost: decimal.Zero,
		Breakdown: []types.TierBreakdownEntry{},
	}

	remaining := usage
	for i, tier := range tiers {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		var inTier decimal.Decimal
		if tier.Unlimited() {
			inTier = remaining
		} else {
			inTier = decimal.Min(remaining, tier.Width())
			if inTier.IsNegative() {
				inTier = decimal.Zero
			}
		}

		cost := inTier.Mul(tier.Rate)
		result.TotalCost = result.TotalCost.Add(cost)
		result.Breakdown = append(result.Breakdown, types.TierBreakdownEntry{
			TierIndex:   i + 1,
			TierName:    tierName(tier, i+1),
			UsageInTier: inTier,
			Rate:        tier.Rate,
			Cost:        cost,
		})

		remaining = remaining.Sub(inTier)
	}

	return result
}

func tierName(tier types.PricingTier, index int) string {
	if tier.Name != "" {
		return tier.Name
	}
	return fmt.Sprintf("Tier %d", index)
}
