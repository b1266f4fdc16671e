package pricing

import (
	"github.com/shopspring/decimal"

	"usage-pricing/core/types"
)

// CalculateOverage charges usage beyond each service's allowance.
//
// Services are visited in configured order; a service missing from the
// summary has zero usage. The charge is clamped to OverageMaximum first and
// then raised to OverageMinimum, so a minimum above the maximum wins.
// Services at or under their allowance produce no line.
func CalculateOverage(serviceTiers []types.ServiceTierConfig, usageSummary map[types.ServiceType]decimal.Decimal) types.OverageResult {
	result := types.OverageResult{
		Total:     decimal.Zero,
		Breakdown: []types.OverageLine{},
	}

	for _, tier := range serviceTiers {
		actual, ok := usageSummary[tier.ServiceType]
		if !ok {
			actual = decimal.Zero
		}

		if !actual.GreaterThan(tier.MonthlyAllowance) {
			continue
		}

		overage := actual.Sub(tier.MonthlyAllowance)
		charge := overage.Mul(tier.OverageRate)

		if tier.OverageMaximum != nil && charge.GreaterThan(*tier.OverageMaximum) {
			charge = *tier.OverageMaximum
		}
		if tier.OverageMinimum != nil && charge.LessThan(*tier.OverageMinimum) {
			charge = *tier.OverageMinimum
		}

		result.Total = result.Total.Add(charge)
		result.Breakdown = append(result.Breakdown, types.OverageLine{
			ServiceType: tier.ServiceType,
			Allowance:   tier.MonthlyAllowance,
			Usage:       actual,
			Overage:     overage,
			Rate:        tier.OverageRate,
			Charge:      charge,
		})
	}

	return result
}

// SummarizeUsage totals usage amounts per service type
func SummarizeUsage(records []types.UsageRecord) map[types.ServiceType]decimal.Decimal {
	summary := make(map[types.ServiceType]decimal.Decimal)
	for _, r := range records {
		summary[r.ServiceType] = summary[r.ServiceType].Add(r.UsageAmount)
	}
	return summary
}
