// Package types - Pricing types
package types

import (
	"github.com/shopspring/decimal"
)

// PricingTier is one usage band of a tiered price
type PricingTier struct {
	// Name is the display name (defaults to "Tier N")
	Name string `json:"name,omitempty"`

	// MinUsage is the tier start
	MinUsage decimal.Decimal `json:"min_usage"`

	// MaxUsage is the tier end (nil = unlimited)
	MaxUsage *decimal.Decimal `json:"max_usage,omitempty"`

	// Rate is the unit price within this tier
	Rate decimal.Decimal `json:"rate"`
}

// Unlimited reports whether the tier has no upper bound
func (t PricingTier) Unlimited() bool {
	return t.MaxUsage == nil
}

// Width returns MaxUsage - MinUsage; only meaningful for bounded tiers
func (t PricingTier) Width() decimal.Decimal {
	if t.MaxUsage == nil {
		return decimal.Zero
	}
	return t.MaxUsage.Sub(t.MinUsage)
}

// TierBreakdownEntry is the usage and cost attributed to one tier
type TierBreakdownEntry struct {
	TierIndex   int             `json:"tier_index"`
	TierName    string          `json:"tier_name"`
	UsageInTier decimal.Decimal `json:"usage_in_tier"`
	Rate        decimal.Decimal `json:"rate"`
	Cost        decimal.Decimal `json:"cost"`
}

// TieredResult is the output of a tiered price calculation
type TieredResult struct {
	TotalCost decimal.Decimal      `json:"total_cost"`
	Breakdown []TierBreakdownEntry `json:"breakdown"`
}

// ServiceTierConfig is a contract's allowance and overage terms for one service
type ServiceTierConfig struct {
	// ServiceType is the service these terms apply to
	ServiceType ServiceType `json:"service_type"`

	// MonthlyAllowance is the included usage per period
	MonthlyAllowance decimal.Decimal `json:"monthly_allowance"`

	// OverageRate is the unit price beyond the allowance
	OverageRate decimal.Decimal `json:"overage_rate"`

	// OverageMinimum is the smallest overage charge (nil = none)
	OverageMinimum *decimal.Decimal `json:"overage_minimum,omitempty"`

	// OverageMaximum is the largest overage charge (nil = none)
	OverageMaximum *decimal.Decimal `json:"overage_maximum,omitempty"`

	// BaseRate is the per-unit rate used when normalizing usage
	BaseRate decimal.Decimal `json:"base_rate"`
}

// OverageLine is one service's overage charge
type OverageLine struct {
	ServiceType ServiceType     `json:"service_type"`
	Allowance   decimal.Decimal `json:"allowance"`
	Usage       decimal.Decimal `json:"usage"`
	Overage     decimal.Decimal `json:"overage"`
	Rate        decimal.Decimal `json:"rate"`
	Charge      decimal.Decimal `json:"charge"`
}

// OverageResult is the output of an overage calculation
type OverageResult struct {
	Total     decimal.Decimal `json:"total"`
	Breakdown []OverageLine   `json:"breakdown"`
}
