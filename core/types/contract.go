// Package types - Contract terms and valuation types
package types

import (
	"github.com/shopspring/decimal"
)

// ContractTerms is the usage configuration of one contract. It is passed
// explicitly to the normalizer and calculators; nothing is looked up globally.
type ContractTerms struct {
	// ID identifies the contract; the billing sweep uses it as ledger owner
	ID string `json:"id"`

	// Name is a display name
	Name string `json:"name,omitempty"`

	// DefaultRate overrides DefaultUsageRate for unmatched services (nil = global default)
	DefaultRate *decimal.Decimal `json:"default_rate,omitempty"`

	// ServiceTiers are the allowance/overage terms in configured order
	ServiceTiers []ServiceTierConfig `json:"service_tiers,omitempty"`

	// UsageTiers are tiered prices per service in configured order
	UsageTiers []ServiceUsageTiers `json:"usage_tiers,omitempty"`
}

// ServiceUsageTiers binds a tier list to a service type
type ServiceUsageTiers struct {
	ServiceType ServiceType   `json:"service_type"`
	Tiers       []PricingTier `json:"tiers"`
}

// ServiceTier returns the first service tier configured for st
func (c *ContractTerms) ServiceTier(st ServiceType) (ServiceTierConfig, bool) {
	if c == nil {
		return ServiceTierConfig{}, false
	}
	for _, tier := range c.ServiceTiers {
		if tier.ServiceType == st {
			return tier, true
		}
	}
	return ServiceTierConfig{}, false
}

// TiersFor returns the tier list configured for st
func (c *ContractTerms) TiersFor(st ServiceType) ([]PricingTier, bool) {
	if c == nil {
		return nil, false
	}
	for _, ut := range c.UsageTiers {
		if ut.ServiceType == st {
			return ut.Tiers, true
		}
	}
	return nil, false
}

// FallbackRate is the rate for services without a matching service tier
func (c *ContractTerms) FallbackRate() decimal.Decimal {
	if c != nil && c.DefaultRate != nil {
		return *c.DefaultRate
	}
	return DefaultUsageRate
}

// PricingSchedule is the caller-supplied, JSON-shaped description of a
// contract's priced components (basePricing, assetTypePricing, ...).
type PricingSchedule map[string]any

// Pricing schedule component keys
const (
	ComponentBase       = "basePricing"
	ComponentAssetType  = "assetTypePricing"
	ComponentTelecom    = "telecomPricing"
	ComponentHardware   = "hardwarePricing"
	ComponentCompliance = "compliancePricing"
	ComponentPerUnit    = "perUnitPricing"
)

// ComponentValue is the subtotal one schedule component contributed
type ComponentValue struct {
	Component string          `json:"component"`
	Amount    decimal.Decimal `json:"amount"`
}

// ValuationResult is the validated value of a pricing schedule
type ValuationResult struct {
	// TotalValue is non-negative and rounded to 2 decimal places
	TotalValue decimal.Decimal `json:"total_value"`

	// Warnings lists anomalies found, in evaluation order
	Warnings []string `json:"warnings"`

	// Components lists per-component subtotals for audit
	Components []ComponentValue `json:"components,omitempty"`
}
