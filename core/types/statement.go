// Package types - Billing statement types
package types

import (
	"github.com/shopspring/decimal"
)

// Statement is one account's priced usage for a billing period
type Statement struct {
	AccountID string `json:"account_id"`
	Period    Period `json:"period"`
	Report    Report `json:"report"`

	// RatedCost is the per-record cost of services without usage tiers
	RatedCost decimal.Decimal `json:"rated_cost"`

	// Tiered holds the tiered cost of each service that has usage tiers
	Tiered map[ServiceType]TieredResult `json:"tiered,omitempty"`

	Overage OverageResult `json:"overage"`

	// Total is RatedCost + tiered costs + overage, rounded to cents
	Total decimal.Decimal `json:"total"`

	Warnings []string `json:"warnings"`
}
