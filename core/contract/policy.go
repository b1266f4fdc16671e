// Package contract values a contract's pricing schedule: it sums the priced
// components into one total and reports anomalies as warnings. Valuation
// never fails; a schedule that cannot be evaluated is worth zero.
package contract

import (
	"github.com/shopspring/decimal"
)

// Policy holds the plausibility thresholds used for warnings. Values above a
// threshold are still included in the total.
type Policy struct {
	MaxMonthlyBase           decimal.Decimal `json:"max_monthly_base"`
	MaxSetupFee              decimal.Decimal `json:"max_setup_fee"`
	MaxAssetTypePrice        decimal.Decimal `json:"max_asset_type_price"`
	MaxAssetTypes            int             `json:"max_asset_types"`
	MaxInstallationRate      decimal.Decimal `json:"max_installation_rate"`
	MaxProjectManagementRate decimal.Decimal `json:"max_project_management_rate"`
	MaxPerUserRate           decimal.Decimal `json:"max_per_user_rate"`
	ReviewThreshold          decimal.Decimal `json:"review_threshold"`
}

// DefaultPolicy returns the standard thresholds
func DefaultPolicy() Policy {
	return Policy{
		MaxMonthlyBase:           decimal.NewFromInt(100000),
		MaxSetupFee:              decimal.NewFromInt(50000),
		MaxAssetTypePrice:        decimal.NewFromInt(10000),
		MaxAssetTypes:            10,
		MaxInstallationRate:      decimal.NewFromInt(500),
		MaxProjectManagementRate: decimal.NewFromInt(300),
		MaxPerUserRate:           decimal.NewFromInt(500),
		ReviewThreshold:          decimal.NewFromInt(1000000),
	}
}
