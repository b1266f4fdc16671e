package contract

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"usage-pricing/core/determinism"
	"usage-pricing/core/types"
	"usage-pricing/internal/errors"
	"usage-pricing/internal/logging"
)

// Valuator computes contract values under a policy
type Valuator struct {
	policy Policy
	logger *zap.Logger
}

// NewValuator creates a valuator. A nil logger uses the global logger.
func NewValuator(policy Policy, logger *zap.Logger) *Valuator {
	if logger == nil {
		logger = logging.Named("valuation")
	}
	return &Valuator{policy: policy, logger: logger}
}

type componentFunc func(ev *evaluation, value any) (decimal.Decimal, error)

// components in evaluation order
var components = []struct {
	key string
	fn  componentFunc
}{
	{types.ComponentBase, (*evaluation).basePricing},
	{types.ComponentAssetType, (*evaluation).assetTypePricing},
	{types.ComponentTelecom, (*evaluation).telecomPricing},
	{types.ComponentHardware, (*evaluation).hardwarePricing},
	{types.ComponentCompliance, (*evaluation).compliancePricing},
	{types.ComponentPerUnit, (*evaluation).perUnitPricing},
}

// CalculateContractValue sums the components of schedule into a validated
// total rounded half-up to cents.
//
// Missing components contribute nothing. Implausible values and excluded
// negative items are reported in Warnings. A schedule whose shape cannot be
// traversed, or any failure during evaluation, yields a zero total with a
// warning and an error log; this method never panics and never errors.
func (v *Valuator) CalculateContractValue(schedule types.PricingSchedule) (result types.ValuationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = v.recovered(r, schedule)
		}
	}()

	if len(schedule) == 0 {
		v.logger.Info("pricing schedule is empty, contract value is zero")
		return types.ValuationResult{TotalValue: decimal.Zero, Warnings: []string{}}
	}

	ev := &evaluation{policy: v.policy, logger: v.logger, warnings: []string{}}
	total := decimal.Zero
	var breakdown []types.ComponentValue

	for _, c := range components {
		value, ok := schedule[c.key]
		if !ok || value == nil {
			continue
		}

		subtotal, err := c.fn(ev, value)
		if err != nil {
			v.logger.Error("pricing schedule is malformed",
				zap.String("component", c.key),
				zap.Error(err),
				zap.Any("schedule", schedule),
			)
			return failedValuation(fmt.Sprintf("Pricing schedule could not be evaluated: %v", err))
		}

		total = total.Add(subtotal)
		breakdown = append(breakdown, types.ComponentValue{Component: c.key, Amount: subtotal})
	}

	for _, key := range determinism.SortedKeys(schedule) {
		if !knownComponent(key) {
			v.logger.Debug("ignoring unknown pricing component", zap.String("component", key))
		}
	}

	if total.IsNegative() {
		v.logger.Error("contract value is negative, clamping to zero",
			zap.String("total", total.String()),
			zap.Any("schedule", schedule),
		)
		total = decimal.Zero
	}

	if total.GreaterThan(v.policy.ReviewThreshold) {
		ev.warn("Total contract value %s exceeds %s and should be reviewed",
			total.StringFixed(2), v.policy.ReviewThreshold.StringFixed(2))
	}

	return types.ValuationResult{
		TotalValue: total.Round(2),
		Warnings:   ev.warnings,
		Components: breakdown,
	}
}

// recovered turns a panic during evaluation into a zero valuation
func (v *Valuator) recovered(r any, schedule types.PricingSchedule) types.ValuationResult {
	err := errors.Internal("contract valuation failed", fmt.Errorf("%v", r))
	v.logger.Error("contract valuation failed",
		zap.Error(err),
		zap.Any("schedule", schedule),
		zap.Stack("stack"),
	)
	return failedValuation(fmt.Sprintf("Pricing schedule could not be evaluated: %v", r))
}

func failedValuation(warning string) types.ValuationResult {
	return types.ValuationResult{
		TotalValue: decimal.Zero,
		Warnings:   []string{warning},
	}
}

func knownComponent(key string) bool {
	for _, c := range components {
		if c.key == key {
			return true
		}
	}
	return false
}
