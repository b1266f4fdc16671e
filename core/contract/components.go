package contract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"usage-pricing/core/amount"
	"usage-pricing/core/determinism"
	"usage-pricing/core/types"
)

// evaluation carries the state of one CalculateContractValue call
type evaluation struct {
	policy   Policy
	logger   *zap.Logger
	warnings []string
}

// malformedError marks a schedule whose shape cannot be traversed
type malformedError struct {
	path string
	got  any
}

func (e *malformedError) Error() string {
	return fmt.Sprintf("%s must be an object, got %T", e.path, e.got)
}

func (ev *evaluation) warn(format string, args ...any) {
	ev.warnings = append(ev.warnings, fmt.Sprintf(format, args...))
}

// num coerces a leaf value, logging values that were not numbers
func (ev *evaluation) num(path string, v any) decimal.Decimal {
	d, ok := amount.Parse(v)
	if !ok && v != nil {
		ev.logger.Warn("non-numeric pricing value treated as zero",
			zap.String("path", path),
			zap.Any("value", v),
		)
	}
	return d
}

func object(path string, v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case types.PricingSchedule:
		return m, nil
	case []any:
		// form encoders send an unset associative array as []
		if len(m) == 0 {
			return map[string]any{}, nil
		}
		return nil, &malformedError{path: path, got: v}
	default:
		return nil, &malformedError{path: path, got: v}
	}
}

// asMap reports whether v is a nested object that object would accept
func asMap(v any) (map[string]any, bool) {
	switch v.(type) {
	case map[string]any, types.PricingSchedule, []any:
		m, err := object("", v)
		return m, err == nil
	}
	return nil, false
}

func (ev *evaluation) basePricing(v any) (decimal.Decimal, error) {
	base, err := object(types.ComponentBase, v)
	if err != nil {
		return decimal.Zero, err
	}

	monthly := ev.num("basePricing.monthlyBase", base["monthlyBase"])
	setup := ev.num("basePricing.setupFee", base["setupFee"])

	if monthly.GreaterThan(ev.policy.MaxMonthlyBase) {
		ev.warn("Monthly base price %s exceeds %s and may be a data entry error",
			monthly.StringFixed(2), ev.policy.MaxMonthlyBase.StringFixed(2))
	}
	if setup.GreaterThan(ev.policy.MaxSetupFee) {
		ev.warn("Setup fee %s exceeds %s and may be a data entry error",
			setup.StringFixed(2), ev.policy.MaxSetupFee.StringFixed(2))
	}

	return monthly.Add(setup), nil
}

func (ev *evaluation) assetTypePricing(v any) (decimal.Decimal, error) {
	assets, err := object(types.ComponentAssetType, v)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero

	for _, assetType := range determinism.SortedKeys(assets) {
		path := types.ComponentAssetType + "." + assetType
		entry, err := object(path, assets[assetType])
		if err != nil {
			return decimal.Zero, err
		}

		if !truthy(entry["enabled"]) {
			continue
		}

		raw, ok := entry["price"]
		if !ok {
			continue
		}

		price := ev.num(path+".price", raw)
		if price.IsNegative() {
			ev.warn("Asset type %q has negative price %s and was excluded", assetType, price.StringFixed(2))
			continue
		}
		if price.GreaterThan(ev.policy.MaxAssetTypePrice) {
			ev.warn("Asset type %q price %s exceeds %s",
				assetType, price.StringFixed(2), ev.policy.MaxAssetTypePrice.StringFixed(2))
		}
		total = total.Add(price)
	}

	if len(assets) > ev.policy.MaxAssetTypes {
		ev.warn("%d asset types are configured (more than %d); contract may be complex to operate",
			len(assets), ev.policy.MaxAssetTypes)
	}

	return total, nil
}

func (ev *evaluation) telecomPricing(v any) (decimal.Decimal, error) {
	telecom, err := object(types.ComponentTelecom, v)
	if err != nil {
		return decimal.Zero, err
	}
	return ev.sumLeaves(types.ComponentTelecom, telecom), nil
}

// sumLeaves adds every non-negative leaf under m, warning on negatives
func (ev *evaluation) sumLeaves(path string, m map[string]any) decimal.Decimal {
	total := decimal.Zero
	for _, key := range determinism.SortedKeys(m) {
		leafPath := path + "." + key
		if nested, ok := asMap(m[key]); ok {
			total = total.Add(ev.sumLeaves(leafPath, nested))
			continue
		}

		value := ev.num(leafPath, m[key])
		if value.IsNegative() {
			ev.warn("Telecom item %q has negative value %s and was excluded",
				strings.TrimPrefix(leafPath, types.ComponentTelecom+"."), value.StringFixed(2))
			continue
		}
		total = total.Add(value)
	}
	return total
}

func (ev *evaluation) hardwarePricing(v any) (decimal.Decimal, error) {
	hardware, err := object(types.ComponentHardware, v)
	if err != nil {
		return decimal.Zero, err
	}

	installation := ev.num("hardwarePricing.installationRate", hardware["installationRate"])
	projectManagement := ev.num("hardwarePricing.projectManagementRate", hardware["projectManagementRate"])

	if installation.GreaterThan(ev.policy.MaxInstallationRate) {
		ev.warn("Installation rate %s exceeds %s",
			installation.StringFixed(2), ev.policy.MaxInstallationRate.StringFixed(2))
	}
	if projectManagement.GreaterThan(ev.policy.MaxProjectManagementRate) {
		ev.warn("Project management rate %s exceeds %s",
			projectManagement.StringFixed(2), ev.policy.MaxProjectManagementRate.StringFixed(2))
	}

	return installation.Add(projectManagement), nil
}

// compliancePricing sums strictly positive values one level deep. Zero and
// negative items are dropped without a warning.
func (ev *evaluation) compliancePricing(v any) (decimal.Decimal, error) {
	compliance, err := object(types.ComponentCompliance, v)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, key := range determinism.SortedKeys(compliance) {
		path := types.ComponentCompliance + "." + key
		nested, ok := asMap(compliance[key])
		if !ok {
			if value := ev.num(path, compliance[key]); value.IsPositive() {
				total = total.Add(value)
			}
			continue
		}
		for _, sub := range determinism.SortedKeys(nested) {
			if value := ev.num(path+"."+sub, nested[sub]); value.IsPositive() {
				total = total.Add(value)
			}
		}
	}
	return total, nil
}

// perUnitPricing counts the per-user rate once; the seat count is not known
// until the contract exists.
func (ev *evaluation) perUnitPricing(v any) (decimal.Decimal, error) {
	perUnit, err := object(types.ComponentPerUnit, v)
	if err != nil {
		return decimal.Zero, err
	}

	raw, ok := perUnit["perUser"]
	if !ok {
		return decimal.Zero, nil
	}

	rate := ev.num("perUnitPricing.perUser", raw)
	if rate.GreaterThan(ev.policy.MaxPerUserRate) {
		ev.warn("Per-user rate %s exceeds %s", rate.StringFixed(2), ev.policy.MaxPerUserRate.StringFixed(2))
	}
	return rate, nil
}

// truthy interprets form-style flags: true, non-zero numbers, "1", "true", "yes", "on"
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true", "yes", "on":
			return true
		}
		return false
	default:
		d, ok := amount.Parse(x)
		return ok && !d.IsZero()
	}
}
