// Package report builds usage analytics from ledger records.
package report

import (
	"github.com/shopspring/decimal"

	"usage-pricing/core/types"
)

// Build summarizes the records that fall inside period. Each counted record
// adds one call, its usage amount and its cost to the totals and to its
// service, call type and UTC day groups. Input order does not matter.
func Build(records []types.UsageRecord, period types.Period) types.Report {
	rep := types.Report{
		Period:       period,
		TotalMinutes: decimal.Zero,
		TotalCost:    decimal.Zero,
		ByService:    make(map[types.ServiceType]*types.GroupTotals),
		ByCallType:   make(map[types.CallType]*types.GroupTotals),
		ByDay:        make(map[string]*types.GroupTotals),
	}

	for _, r := range records {
		if !period.Contains(r.UsageDate) {
			continue
		}

		rep.TotalCalls++
		rep.TotalMinutes = rep.TotalMinutes.Add(r.UsageAmount)
		rep.TotalCost = rep.TotalCost.Add(r.Cost)

		group(rep.ByService, r.ServiceType).Add(r)
		group(rep.ByCallType, callType(r)).Add(r)
		group(rep.ByDay, r.Day()).Add(r)
	}

	return rep
}

// Filter returns the records inside period, preserving order
func Filter(records []types.UsageRecord, period types.Period) []types.UsageRecord {
	var out []types.UsageRecord
	for _, r := range records {
		if period.Contains(r.UsageDate) {
			out = append(out, r)
		}
	}
	return out
}

func group[K comparable](m map[K]*types.GroupTotals, key K) *types.GroupTotals {
	g, ok := m[key]
	if !ok {
		g = &types.GroupTotals{Minutes: decimal.Zero, Cost: decimal.Zero}
		m[key] = g
	}
	return g
}

func callType(r types.UsageRecord) types.CallType {
	if r.CallType == "" {
		return types.CallUnknown
	}
	return r.CallType
}
