// Package types - Usage report types
package types

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a closed date range. A zero bound is open.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && t.After(p.End) {
		return false
	}
	return true
}

// GroupTotals are the running totals of one report group
type GroupTotals struct {
	Calls   int             `json:"calls"`
	Minutes decimal.Decimal `json:"minutes"`
	Cost    decimal.Decimal `json:"cost"`
}

// Add accumulates a record into the totals
func (g *GroupTotals) Add(r UsageRecord) {
	g.Calls++
	g.Minutes = g.Minutes.Add(r.UsageAmount)
	g.Cost = g.Cost.Add(r.Cost)
}

// Report summarizes usage records over a period
type Report struct {
	Period       Period                       `json:"period"`
	TotalCalls   int                          `json:"total_calls"`
	TotalMinutes decimal.Decimal              `json:"total_minutes"`
	TotalCost    decimal.Decimal              `json:"total_cost"`
	ByService    map[ServiceType]*GroupTotals `json:"by_service_type"`
	ByCallType   map[CallType]*GroupTotals    `json:"by_call_type"`
	ByDay        map[string]*GroupTotals      `json:"by_day"`
}

// Days returns the ByDay keys in calendar order
func (r Report) Days() []string {
	days := make([]string, 0, len(r.ByDay))
	for day := range r.ByDay {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}
