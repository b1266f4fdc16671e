// Package billing prices the usage of many accounts for a billing period.
package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"usage-pricing/core/determinism"
	"usage-pricing/core/pricing"
	"usage-pricing/core/report"
	"usage-pricing/core/types"
	"usage-pricing/internal/logging"
)

// Account is one billing entity with its contract and recorded usage
type Account struct {
	ID      string
	Terms   *types.ContractTerms
	Records []types.UsageRecord
}

// Runner prices accounts concurrently
type Runner struct {
	workers int
	logger  *zap.Logger
}

// NewRunner creates a runner with at most workers accounts in flight.
// A nil logger uses the global logger.
func NewRunner(workers int, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = logging.Named("billing")
	}
	return &Runner{workers: workers, logger: logger}
}

// Run prices every account for period. Statements are returned in the order
// of accounts. Accounts are independent; the sweep stops early only when ctx
// is cancelled.
func (r *Runner) Run(ctx context.Context, accounts []Account, period types.Period) ([]types.Statement, error) {
	statements := make([]types.Statement, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range accounts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			statements[i] = Price(accounts[i], period)
			r.logger.Debug("account priced",
				zap.String("account", accounts[i].ID),
				zap.Int("calls", statements[i].Report.TotalCalls),
				zap.String("total", statements[i].Total.StringFixed(2)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("billing run cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("billing run cancelled: %w", err)
	}

	r.logger.Info("billing run complete", zap.Int("accounts", len(accounts)))
	return statements, nil
}

// Price computes one account's statement
func Price(account Account, period types.Period) types.Statement {
	records := report.Filter(account.Records, period)
	terms := account.Terms

	st := types.Statement{
		AccountID: account.ID,
		Period:    period,
		Report:    report.Build(records, period),
		RatedCost: decimal.Zero,
		Tiered:    make(map[types.ServiceType]types.TieredResult),
		Warnings:  []string{},
	}

	summary := pricing.SummarizeUsage(records)

	var serviceTiers []types.ServiceTierConfig
	if terms != nil {
		serviceTiers = terms.ServiceTiers
	}
	st.Overage = pricing.CalculateOverage(serviceTiers, summary)

	total := st.Overage.Total
	for _, r := range records {
		if tiers, ok := terms.TiersFor(r.ServiceType); ok && len(tiers) > 0 {
			continue
		}
		st.RatedCost = st.RatedCost.Add(r.Cost)
	}
	total = total.Add(st.RatedCost)

	for _, service := range determinism.SortedKeys(summary) {
		tiers, ok := terms.TiersFor(service)
		if !ok || len(tiers) == 0 {
			continue
		}
		for _, w := range pricing.ValidateTiers(tiers) {
			st.Warnings = append(st.Warnings, fmt.Sprintf("%s: %s", service, w))
		}
		result := pricing.CalculateTiered(summary[service], tiers)
		st.Tiered[service] = result
		total = total.Add(result.TotalCost)
	}

	st.Total = total.Round(2)
	return st
}
