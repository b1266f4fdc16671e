// Package adapter provides the thin adapter the CLI runs on.
// It resolves inputs (files, contracts, the ledger) and delegates every
// calculation to the core packages.
package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	contractfile "usage-pricing/adapters/contract"
	"usage-pricing/adapters/storage"
	"usage-pricing/core/amount"
	"usage-pricing/core/billing"
	"usage-pricing/core/contract"
	"usage-pricing/core/output"
	"usage-pricing/core/pricing"
	"usage-pricing/core/report"
	"usage-pricing/core/types"
	"usage-pricing/core/usage"
	"usage-pricing/internal/config"
	"usage-pricing/internal/errors"
	"usage-pricing/internal/logging"
)

// CLIAdapter is a THIN wrapper around the pricing engine.
// It handles input/output only - all logic is in the core packages.
type CLIAdapter struct {
	cfg      *config.Config
	loader   *contractfile.Loader
	valuator *contract.Valuator
	ledger   usage.Ledger
	output   io.Writer
	format   output.Format
	logger   *zap.Logger
	now      func() time.Time
}

// NewCLIAdapter creates a new CLI adapter
func NewCLIAdapter(cfg *config.Config) *CLIAdapter {
	logger := logging.Named("cli")
	return &CLIAdapter{
		cfg:      cfg,
		loader:   contractfile.NewLoader(),
		valuator: contract.NewValuator(cfg.Valuation, logging.Named("valuation")),
		output:   os.Stdout,
		format:   output.Format(cfg.Output.DefaultFormat),
		logger:   logger,
		now:      time.Now,
	}
}

// SetOutput sets the output writer
func (a *CLIAdapter) SetOutput(w io.Writer) {
	a.output = w
}

// SetFormat sets the output format
func (a *CLIAdapter) SetFormat(f output.Format) {
	a.format = f
}

// SetLedger replaces the configured ledger
func (a *CLIAdapter) SetLedger(l usage.Ledger) {
	a.ledger = l
}

// Close releases the ledger if one was opened
func (a *CLIAdapter) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}

func (a *CLIAdapter) renderer() *output.Renderer {
	return output.NewRenderer(a.output, a.format)
}

func (a *CLIAdapter) openLedger(ctx context.Context) (usage.Ledger, error) {
	if a.ledger != nil {
		return a.ledger, nil
	}
	ledger, err := storage.Open(ctx, a.cfg.Ledger)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("ledger opened", zap.String("backend", a.cfg.Ledger.Backend))
	a.ledger = ledger
	return ledger, nil
}

// loadContracts loads contract terms and applies the configured default rate
// to contracts that do not set their own.
func (a *CLIAdapter) loadContracts(path string) ([]types.ContractTerms, error) {
	if path == "" {
		return nil, errors.Input("a contract file is required (--contract)")
	}
	contracts, err := a.loader.LoadPath(path)
	if err != nil {
		return nil, err
	}
	for i := range contracts {
		if contracts[i].DefaultRate == nil {
			rate := a.cfg.Usage.DefaultRate
			contracts[i].DefaultRate = &rate
		}
	}
	return contracts, nil
}

// findContract returns contract id from path. An empty id selects the only
// contract in the file.
func (a *CLIAdapter) findContract(path, id string) (*types.ContractTerms, error) {
	contracts, err := a.loadContracts(path)
	if err != nil {
		return nil, err
	}
	if id == "" {
		if len(contracts) == 1 {
			return &contracts[0], nil
		}
		return nil, errors.Newf(errors.TypeInput, "%s defines %d contracts; choose one with --id", path, len(contracts))
	}
	for i := range contracts {
		if contracts[i].ID == id {
			return &contracts[i], nil
		}
	}
	return nil, errors.NotFound("contract", id)
}

// Value values the pricing schedule in a JSON file ("-" reads stdin)
func (a *CLIAdapter) Value(ctx context.Context, path string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(errors.TypeInput, err, "cannot open pricing schedule %s", path)
		}
		defer f.Close()
		r = f
	}

	schedule, err := contract.ParseSchedule(r)
	if err != nil {
		return err
	}

	result := a.valuator.CalculateContractValue(schedule)
	a.logger.Info("contract valued",
		zap.String("total", result.TotalValue.StringFixed(2)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return a.renderer().Valuation(result)
}

// TieredRequest prices a usage quantity against a contract's usage tiers
type TieredRequest struct {
	ContractPath string
	ContractID   string
	Service      string
	Usage        string
}

// Tiered runs the tiered calculator
func (a *CLIAdapter) Tiered(ctx context.Context, req TieredRequest) error {
	terms, err := a.findContract(req.ContractPath, req.ContractID)
	if err != nil {
		return err
	}

	service := types.ServiceType(req.Service)
	tiers, ok := terms.TiersFor(service)
	if !ok {
		return errors.Newf(errors.TypeNotFound, "contract %q has no pricing tiers for service %q", terms.ID, service)
	}

	qty, ok := amount.Parse(req.Usage)
	if !ok {
		return errors.Newf(errors.TypeInput, "usage %q is not a number", req.Usage)
	}

	return a.renderer().Tiered(output.TieredOutput{
		Usage:    qty,
		Tiers:    tiers,
		Result:   pricing.CalculateTiered(qty, tiers),
		Warnings: pricing.ValidateTiers(tiers),
	})
}

// OverageRequest computes overage either from explicit usage or from the
// ledger of Owner over Period.
type OverageRequest struct {
	ContractPath string
	ContractID   string
	Usage        map[string]string
	Owner        string
	Period       types.Period
}

// Overage runs the overage calculator
func (a *CLIAdapter) Overage(ctx context.Context, req OverageRequest) error {
	terms, err := a.findContract(req.ContractPath, req.ContractID)
	if err != nil {
		return err
	}

	summary := make(map[types.ServiceType]decimal.Decimal)
	switch {
	case len(req.Usage) > 0:
		for service, raw := range req.Usage {
			qty, ok := amount.Parse(raw)
			if !ok {
				return errors.Newf(errors.TypeInput, "usage for %s (%q) is not a number", service, raw)
			}
			summary[types.ServiceType(service)] = qty
		}
	case req.Owner != "":
		records, err := a.list(ctx, req.Owner, req.Period)
		if err != nil {
			return err
		}
		summary = pricing.SummarizeUsage(records)
	default:
		return errors.Input("give usage (--usage service=amount) or a ledger owner (--owner)")
	}

	return a.renderer().Overage(pricing.CalculateOverage(terms.ServiceTiers, summary))
}

// ImportRequest loads a CDR file into the ledger
type ImportRequest struct {
	Path         string
	Owner        string
	ContractPath string
	ContractID   string
}

// Import normalizes a CDR file and appends it to the owner's ledger
func (a *CLIAdapter) Import(ctx context.Context, req ImportRequest) error {
	if req.Owner == "" {
		return errors.Input("an owner is required (--owner)")
	}

	var terms *types.ContractTerms
	if req.ContractPath != "" {
		var err error
		if terms, err = a.findContract(req.ContractPath, req.ContractID); errors.IsType(err, errors.TypeInput) && req.ContractID == "" {
			// several contracts in the file: use the owner's
			terms, err = a.findContract(req.ContractPath, req.Owner)
		}
		if err != nil {
			return err
		}
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return errors.Wrapf(errors.TypeInput, err, "cannot open usage file %s", req.Path)
	}
	defer f.Close()

	cdrs, rowErrs, err := usage.ReadCDRFile(f)
	if err != nil {
		return err
	}

	entries := make([]usage.Entry, len(cdrs))
	for i := range cdrs {
		entries[i] = cdrs[i]
	}
	records := usage.NewNormalizer(a.termsOrDefault(terms), usage.WithClock(a.now)).NormalizeAll(entries)

	ledger, err := a.openLedger(ctx)
	if err != nil {
		return err
	}
	if err := ledger.Append(ctx, req.Owner, records...); err != nil {
		return err
	}

	skipped := make([]string, len(rowErrs))
	for i, e := range rowErrs {
		skipped[i] = e.Error()
	}
	a.logger.Info("usage imported",
		zap.String("owner", req.Owner),
		zap.Int("records", len(records)),
		zap.Int("skipped", len(skipped)),
	)
	return a.renderer().Import(output.ImportOutput{
		OwnerID:   req.Owner,
		Records:   len(records),
		TotalCost: totalCost(records),
		Skipped:   skipped,
	})
}

// termsOrDefault gives contract-less imports the configured default rate
func (a *CLIAdapter) termsOrDefault(terms *types.ContractTerms) *types.ContractTerms {
	if terms != nil {
		return terms
	}
	rate := a.cfg.Usage.DefaultRate
	return &types.ContractTerms{DefaultRate: &rate}
}

// AddRequest is one manual usage entry. Amount, Rate and Cost accept the
// same loose numeric forms as the normalizer.
type AddRequest struct {
	Owner       string
	Service     string
	Amount      string
	Unit        string
	Rate        string
	Cost        string
	Date        time.Time
	ExternalID  string
	Description string
}

// Add appends a manual usage entry. Without an explicit cost the entry is
// charged amount x rate.
func (a *CLIAdapter) Add(ctx context.Context, req AddRequest) error {
	if req.Owner == "" {
		return errors.Input("an owner is required (--owner)")
	}

	entry := usage.ManualEntry{
		ExternalID:  req.ExternalID,
		ServiceType: req.Service,
		UsageDate:   req.Date,
		UsageAmount: req.Amount,
		UsageUnit:   req.Unit,
		Rate:        req.Rate,
		Description: req.Description,
	}
	if strings.TrimSpace(req.Cost) != "" {
		entry.Cost = req.Cost
	} else {
		entry.Cost = amount.ToAmount(req.Amount).Mul(amount.ToAmount(req.Rate))
	}

	record := usage.NewNormalizer(nil, usage.WithClock(a.now)).Normalize(entry)

	ledger, err := a.openLedger(ctx)
	if err != nil {
		return err
	}
	if err := ledger.Append(ctx, req.Owner, record); err != nil {
		return err
	}

	return a.renderer().Import(output.ImportOutput{
		OwnerID:   req.Owner,
		Records:   1,
		TotalCost: record.Cost,
	})
}

// Report builds the usage report of owner over period
func (a *CLIAdapter) Report(ctx context.Context, owner string, period types.Period) error {
	if owner == "" {
		return errors.Input("an owner is required (--owner)")
	}
	records, err := a.list(ctx, owner, period)
	if err != nil {
		return err
	}
	return a.renderer().Report(report.Build(records, period))
}

// Bill prices every contract in path as an account whose ledger owner is
// the contract id.
func (a *CLIAdapter) Bill(ctx context.Context, contractPath string, period types.Period) error {
	contracts, err := a.loadContracts(contractPath)
	if err != nil {
		return err
	}

	accounts := make([]billing.Account, len(contracts))
	for i := range contracts {
		records, err := a.list(ctx, contracts[i].ID, period)
		if err != nil {
			return err
		}
		accounts[i] = billing.Account{ID: contracts[i].ID, Terms: &contracts[i], Records: records}
	}

	statements, err := billing.NewRunner(a.cfg.Billing.Workers, logging.Named("billing")).Run(ctx, accounts, period)
	if err != nil {
		return err
	}
	return a.renderer().Statements(statements)
}

func (a *CLIAdapter) list(ctx context.Context, owner string, period types.Period) ([]types.UsageRecord, error) {
	ledger, err := a.openLedger(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.List(ctx, usage.ListFilter{OwnerID: owner, Since: period.Start, Until: period.End})
}

// ParsePeriod parses --from/--to dates (YYYY-MM-DD). The end date is
// inclusive; either bound may be empty.
func ParsePeriod(from, to string) (types.Period, error) {
	var p types.Period
	if from != "" {
		start, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return p, errors.Newf(errors.TypeInput, "invalid --from date %q (want YYYY-MM-DD)", from)
		}
		p.Start = start
	}
	if to != "" {
		end, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return p, errors.Newf(errors.TypeInput, "invalid --to date %q (want YYYY-MM-DD)", to)
		}
		p.End = end.Add(24*time.Hour - time.Nanosecond)
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return p, errors.Input(fmt.Sprintf("period ends (%s) before it starts (%s)", to, from))
	}
	return p, nil
}

func totalCost(records []types.UsageRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Cost)
	}
	return total
}
