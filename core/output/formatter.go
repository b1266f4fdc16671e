// Package output renders engine results for people (cli) and programs (json).
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"usage-pricing/core/determinism"
	"usage-pricing/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCLI, FormatJSON:
		return f, nil
	case "":
		return FormatCLI, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use cli or json)", s)
	}
}

// TieredOutput is a tiered calculation together with its inputs
type TieredOutput struct {
	Usage    decimal.Decimal     `json:"usage"`
	Tiers    []types.PricingTier `json:"tiers"`
	Result   types.TieredResult  `json:"result"`
	Warnings []string            `json:"warnings,omitempty"`
}

// ImportOutput summarizes records written to the ledger
type ImportOutput struct {
	OwnerID   string          `json:"owner_id"`
	Records   int             `json:"records"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Skipped   []string        `json:"skipped,omitempty"`
}

// Renderer writes results in one format
type Renderer struct {
	w      io.Writer
	format Format
}

// NewRenderer creates a renderer for format
func NewRenderer(w io.Writer, format Format) *Renderer {
	return &Renderer{w: w, format: format}
}

// Format returns the format type
func (r *Renderer) Format() Format {
	return r.format
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Valuation renders a contract valuation
func (r *Renderer) Valuation(res types.ValuationResult) error {
	if r.format == FormatJSON {
		return r.writeJSON(res)
	}

	b := newBox(r.w)
	b.title("CONTRACT VALUATION")
	for _, c := range res.Components {
		b.row(c.Component, money(c.Amount))
	}
	if len(res.Components) > 0 {
		b.rule()
	}
	b.row("TOTAL CONTRACT VALUE", money(res.TotalValue))
	b.end()
	return b.warnings(res.Warnings)
}

// Tiered renders a tiered cost breakdown
func (r *Renderer) Tiered(out TieredOutput) error {
	if r.format == FormatJSON {
		return r.writeJSON(out)
	}

	b := newBox(r.w)
	b.title("TIERED COST")
	b.row("Usage", out.Usage.String())
	b.rule()
	for _, e := range out.Result.Breakdown {
		b.row(fmt.Sprintf("%s: %s x %s", e.TierName, e.UsageInTier, e.Rate), money(e.Cost))
	}
	if len(out.Result.Breakdown) > 0 {
		b.rule()
	}
	b.row("TOTAL", money(out.Result.TotalCost))
	b.end()
	return b.warnings(out.Warnings)
}

// Overage renders overage charges
func (r *Renderer) Overage(res types.OverageResult) error {
	if r.format == FormatJSON {
		return r.writeJSON(res)
	}

	b := newBox(r.w)
	b.title("OVERAGE CHARGES")
	for _, line := range res.Breakdown {
		b.row(fmt.Sprintf("%s: %s over %s allowance", line.ServiceType, line.Overage, line.Allowance), money(line.Charge))
	}
	if len(res.Breakdown) == 0 {
		b.row("All services within allowance", "")
	}
	b.rule()
	b.row("TOTAL OVERAGE", money(res.Total))
	b.end()
	return nil
}

// Report renders a usage report
func (r *Renderer) Report(rep types.Report) error {
	if r.format == FormatJSON {
		return r.writeJSON(rep)
	}

	b := newBox(r.w)
	b.title("USAGE REPORT")
	b.row("Period", period(rep.Period))
	b.row("Calls", fmt.Sprintf("%d", rep.TotalCalls))
	b.row("Minutes", rep.TotalMinutes.StringFixed(2))
	b.row("Cost", money(rep.TotalCost))

	b.section("By service type")
	determinism.RangeMapSorted(rep.ByService, func(k types.ServiceType, g *types.GroupTotals) bool {
		b.row("  "+string(k), group(g))
		return true
	})
	b.section("By call type")
	determinism.RangeMapSorted(rep.ByCallType, func(k types.CallType, g *types.GroupTotals) bool {
		b.row("  "+string(k), group(g))
		return true
	})
	b.section("By day")
	for _, day := range rep.Days() {
		b.row("  "+day, group(rep.ByDay[day]))
	}
	b.end()
	return nil
}

// Statements renders the statements of a billing run
func (r *Renderer) Statements(statements []types.Statement) error {
	if r.format == FormatJSON {
		return r.writeJSON(statements)
	}

	grand := decimal.Zero
	for _, st := range statements {
		b := newBox(r.w)
		b.title("STATEMENT " + strings.ToUpper(st.AccountID))
		b.row("Period", period(st.Period))
		b.row("Calls", fmt.Sprintf("%d", st.Report.TotalCalls))
		b.rule()
		b.row("Rated usage", money(st.RatedCost))
		determinism.RangeMapSorted(st.Tiered, func(k types.ServiceType, t types.TieredResult) bool {
			b.row("Tiered "+string(k), money(t.TotalCost))
			return true
		})
		for _, line := range st.Overage.Breakdown {
			b.row("Overage "+string(line.ServiceType), money(line.Charge))
		}
		b.rule()
		b.row("TOTAL", money(st.Total))
		b.end()
		if err := b.warnings(st.Warnings); err != nil {
			return err
		}
		fmt.Fprintln(r.w)
		grand = grand.Add(st.Total)
	}

	_, err := fmt.Fprintf(r.w, "%d statements, total %s\n", len(statements), money(grand))
	return err
}

// Import renders the result of writing usage to the ledger
func (r *Renderer) Import(out ImportOutput) error {
	if r.format == FormatJSON {
		return r.writeJSON(out)
	}

	fmt.Fprintf(r.w, "Recorded %d usage records for %s (cost %s)\n", out.Records, out.OwnerID, money(out.TotalCost))
	for _, s := range out.Skipped {
		fmt.Fprintf(r.w, "  skipped: %s\n", s)
	}
	return nil
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func group(g *types.GroupTotals) string {
	return fmt.Sprintf("%d calls  %s min  %s", g.Calls, g.Minutes.StringFixed(2), money(g.Cost))
}

func period(p types.Period) string {
	start, end := "-", "-"
	if !p.Start.IsZero() {
		start = p.Start.UTC().Format("2006-01-02")
	}
	if !p.End.IsZero() {
		end = p.End.UTC().Format("2006-01-02")
	}
	return start + " .. " + end
}
