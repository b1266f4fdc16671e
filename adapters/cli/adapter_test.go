package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"usage-pricing/adapters/storage"
	"usage-pricing/core/output"
	"usage-pricing/core/types"
	"usage-pricing/core/usage"
	"usage-pricing/internal/config"
	"usage-pricing/internal/errors"
)

const contracts = `
contract "acme" {
  default_rate = 0.10

  service_tier "local" {
    monthly_allowance = 2
    overage_rate      = 1
    base_rate         = 0.02
  }

  pricing_tier "international" {
    min_usage = 0
    max_usage = 1
    rate      = 2
  }
  pricing_tier "international" {
    min_usage = 1
    rate      = 1
  }
}

contract "globex" {}
`

const cdrs = `id,from,to,duration,date
c1,5551112222,5553334444,180,2024-03-01 10:00:00
c2,5551112222,+442071234567,120,2024-03-02 11:00:00
c3,5551112222,5553334444,60,not-a-date
`

type fixture struct {
	adapter  *CLIAdapter
	out      *bytes.Buffer
	ledger   *storage.MemoryLedger
	contract string
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	contractPath := filepath.Join(dir, "contracts.hcl")
	if err := os.WriteFile(contractPath, []byte(contracts), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Ledger = config.LedgerConfig{Backend: "memory"}

	f := &fixture{
		adapter:  NewCLIAdapter(cfg),
		out:      &bytes.Buffer{},
		ledger:   storage.NewMemoryLedger(),
		contract: contractPath,
		dir:      dir,
	}
	f.adapter.SetOutput(f.out)
	f.adapter.SetFormat(output.FormatJSON)
	f.adapter.SetLedger(f.ledger)
	f.adapter.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (f *fixture) decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(f.out.Bytes(), v); err != nil {
		t.Fatalf("invalid json output %q: %v", f.out.String(), err)
	}
	f.out.Reset()
}

func TestValue(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "schedule.json", `{"basePricing":{"monthlyBase":99.99,"setupFee":50}}`)

	if err := f.adapter.Value(context.Background(), path); err != nil {
		t.Fatalf("Value: %v", err)
	}

	var res types.ValuationResult
	f.decode(t, &res)
	if !res.TotalValue.Equal(decimal.RequireFromString("149.99")) || len(res.Warnings) != 0 {
		t.Errorf("result = %+v", res)
	}

	if err := f.adapter.Value(context.Background(), filepath.Join(f.dir, "missing.json")); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestTiered(t *testing.T) {
	f := newFixture(t)

	err := f.adapter.Tiered(context.Background(), TieredRequest{
		ContractPath: f.contract, ContractID: "acme", Service: "international", Usage: "3",
	})
	if err != nil {
		t.Fatalf("Tiered: %v", err)
	}

	var out output.TieredOutput
	f.decode(t, &out)
	if !out.Result.TotalCost.Equal(decimal.NewFromInt(4)) || len(out.Result.Breakdown) != 2 {
		t.Errorf("tiered = %+v", out.Result)
	}

	tests := []struct {
		name string
		req  TieredRequest
		want errors.Type
	}{
		{"unknown contract", TieredRequest{ContractPath: f.contract, ContractID: "nope", Service: "international", Usage: "1"}, errors.TypeNotFound},
		{"ambiguous contract", TieredRequest{ContractPath: f.contract, Service: "international", Usage: "1"}, errors.TypeInput},
		{"service without tiers", TieredRequest{ContractPath: f.contract, ContractID: "acme", Service: "local", Usage: "1"}, errors.TypeNotFound},
		{"bad usage", TieredRequest{ContractPath: f.contract, ContractID: "acme", Service: "international", Usage: "lots"}, errors.TypeInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.adapter.Tiered(context.Background(), tt.req); !errors.IsType(err, tt.want) {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestImportReportAndBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	csvPath := f.write(t, "cdrs.csv", cdrs)

	err := f.adapter.Import(ctx, ImportRequest{Path: csvPath, Owner: "acme", ContractPath: f.contract})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	var imported output.ImportOutput
	f.decode(t, &imported)
	if imported.Records != 2 || len(imported.Skipped) != 1 {
		t.Errorf("import = %+v", imported)
	}
	// local: 3 min at the service tier base rate; international: 2 min at the contract default
	if !imported.TotalCost.Equal(decimal.RequireFromString("0.26")) {
		t.Errorf("import cost = %s, want 0.26", imported.TotalCost)
	}

	records, err := f.ledger.List(ctx, usage.ListFilter{OwnerID: "acme"})
	if err != nil || len(records) != 2 {
		t.Fatalf("ledger = %+v, %v", records, err)
	}
	if records[1].CallType != types.CallInternational {
		t.Errorf("second record = %+v", records[1])
	}

	period, err := ParsePeriod("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.adapter.Report(ctx, "acme", period); err != nil {
		t.Fatalf("Report: %v", err)
	}
	var rep types.Report
	f.decode(t, &rep)
	if rep.TotalCalls != 2 || !rep.TotalMinutes.Equal(decimal.NewFromInt(5)) {
		t.Errorf("report = %+v", rep)
	}

	if err := f.adapter.Bill(ctx, f.contract, period); err != nil {
		t.Fatalf("Bill: %v", err)
	}
	var statements []types.Statement
	f.decode(t, &statements)
	if len(statements) != 2 || statements[0].AccountID != "acme" || statements[1].AccountID != "globex" {
		t.Fatalf("statements = %+v", statements)
	}
	// rated local 0.06 + international tiers 2 + 1 + overage (3-2) * 1
	if !statements[0].Total.Equal(decimal.RequireFromString("4.06")) {
		t.Errorf("acme total = %s, want 4.06", statements[0].Total)
	}
	if !statements[1].Total.IsZero() {
		t.Errorf("globex total = %s, want 0", statements[1].Total)
	}
}

func TestOverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.adapter.Overage(ctx, OverageRequest{
		ContractPath: f.contract, ContractID: "acme", Usage: map[string]string{"local": "5"},
	})
	if err != nil {
		t.Fatalf("Overage: %v", err)
	}
	var res types.OverageResult
	f.decode(t, &res)
	if !res.Total.Equal(decimal.NewFromInt(3)) {
		t.Errorf("overage = %s, want 3", res.Total)
	}

	if err := f.adapter.Overage(ctx, OverageRequest{ContractPath: f.contract, ContractID: "acme"}); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("missing usage error = %v", err)
	}
}

func TestAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      AddRequest
		wantCost string
	}{
		{"cost from rate", AddRequest{Owner: "acme", Service: "data", Amount: "10", Rate: "0.2"}, "2"},
		{"explicit cost", AddRequest{Owner: "acme", Amount: "10", Rate: "0.2", Cost: "$1.50"}, "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.adapter.Add(ctx, tt.req); err != nil {
				t.Fatalf("Add: %v", err)
			}
			var out output.ImportOutput
			f.decode(t, &out)
			if !out.TotalCost.Equal(decimal.RequireFromString(tt.wantCost)) {
				t.Errorf("cost = %s, want %s", out.TotalCost, tt.wantCost)
			}
		})
	}

	records, _ := f.ledger.List(ctx, usage.ListFilter{OwnerID: "acme"})
	if len(records) != 2 || records[1].ServiceType != types.ServiceManual || records[0].Source != types.SourceManual {
		t.Errorf("records = %+v", records)
	}

	if err := f.adapter.Add(ctx, AddRequest{Amount: "1"}); !errors.IsType(err, errors.TypeInput) {
		t.Errorf("missing owner error = %v", err)
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Contains(time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)) || p.Contains(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end date should be inclusive: %+v", p)
	}

	open, err := ParsePeriod("", "")
	if err != nil || !open.Start.IsZero() || !open.End.IsZero() {
		t.Errorf("open period = %+v, %v", open, err)
	}

	for _, bad := range [][2]string{{"03/01/2024", ""}, {"", "tomorrow"}, {"2024-03-31", "2024-03-01"}} {
		if _, err := ParsePeriod(bad[0], bad[1]); !errors.IsType(err, errors.TypeInput) {
			t.Errorf("ParsePeriod(%q, %q) error = %v", bad[0], bad[1], err)
		}
	}

	if !strings.Contains(p.End.String(), "2024-03-31 23:59:59") {
		t.Errorf("end = %s", p.End)
	}
}
