package usage

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"usage-pricing/core/types"
	"usage-pricing/internal/errors"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTerms() *types.ContractTerms {
	return &types.ContractTerms{
		ID: "acme",
		ServiceTiers: []types.ServiceTierConfig{
			{ServiceType: types.ServiceInternational, BaseRate: dec("0.25")},
			{ServiceType: types.ServiceLongDistance, BaseRate: dec("0.03")},
		},
	}
}

func TestNormalizeCDR(t *testing.T) {
	n := NewNormalizer(testTerms(), WithClock(func() time.Time { return fixedNow }))
	started := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		cdr         CDR
		wantService types.ServiceType
		wantCall    types.CallType
		wantRate    string
		wantMinutes string
	}{
		{
			name:        "international uses tier base rate",
			cdr:         CDR{ToNumber: "011441234567890", DurationSeconds: 120, StartedAt: started},
			wantService: types.ServiceInternational,
			wantCall:    types.CallInternational,
			wantRate:    "0.25",
			wantMinutes: "2",
		},
		{
			name:        "long distance keeps fractional minutes",
			cdr:         CDR{ToNumber: "15551234567", DurationSeconds: 90, StartedAt: started},
			wantService: types.ServiceLongDistance,
			wantCall:    types.CallLongDistance,
			wantRate:    "0.03",
			wantMinutes: "1.5",
		},
		{
			name:        "local falls back to default rate",
			cdr:         CDR{ToNumber: "5551234", DurationSeconds: 30, StartedAt: started},
			wantService: types.ServiceLocal,
			wantCall:    types.CallLocal,
			wantRate:    "0.05",
			wantMinutes: "0.5",
		},
		{
			name:        "explicit service type wins over classification",
			cdr:         CDR{ToNumber: "5551234", ServiceType: "international", DurationSeconds: 60, StartedAt: started},
			wantService: types.ServiceInternational,
			wantCall:    types.CallLocal,
			wantRate:    "0.25",
			wantMinutes: "1",
		},
		{
			name:        "negative duration clamps to zero",
			cdr:         CDR{ToNumber: "5551234", DurationSeconds: -10, StartedAt: started},
			wantService: types.ServiceLocal,
			wantCall:    types.CallLocal,
			wantRate:    "0.05",
			wantMinutes: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := n.Normalize(tt.cdr)
			if rec.ServiceType != tt.wantService {
				t.Errorf("service type = %s, want %s", rec.ServiceType, tt.wantService)
			}
			if rec.CallType != tt.wantCall {
				t.Errorf("call type = %s, want %s", rec.CallType, tt.wantCall)
			}
			if !rec.Rate.Equal(dec(tt.wantRate)) {
				t.Errorf("rate = %s, want %s", rec.Rate, tt.wantRate)
			}
			if !rec.UsageAmount.Equal(dec(tt.wantMinutes)) {
				t.Errorf("usage amount = %s, want %s", rec.UsageAmount, tt.wantMinutes)
			}
			if !rec.Cost.Equal(rec.UsageAmount.Mul(rec.Rate)) {
				t.Errorf("cost %s != usage %s * rate %s", rec.Cost, rec.UsageAmount, rec.Rate)
			}
			if rec.Source != types.SourceCDR {
				t.Errorf("source = %s, want cdr", rec.Source)
			}
			if !rec.UsageDate.Equal(started) {
				t.Errorf("usage date = %s, want %s", rec.UsageDate, started)
			}
			if !rec.CreatedAt.Equal(fixedNow) {
				t.Errorf("created at = %s, want %s", rec.CreatedAt, fixedNow)
			}
		})
	}
}

func TestNormalizeCDRContractDefaultRate(t *testing.T) {
	rate := dec("0.08")
	n := NewNormalizer(&types.ContractTerms{DefaultRate: &rate})

	rec := n.Normalize(CDR{ToNumber: "5551234", DurationSeconds: 60})
	if !rec.Rate.Equal(rate) {
		t.Errorf("rate = %s, want contract default %s", rec.Rate, rate)
	}
}

func TestNormalizeNilTerms(t *testing.T) {
	n := NewNormalizer(nil)
	rec := n.Normalize(&CDR{ToNumber: "011441234567890", DurationSeconds: 600})
	if !rec.Rate.Equal(types.DefaultUsageRate) {
		t.Errorf("rate = %s, want %s", rec.Rate, types.DefaultUsageRate)
	}
	if !rec.Cost.Equal(dec("0.5")) {
		t.Errorf("cost = %s, want 0.5", rec.Cost)
	}
}

func TestNormalizeManual(t *testing.T) {
	n := NewNormalizer(testTerms(), WithClock(func() time.Time { return fixedNow }))

	rec := n.Normalize(ManualEntry{
		ServiceType: "data",
		UsageAmount: "12.5",
		Rate:        "$0.40",
		Cost:        5,
		Description: "hotspot",
	})

	if rec.ServiceType != "data" {
		t.Errorf("service type = %s", rec.ServiceType)
	}
	if !rec.UsageAmount.Equal(dec("12.5")) || !rec.Rate.Equal(dec("0.4")) || !rec.Cost.Equal(dec("5")) {
		t.Errorf("unexpected numbers: %s %s %s", rec.UsageAmount, rec.Rate, rec.Cost)
	}
	if rec.UsageUnit != types.UnitMinutes {
		t.Errorf("unit = %q, want minutes", rec.UsageUnit)
	}
	if rec.CallType != types.CallUnknown || rec.Source != types.SourceManual {
		t.Errorf("call type/source = %s/%s", rec.CallType, rec.Source)
	}
	if !rec.UsageDate.Equal(fixedNow) {
		t.Errorf("usage date should default to now, got %s", rec.UsageDate)
	}
}

func TestNormalizeManualDefaults(t *testing.T) {
	n := NewNormalizer(nil)

	rec := n.Normalize(ManualEntry{UsageAmount: []int{1}, Rate: nil, UsageUnit: "GB"})
	if rec.ServiceType != types.ServiceManual {
		t.Errorf("service type = %s, want manual", rec.ServiceType)
	}
	if !rec.Cost.IsZero() || !rec.UsageAmount.IsZero() || !rec.Rate.IsZero() {
		t.Errorf("expected zero numbers, got %s %s %s", rec.UsageAmount, rec.Rate, rec.Cost)
	}
	if rec.UsageUnit != "GB" {
		t.Errorf("unit = %q, want GB", rec.UsageUnit)
	}
}

func TestNormalizeAllKeepsOrder(t *testing.T) {
	n := NewNormalizer(nil)
	records := n.NormalizeAll([]Entry{
		CDR{ExternalID: "a", ToNumber: "5551234"},
		ManualEntry{ExternalID: "b"},
		CDR{ExternalID: "a", ToNumber: "5551234"},
	})

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"a", "b", "a"} {
		if records[i].ExternalID != want {
			t.Errorf("record %d external id = %q, want %q", i, records[i].ExternalID, want)
		}
	}
}

func TestReadCDRFile(t *testing.T) {
	input := strings.Join([]string{
		"Call_ID,From,To,Duration,Date",
		"c1,5550001,011441234567890,120,2026-02-01T10:00:00Z",
		"c2,5550001,15551234567,45s,2026-02-01",
		"c3,5550001,5551234,60,not-a-date",
		",,,,",
		"c4,5550001,5551234,,",
	}, "\n")

	cdrs, rowErrs, err := ReadCDRFile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cdrs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(cdrs))
	}
	if len(rowErrs) != 1 || rowErrs[0].Line != 4 {
		t.Fatalf("expected one row error on line 4, got %v", rowErrs)
	}

	if cdrs[0].ExternalID != "c1" || cdrs[0].DurationSeconds != 120 || !cdrs[0].FromFile {
		t.Errorf("unexpected first record: %+v", cdrs[0])
	}
	if cdrs[1].DurationSeconds != 45 {
		t.Errorf("duration = %d, want 45", cdrs[1].DurationSeconds)
	}
	if cdrs[2].DurationSeconds != 0 || !cdrs[2].StartedAt.IsZero() {
		t.Errorf("expected zero duration and date, got %+v", cdrs[2])
	}

	rec := NewNormalizer(nil).Normalize(cdrs[0])
	if rec.Source != types.SourceFile {
		t.Errorf("source = %s, want file", rec.Source)
	}
}

func TestReadCDRFileRequiresDestination(t *testing.T) {
	_, _, err := ReadCDRFile(strings.NewReader("from,duration\n555,60\n"))
	if !errors.IsType(err, errors.TypeParsing) {
		t.Fatalf("expected parsing error, got %v", err)
	}

	_, _, err = ReadCDRFile(strings.NewReader(""))
	if !errors.IsType(err, errors.TypeParsing) {
		t.Fatalf("expected parsing error for empty file, got %v", err)
	}
}

func TestReadCDRFileLeftmostAliasWins(t *testing.T) {
	tests := []struct {
		name   string
		header string
		row    string
		want   string
	}{
		{"to before destination", "to,destination,duration", "5551234,011441234567890,60", "5551234"},
		{"destination before to", "destination,to,duration", "011441234567890,5551234,60", "011441234567890"},
		{"case and spaces", " Callee ,TO,duration", "15551234567,5551234,60", "15551234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cdrs, _, err := ReadCDRFile(strings.NewReader(tt.header + "\n" + tt.row + "\n"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cdrs) != 1 || cdrs[0].ToNumber != tt.want {
				t.Errorf("records = %+v, want destination %s", cdrs, tt.want)
			}
		})
	}
}
