package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"usage-pricing/core/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

var march = types.Period{
	Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
}

func usage(service types.ServiceType, day int, minutes, cost string) types.UsageRecord {
	return types.UsageRecord{
		ServiceType: service,
		CallType:    types.CallType(service),
		UsageDate:   time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC),
		UsageAmount: dec(minutes),
		Cost:        dec(cost),
	}
}

func terms() *types.ContractTerms {
	return &types.ContractTerms{
		ID: "acme",
		ServiceTiers: []types.ServiceTierConfig{
			{ServiceType: types.ServiceLocal, MonthlyAllowance: dec("100"), OverageRate: dec("0.02")},
		},
		UsageTiers: []types.ServiceUsageTiers{
			{ServiceType: types.ServiceInternational, Tiers: []types.PricingTier{
				{MinUsage: dec("0"), MaxUsage: ptr("10"), Rate: dec("1")},
				{MinUsage: dec("10"), Rate: dec("0.5")},
			}},
		},
	}
}

func TestPrice(t *testing.T) {
	account := Account{
		ID:    "acme",
		Terms: terms(),
		Records: []types.UsageRecord{
			usage(types.ServiceLocal, 1, "80", "4.00"),
			usage(types.ServiceLocal, 2, "70", "3.50"),
			usage(types.ServiceInternational, 3, "12", "99"),
			// outside the period
			{ServiceType: types.ServiceLocal, UsageDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
				UsageAmount: dec("1000"), Cost: dec("50")},
		},
	}

	st := Price(account, march)

	if st.Report.TotalCalls != 3 {
		t.Errorf("calls = %d, want 3", st.Report.TotalCalls)
	}
	if !st.RatedCost.Equal(dec("7.50")) {
		t.Errorf("rated = %s, want 7.50 (international is tier priced)", st.RatedCost)
	}
	intl, ok := st.Tiered[types.ServiceInternational]
	if !ok || !intl.TotalCost.Equal(dec("11")) {
		t.Errorf("international tiered = %+v, want 11", intl)
	}
	if !st.Overage.Total.Equal(dec("1")) {
		t.Errorf("overage = %s, want 1 (50 minutes over at 0.02)", st.Overage.Total)
	}
	if !st.Total.Equal(dec("19.50")) {
		t.Errorf("total = %s, want 19.50", st.Total)
	}
	if len(st.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", st.Warnings)
	}
}

func TestPriceWithoutTerms(t *testing.T) {
	st := Price(Account{ID: "walk-in", Records: []types.UsageRecord{
		usage(types.ServiceLocal, 5, "10", "0.50"),
	}}, march)

	if !st.Total.Equal(dec("0.50")) || len(st.Overage.Breakdown) != 0 || len(st.Tiered) != 0 {
		t.Errorf("unexpected statement %+v", st)
	}
}

func TestPriceReportsTierWarnings(t *testing.T) {
	tt := terms()
	tt.UsageTiers[0].Tiers[1].MinUsage = dec("15")

	st := Price(Account{ID: "acme", Terms: tt, Records: []types.UsageRecord{
		usage(types.ServiceInternational, 3, "1", "0"),
	}}, march)

	if len(st.Warnings) == 0 {
		t.Fatal("expected a tier gap warning")
	}
	if want := "international: "; st.Warnings[0][:len(want)] != want {
		t.Errorf("warning %q should name the service", st.Warnings[0])
	}
}

func TestRunPreservesOrder(t *testing.T) {
	var accounts []Account
	for i := 0; i < 25; i++ {
		accounts = append(accounts, Account{
			ID: fmt.Sprintf("acct-%02d", i),
			Records: []types.UsageRecord{
				usage(types.ServiceLocal, 1+i%28, "1", fmt.Sprintf("%d", i)),
			},
		})
	}

	statements, err := NewRunner(3, zap.NewNop()).Run(context.Background(), accounts, march)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(statements) != len(accounts) {
		t.Fatalf("got %d statements, want %d", len(statements), len(accounts))
	}
	for i, st := range statements {
		if st.AccountID != accounts[i].ID {
			t.Errorf("statement %d is for %s, want %s", i, st.AccountID, accounts[i].ID)
		}
		if !st.Total.Equal(decimal.NewFromInt(int64(i))) {
			t.Errorf("statement %d total = %s", i, st.Total)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(2, zap.NewNop()).Run(ctx, []Account{{ID: "a"}, {ID: "b"}}, march)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunEmpty(t *testing.T) {
	statements, err := NewRunner(0, nil).Run(context.Background(), nil, march)
	if err != nil || len(statements) != 0 {
		t.Errorf("Run(nil) = %v, %v", statements, err)
	}
}
