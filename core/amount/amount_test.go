package amount

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToAmount(t *testing.T) {
	f := 2.5
	s := "$10"
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "0"},
		{"empty string", "", "0"},
		{"false", false, "0"},
		{"true", true, "1"},
		{"slice", []any{1, 2}, "0"},
		{"int slice", []int{1, 2}, "0"},
		{"map", map[string]any{"a": 1}, "0"},
		{"struct", struct{ A int }{1}, "0"},
		{"currency string", "$1,234.56", "1234.56"},
		{"negative string", "-42.10", "-42.1"},
		{"lone minus", "-", "0"},
		{"letters only", "abc", "0"},
		{"two decimal points", "1.2.3", "0"},
		{"embedded minus", "1-2", "0"},
		{"padded", "  99.99 USD ", "99.99"},
		{"int", 7, "7"},
		{"int64", int64(-3), "-3"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"float", 149.995, "149.995"},
		{"float32", float32(0.5), "0.5"},
		{"NaN", math.NaN(), "0"},
		{"+Inf", math.Inf(1), "0"},
		{"-Inf", math.Inf(-1), "0"},
		{"json number", json.Number("42.5"), "42.5"},
		{"decimal", decimal.RequireFromString("3.14"), "3.14"},
		{"float pointer", &f, "2.5"},
		{"nil float pointer", (*float64)(nil), "0"},
		{"string pointer", &s, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToAmount(tt.input)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ToAmount(%#v) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestToAmountIdempotent(t *testing.T) {
	inputs := []any{nil, "", "$1,234.56", "-", "-0.5", 12, 149.995, math.NaN(), []int{1}, true, json.Number("7.25")}

	for _, in := range inputs {
		once := ToAmount(in)
		twice := ToAmount(once)
		if !once.Equal(twice) {
			t.Errorf("ToAmount not idempotent for %#v: %s then %s", in, once, twice)
		}
		viaString := ToAmount(once.String())
		if !once.Equal(viaString) {
			t.Errorf("ToAmount(%q) = %s, want %s", once.String(), viaString, once)
		}
	}
}

func TestParseReportsCoercion(t *testing.T) {
	if _, ok := Parse("12.5"); !ok {
		t.Error("expected numeric string to parse")
	}
	if _, ok := Parse("n/a"); ok {
		t.Error("expected non-numeric string to be reported as coerced")
	}
	if _, ok := Parse([]string{"1"}); ok {
		t.Error("expected slice to be reported as coerced")
	}
	if d, ok := Parse(false); !ok || !d.IsZero() {
		t.Errorf("expected false to be a clean zero, got %s ok=%v", d, ok)
	}
}
