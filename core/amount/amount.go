// Package amount coerces untrusted numeric input into decimal amounts.
// It is the single entry point for external numbers: every conversion
// succeeds, and anything that is not a usable number becomes zero.
package amount

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ToAmount converts v to a finite decimal. nil, "", false, slices, maps,
// structs, NaN, ±Inf and unparsable strings all yield zero. Strings are
// stripped of every character other than digits, '.' and '-' first, so
// "$1,234.56" is 1234.56. It never panics.
func ToAmount(v any) decimal.Decimal {
	d, _ := Parse(v)
	return d
}

// Parse is ToAmount that also reports whether v held a usable number.
// ok is false when the result is zero only because v was coerced.
func Parse(v any) (d decimal.Decimal, ok bool) {
	defer func() {
		if recover() != nil {
			d, ok = decimal.Zero, false
		}
	}()

	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return x, true
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero, false
		}
		return *x, true
	case json.Number:
		return fromString(string(x))
	case string:
		return fromString(x)
	case *string:
		if x == nil {
			return decimal.Zero, false
		}
		return fromString(*x)
	case bool:
		if x {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case *int:
		if x == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(*x)), true
	case uint:
		return fromUint(uint64(x)), true
	case uint8:
		return fromUint(uint64(x)), true
	case uint16:
		return fromUint(uint64(x)), true
	case uint32:
		return fromUint(uint64(x)), true
	case uint64:
		return fromUint(x), true
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case *float64:
		if x == nil {
			return decimal.Zero, false
		}
		return fromFloat(*x)
	default:
		return decimal.Zero, false
	}
}

func fromString(s string) (decimal.Decimal, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0)
}
