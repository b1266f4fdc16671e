// Package classify derives the service type and call type of a call from its
// destination number. Both dimensions come from one pass over the number so
// the two classifications cannot drift apart.
package classify

import (
	"strings"

	"usage-pricing/core/types"
)

// InternationalExitPrefix is the NANP international dialing prefix
const InternationalExitPrefix = "011"

// Classification is the result of classifying a destination number
type Classification struct {
	ServiceType types.ServiceType
	CallType    types.CallType
}

// Classifier classifies destination numbers
type Classifier interface {
	Classify(number string) Classification
}

// PrefixClassifier classifies by international exit prefix and NANP length.
type PrefixClassifier struct {
	// ExitPrefixes mark international calls (default "011")
	ExitPrefixes []string
}

// Default returns the classifier used when none is configured
func Default() *PrefixClassifier {
	return &PrefixClassifier{ExitPrefixes: []string{InternationalExitPrefix}}
}

// Classify implements Classifier.
//
//	"011..." or "+<non-NANP>"  international
//	"1" + 10 digits, "+1..."   long distance
//	anything else non-empty    local
//	empty                      local service, unknown call type
func (c *PrefixClassifier) Classify(number string) Classification {
	n := Normalize(number)
	if n == "" {
		return Classification{ServiceType: types.ServiceLocal, CallType: types.CallUnknown}
	}

	if strings.HasPrefix(n, "+") {
		digits := n[1:]
		if isLongDistance(digits) {
			return longDistance()
		}
		return international()
	}

	for _, prefix := range c.ExitPrefixes {
		if prefix != "" && strings.HasPrefix(n, prefix) {
			return international()
		}
	}

	if isLongDistance(n) {
		return longDistance()
	}

	return Classification{ServiceType: types.ServiceLocal, CallType: types.CallLocal}
}

// Normalize strips formatting characters, keeping digits and a leading '+'.
func Normalize(number string) string {
	number = strings.TrimSpace(number)
	var b strings.Builder
	for i, r := range number {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isLongDistance(digits string) bool {
	return len(digits) == 11 && digits[0] == '1' && allDigits(digits)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func international() Classification {
	return Classification{ServiceType: types.ServiceInternational, CallType: types.CallInternational}
}

func longDistance() Classification {
	return Classification{ServiceType: types.ServiceLongDistance, CallType: types.CallLongDistance}
}
