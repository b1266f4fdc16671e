// Package types - Usage ledger types
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType identifies a billable usage category. The three classified
// values are produced from destination numbers; contracts and manual entries
// may use any other name.
type ServiceType string

const (
	ServiceLocal         ServiceType = "local"
	ServiceLongDistance  ServiceType = "long_distance"
	ServiceInternational ServiceType = "international"
	ServiceManual        ServiceType = "manual"
)

// String returns the string representation
func (s ServiceType) String() string {
	return string(s)
}

// CallType is the telephony classification of a record
type CallType string

const (
	CallLocal         CallType = "local"
	CallLongDistance  CallType = "long_distance"
	CallInternational CallType = "international"
	CallUnknown       CallType = "unknown"
)

// String returns the string representation
func (c CallType) String() string {
	return string(c)
}

// UsageSource records where a usage record came from
type UsageSource string

const (
	SourceCDR    UsageSource = "cdr"
	SourceManual UsageSource = "manual"
	SourceFile   UsageSource = "file"
)

// UnitMinutes is the default usage unit
const UnitMinutes = "minutes"

// DefaultUsageRate is the per-minute rate applied when nothing else matches
var DefaultUsageRate = decimal.RequireFromString("0.05")

// UsageRecord is one normalized, priced unit of usage.
// Records are immutable once appended to a ledger.
type UsageRecord struct {
	// ID is assigned by the ledger when empty
	ID string `json:"id,omitempty"`

	// OwnerID is the billing entity that owns the record
	OwnerID string `json:"owner_id,omitempty"`

	// Source is where the record came from
	Source UsageSource `json:"source"`

	// ServiceType is the billable category
	ServiceType ServiceType `json:"service_type"`

	// UsageDate is when the usage happened
	UsageDate time.Time `json:"usage_date"`

	// UsageAmount is the quantity in UsageUnit
	UsageAmount decimal.Decimal `json:"usage_amount"`

	// UsageUnit is the unit of UsageAmount (e.g., "minutes")
	UsageUnit string `json:"usage_unit"`

	// FromNumber is the originating number (CDR only)
	FromNumber string `json:"from_number,omitempty"`

	// ToNumber is the destination number (CDR only)
	ToNumber string `json:"to_number,omitempty"`

	// CallType is the call classification
	CallType CallType `json:"call_type"`

	// DurationSeconds is the raw call duration
	DurationSeconds int64 `json:"duration_seconds"`

	// Rate is the unit price applied at normalization
	Rate decimal.Decimal `json:"rate"`

	// Cost is UsageAmount * Rate, fixed at normalization
	Cost decimal.Decimal `json:"cost"`

	// ExternalID is the upstream identifier, if any
	ExternalID string `json:"external_id,omitempty"`

	// Description is free text for manual entries
	Description string `json:"description,omitempty"`

	// CreatedAt is when the record was normalized
	CreatedAt time.Time `json:"created_at"`
}

// Day returns the UTC calendar day of the record as YYYY-MM-DD
func (r UsageRecord) Day() string {
	return r.UsageDate.UTC().Format("2006-01-02")
}
