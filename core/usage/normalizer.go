// Package usage turns raw usage sources (call-detail records, manual entries
// and bulk files) into priced, canonical usage records.
package usage

import (
	"time"

	"github.com/shopspring/decimal"

	"usage-pricing/core/amount"
	"usage-pricing/core/classify"
	"usage-pricing/core/types"
)

var secondsPerMinute = decimal.NewFromInt(60)

// Entry is a raw usage source accepted by the normalizer
type Entry interface {
	source() types.UsageSource
}

// CDR is a raw call-detail record
type CDR struct {
	ExternalID      string
	FromNumber      string
	ToNumber        string
	ServiceType     string
	DurationSeconds int64
	StartedAt       time.Time

	// FromFile marks records read from a bulk file
	FromFile bool
}

func (c CDR) source() types.UsageSource {
	if c.FromFile {
		return types.SourceFile
	}
	return types.SourceCDR
}

// ManualEntry is a caller-keyed usage row. Numeric fields are untrusted and
// go through amount.ToAmount.
type ManualEntry struct {
	ExternalID  string
	ServiceType string
	UsageDate   time.Time
	UsageAmount any
	UsageUnit   string
	Rate        any
	Cost        any
	Description string
}

func (ManualEntry) source() types.UsageSource {
	return types.SourceManual
}

// Normalizer converts raw entries into usage records for one contract.
type Normalizer struct {
	terms      *types.ContractTerms
	classifier classify.Classifier
	now        func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithClassifier replaces the default destination classifier
func WithClassifier(c classify.Classifier) Option {
	return func(n *Normalizer) { n.classifier = c }
}

// WithClock sets the clock used for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer creates a normalizer bound to the given contract terms.
// nil terms price everything at the global default rate.
func NewNormalizer(terms *types.ContractTerms, opts ...Option) *Normalizer {
	n := &Normalizer{
		terms:      terms,
		classifier: classify.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one entry. Unknown entry types yield a zero record.
func (n *Normalizer) Normalize(e Entry) types.UsageRecord {
	switch v := e.(type) {
	case CDR:
		return n.normalizeCDR(v)
	case *CDR:
		return n.normalizeCDR(*v)
	case ManualEntry:
		return n.normalizeManual(v)
	case *ManualEntry:
		return n.normalizeManual(*v)
	default:
		return types.UsageRecord{}
	}
}

// NormalizeAll converts entries in order
func (n *Normalizer) NormalizeAll(entries []Entry) []types.UsageRecord {
	records := make([]types.UsageRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, n.Normalize(e))
	}
	return records
}

// RateFor returns the base rate of the matching service tier, else the
// contract fallback rate.
func (n *Normalizer) RateFor(st types.ServiceType) decimal.Decimal {
	if tier, ok := n.terms.ServiceTier(st); ok {
		return tier.BaseRate
	}
	return n.terms.FallbackRate()
}

func (n *Normalizer) normalizeCDR(c CDR) types.UsageRecord {
	class := n.classifier.Classify(c.ToNumber)

	serviceType := class.ServiceType
	if c.ServiceType != "" {
		serviceType = types.ServiceType(c.ServiceType)
	}

	seconds := c.DurationSeconds
	if seconds < 0 {
		seconds = 0
	}
	minutes := decimal.NewFromInt(seconds).Div(secondsPerMinute)
	rate := n.RateFor(serviceType)

	created := n.now()
	usageDate := c.StartedAt
	if usageDate.IsZero() {
		usageDate = created
	}

	return types.UsageRecord{
		Source:          c.source(),
		ServiceType:     serviceType,
		UsageDate:       usageDate,
		UsageAmount:     minutes,
		UsageUnit:       types.UnitMinutes,
		FromNumber:      c.FromNumber,
		ToNumber:        c.ToNumber,
		CallType:        class.CallType,
		DurationSeconds: seconds,
		Rate:            rate,
		Cost:            minutes.Mul(rate),
		ExternalID:      c.ExternalID,
		CreatedAt:       created,
	}
}

func (n *Normalizer) normalizeManual(m ManualEntry) types.UsageRecord {
	serviceType := types.ServiceType(m.ServiceType)
	if serviceType == "" {
		serviceType = types.ServiceManual
	}

	unit := m.UsageUnit
	if unit == "" {
		unit = types.UnitMinutes
	}

	created := n.now()
	usageDate := m.UsageDate
	if usageDate.IsZero() {
		usageDate = created
	}

	return types.UsageRecord{
		Source:      types.SourceManual,
		ServiceType: serviceType,
		UsageDate:   usageDate,
		UsageAmount: amount.ToAmount(m.UsageAmount),
		UsageUnit:   unit,
		CallType:    types.CallUnknown,
		Rate:        amount.ToAmount(m.Rate),
		Cost:        amount.ToAmount(m.Cost),
		ExternalID:  m.ExternalID,
		Description: m.Description,
		CreatedAt:   created,
	}
}
