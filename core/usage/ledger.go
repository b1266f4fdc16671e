package usage

import (
	"context"
	"time"

	"usage-pricing/core/types"
)

// Ledger is the append-only store of normalized usage records, keyed by the
// owning billing entity. Each Append call is atomic; records are never
// deduplicated by external ID.
type Ledger interface {
	// Append stores records for owner. IDs and OwnerID are filled in when empty.
	Append(ctx context.Context, ownerID string, records ...types.UsageRecord) error

	// List returns records matching filter ordered by usage date
	List(ctx context.Context, filter ListFilter) ([]types.UsageRecord, error)

	// Close releases the ledger
	Close() error
}

// ListFilter filters ledger listings
type ListFilter struct {
	OwnerID     string
	ServiceType types.ServiceType
	Since       time.Time
	Until       time.Time
	Limit       int
}

// Match reports whether r passes the filter (Limit is not considered)
func (f ListFilter) Match(r types.UsageRecord) bool {
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	if f.ServiceType != "" && r.ServiceType != f.ServiceType {
		return false
	}
	return types.Period{Start: f.Since, End: f.Until}.Contains(r.UsageDate)
}
