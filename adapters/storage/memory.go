package storage

import (
	"context"
	"slices"
	"sync"

	"usage-pricing/core/types"
	"usage-pricing/core/usage"
)

// MemoryLedger is an in-process ledger for tests and one-shot runs
type MemoryLedger struct {
	records []types.UsageRecord
	mu      sync.RWMutex
}

// NewMemoryLedger creates an empty memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Append(ctx context.Context, ownerID string, records ...types.UsageRecord) error {
	prepared, err := prepare(ownerID, records)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, prepared...)
	return nil
}

func (l *MemoryLedger) List(ctx context.Context, filter usage.ListFilter) ([]types.UsageRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var results []types.UsageRecord
	for _, r := range l.records {
		if filter.Match(r) {
			results = append(results, r)
		}
	}
	return sortAndLimit(results, filter.Limit), nil
}

func (l *MemoryLedger) Close() error {
	return nil
}

// sortAndLimit orders records by usage date, keeping append order for ties
func sortAndLimit(records []types.UsageRecord, limit int) []types.UsageRecord {
	slices.SortStableFunc(records, func(a, b types.UsageRecord) int {
		return a.UsageDate.Compare(b.UsageDate)
	})
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
