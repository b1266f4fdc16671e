// Package storage provides usage ledger backends.
// Supports memory, JSON-lines files, SQLite and PostgreSQL.
package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"usage-pricing/core/types"
	"usage-pricing/core/usage"
	"usage-pricing/internal/config"
	"usage-pricing/internal/errors"
)

// Backend is a ledger backend type
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Open creates the ledger selected by cfg
func Open(ctx context.Context, cfg config.LedgerConfig) (usage.Ledger, error) {
	switch Backend(cfg.Backend) {
	case BackendMemory:
		return NewMemoryLedger(), nil
	case BackendFile:
		path := cfg.Path
		if path == "" {
			path = ".usage-ledger"
		}
		return NewFileLedger(path)
	case BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = "ledger.db"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, errors.Storage("failed to create ledger directory", err)
			}
		}
		return OpenSQLite(ctx, path)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported ledger backend: %q", cfg.Backend)
	}
}

// prepare assigns ownership, ids and timestamps before records are stored
func prepare(ownerID string, records []types.UsageRecord) ([]types.UsageRecord, error) {
	if ownerID == "" {
		return nil, errors.Input("ledger owner id is required")
	}

	now := time.Now().UTC()
	out := make([]types.UsageRecord, len(records))
	for i, r := range records {
		r.OwnerID = ownerID
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UsageDate = r.UsageDate.UTC()
		r.CreatedAt = r.CreatedAt.UTC()
		out[i] = r
	}
	return out, nil
}

// ownerFile maps an owner id to a file name that is safe on every platform
func ownerFile(ownerID string) string {
	return url.PathEscape(ownerID) + ".jsonl"
}

// Ensure interfaces are implemented
var (
	_ usage.Ledger = (*MemoryLedger)(nil)
	_ usage.Ledger = (*FileLedger)(nil)
	_ usage.Ledger = (*SQLLedger)(nil)
)
