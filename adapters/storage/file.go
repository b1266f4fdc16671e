package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"usage-pricing/core/types"
	"usage-pricing/core/usage"
	"usage-pricing/internal/errors"
)

// FileLedger keeps one JSON-lines file per owner under a directory
type FileLedger struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileLedger creates a file ledger rooted at basePath
func NewFileLedger(basePath string) (*FileLedger, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.Storage("failed to create ledger directory", err)
	}
	return &FileLedger{basePath: basePath}, nil
}

// Append writes all records with a single write so a batch is never split
func (l *FileLedger) Append(ctx context.Context, ownerID string, records ...types.UsageRecord) error {
	prepared, err := prepare(ownerID, records)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range prepared {
		if err := enc.Encode(r); err != nil {
			return errors.Storage("failed to encode usage record", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.basePath, ownerFile(ownerID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Storage("failed to open ledger file", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return errors.Storage("failed to append usage records", err)
	}
	if err := f.Close(); err != nil {
		return errors.Storage("failed to close ledger file", err)
	}
	return nil
}

func (l *FileLedger) List(ctx context.Context, filter usage.ListFilter) ([]types.UsageRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var files []string
	if filter.OwnerID != "" {
		files = []string{filepath.Join(l.basePath, ownerFile(filter.OwnerID))}
	} else {
		matches, err := filepath.Glob(filepath.Join(l.basePath, "*.jsonl"))
		if err != nil {
			return nil, errors.Storage("failed to list ledger files", err)
		}
		sort.Strings(matches)
		files = matches
	}

	var results []types.UsageRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := readLedgerFile(path)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if filter.Match(r) {
				results = append(results, r)
			}
		}
	}
	return sortAndLimit(results, filter.Limit), nil
}

func (l *FileLedger) Close() error {
	return nil
}

func readLedgerFile(path string) ([]types.UsageRecord, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage("failed to open ledger file", err)
	}
	defer f.Close()

	var records []types.UsageRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var r types.UsageRecord
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, errors.Storage(fmt.Sprintf("corrupt ledger entry at %s:%d", path, line), err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Storage("failed to read ledger file", err)
	}
	return records, nil
}
