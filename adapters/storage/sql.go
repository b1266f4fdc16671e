package storage

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"usage-pricing/core/types"
	"usage-pricing/core/usage"
	"usage-pricing/internal/errors"
)

// ledgerRow is the usage_ledger table. Money columns hold decimal text.
type ledgerRow struct {
	ID              string          `gorm:"primaryKey;size:36"`
	OwnerID         string          `gorm:"index:idx_usage_ledger_owner_date,priority:1;not null"`
	Source          string          `gorm:"size:16"`
	ServiceType     string          `gorm:"index;size:64"`
	UsageDate       time.Time       `gorm:"index:idx_usage_ledger_owner_date,priority:2;not null"`
	UsageAmount     decimal.Decimal `gorm:"type:text;not null"`
	UsageUnit       string          `gorm:"size:32"`
	FromNumber      string          `gorm:"size:32"`
	ToNumber        string          `gorm:"size:32"`
	CallType        string          `gorm:"size:16"`
	DurationSeconds int64
	Rate            decimal.Decimal `gorm:"type:text;not null"`
	Cost            decimal.Decimal `gorm:"type:text;not null"`
	ExternalID      string          `gorm:"index"`
	Description     string
	CreatedAt       time.Time
}

func (ledgerRow) TableName() string {
	return "usage_ledger"
}

func toRow(r types.UsageRecord) ledgerRow {
	return ledgerRow{
		ID:              r.ID,
		OwnerID:         r.OwnerID,
		Source:          string(r.Source),
		ServiceType:     string(r.ServiceType),
		UsageDate:       r.UsageDate,
		UsageAmount:     r.UsageAmount,
		UsageUnit:       r.UsageUnit,
		FromNumber:      r.FromNumber,
		ToNumber:        r.ToNumber,
		CallType:        string(r.CallType),
		DurationSeconds: r.DurationSeconds,
		Rate:            r.Rate,
		Cost:            r.Cost,
		ExternalID:      r.ExternalID,
		Description:     r.Description,
		CreatedAt:       r.CreatedAt,
	}
}

func (row ledgerRow) record() types.UsageRecord {
	return types.UsageRecord{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		Source:          types.UsageSource(row.Source),
		ServiceType:     types.ServiceType(row.ServiceType),
		UsageDate:       row.UsageDate.UTC(),
		UsageAmount:     row.UsageAmount,
		UsageUnit:       row.UsageUnit,
		FromNumber:      row.FromNumber,
		ToNumber:        row.ToNumber,
		CallType:        types.CallType(row.CallType),
		DurationSeconds: row.DurationSeconds,
		Rate:            row.Rate,
		Cost:            row.Cost,
		ExternalID:      row.ExternalID,
		Description:     row.Description,
		CreatedAt:       row.CreatedAt.UTC(),
	}
}

// SQLLedger stores usage in a relational database through gorm
type SQLLedger struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) a SQLite ledger. path may be ":memory:".
func OpenSQLite(ctx context.Context, path string) (*SQLLedger, error) {
	maxOpen := 0
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		maxOpen = 1
	}
	return openSQL(ctx, sqlite.Open(path), maxOpen)
}

// OpenPostgres opens (and migrates) a PostgreSQL ledger
func OpenPostgres(ctx context.Context, dsn string) (*SQLLedger, error) {
	if dsn == "" {
		return nil, errors.New(errors.TypeConfig, "postgres ledger requires a dsn")
	}
	return openSQL(ctx, postgres.Open(dsn), 0)
}

func openSQL(ctx context.Context, dialector gorm.Dialector, maxOpen int) (*SQLLedger, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Storage("failed to open ledger database", err)
	}
	if maxOpen > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Storage("failed to configure ledger database", err)
		}
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if err := db.WithContext(ctx).AutoMigrate(&ledgerRow{}); err != nil {
		return nil, errors.Storage("failed to migrate ledger schema", err)
	}
	return &SQLLedger{db: db}, nil
}

// Append inserts the batch in one transaction
func (l *SQLLedger) Append(ctx context.Context, ownerID string, records ...types.UsageRecord) error {
	prepared, err := prepare(ownerID, records)
	if err != nil {
		return err
	}
	if len(prepared) == 0 {
		return nil
	}

	rows := make([]ledgerRow, len(prepared))
	for i, r := range prepared {
		rows[i] = toRow(r)
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return errors.Storage("failed to append usage records", err)
	}
	return nil
}

func (l *SQLLedger) List(ctx context.Context, filter usage.ListFilter) ([]types.UsageRecord, error) {
	q := l.db.WithContext(ctx).Model(&ledgerRow{})
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.ServiceType != "" {
		q = q.Where("service_type = ?", string(filter.ServiceType))
	}
	if !filter.Since.IsZero() {
		q = q.Where("usage_date >= ?", filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		q = q.Where("usage_date <= ?", filter.Until.UTC())
	}
	q = q.Order("usage_date ASC").Order("created_at ASC").Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []ledgerRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, errors.Storage("failed to list usage records", err)
	}

	records := make([]types.UsageRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

func (l *SQLLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
