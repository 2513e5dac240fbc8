package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tradejournal/internal/models"
)

// Repository is the persistence surface for the ledger and its upload audit.
// A merge replaces the whole ledger and records its import batch inside one
// transaction, so a failed merge never leaves a partially written ledger.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Ledger
	ReplaceLedgerTx(ctx context.Context, tx *gorm.DB, items []models.TradeRecord) error
	ListAllTradeRecords(ctx context.Context) ([]models.TradeRecord, error)
	ListTradeRecords(ctx context.Context, params ListTradeRecordsParams) ([]models.TradeRecord, error)
	CountTradeRecords(ctx context.Context, params ListTradeRecordsParams) (int64, error)
	GetTradeRecordByID(ctx context.Context, id uint64) (*models.TradeRecord, error)
	UpdateTradeAnnotations(ctx context.Context, id uint64, notes, ratio *string) error

	// Upload audit / ledger version
	InsertImportBatchTx(ctx context.Context, tx *gorm.DB, item *models.ImportBatch) error
	LatestImportBatch(ctx context.Context) (*models.ImportBatch, error)
	ListImportBatches(ctx context.Context, params ListImportBatchesParams) ([]models.ImportBatch, error)
	CountImportBatches(ctx context.Context) (int64, error)
}

type ListTradeRecordsParams struct {
	Limit         int
	Offset        int
	CompletedOnly bool
	Name          *string
	Since         *time.Time
	Until         *time.Time
	OrderBy       string
	Asc           *bool
}

type ListImportBatchesParams struct {
	Limit  int
	Offset int
}
