package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportBatch is the audit row written for every processed upload. The latest
// batch ID doubles as the ledger version token used to invalidate cached
// statistics.
type ImportBatch struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Filename     string `gorm:"type:varchar(255);not null"`
	Source       string `gorm:"type:varchar(20);not null;default:'upload'"`
	RowsReceived int    `gorm:"not null;default:0"`
	RowsAccepted int    `gorm:"not null;default:0"`
	RowsMerged   int    `gorm:"not null;default:0"`
	LedgerSize   int    `gorm:"not null;default:0"`

	// Per-row parse issues from the normalizer, for the upload response and
	// later inspection.
	Issues datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ImportBatch) TableName() string {
	return "import_batches"
}
