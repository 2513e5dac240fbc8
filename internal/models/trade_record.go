package models

import (
	"time"

	"github.com/shopspring/decimal"

	"tradejournal/internal/journal"
)

// TradeRecord is one ledger row. The composite unique index over
// (date, name, action, quantity, price) enforces the natural key at the
// database level; merges replace the whole table inside one transaction.
type TradeRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Date     time.Time       `gorm:"type:date;not null;uniqueIndex:idx_trade_natural_key;index"`
	Name     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_trade_natural_key"`
	Action   string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_trade_natural_key"`
	Quantity decimal.Decimal `gorm:"type:numeric(30,10);not null;uniqueIndex:idx_trade_natural_key"`
	Price    decimal.Decimal `gorm:"type:numeric(30,10);not null;uniqueIndex:idx_trade_natural_key"`

	Value decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	// Nil while the position is open; open rows stay in the ledger but are
	// excluded from statistics and the completed-trades history.
	TotalPositionPnL *decimal.Decimal `gorm:"column:total_position_pnl;type:numeric(30,10);index"`

	Ratio *string `gorm:"type:text"`
	Notes *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (TradeRecord) TableName() string {
	return "trade_records"
}

func (t TradeRecord) ToJournal() journal.Record {
	rec := journal.Record{
		Date:     journal.DateOnly(t.Date),
		Name:     t.Name,
		Action:   t.Action,
		Quantity: t.Quantity.InexactFloat64(),
		Price:    t.Price.InexactFloat64(),
		Value:    t.Value.InexactFloat64(),
		Ratio:    t.Ratio,
		Notes:    t.Notes,
	}
	if t.TotalPositionPnL != nil {
		pnl := t.TotalPositionPnL.InexactFloat64()
		rec.PnL = &pnl
	}
	return rec
}

func TradeRecordFromJournal(r journal.Record) TradeRecord {
	item := TradeRecord{
		Date:     r.Date,
		Name:     r.Name,
		Action:   r.Action,
		Quantity: decimal.NewFromFloat(r.Quantity),
		Price:    decimal.NewFromFloat(r.Price),
		Value:    decimal.NewFromFloat(r.Value),
		Ratio:    r.Ratio,
		Notes:    r.Notes,
	}
	if r.PnL != nil {
		d := decimal.NewFromFloat(*r.PnL)
		item.TotalPositionPnL = &d
	}
	return item
}
