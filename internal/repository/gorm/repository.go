package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Ledger ------------------------------------------------------------------

// ReplaceLedgerTx swaps the whole ledger for items inside the caller's
// transaction. On any error the transaction rolls back and the previous
// ledger stays authoritative.
func (s *Store) ReplaceLedgerTx(ctx context.Context, tx *gorm.DB, items []models.TradeRecord) error {
	if s == nil || tx == nil {
		return errors.New("replace ledger requires a transaction")
	}
	if err := tx.WithContext(ctx).Where("1 = 1").Delete(&models.TradeRecord{}).Error; err != nil {
		return err
	}
	return createInBatches(tx.WithContext(ctx), items, 200)
}

func (s *Store) ListAllTradeRecords(ctx context.Context) ([]models.TradeRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.TradeRecord
	if err := s.db.WithContext(ctx).Order("date asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTradeRecords(ctx context.Context, params repository.ListTradeRecordsParams) ([]models.TradeRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyTradeFilters(s.db.WithContext(ctx).Model(&models.TradeRecord{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "date")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.TradeRecord
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountTradeRecords(ctx context.Context, params repository.ListTradeRecordsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	query := applyTradeFilters(s.db.WithContext(ctx).Model(&models.TradeRecord{}), params)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func applyTradeFilters(query *gorm.DB, params repository.ListTradeRecordsParams) *gorm.DB {
	if params.CompletedOnly {
		query = query.Where("total_position_pnl IS NOT NULL")
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		query = query.Where("name = ?", strings.TrimSpace(*params.Name))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("date >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("date <= ?", params.Until.UTC())
	}
	return query
}

func (s *Store) GetTradeRecordByID(ctx context.Context, id uint64) (*models.TradeRecord, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.TradeRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateTradeAnnotations(ctx context.Context, id uint64, notes, ratio *string) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if notes != nil {
		updates["notes"] = strings.TrimSpace(*notes)
	}
	if ratio != nil {
		updates["ratio"] = strings.TrimSpace(*ratio)
	}
	return s.db.WithContext(ctx).Model(&models.TradeRecord{}).Where("id = ?", id).Updates(updates).Error
}

// --- Import batches ----------------------------------------------------------

func (s *Store) InsertImportBatchTx(ctx context.Context, tx *gorm.DB, item *models.ImportBatch) error {
	if s == nil || tx == nil || item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) LatestImportBatch(ctx context.Context) (*models.ImportBatch, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.ImportBatch
	err := s.db.WithContext(ctx).Order("id desc").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListImportBatches(ctx context.Context, params repository.ListImportBatchesParams) ([]models.ImportBatch, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.ImportBatch
	err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountImportBatches(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.ImportBatch{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.CreateInBatches(items[i:end], batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
