package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tradejournal/internal/ingest"
	"tradejournal/internal/journal"
	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// JournalService owns the ledger lifecycle: uploads are normalized, merged
// against the current ledger and written back atomically together with an
// import batch row. Reads go through a small cache keyed by the latest batch
// ID so repeated analytics calls do not reload the table.
type JournalService struct {
	Repo            repository.Repository
	Logger          *zap.Logger
	StartingCapital float64

	// Serializes merges; two concurrent uploads must not interleave their
	// read-merge-replace cycles.
	importMu sync.Mutex

	cacheMu       sync.Mutex
	cachedLedger  []journal.Record
	cachedVersion uint64
	cacheWarm     bool
}

// ImportSummary is the outcome of one processed upload.
type ImportSummary struct {
	BatchID      uint64          `json:"batch_id"`
	Filename     string          `json:"filename"`
	RowsReceived int             `json:"rows_received"`
	RowsAccepted int             `json:"rows_accepted"`
	RowsMerged   int             `json:"rows_merged"`
	LedgerSize   int             `json:"ledger_size"`
	Issues       []journal.Issue `json:"issues,omitempty"`
}

// ImportUpload decodes an uploaded spreadsheet, merges it into the ledger and
// records the batch. Re-importing the same file is a no-op on ledger content:
// the merge keys on (date, name, action, quantity, price) and only annotation
// backfills change anything.
func (s *JournalService) ImportUpload(ctx context.Context, filename string, data []byte) (*ImportSummary, error) {
	return s.importBatch(ctx, filename, "upload", data)
}

// ImportRemote runs the same pipeline for a ledger pulled from object storage
// at startup.
func (s *JournalService) ImportRemote(ctx context.Context, filename string, data []byte) (*ImportSummary, error) {
	return s.importBatch(ctx, filename, "remote", data)
}

func (s *JournalService) importBatch(ctx context.Context, filename, source string, data []byte) (*ImportSummary, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("journal service not configured")
	}
	rows, err := ingest.Decode(filename, data)
	if err != nil {
		return nil, err
	}
	incoming, report := journal.NormalizeBatch(rows)

	s.importMu.Lock()
	defer s.importMu.Unlock()

	existing, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	merged := journal.Merge(existing, incoming)

	items := make([]models.TradeRecord, 0, len(merged))
	for _, rec := range merged {
		items = append(items, models.TradeRecordFromJournal(rec))
	}
	issuesRaw, _ := json.Marshal(report.Dropped)
	batch := &models.ImportBatch{
		Filename:     filename,
		Source:       source,
		RowsReceived: report.Received,
		RowsAccepted: report.Accepted,
		RowsMerged:   len(merged) - len(existing),
		LedgerSize:   len(merged),
		Issues:       datatypes.JSON(issuesRaw),
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.ReplaceLedgerTx(ctx, tx, items); err != nil {
			return err
		}
		return s.Repo.InsertImportBatchTx(ctx, tx, batch)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()
	if s.Logger != nil {
		s.Logger.Info("ledger merged",
			zap.String("filename", filename),
			zap.String("source", source),
			zap.Int("received", report.Received),
			zap.Int("accepted", report.Accepted),
			zap.Int("ledger_size", len(merged)))
	}
	return &ImportSummary{
		BatchID:      batch.ID,
		Filename:     filename,
		RowsReceived: report.Received,
		RowsAccepted: report.Accepted,
		RowsMerged:   batch.RowsMerged,
		LedgerSize:   len(merged),
		Issues:       report.Dropped,
	}, nil
}

// UpdateAnnotations sets the free-text fields on one ledger row. A nil field
// is left untouched; pass an empty string to clear.
func (s *JournalService) UpdateAnnotations(ctx context.Context, id uint64, notes, ratio *string) (*models.TradeRecord, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("journal service not configured")
	}
	item, err := s.Repo.GetTradeRecordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if notes != nil {
		notes = journal.CleanAnnotation(*notes)
		if notes == nil {
			empty := ""
			notes = &empty
		}
	}
	if ratio != nil {
		ratio = journal.CleanAnnotation(*ratio)
		if ratio == nil {
			empty := ""
			ratio = &empty
		}
	}
	if err := s.Repo.UpdateTradeAnnotations(ctx, id, notes, ratio); err != nil {
		return nil, err
	}
	s.invalidate()
	return s.Repo.GetTradeRecordByID(ctx, id)
}

// StatsFor computes performance statistics over one window. The filtered
// return is expressed against the equity accumulated before the window, not
// the raw starting capital.
func (s *JournalService) StatsFor(ctx context.Context, w journal.Window) (journal.Stats, error) {
	ledger, err := s.Ledger(ctx)
	if err != nil {
		return journal.Stats{}, err
	}
	completed := journal.Completed(ledger)
	selected := journal.Select(completed, w)

	baseline := s.startingCapital()
	if cutoff, ok := journal.Cutoff(completed, w); ok {
		baseline = journal.BaselineBefore(completed, cutoff, s.startingCapital())
	}
	return journal.Compute(selected, baseline)
}

// EquityFor derives the daily equity curve for one window. The cumulative
// series restarts at zero at the window boundary; the pre-window total is
// reported separately as the baseline.
func (s *JournalService) EquityFor(ctx context.Context, w journal.Window) ([]journal.EquityPoint, float64, error) {
	ledger, err := s.Ledger(ctx)
	if err != nil {
		return nil, 0, err
	}
	completed := journal.Completed(ledger)
	selected := journal.Select(completed, w)

	baseline := s.startingCapital()
	if cutoff, ok := journal.Cutoff(completed, w); ok {
		baseline = journal.BaselineBefore(completed, cutoff, s.startingCapital())
	}
	return journal.DeriveEquity(selected), baseline, nil
}

// Ledger returns every ledger record ordered by date ascending, served from
// cache while the latest import batch ID is unchanged.
func (s *JournalService) Ledger(ctx context.Context) ([]journal.Record, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("journal service not configured")
	}
	version := uint64(0)
	if latest, err := s.Repo.LatestImportBatch(ctx); err == nil && latest != nil {
		version = latest.ID
	}

	s.cacheMu.Lock()
	if s.cacheWarm && s.cachedVersion == version {
		out := make([]journal.Record, len(s.cachedLedger))
		copy(out, s.cachedLedger)
		s.cacheMu.Unlock()
		return out, nil
	}
	s.cacheMu.Unlock()

	ledger, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheMu.Lock()
	s.cachedLedger = ledger
	s.cachedVersion = version
	s.cacheWarm = true
	s.cacheMu.Unlock()

	out := make([]journal.Record, len(ledger))
	copy(out, ledger)
	return out, nil
}

// Latest returns the newest completed trades, newest first.
func (s *JournalService) Latest(ctx context.Context, limit int) ([]journal.Record, error) {
	ledger, err := s.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	completed := journal.Completed(ledger)
	if limit <= 0 {
		limit = 5
	}
	out := make([]journal.Record, 0, limit)
	for i := len(completed) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, completed[i])
	}
	return out, nil
}

func (s *JournalService) loadLedger(ctx context.Context) ([]journal.Record, error) {
	items, err := s.Repo.ListAllTradeRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]journal.Record, 0, len(items))
	for _, it := range items {
		out = append(out, it.ToJournal())
	}
	return out, nil
}

func (s *JournalService) invalidate() {
	s.cacheMu.Lock()
	s.cacheWarm = false
	s.cachedLedger = nil
	s.cacheMu.Unlock()
}

func (s *JournalService) startingCapital() float64 {
	if s.StartingCapital > 0 {
		return s.StartingCapital
	}
	return 100
}
