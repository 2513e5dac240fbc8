package service

import (
	"context"
	"sort"
	"testing"

	"gorm.io/gorm"

	"tradejournal/internal/journal"
	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

type memRepo struct {
	trades      []models.TradeRecord
	batches     []models.ImportBatch
	nextTradeID uint64
	nextBatchID uint64
	listCalls   int
}

var _ repository.Repository = (*memRepo)(nil)

func (m *memRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func (m *memRepo) ReplaceLedgerTx(ctx context.Context, tx *gorm.DB, items []models.TradeRecord) error {
	m.trades = nil
	for _, it := range items {
		m.nextTradeID++
		it.ID = m.nextTradeID
		m.trades = append(m.trades, it)
	}
	return nil
}

func (m *memRepo) ListAllTradeRecords(ctx context.Context) ([]models.TradeRecord, error) {
	m.listCalls++
	out := make([]models.TradeRecord, len(m.trades))
	copy(out, m.trades)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memRepo) ListTradeRecords(ctx context.Context, params repository.ListTradeRecordsParams) ([]models.TradeRecord, error) {
	return m.ListAllTradeRecords(ctx)
}

func (m *memRepo) CountTradeRecords(ctx context.Context, params repository.ListTradeRecordsParams) (int64, error) {
	return int64(len(m.trades)), nil
}

func (m *memRepo) GetTradeRecordByID(ctx context.Context, id uint64) (*models.TradeRecord, error) {
	for i := range m.trades {
		if m.trades[i].ID == id {
			item := m.trades[i]
			return &item, nil
		}
	}
	return nil, nil
}

func (m *memRepo) UpdateTradeAnnotations(ctx context.Context, id uint64, notes, ratio *string) error {
	for i := range m.trades {
		if m.trades[i].ID == id {
			if notes != nil {
				v := *notes
				m.trades[i].Notes = &v
			}
			if ratio != nil {
				v := *ratio
				m.trades[i].Ratio = &v
			}
		}
	}
	return nil
}

func (m *memRepo) InsertImportBatchTx(ctx context.Context, tx *gorm.DB, item *models.ImportBatch) error {
	m.nextBatchID++
	item.ID = m.nextBatchID
	m.batches = append(m.batches, *item)
	return nil
}

func (m *memRepo) LatestImportBatch(ctx context.Context) (*models.ImportBatch, error) {
	if len(m.batches) == 0 {
		return nil, nil
	}
	item := m.batches[len(m.batches)-1]
	return &item, nil
}

func (m *memRepo) ListImportBatches(ctx context.Context, params repository.ListImportBatchesParams) ([]models.ImportBatch, error) {
	out := make([]models.ImportBatch, len(m.batches))
	copy(out, m.batches)
	return out, nil
}

func (m *memRepo) CountImportBatches(ctx context.Context) (int64, error) {
	return int64(len(m.batches)), nil
}

const sampleCSV = `Date,Name,Action,Quantity,Price,Value,Total Position PnL,Ratio,Notes
2024-03-04,BTCUSDT,long,1,100,100,10,2.0,breakout
2024-03-05,ETHUSDT,short,2,50,100,-4,,
2024-03-06,SOLUSDT,long,5,10,50,,,still open
`

func newService(repo repository.Repository) *JournalService {
	return &JournalService{Repo: repo, StartingCapital: 100}
}

func TestImportUploadMergesAndRecordsBatch(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo)

	sum, err := svc.ImportUpload(context.Background(), "trades.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatalf("ImportUpload: %v", err)
	}
	if sum.RowsReceived != 3 {
		t.Errorf("RowsReceived = %d, want 3", sum.RowsReceived)
	}
	// The open SOLUSDT row is dropped by normalization.
	if sum.RowsAccepted != 2 {
		t.Errorf("RowsAccepted = %d, want 2", sum.RowsAccepted)
	}
	if sum.LedgerSize != 2 {
		t.Errorf("LedgerSize = %d, want 2", sum.LedgerSize)
	}
	if len(sum.Issues) != 1 {
		t.Errorf("Issues = %v, want the open-position drop", sum.Issues)
	}
	if len(repo.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(repo.batches))
	}
	if repo.batches[0].Source != "upload" {
		t.Errorf("Source = %q", repo.batches[0].Source)
	}
}

func TestReimportIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()

	if _, err := svc.ImportUpload(ctx, "trades.csv", []byte(sampleCSV)); err != nil {
		t.Fatalf("first import: %v", err)
	}
	sum, err := svc.ImportUpload(ctx, "trades.csv", []byte(sampleCSV))
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if sum.LedgerSize != 2 {
		t.Errorf("LedgerSize = %d, want 2 after reimport", sum.LedgerSize)
	}
	if sum.RowsMerged != 0 {
		t.Errorf("RowsMerged = %d, want 0 on reimport", sum.RowsMerged)
	}
}

func TestImportPreservesAnnotations(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()

	if _, err := svc.ImportUpload(ctx, "trades.csv", []byte(sampleCSV)); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	// Same trades exported again, this time without annotations.
	bare := `Date,Name,Action,Quantity,Price,Value,Total Position PnL
2024-03-04,BTCUSDT,long,1,100,100,10
2024-03-05,ETHUSDT,short,2,50,100,-4
`
	if _, err := svc.ImportUpload(ctx, "export.csv", []byte(bare)); err != nil {
		t.Fatalf("bare import: %v", err)
	}
	ledger, err := svc.Ledger(ctx)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	var btc *journal.Record
	for i := range ledger {
		if ledger[i].Name == "BTCUSDT" {
			btc = &ledger[i]
		}
	}
	if btc == nil {
		t.Fatal("BTCUSDT missing from ledger")
	}
	if btc.Notes == nil || *btc.Notes != "breakout" {
		t.Errorf("Notes = %v, want preserved %q", btc.Notes, "breakout")
	}
	if btc.Ratio == nil || *btc.Ratio != "2.0" {
		t.Errorf("Ratio = %v, want preserved %q", btc.Ratio, "2.0")
	}
}

func TestLedgerCachesUntilNextImport(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()

	if _, err := svc.ImportUpload(ctx, "trades.csv", []byte(sampleCSV)); err != nil {
		t.Fatalf("import: %v", err)
	}
	before := repo.listCalls
	if _, err := svc.Ledger(ctx); err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if _, err := svc.Ledger(ctx); err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if repo.listCalls != before+1 {
		t.Errorf("listCalls = %d, want one load for two reads", repo.listCalls-before)
	}
}

func TestStatsForWindowBaseline(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()

	csv := `Date,Name,Action,Quantity,Price,Value,Total Position PnL
2024-02-01,OLD,long,1,1,1,50
2024-03-09,NEW1,long,1,1,1,10
2024-03-10,NEW2,long,1,1,1,-4
`
	if _, err := svc.ImportUpload(ctx, "trades.csv", []byte(csv)); err != nil {
		t.Fatalf("import: %v", err)
	}
	stats, err := svc.StatsFor(ctx, journal.Window7D)
	if err != nil {
		t.Fatalf("StatsFor: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("Total = %d, want 2 inside the 7d window", stats.Total)
	}
	if stats.Profit != 6 {
		t.Errorf("Profit = %v, want 6", stats.Profit)
	}
	// Baseline is 100 starting capital plus the 50 realized before the window.
	want := 6.0 / 150.0 * 100
	if diff := stats.ReturnPct - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("ReturnPct = %v, want %v", stats.ReturnPct, want)
	}
}

func TestLatestNewestFirst(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()

	if _, err := svc.ImportUpload(ctx, "trades.csv", []byte(sampleCSV)); err != nil {
		t.Fatalf("import: %v", err)
	}
	latest, err := svc.Latest(ctx, 1)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest) != 1 || latest[0].Name != "ETHUSDT" {
		t.Fatalf("latest = %+v, want the 2024-03-05 ETHUSDT trade", latest)
	}
}

func TestUpdateAnnotationsCleansSentinels(t *testing.T) {
	repo := &memRepo{}
	svc := newService(repo)
	ctx := context.Background()

	if _, err := svc.ImportUpload(ctx, "trades.csv", []byte(sampleCSV)); err != nil {
		t.Fatalf("import: %v", err)
	}
	notes := "nan"
	item, err := svc.UpdateAnnotations(ctx, repo.trades[0].ID, &notes, nil)
	if err != nil {
		t.Fatalf("UpdateAnnotations: %v", err)
	}
	if item == nil {
		t.Fatal("record not found")
	}
	if item.Notes == nil || *item.Notes != "" {
		t.Errorf("Notes = %v, want cleared", item.Notes)
	}
}
