package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/journal"
	"tradejournal/internal/storage"
)

// BackupService mirrors the ledger to object storage as a CSV snapshot and,
// on startup, can seed an empty database from the last snapshot. The pulled
// file goes through the regular normalize-and-merge pipeline, so a stale or
// hand-edited snapshot can never corrupt the ledger.
type BackupService struct {
	Journal    *JournalService
	Storage    *storage.Client
	Logger     *zap.Logger
	ObjectPath string
	LocalPath  string
}

var exportHeader = []string{
	"Date", "Name", "Action", "Quantity", "Price", "Value",
	"Total Position PnL", "Ratio", "Notes",
}

// Run pushes a snapshot at the given interval until the context ends.
func (s *BackupService) Run(ctx context.Context, interval time.Duration) error {
	if s == nil || s.Journal == nil {
		return nil
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := s.RunOnce(ctx); err != nil && s.Logger != nil {
			s.Logger.Warn("ledger backup failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunOnce exports the ledger and pushes it to storage, plus an optional local
// snapshot when LocalPath is set.
func (s *BackupService) RunOnce(ctx context.Context) error {
	if s == nil || s.Journal == nil {
		return fmt.Errorf("backup service not configured")
	}
	data, n, err := s.ExportCSV(ctx)
	if err != nil {
		return err
	}
	if s.LocalPath != "" {
		if err := writeFileAtomic(s.LocalPath, data); err != nil {
			return err
		}
	}
	if s.Storage != nil {
		if err := s.Storage.Upload(ctx, s.objectPath(), data, "text/csv"); err != nil {
			return err
		}
	}
	if s.Logger != nil {
		s.Logger.Info("ledger backup pushed",
			zap.String("object", s.objectPath()),
			zap.Int("rows", n))
	}
	return nil
}

// PullOnStart fetches the last snapshot and merges it into the ledger. A
// missing object is the normal first-run state and is not an error.
func (s *BackupService) PullOnStart(ctx context.Context) error {
	if s == nil || s.Journal == nil || s.Storage == nil {
		return nil
	}
	data, err := s.Storage.Download(ctx, s.objectPath())
	if errors.Is(err, storage.ErrNotFound) {
		if s.Logger != nil {
			s.Logger.Info("no remote ledger snapshot yet", zap.String("object", s.objectPath()))
		}
		return nil
	}
	if err != nil {
		return err
	}
	sum, err := s.Journal.ImportRemote(ctx, s.objectPath(), data)
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("remote ledger snapshot merged",
			zap.String("object", s.objectPath()),
			zap.Int("ledger_size", sum.LedgerSize))
	}
	return nil
}

// ExportCSV renders the full ledger in the canonical upload column order, so
// a snapshot round-trips through the import pipeline unchanged.
func (s *BackupService) ExportCSV(ctx context.Context) ([]byte, int, error) {
	ledger, err := s.Journal.Ledger(ctx)
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, 0, err
	}
	for _, rec := range ledger {
		if err := w.Write(exportRow(rec)); err != nil {
			return nil, 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(ledger), nil
}

func exportRow(rec journal.Record) []string {
	row := []string{
		rec.Date.Format("2006-01-02"),
		rec.Name,
		rec.Action,
		formatFloat(rec.Quantity),
		formatFloat(rec.Price),
		formatFloat(rec.Value),
		"",
		"",
		"",
	}
	if rec.PnL != nil {
		row[6] = formatFloat(*rec.PnL)
	}
	if rec.Ratio != nil {
		row[7] = *rec.Ratio
	}
	if rec.Notes != nil {
		row[8] = *rec.Notes
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *BackupService) objectPath() string {
	if s.ObjectPath != "" {
		return s.ObjectPath
	}
	return "trading_journal.csv"
}

// writeFileAtomic writes via a temp file and rename so a crash mid-write
// never leaves a truncated snapshot.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
