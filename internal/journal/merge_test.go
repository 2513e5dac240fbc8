package journal

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func trade(date time.Time, name string, pnl float64) Record {
	p := pnl
	return Record{Date: date, Name: name, Action: "buy", Quantity: 10, Price: 5, Value: 50, PnL: &p}
}

func strptr(s string) *string { return &s }

func TestMerge_FirstRun(t *testing.T) {
	incoming := []Record{trade(day(2024, 1, 2), "ABC", 20)}
	merged := Merge(nil, incoming)
	if len(merged) != 1 {
		t.Fatalf("len=%d want 1", len(merged))
	}
	if *merged[0].PnL != 20 {
		t.Fatalf("pnl=%v want 20", *merged[0].PnL)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	batch := []Record{
		trade(day(2024, 1, 2), "ABC", 20),
		trade(day(2024, 1, 3), "DEF", -5),
	}
	once := Merge(nil, batch)
	twice := Merge(once, batch)
	if len(once) != 2 || len(twice) != 2 {
		t.Fatalf("len once=%d twice=%d want 2", len(once), len(twice))
	}
	for i := range once {
		if once[i].Key() != twice[i].Key() || *once[i].PnL != *twice[i].PnL {
			t.Fatalf("row %d differs after re-merge: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestMerge_KeyUniqueness(t *testing.T) {
	existing := []Record{
		trade(day(2024, 1, 2), "ABC", 20),
		trade(day(2024, 1, 3), "DEF", -5),
	}
	incoming := []Record{
		trade(day(2024, 1, 2), "ABC", 22),
		trade(day(2024, 1, 4), "GHI", 7),
	}
	merged := Merge(existing, incoming)
	seen := map[Key]bool{}
	for _, r := range merged {
		if seen[r.Key()] {
			t.Fatalf("duplicate key %+v", r.Key())
		}
		seen[r.Key()] = true
	}
	if len(merged) != 3 {
		t.Fatalf("len=%d want 3", len(merged))
	}
}

func TestMerge_IncomingWinsOnSharedKey(t *testing.T) {
	existing := []Record{trade(day(2024, 1, 2), "ABC", 20)}
	incoming := []Record{trade(day(2024, 1, 2), "ABC", 25)}
	merged := Merge(existing, incoming)
	if len(merged) != 1 || *merged[0].PnL != 25 {
		t.Fatalf("merged=%+v want single row pnl=25", merged)
	}
}

func TestMerge_AnnotationPreservation(t *testing.T) {
	keep := trade(day(2024, 1, 2), "ABC", 20)
	keep.Notes = strptr("foo")
	keep.Ratio = strptr("1:2")
	existing := []Record{keep}

	// Incoming with nil annotations keeps the stored values.
	merged := Merge(existing, []Record{trade(day(2024, 1, 2), "ABC", 20)})
	if merged[0].Notes == nil || *merged[0].Notes != "foo" {
		t.Fatalf("notes=%v want foo", merged[0].Notes)
	}
	if merged[0].Ratio == nil || *merged[0].Ratio != "1:2" {
		t.Fatalf("ratio=%v want 1:2", merged[0].Ratio)
	}

	// Incoming with its own non-nil value overrides.
	over := trade(day(2024, 1, 2), "ABC", 20)
	over.Notes = strptr("bar")
	merged = Merge(existing, []Record{over})
	if merged[0].Notes == nil || *merged[0].Notes != "bar" {
		t.Fatalf("notes=%v want bar", merged[0].Notes)
	}
	if merged[0].Ratio == nil || *merged[0].Ratio != "1:2" {
		t.Fatalf("ratio should still carry forward, got %v", merged[0].Ratio)
	}
}

func TestMerge_SortedByDateAscending(t *testing.T) {
	existing := []Record{trade(day(2024, 2, 10), "ABC", 1)}
	incoming := []Record{
		trade(day(2024, 1, 5), "DEF", 2),
		trade(day(2024, 3, 1), "GHI", 3),
	}
	merged := Merge(existing, incoming)
	for i := 1; i < len(merged); i++ {
		if merged[i].Date.Before(merged[i-1].Date) {
			t.Fatalf("not sorted: %v before %v", merged[i].Date, merged[i-1].Date)
		}
	}
}

func TestMerge_EmptyIncomingLeavesLedger(t *testing.T) {
	existing := []Record{
		trade(day(2024, 1, 3), "DEF", -5),
		trade(day(2024, 1, 2), "ABC", 20),
	}
	merged := Merge(existing, nil)
	if len(merged) != 2 {
		t.Fatalf("len=%d want 2", len(merged))
	}
	// Still re-sorted.
	if !merged[0].Date.Equal(day(2024, 1, 2)) {
		t.Fatalf("first=%v want 2024-01-02", merged[0].Date)
	}
}
