package ingest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"tradejournal/internal/journal"
)

const sampleCSV = `Date,Name,Action,Quantity,Price,Value,Total Position PnL,Ratio,Notes
02.01.2024 09:30 PM UTC,ABC,buy,10,5,50,20,,good entry
03.01.2024 10:00 AM UTC,DEF,sell,2,"1,250.50","2,501.00",-12.5,1:3,
`

func TestDecodeCSV(t *testing.T) {
	rows, err := DecodeCSV([]byte(sampleCSV))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d want 2", len(rows))
	}
	if rows[0].Name != "ABC" || rows[0].PnL != "20" || rows[0].Notes != "good entry" {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Price != "1,250.50" {
		t.Fatalf("quoted grouped price lost: %+v", rows[1])
	}
	if rows[0].Line != 2 || rows[1].Line != 3 {
		t.Fatalf("line numbers %d,%d want 2,3", rows[0].Line, rows[1].Line)
	}
}

func TestDecodeCSV_HeaderAliases(t *testing.T) {
	csvData := "date,name,ACTION,quantity,price,value,total_position_pnl\n2024-01-02,ABC,buy,1,2,2,5\n"
	rows, err := DecodeCSV([]byte(csvData))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 1 || rows[0].PnL != "5" {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestDecodeCSV_MissingColumnIsSchemaError(t *testing.T) {
	csvData := "Date,Name,Action,Quantity,Price\n2024-01-02,ABC,buy,1,2\n"
	_, err := DecodeCSV([]byte(csvData))
	var schemaErr *journal.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err=%v want SchemaError", err)
	}
	if schemaErr.Column != "value" {
		t.Fatalf("column=%q want value", schemaErr.Column)
	}
}

func TestDecodeCSV_SkipsBlankRows(t *testing.T) {
	csvData := sampleCSV + ",,,,,,,,\n"
	rows, err := DecodeCSV([]byte(csvData))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d want 2", len(rows))
	}
}

func TestDecodeXLSX_RoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []any{"Date", "Name", "Action", "Quantity", "Price", "Value", "Total Position PnL", "Ratio", "Notes"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("set header: %v", err)
	}
	row := []any{"02.01.2024 09:30 PM UTC", "ABC", "buy", "10", "₮5.00", "₮50.00", "20", "", "scalp"}
	if err := f.SetSheetRow(sheet, "A2", &row); err != nil {
		t.Fatalf("set row: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := DecodeXLSX(buf.Bytes())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d want 1", len(rows))
	}
	if rows[0].Price != "₮5.00" || rows[0].Notes != "scalp" {
		t.Fatalf("row=%+v", rows[0])
	}
}

func TestDecode_Dispatch(t *testing.T) {
	if _, err := Decode("trades.csv", []byte(sampleCSV)); err != nil {
		t.Fatalf("csv dispatch err=%v", err)
	}
	if _, err := Decode("trades.pdf", nil); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
