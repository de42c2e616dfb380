package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bkante/entrepot/internal/audit"
	"github.com/bkante/entrepot/internal/domain/models"
)

func testEntry(action models.Action, palletID string) models.AuditEntry {
	rec := models.PalletRecord{
		ID:           7,
		PalletID:     palletID,
		ProductName:  "Tomato Sauce",
		Price:        decimal.RequireFromString("12.50"),
		ExpiryDate:   time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC),
		LotID:        "LOT-42",
		UnitsPerCase: 24,
		LocationID:   "A12",
	}
	return models.NewAuditEntry(action, rec, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
}

func sheetRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read log sheet: %v", err)
	}
	return rows
}

func TestNewSinkCreatesWorkbookWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")

	if _, err := NewSink(path, nil); err != nil {
		t.Fatalf("NewSink: %v", err)
	}

	rows := sheetRows(t, path)
	if len(rows) != 1 {
		t.Fatalf("new workbook has %d rows, want header only", len(rows))
	}
	want := audit.Header()
	for i, title := range want {
		if rows[0][i] != title {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], title)
		}
	}
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")
	sink, err := NewSink(path, nil)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	ctx := context.Background()

	if err := sink.Append(ctx, testEntry(models.ActionAdd, "PAL-001")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := sink.Append(ctx, testEntry(models.ActionMove, "PAL-002")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows := sheetRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("workbook has %d rows, want header plus 2 entries", len(rows))
	}

	first := rows[1]
	if first[0] != "7" || first[1] != "ADD" || first[3] != "PAL-001" {
		t.Errorf("first entry = %v, want id 7, ADD, PAL-001", first)
	}
	if first[2] != "2026-03-14 09:30:00" {
		t.Errorf("timestamp = %q, want %q", first[2], "2026-03-14 09:30:00")
	}
	if first[5] != "12.5" {
		t.Errorf("price = %q, want %q", first[5], "12.5")
	}
	if rows[2][1] != "MOVE" || rows[2][3] != "PAL-002" {
		t.Errorf("second entry = %v, want MOVE PAL-002", rows[2])
	}
}

func TestAppendRecreatesMissingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")
	sink, err := NewSink(path, nil)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	ctx := context.Background()

	if err := sink.Append(ctx, testEntry(models.ActionAdd, "PAL-001")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// Someone removed the workbook between appends.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove workbook: %v", err)
	}

	if err := sink.Append(ctx, testEntry(models.ActionDelete, "PAL-002")); err != nil {
		t.Fatalf("Append after removal: %v", err)
	}

	rows := sheetRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("recreated workbook has %d rows, want header plus 1 entry", len(rows))
	}
	if rows[1][1] != "DELETE" || rows[1][3] != "PAL-002" {
		t.Errorf("recovered entry = %v, want DELETE PAL-002", rows[1])
	}
}

func TestUnplacedPalletLocationIsNA(t *testing.T) {
	entry := testEntry(models.ActionDelete, "PAL-009")
	entry.Record.LocationID = ""

	row := audit.Row(entry)
	if row[len(row)-1] != "N/A" {
		t.Errorf("location column = %v, want N/A", row[len(row)-1])
	}
}
