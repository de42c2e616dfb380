// Package snapshot exports the current inventory to an Excel workbook so
// staff can browse stock without touching the database.
package snapshot

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/repository"
)

const sheetName = "Inventory"

var header = []string{
	"ID", "Pallet", "Product", "Price", "Expiry Date", "Lot",
	"Units/Case", "Location", "Last Update",
}

// Service writes full-inventory snapshots. Unlike the audit log the
// snapshot file is replaced on every export.
type Service struct {
	store  repository.InventoryStore
	path   string
	logger *zap.Logger
}

// NewService builds a snapshot exporter targeting the given file path.
func NewService(store repository.InventoryStore, path string, logger *zap.Logger) *Service {
	if path == "" {
		path = "inventory_snapshot.xlsx"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, path: path, logger: logger}
}

// Export reads every live record and writes the snapshot workbook.
func (s *Service) Export(ctx context.Context) error {
	records, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("read inventory for snapshot: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("name snapshot sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("style snapshot header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("size snapshot columns: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve snapshot row: %w", err)
		}
		location := rec.LocationID
		if location == "" {
			location = "N/A"
		}
		row := []any{
			rec.ID,
			rec.PalletID,
			rec.ProductName,
			rec.Price.String(),
			rec.ExpiryDate.Format(models.ExpiryDateFormat),
			rec.LotID,
			rec.UnitsPerCase,
			location,
			rec.LastUpdate.Format(models.TimestampFormat),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write snapshot row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save snapshot workbook %s: %w", s.path, err)
	}

	s.logger.Info("inventory snapshot exported",
		zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}
