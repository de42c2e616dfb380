// Package excel writes the audit trail to a local xlsx workbook, the format
// warehouse staff already open directly.
package excel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bkante/entrepot/internal/audit"
	"github.com/bkante/entrepot/internal/domain/models"
)

const sheetName = "InventoryLog"

// Sink appends audit entries to a workbook on disk. When the destination
// file or sheet went missing between appends it is recreated with the
// header row and the append retried once.
type Sink struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

var _ audit.Logger = (*Sink)(nil)

// NewSink ensures the workbook exists with its header row and returns the
// sink.
func NewSink(path string, logger *zap.Logger) (*Sink, error) {
	if path == "" {
		path = "warehouse_log.xlsx"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sink{path: path, logger: logger}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

// init creates the workbook with a formatted header when missing, or adds
// the log sheet to an existing workbook that lost it.
func (s *Sink) init() error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		f := excelize.NewFile()
		defer func() { _ = f.Close() }()

		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("name log sheet: %w", err)
		}
		if err := s.writeHeader(f); err != nil {
			return err
		}
		if err := f.SaveAs(s.path); err != nil {
			return fmt.Errorf("create audit workbook %s: %w", s.path, err)
		}
		s.logger.Info("audit workbook created", zap.String("path", s.path))
		return nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open audit workbook %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	if idx, err := f.GetSheetIndex(sheetName); err != nil {
		return fmt.Errorf("inspect audit workbook %s: %w", s.path, err)
	} else if idx >= 0 {
		return nil
	}

	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("add log sheet: %w", err)
	}
	if err := s.writeHeader(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save audit workbook %s: %w", s.path, err)
	}
	s.logger.Info("log sheet added to existing workbook", zap.String("path", s.path))
	return nil
}

func (s *Sink) writeHeader(f *excelize.File) error {
	header := audit.Header()
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &row); err != nil {
		return fmt.Errorf("write header row: %w", err)
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
		return fmt.Errorf("style header row: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, 18); err != nil {
		return fmt.Errorf("size header columns: %w", err)
	}
	return nil
}

// Append writes one entry as the next row of the log sheet.
func (s *Sink) Append(_ context.Context, entry models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.append(entry); err != nil {
		s.logger.Warn("audit append failed, reinitializing workbook",
			zap.String("path", s.path), zap.Error(err))
		if initErr := s.init(); initErr != nil {
			return fmt.Errorf("reinitialize audit workbook: %w", initErr)
		}
		if retryErr := s.append(entry); retryErr != nil {
			return fmt.Errorf("append after reinitialization: %w", retryErr)
		}
	}
	return nil
}

func (s *Sink) append(entry models.AuditEntry) error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open audit workbook %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("read log sheet: %w", err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("resolve append position: %w", err)
	}

	row := audit.Row(entry)
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save audit workbook %s: %w", s.path, err)
	}

	s.logger.Debug("audit entry appended",
		zap.String("pallet_id", entry.Record.PalletID),
		zap.String("action", string(entry.Action)))
	return nil
}
