// Package sheets writes the audit trail to a shared Google Sheets
// spreadsheet, for sites that review the log remotely.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/bkante/entrepot/internal/audit"
	"github.com/bkante/entrepot/internal/domain/models"
)

// Sink appends audit rows to a spreadsheet range using the official Google
// Sheets API.
type Sink struct {
	service       *sheetsapi.Service
	spreadsheetID string
	writeRange    string
	logger        *zap.Logger
}

var _ audit.Logger = (*Sink)(nil)

// NewSink builds a Google Sheets backed audit sink.
func NewSink(ctx context.Context, credentialsPath, spreadsheetID, writeRange string, logger *zap.Logger) (*Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeRange == "" {
		writeRange = "InventoryLog!A:J"
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("initialize sheets client: %w", err)
	}

	return &Sink{
		service:       service,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
		logger:        logger,
	}, nil
}

// Append appends one entry as a spreadsheet row.
func (s *Sink) Append(ctx context.Context, entry models.AuditEntry) error {
	payload := &sheetsapi.ValueRange{Values: [][]any{audit.Row(entry)}}

	call := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.writeRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append audit row into range %s: %w", s.writeRange, err)
	}

	s.logger.Debug("audit entry appended to sheet",
		zap.String("pallet_id", entry.Record.PalletID),
		zap.String("action", string(entry.Action)))
	return nil
}
