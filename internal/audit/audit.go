// Package audit defines the append-only audit trail of completed inventory
// operations.
package audit

import (
	"context"

	"github.com/bkante/entrepot/internal/domain/models"
)

// Logger is an append-only sink for completed operation records. Sinks
// never edit or delete previously written entries.
type Logger interface {
	Append(ctx context.Context, entry models.AuditEntry) error
}

// Row flattens an entry into the column order shared by all sinks: store
// id, action, timestamp, then the record fields.
func Row(entry models.AuditEntry) []any {
	rec := entry.Record
	location := rec.LocationID
	if location == "" {
		location = "N/A"
	}
	return []any{
		entry.StoreID,
		string(entry.Action),
		entry.Timestamp.Format(models.TimestampFormat),
		rec.PalletID,
		rec.ProductName,
		rec.Price.String(),
		rec.ExpiryDate.Format(models.ExpiryDateFormat),
		rec.LotID,
		rec.UnitsPerCase,
		location,
	}
}

// Header lists the column titles matching Row.
func Header() []string {
	return []string{
		"ID", "Action", "Timestamp", "Pallet", "Product", "Price",
		"Expiry Date", "Lot", "Units/Case", "Location",
	}
}
