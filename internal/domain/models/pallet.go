package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampFormat is the wire and storage format for record timestamps.
const TimestampFormat = "2006-01-02 15:04:05"

// ExpiryDateFormat is the calendar date format carried in scanned codes.
const ExpiryDateFormat = "2006-01-02"

// PalletRecord is one live inventory row. PalletID is globally unique;
// LocationID, when set, is unique across all live records. An empty
// LocationID means the pallet has not been placed yet.
type PalletRecord struct {
	ID           int64           `json:"id"`
	PalletID     string          `json:"pallet_id"`
	ProductName  string          `json:"product_name"`
	Price        decimal.Decimal `json:"price"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	LotID        string          `json:"lot_id"`
	UnitsPerCase int             `json:"units_per_case"`
	LocationID   string          `json:"location_id"`
	LastUpdate   time.Time       `json:"last_update"`
}

// SearchField selects the column a substring search runs against.
type SearchField string

const (
	SearchByLot     SearchField = "lot_id"
	SearchByProduct SearchField = "product_name"
)

// Valid reports whether the field names a searchable column.
func (f SearchField) Valid() bool {
	return f == SearchByLot || f == SearchByProduct
}
