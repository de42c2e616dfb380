// Package codec turns raw scanned text into structured inventory data:
// pallet label parsing and location identifier normalization.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bkante/entrepot/internal/domain/models"
)

// fieldCount is the exact number of ';'-separated fields a pallet label
// carries: product name, price, expiry date, lot id, units per case,
// pallet id.
const fieldCount = 6

// ParseErrorKind classifies structural failures in scanned pallet labels.
type ParseErrorKind string

const (
	FieldCountMismatch ParseErrorKind = "field_count_mismatch"
	InvalidNumber      ParseErrorKind = "invalid_number"
	InvalidDate        ParseErrorKind = "invalid_date"
)

// ParseError reports why a scanned label could not be decoded. Field names
// the offending field for numeric failures; Expected/Got carry the field
// counts for mismatches.
type ParseError struct {
	Kind     ParseErrorKind
	Field    string
	Expected int
	Got      int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case FieldCountMismatch:
		return fmt.Sprintf("pallet label: expected %d fields, got %d", e.Expected, e.Got)
	case InvalidNumber:
		return fmt.Sprintf("pallet label: field %q is not a valid number", e.Field)
	case InvalidDate:
		return fmt.Sprintf("pallet label: expiry date is not a valid %s date", models.ExpiryDateFormat)
	default:
		return "pallet label: malformed"
	}
}

// ParseRecord decodes the scanned product text into a pallet record. The
// returned record has no store id, location or last-update timestamp; those
// are attached when the workflow places the pallet. Only structural and
// type correctness is checked, never business validity.
func ParseRecord(text string) (models.PalletRecord, error) {
	parts := strings.Split(strings.TrimSpace(text), ";")
	if len(parts) != fieldCount {
		return models.PalletRecord{}, &ParseError{Kind: FieldCountMismatch, Expected: fieldCount, Got: len(parts)}
	}

	// Labels printed in some locales use a comma as the decimal separator.
	price, err := decimal.NewFromString(strings.ReplaceAll(parts[1], ",", "."))
	if err != nil {
		return models.PalletRecord{}, &ParseError{Kind: InvalidNumber, Field: "price"}
	}

	expiry, err := time.Parse(models.ExpiryDateFormat, parts[2])
	if err != nil {
		return models.PalletRecord{}, &ParseError{Kind: InvalidDate}
	}

	units, err := strconv.Atoi(parts[4])
	if err != nil {
		return models.PalletRecord{}, &ParseError{Kind: InvalidNumber, Field: "units_per_case"}
	}

	return models.PalletRecord{
		ProductName:  parts[0],
		Price:        price,
		ExpiryDate:   expiry,
		LotID:        parts[3],
		UnitsPerCase: units,
		PalletID:     parts[5],
	}, nil
}
