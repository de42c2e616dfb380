// Package sqlite persists the inventory in a single-file SQLite database
// using the pure Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS inventory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pallet_id TEXT NOT NULL UNIQUE,
	product_name TEXT NOT NULL,
	price TEXT,
	expiry_date TEXT NOT NULL,
	lot_id TEXT NOT NULL,
	units_per_case INTEGER,
	location_id TEXT,
	last_update TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inventory_lot_id ON inventory (lot_id);
CREATE INDEX IF NOT EXISTS idx_inventory_product_name ON inventory (product_name);
`

const selectColumns = "id, pallet_id, product_name, price, expiry_date, lot_id, units_per_case, location_id, last_update"

// Store implements repository.InventoryStore on top of a SQLite file.
type Store struct {
	db *sql.DB
}

var _ repository.InventoryStore = (*Store)(nil)

// NewStore opens (creating if necessary) the database at path and ensures
// the inventory table and its indexes exist.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "inventory.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize inventory schema: %w", err)
	}

	return &Store{db: db}, nil
}

// FindByPalletID looks a single pallet up by its unique identifier.
func (s *Store) FindByPalletID(ctx context.Context, palletID string) (models.PalletRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM inventory WHERE pallet_id = ?", palletID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PalletRecord{}, false, nil
	}
	if err != nil {
		return models.PalletRecord{}, false, fmt.Errorf("find pallet %s: %w", palletID, err)
	}
	return rec, true, nil
}

// FindByLot returns every pallet of the lot in insertion order.
func (s *Store) FindByLot(ctx context.Context, lotID string) ([]models.PalletRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM inventory WHERE lot_id = ? ORDER BY id", lotID)
	if err != nil {
		return nil, fmt.Errorf("find lot %s: %w", lotID, err)
	}
	return collectRecords(rows)
}

// FindByLocation reports the pallet occupying the normalized slot, if any.
func (s *Store) FindByLocation(ctx context.Context, location string) (string, bool, error) {
	var palletID string
	err := s.db.QueryRowContext(ctx,
		"SELECT pallet_id FROM inventory WHERE location_id = ?", location).Scan(&palletID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("check location %s: %w", location, err)
	}
	return palletID, true, nil
}

// Insert adds a new pallet row, relying on the UNIQUE constraint to reject
// duplicate pallet ids.
func (s *Store) Insert(ctx context.Context, rec models.PalletRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory (pallet_id, product_name, price, expiry_date, lot_id, units_per_case, location_id, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PalletID,
		rec.ProductName,
		rec.Price.String(),
		rec.ExpiryDate.Format(models.ExpiryDateFormat),
		rec.LotID,
		rec.UnitsPerCase,
		nullableLocation(rec.LocationID),
		rec.LastUpdate.Format(models.TimestampFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicatePallet
		}
		return 0, fmt.Errorf("insert pallet %s: %w", rec.PalletID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert pallet %s: read row id: %w", rec.PalletID, err)
	}
	return id, nil
}

// UpdateLocation moves a pallet to a new normalized slot.
func (s *Store) UpdateLocation(ctx context.Context, palletID, location string, ts time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE inventory SET location_id = ?, last_update = ? WHERE pallet_id = ?",
		nullableLocation(location), ts.Format(models.TimestampFormat), palletID)
	if err != nil {
		return fmt.Errorf("update location of pallet %s: %w", palletID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update location of pallet %s: %w", palletID, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a pallet row.
func (s *Store) Delete(ctx context.Context, palletID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM inventory WHERE pallet_id = ?", palletID)
	if err != nil {
		return fmt.Errorf("delete pallet %s: %w", palletID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pallet %s: %w", palletID, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Search performs a LIKE substring match against the selected column.
func (s *Store) Search(ctx context.Context, query string, by models.SearchField) ([]models.PalletRecord, error) {
	var column string
	switch by {
	case models.SearchByLot:
		column = "lot_id"
	case models.SearchByProduct:
		column = "product_name"
	default:
		return nil, fmt.Errorf("unsupported search field %q", by)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM inventory WHERE "+column+" LIKE ? ORDER BY id",
		"%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search inventory by %s: %w", column, err)
	}
	return collectRecords(rows)
}

// All returns the full inventory in insertion order.
func (s *Store) All(ctx context.Context) ([]models.PalletRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM inventory ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return collectRecords(rows)
}

// Close releases the database handle.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.PalletRecord, error) {
	var (
		rec      models.PalletRecord
		price    sql.NullString
		units    sql.NullInt64
		location sql.NullString
		expiry   string
		updated  string
	)
	if err := row.Scan(&rec.ID, &rec.PalletID, &rec.ProductName, &price, &expiry,
		&rec.LotID, &units, &location, &updated); err != nil {
		return models.PalletRecord{}, err
	}

	if price.Valid {
		parsed, err := decimal.NewFromString(price.String)
		if err != nil {
			return models.PalletRecord{}, fmt.Errorf("decode price %q: %w", price.String, err)
		}
		rec.Price = parsed
	}
	rec.UnitsPerCase = int(units.Int64)
	rec.LocationID = location.String

	expiryDate, err := time.Parse(models.ExpiryDateFormat, expiry)
	if err != nil {
		return models.PalletRecord{}, fmt.Errorf("decode expiry date %q: %w", expiry, err)
	}
	rec.ExpiryDate = expiryDate

	lastUpdate, err := time.Parse(models.TimestampFormat, updated)
	if err != nil {
		return models.PalletRecord{}, fmt.Errorf("decode last update %q: %w", updated, err)
	}
	rec.LastUpdate = lastUpdate

	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]models.PalletRecord, error) {
	defer func() { _ = rows.Close() }()

	records := make([]models.PalletRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func nullableLocation(location string) any {
	if location == "" {
		return nil
	}
	return location
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
