// Package repository defines the durable-state boundary of the inventory.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bkante/entrepot/internal/domain/models"
)

// ErrNotFound indicates the targeted pallet does not exist in the store.
var ErrNotFound = errors.New("pallet not found")

// ErrDuplicatePallet indicates an insert collided with an existing pallet
// id. The store enforces this constraint itself; callers must treat it as
// authoritative regardless of any pre-check they performed.
var ErrDuplicatePallet = errors.New("pallet id already exists")

// InventoryStore is the persistence contract the workflow depends on. Every
// operation is individually atomic, and all location values crossing this
// boundary are already normalized.
type InventoryStore interface {
	// FindByPalletID returns the record for the given pallet id, with
	// found=false when no such pallet exists.
	FindByPalletID(ctx context.Context, palletID string) (models.PalletRecord, bool, error)

	// FindByLot returns every record sharing the lot id, in insertion
	// order. Absence of the lot is an empty slice, not an error.
	FindByLot(ctx context.Context, lotID string) ([]models.PalletRecord, error)

	// FindByLocation reports which pallet occupies the normalized slot,
	// with occupied=false when the slot is free.
	FindByLocation(ctx context.Context, location string) (palletID string, occupied bool, err error)

	// Insert persists a new record and returns the store-assigned row id.
	// Returns ErrDuplicatePallet when the pallet id is already live.
	Insert(ctx context.Context, rec models.PalletRecord) (int64, error)

	// UpdateLocation moves a pallet to a new normalized slot, stamping the
	// update time. Returns ErrNotFound when the pallet is absent.
	UpdateLocation(ctx context.Context, palletID, location string, ts time.Time) error

	// Delete removes a pallet. Returns ErrNotFound when it was absent.
	Delete(ctx context.Context, palletID string) error

	// Search runs a substring match against the selected field, case as
	// stored. No match yields an empty slice.
	Search(ctx context.Context, query string, by models.SearchField) ([]models.PalletRecord, error)

	// All returns every live record in insertion order.
	All(ctx context.Context) ([]models.PalletRecord, error)

	// Close releases the underlying store handle.
	Close(ctx context.Context) error
}
