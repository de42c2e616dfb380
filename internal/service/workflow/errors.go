package workflow

import (
	"errors"
	"fmt"
)

// ErrStateConflict is returned when an entry point is invoked while another
// operation is still in flight. No side effect has taken place.
var ErrStateConflict = errors.New("another operation is already in flight")

// ErrInvalidLocation is returned when the scanned location identifier is
// empty after normalization. The waiting state is kept so the operator can
// rescan.
var ErrInvalidLocation = errors.New("location identifier is empty after normalization")

// LocationOccupiedError rejects a slot that is already taken. This includes
// the slot currently held by the pallet being moved: the operator must pick
// an empty slot. The waiting state is kept for a retry.
type LocationOccupiedError struct {
	Location   string
	OccupiedBy string
}

func (e *LocationOccupiedError) Error() string {
	return fmt.Sprintf("location %s is already occupied by pallet %s", e.Location, e.OccupiedBy)
}
