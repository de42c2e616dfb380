package models

// DecisionKind enumerates the confirmations an operator can be asked for.
type DecisionKind string

const (
	// DecisionAddToLot asks whether a new pallet should join an already
	// known lot.
	DecisionAddToLot DecisionKind = "add_to_lot"
	// DecisionMovePallet asks whether an already placed pallet should be
	// moved to a new slot.
	DecisionMovePallet DecisionKind = "move_pallet"
	// DecisionConfirmDelete asks whether the scanned pallet should be
	// removed from inventory.
	DecisionConfirmDelete DecisionKind = "confirm_delete"
)

// DecisionRequest carries the context shown to the operator before an
// affirmative/negative choice.
type DecisionRequest struct {
	Kind DecisionKind
	// Record is the pending or targeted pallet record.
	Record PalletRecord
	// CurrentLocation is the slot the pallet occupies today (move, delete).
	CurrentLocation string
	// LotLocations lists the slots already taken by the pending lot
	// (add-to-lot).
	LotLocations []string
}
