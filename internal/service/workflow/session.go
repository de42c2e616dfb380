package workflow

import "github.com/bkante/entrepot/internal/domain/models"

// State names the phase the workflow session is in. IDLE is both the
// initial and the terminal state of every operation.
type State string

const (
	StateIdle                State = "IDLE"
	StateWaitingLocationNew  State = "WAITING_LOCATION_NEW"
	StateWaitingLocationMove State = "WAITING_LOCATION_MOVE"
	StateWaitingLotDecision  State = "WAITING_LOT_DECISION"
	StateWaitingDelete       State = "WAITING_PALETTE_DELETE"
)

// session holds the transient context of the operation in flight. It is
// owned exclusively by the Service and cleared on every terminal
// transition, so nothing pending can leak into the next operation.
type session struct {
	state        State
	pending      *models.PalletRecord
	lotSiblings  []models.PalletRecord
	deleteTarget *models.PalletRecord
}

func (s *session) reset() {
	*s = session{state: StateIdle}
}
