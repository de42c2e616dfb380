// Package workflow implements the scan-driven state machine at the heart of
// the system: it decides whether a scanned pallet is new, joins a known
// lot, moves, or leaves inventory, and reconciles each outcome against the
// store and the audit log.
package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bkante/entrepot/internal/audit"
	"github.com/bkante/entrepot/internal/codec"
	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/repository"
	"github.com/bkante/entrepot/internal/scanner"
)

// Decider resolves an operator confirmation synchronously. Implementations
// range from a terminal y/n prompt to a flag carried on an HTTP request;
// the workflow never knows which.
type Decider interface {
	Decide(ctx context.Context, req models.DecisionRequest) bool
}

// DeciderFunc adapts a plain function to the Decider interface.
type DeciderFunc func(ctx context.Context, req models.DecisionRequest) bool

// Decide implements Decider.
func (f DeciderFunc) Decide(ctx context.Context, req models.DecisionRequest) bool {
	return f(ctx, req)
}

// Status summarizes how an entry point left the session.
type Status string

const (
	// StatusAwaitingLocationNew: product accepted, waiting for the slot
	// scan of a new pallet.
	StatusAwaitingLocationNew Status = "awaiting_location_new"
	// StatusAwaitingLocationMove: move confirmed, waiting for the new slot
	// scan.
	StatusAwaitingLocationMove Status = "awaiting_location_move"
	StatusAdded                Status = "added"
	StatusMoved                Status = "moved"
	StatusDeleted              Status = "deleted"
	// StatusAborted: the operator declined the offered decision; nothing
	// was mutated.
	StatusAborted Status = "aborted"
)

// Outcome reports the result of a completed entry point. A non-nil
// AuditErr marks a degraded success: the store mutation committed but the
// audit append failed, and the mutation is not rolled back.
type Outcome struct {
	Status   Status
	Record   *models.PalletRecord
	AuditErr error
}

// Service drives the workflow. It assumes a single operator session; the
// mutex only protects the session struct from racing shell callbacks, the
// at-most-one-operation rule itself is enforced by the state guard.
type Service struct {
	store    repository.InventoryStore
	auditLog audit.Logger
	scanner  scanner.Scanner
	decider  Decider
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	sess session
}

// NewService wires the state machine with its collaborators.
func NewService(store repository.InventoryStore, auditLog audit.Logger, scan scanner.Scanner, decider Decider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		auditLog: auditLog,
		scanner:  scan,
		decider:  decider,
		logger:   logger,
		now:      time.Now,
		sess:     session{state: StateIdle},
	}
}

// State returns the current session phase.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.state
}

// Reset aborts whatever is pending and returns the session to IDLE.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.reset()
	s.logger.Info("session reset")
}

// ScanProduct begins an add-or-move operation: it scans a pallet label,
// parses it, and decides which flow applies based on the lot lookup. Only
// valid from IDLE.
func (s *Service) ScanProduct(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess.state != StateIdle {
		return Outcome{}, ErrStateConflict
	}

	code, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Warn("product scan failed", zap.Error(err))
		s.sess.reset()
		return Outcome{}, err
	}

	rec, err := codec.ParseRecord(code)
	if err != nil {
		s.logger.Warn("product label rejected", zap.Error(err))
		s.sess.reset()
		return Outcome{}, err
	}

	siblings, err := s.store.FindByLot(ctx, rec.LotID)
	if err != nil {
		s.sess.reset()
		return Outcome{}, fmt.Errorf("look up lot %s: %w", rec.LotID, err)
	}

	if len(siblings) == 0 {
		// Wholly new lot: go straight to the location scan.
		s.sess.pending = &rec
		s.sess.state = StateWaitingLocationNew
		s.logger.Info("new lot scanned",
			zap.String("pallet_id", rec.PalletID), zap.String("lot_id", rec.LotID))
		return Outcome{Status: StatusAwaitingLocationNew, Record: &rec}, nil
	}

	for i := range siblings {
		if siblings[i].PalletID == rec.PalletID {
			return s.offerMove(ctx, siblings[i])
		}
	}
	return s.offerAddToLot(ctx, rec, siblings)
}

// offerMove handles a pallet that is already placed: the operator chooses
// between moving it and aborting.
func (s *Service) offerMove(ctx context.Context, existing models.PalletRecord) (Outcome, error) {
	confirmed := s.decider.Decide(ctx, models.DecisionRequest{
		Kind:            models.DecisionMovePallet,
		Record:          existing,
		CurrentLocation: existing.LocationID,
	})
	if !confirmed {
		s.sess.reset()
		s.logger.Info("move declined", zap.String("pallet_id", existing.PalletID))
		return Outcome{Status: StatusAborted}, nil
	}

	s.sess.pending = &existing
	s.sess.state = StateWaitingLocationMove
	s.logger.Info("move confirmed",
		zap.String("pallet_id", existing.PalletID),
		zap.String("current_location", existing.LocationID))
	return Outcome{Status: StatusAwaitingLocationMove, Record: &existing}, nil
}

// offerAddToLot handles a pallet that is new to an already known lot.
func (s *Service) offerAddToLot(ctx context.Context, rec models.PalletRecord, siblings []models.PalletRecord) (Outcome, error) {
	s.sess.pending = &rec
	s.sess.lotSiblings = siblings
	s.sess.state = StateWaitingLotDecision

	locations := make([]string, 0, len(siblings))
	for _, sib := range siblings {
		if sib.LocationID != "" {
			locations = append(locations, sib.LocationID)
		}
	}

	confirmed := s.decider.Decide(ctx, models.DecisionRequest{
		Kind:         models.DecisionAddToLot,
		Record:       rec,
		LotLocations: locations,
	})
	if !confirmed {
		s.sess.reset()
		s.logger.Info("add to existing lot declined",
			zap.String("pallet_id", rec.PalletID), zap.String("lot_id", rec.LotID))
		return Outcome{Status: StatusAborted}, nil
	}

	s.sess.state = StateWaitingLocationNew
	s.logger.Info("add to existing lot confirmed",
		zap.String("pallet_id", rec.PalletID), zap.String("lot_id", rec.LotID))
	return Outcome{Status: StatusAwaitingLocationNew, Record: &rec}, nil
}

// ScanLocation completes a pending add or move by scanning the target slot.
// Invalid or occupied slots keep the waiting state so the operator can
// rescan; everything else is terminal.
func (s *Service) ScanLocation(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess.state != StateWaitingLocationNew && s.sess.state != StateWaitingLocationMove {
		return Outcome{}, ErrStateConflict
	}

	code, err := s.scanner.Scan(ctx)
	if err != nil {
		// Keep the waiting state: a failed location scan is retryable.
		s.logger.Warn("location scan failed", zap.Error(err))
		return Outcome{}, err
	}

	location := codec.NormalizeLocation(code)
	if location == "" {
		s.logger.Warn("location rejected after normalization", zap.String("raw", code))
		return Outcome{}, ErrInvalidLocation
	}

	occupant, occupied, err := s.store.FindByLocation(ctx, location)
	if err != nil {
		s.sess.reset()
		return Outcome{}, fmt.Errorf("check occupancy of %s: %w", location, err)
	}
	if occupied {
		s.logger.Warn("location occupied",
			zap.String("location", location), zap.String("occupied_by", occupant))
		return Outcome{}, &LocationOccupiedError{Location: location, OccupiedBy: occupant}
	}

	if s.sess.state == StateWaitingLocationNew {
		return s.placeNewPallet(ctx, location)
	}
	return s.movePallet(ctx, location)
}

func (s *Service) placeNewPallet(ctx context.Context, location string) (Outcome, error) {
	now := s.now()
	rec := *s.sess.pending
	rec.LocationID = location
	rec.LastUpdate = now

	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		s.sess.reset()
		return Outcome{}, fmt.Errorf("insert pallet %s: %w", rec.PalletID, err)
	}
	rec.ID = id

	auditErr := s.append(ctx, models.NewAuditEntry(models.ActionAdd, rec, now))
	s.sess.reset()

	s.logger.Info("pallet added",
		zap.String("pallet_id", rec.PalletID), zap.String("location", location))
	return Outcome{Status: StatusAdded, Record: &rec, AuditErr: auditErr}, nil
}

func (s *Service) movePallet(ctx context.Context, location string) (Outcome, error) {
	now := s.now()
	rec := *s.sess.pending

	if err := s.store.UpdateLocation(ctx, rec.PalletID, location, now); err != nil {
		s.sess.reset()
		return Outcome{}, fmt.Errorf("move pallet %s: %w", rec.PalletID, err)
	}
	rec.LocationID = location
	rec.LastUpdate = now

	auditErr := s.append(ctx, models.NewAuditEntry(models.ActionMove, rec, now))
	s.sess.reset()

	s.logger.Info("pallet moved",
		zap.String("pallet_id", rec.PalletID), zap.String("location", location))
	return Outcome{Status: StatusMoved, Record: &rec, AuditErr: auditErr}, nil
}

// BeginDelete arms the delete flow. Only valid from IDLE.
func (s *Service) BeginDelete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess.state != StateIdle {
		return ErrStateConflict
	}
	s.sess.state = StateWaitingDelete
	s.logger.Info("delete armed, waiting for pallet scan")
	return nil
}

// ScanDelete scans the pallet to remove, confirms with the operator, and
// deletes it. Terminal in every branch.
func (s *Service) ScanDelete(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess.state != StateWaitingDelete {
		return Outcome{}, ErrStateConflict
	}

	code, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Warn("delete scan failed", zap.Error(err))
		s.sess.reset()
		return Outcome{}, err
	}

	rec, err := codec.ParseRecord(code)
	if err != nil {
		s.logger.Warn("delete label rejected", zap.Error(err))
		s.sess.reset()
		return Outcome{}, err
	}

	target, found, err := s.store.FindByPalletID(ctx, rec.PalletID)
	if err != nil {
		s.sess.reset()
		return Outcome{}, fmt.Errorf("look up pallet %s: %w", rec.PalletID, err)
	}
	if !found {
		s.sess.reset()
		return Outcome{}, fmt.Errorf("pallet %s: %w", rec.PalletID, repository.ErrNotFound)
	}
	s.sess.deleteTarget = &target

	confirmed := s.decider.Decide(ctx, models.DecisionRequest{
		Kind:            models.DecisionConfirmDelete,
		Record:          target,
		CurrentLocation: target.LocationID,
	})
	if !confirmed {
		s.sess.reset()
		s.logger.Info("delete declined", zap.String("pallet_id", target.PalletID))
		return Outcome{Status: StatusAborted}, nil
	}

	if err := s.store.Delete(ctx, target.PalletID); err != nil {
		s.sess.reset()
		return Outcome{}, fmt.Errorf("delete pallet %s: %w", target.PalletID, err)
	}

	// The audit snapshot is the record as it was before deletion, stamped
	// with the deletion time.
	auditErr := s.append(ctx, models.NewAuditEntry(models.ActionDelete, target, s.now()))
	s.sess.reset()

	s.logger.Info("pallet deleted", zap.String("pallet_id", target.PalletID))
	return Outcome{Status: StatusDeleted, Record: &target, AuditErr: auditErr}, nil
}

// Search runs a substring lookup against the store. It has no session
// state and is valid in any phase.
func (s *Service) Search(ctx context.Context, query string, by models.SearchField) ([]models.PalletRecord, error) {
	if !by.Valid() {
		return nil, fmt.Errorf("unsupported search field %q", by)
	}
	return s.store.Search(ctx, query, by)
}

// List returns every live record in insertion order.
func (s *Service) List(ctx context.Context) ([]models.PalletRecord, error) {
	return s.store.All(ctx)
}

// append writes the audit entry and converts a failure into the
// degraded-success error carried on the outcome. The store mutation has
// already committed and is never rolled back.
func (s *Service) append(ctx context.Context, entry models.AuditEntry) error {
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.logger.Error("store updated but audit log append failed",
			zap.String("pallet_id", entry.Record.PalletID),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
		return fmt.Errorf("store updated, audit log not updated: %w", err)
	}
	return nil
}
