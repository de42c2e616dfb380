package models

import (
	"strconv"
	"time"
)

// Action tags an audit entry with the inventory operation that produced it.
type Action string

const (
	ActionAdd    Action = "ADD"
	ActionMove   Action = "MOVE"
	ActionDelete Action = "DELETE"
)

// AuditEntry is one immutable log line: the store-assigned row id ("N/A"
// when unavailable), the action, when it happened, and a snapshot of the
// record at that moment. Entries are only ever appended.
type AuditEntry struct {
	StoreID   string
	Action    Action
	Timestamp time.Time
	Record    PalletRecord
}

// NewAuditEntry builds an entry from a record snapshot, mapping a zero
// store id to "N/A".
func NewAuditEntry(action Action, rec PalletRecord, ts time.Time) AuditEntry {
	storeID := "N/A"
	if rec.ID > 0 {
		storeID = strconv.FormatInt(rec.ID, 10)
	}
	return AuditEntry{
		StoreID:   storeID,
		Action:    action,
		Timestamp: ts,
		Record:    rec,
	}
}
