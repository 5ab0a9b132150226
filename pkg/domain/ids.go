// Package domain holds the identifier primitives shared across carelog.
// Each ID is a distinct type over uuid.UUID so the compiler rejects mixing,
// say, a shift ID into an owner parameter. Construct IDs at trust boundaries
// via the Parse* functions; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "carelog/pkg/domain-errors"
)

// ScopeID identifies a deployment scope (one care organization).
type ScopeID uuid.UUID

// OwnerID identifies the caregiver who owns a shift and its entries.
type OwnerID uuid.UUID

// ShiftID identifies one documented shift.
type ShiftID uuid.UUID

// EntryID identifies one entry record under a shift.
type EntryID uuid.UUID

func (id ScopeID) String() string { return uuid.UUID(id).String() }
func (id OwnerID) String() string { return uuid.UUID(id).String() }
func (id ShiftID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string { return uuid.UUID(id).String() }

func (id ScopeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OwnerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ShiftID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewScopeID returns a fresh random ScopeID.
func NewScopeID() ScopeID { return ScopeID(uuid.New()) }

// NewOwnerID returns a fresh random OwnerID.
func NewOwnerID() OwnerID { return OwnerID(uuid.New()) }

// NewShiftID returns a fresh random ShiftID.
func NewShiftID() ShiftID { return ShiftID(uuid.New()) }

// NewEntryID returns a fresh random EntryID.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

func parse(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, what+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}

// ParseScopeID validates s as a non-nil UUID scope identifier.
func ParseScopeID(s string) (ScopeID, error) {
	u, err := parse(s, "scope id")
	return ScopeID(u), err
}

// ParseOwnerID validates s as a non-nil UUID owner identifier.
func ParseOwnerID(s string) (OwnerID, error) {
	u, err := parse(s, "owner id")
	return OwnerID(u), err
}

// ParseShiftID validates s as a non-nil UUID shift identifier.
func ParseShiftID(s string) (ShiftID, error) {
	u, err := parse(s, "shift id")
	return ShiftID(u), err
}

// ParseEntryID validates s as a non-nil UUID entry identifier.
func ParseEntryID(s string) (EntryID, error) {
	u, err := parse(s, "entry id")
	return EntryID(u), err
}
