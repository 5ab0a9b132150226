// Package audit records enforcement actions in an append-only trail. The
// trail lives apart from clinical data, so an entry survives deletion of the
// record it describes. Entries are created exactly once per enforcement
// action and are never mutated or deleted by this subsystem.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"carelog/internal/phi"
	id "carelog/pkg/domain"
)

// Action is the corrective action an entry documents.
type Action string

const (
	// ActionRejected means a newly created record was deleted.
	ActionRejected Action = "rejected"
	// ActionRolledBack means a modified record was restored to its prior
	// value.
	ActionRolledBack Action = "rolled_back"
)

// Severity classifies an entry for monitoring and review queues.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Entry is one immutable audit trail row. Findings carry only truncated
// samples; the offending content itself is never persisted here.
type Entry struct {
	ID         uuid.UUID
	ScopeID    id.ScopeID
	OwnerID    id.OwnerID
	ShiftID    id.ShiftID
	EntryID    id.EntryID
	EntityKind string
	Timestamp  time.Time
	Findings   []phi.Finding
	Action     Action
	Severity   Severity
}

// Store persists audit entries. Append must be safe to call with the same
// entry ID more than once (idempotent insert) because trigger infrastructure
// may re-invoke handlers.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByShift(ctx context.Context, scope id.ScopeID, owner id.OwnerID, shift id.ShiftID) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
