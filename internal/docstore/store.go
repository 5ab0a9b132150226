package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	id "carelog/pkg/domain"
)

// Reserved field names stamped onto every entry by the store. They are
// system-managed timestamps, never user-authored text, and the scanner
// excludes them by name.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Shift fields written back by the summary service.
const (
	FieldSummaryText        = "summaryText"
	FieldSummaryGeneratedAt = "summaryGeneratedAt"
)

// ShiftPath locates one shift document for one owner within a scope.
type ShiftPath struct {
	Scope id.ScopeID
	Owner id.OwnerID
	Shift id.ShiftID
}

func (p ShiftPath) String() string {
	return fmt.Sprintf("scopes/%s/owners/%s/shifts/%s", p.Scope, p.Owner, p.Shift)
}

// EntryPath locates one entry record under a shift.
type EntryPath struct {
	Scope id.ScopeID
	Owner id.OwnerID
	Shift id.ShiftID
	Entry id.EntryID
}

func (p EntryPath) String() string {
	return fmt.Sprintf("%s/entries/%s", p.ShiftPath(), p.Entry)
}

// ShiftPath returns the path of the shift containing this entry.
func (p EntryPath) ShiftPath() ShiftPath {
	return ShiftPath{Scope: p.Scope, Owner: p.Owner, Shift: p.Shift}
}

// EventKind discriminates post-commit entry events.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
)

// Event describes one committed entry write. Value is the committed state;
// Prior is the immediately preceding state and is non-nil only for updates.
// Handlers receive their own copies and may retain them.
type Event struct {
	Kind  EventKind
	Path  EntryPath
	Value *Document
	Prior *Document
}

// EntryHandler receives post-commit entry events. Implementations run after
// the write is durable; returning an error signals the hosting retry policy,
// it cannot veto the already-committed write.
type EntryHandler interface {
	OnEntryCreated(ctx context.Context, ev Event) error
	OnEntryUpdated(ctx context.Context, ev Event) error
}

// ListedEntry pairs an entry ID with its document for shift-level reads.
type ListedEntry struct {
	Entry id.EntryID
	Doc   *Document
}

// Store is the document store surface carelog consumes. Create and Set are
// client-path writes and fire the dispatcher after commit. Delete and
// Replace are corrective system writes: they bypass dispatch so enforcement
// cannot re-trigger itself, and they are idempotent (deleting an absent
// entry or replacing with the already-current value succeeds).
type Store interface {
	GetEntry(ctx context.Context, path EntryPath) (*Document, error)
	CreateEntry(ctx context.Context, path EntryPath, doc *Document) error
	SetEntry(ctx context.Context, path EntryPath, doc *Document) error
	DeleteEntry(ctx context.Context, path EntryPath) error
	ReplaceEntry(ctx context.Context, path EntryPath, doc *Document) error

	GetShift(ctx context.Context, path ShiftPath) (*Document, error)
	PutShift(ctx context.Context, path ShiftPath, doc *Document) error
	SetShiftSummary(ctx context.Context, path ShiftPath, text string, generatedAt time.Time) error
	ListEntries(ctx context.Context, path ShiftPath) ([]ListedEntry, error)
}

// Dispatcher fans post-commit events out to registered handlers, standing in
// for the hosting trigger infrastructure. Handler errors are logged and do
// not stop delivery to later handlers; retry is the host's concern.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []EntryHandler
	logger   *slog.Logger
}

// NewDispatcher returns a dispatcher logging handler failures to logger.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Register adds a handler. Not safe to call concurrently with Dispatch
// during startup races; register before serving traffic.
func (d *Dispatcher) Register(h EntryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Dispatch delivers ev to every registered handler.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	for _, h := range handlers {
		var err error
		switch ev.Kind {
		case EventCreated:
			err = h.OnEntryCreated(ctx, ev)
		case EventUpdated:
			err = h.OnEntryUpdated(ctx, ev)
		}
		if err != nil && d.logger != nil {
			d.logger.ErrorContext(ctx, "entry handler failed",
				"event", string(ev.Kind),
				"path", ev.Path.String(),
				"error", err,
			)
		}
	}
}
