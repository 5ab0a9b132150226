// Package memory provides the in-memory document store used by tests and
// local development. Post-commit events are dispatched synchronously, which
// makes enforcement behavior deterministic under test.
package memory

import (
	"context"
	"sync"
	"time"

	"carelog/internal/docstore"
	id "carelog/pkg/domain"
	dErrors "carelog/pkg/domain-errors"
)

type Store struct {
	mu         sync.RWMutex
	entries    map[docstore.EntryPath]*docstore.Document
	entryOrder map[docstore.ShiftPath][]id.EntryID
	shifts     map[docstore.ShiftPath]*docstore.Document
	dispatcher *docstore.Dispatcher
	now        func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the timestamp source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store. dispatcher may be nil when no trigger handlers
// are attached (summary-only tests).
func New(dispatcher *docstore.Dispatcher, opts ...Option) *Store {
	s := &Store{
		entries:    make(map[docstore.EntryPath]*docstore.Document),
		entryOrder: make(map[docstore.ShiftPath][]id.EntryID),
		shifts:     make(map[docstore.ShiftPath]*docstore.Document),
		dispatcher: dispatcher,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) GetEntry(_ context.Context, path docstore.EntryPath) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.entries[path]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	return doc.Clone(), nil
}

// CreateEntry commits a new entry and dispatches a created event. The store
// stamps the administrative timestamps before commit.
func (s *Store) CreateEntry(ctx context.Context, path docstore.EntryPath, doc *docstore.Document) error {
	s.mu.Lock()
	if _, exists := s.entries[path]; exists {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeConflict, "entry already exists")
	}
	committed := doc.Clone()
	now := s.now().UTC().Format(time.RFC3339Nano)
	committed.Set(docstore.FieldCreatedAt, docstore.String(now))
	committed.Set(docstore.FieldUpdatedAt, docstore.String(now))
	s.entries[path] = committed
	shift := path.ShiftPath()
	s.entryOrder[shift] = append(s.entryOrder[shift], path.Entry)
	value := committed.Clone()
	s.mu.Unlock()

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, docstore.Event{
			Kind:  docstore.EventCreated,
			Path:  path,
			Value: value,
		})
	}
	return nil
}

// SetEntry replaces an existing entry (full replace, not merge) and
// dispatches an updated event carrying the prior value.
func (s *Store) SetEntry(ctx context.Context, path docstore.EntryPath, doc *docstore.Document) error {
	s.mu.Lock()
	existing, ok := s.entries[path]
	if !ok {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	prior := existing.Clone()
	committed := doc.Clone()
	if created, ok := prior.Get(docstore.FieldCreatedAt); ok {
		committed.Set(docstore.FieldCreatedAt, created)
	}
	committed.Set(docstore.FieldUpdatedAt, docstore.String(s.now().UTC().Format(time.RFC3339Nano)))
	s.entries[path] = committed
	value := committed.Clone()
	s.mu.Unlock()

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, docstore.Event{
			Kind:  docstore.EventUpdated,
			Path:  path,
			Value: value,
			Prior: prior,
		})
	}
	return nil
}

// DeleteEntry removes an entry without dispatching. Deleting an absent entry
// is a no-op so corrective deletes stay idempotent under re-invocation.
func (s *Store) DeleteEntry(_ context.Context, path docstore.EntryPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[path]; !ok {
		return nil
	}
	delete(s.entries, path)
	shift := path.ShiftPath()
	order := s.entryOrder[shift]
	for i, e := range order {
		if e == path.Entry {
			s.entryOrder[shift] = append(order[:i], order[i+1:]...)
			break
		}
	}
	return nil
}

// ReplaceEntry overwrites an entry verbatim without dispatching or
// restamping. Used by enforcement to restore a prior value exactly.
func (s *Store) ReplaceEntry(_ context.Context, path docstore.EntryPath, doc *docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[path]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	s.entries[path] = doc.Clone()
	return nil
}

func (s *Store) GetShift(_ context.Context, path docstore.ShiftPath) (*docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.shifts[path]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "shift not found")
	}
	return doc.Clone(), nil
}

func (s *Store) PutShift(_ context.Context, path docstore.ShiftPath, doc *docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[path] = doc.Clone()
	return nil
}

// SetShiftSummary caches the computed summary onto the shift document.
func (s *Store) SetShiftSummary(_ context.Context, path docstore.ShiftPath, text string, generatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.shifts[path]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "shift not found")
	}
	doc.Set(docstore.FieldSummaryText, docstore.String(text))
	doc.Set(docstore.FieldSummaryGeneratedAt, docstore.String(generatedAt.UTC().Format(time.RFC3339)))
	return nil
}

// ListEntries returns the shift's entries in creation order.
func (s *Store) ListEntries(_ context.Context, path docstore.ShiftPath) ([]docstore.ListedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := s.entryOrder[path]
	listed := make([]docstore.ListedEntry, 0, len(order))
	for _, entryID := range order {
		entryPath := docstore.EntryPath{Scope: path.Scope, Owner: path.Owner, Shift: path.Shift, Entry: entryID}
		if doc, ok := s.entries[entryPath]; ok {
			listed = append(listed, docstore.ListedEntry{Entry: entryID, Doc: doc.Clone()})
		}
	}
	return listed, nil
}
