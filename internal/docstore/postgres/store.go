// Package postgres backs the document store with PostgreSQL JSONB. The
// update path reads the prior value inside the same transaction as the
// write, so the dispatched event carries a consistent before-state.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"carelog/internal/docstore"
	id "carelog/pkg/domain"
	dErrors "carelog/pkg/domain-errors"
)

type Store struct {
	db         *sql.DB
	dispatcher *docstore.Dispatcher
	now        func() time.Time
}

// New creates a Postgres-backed document store. dispatcher may be nil.
func New(db *sql.DB, dispatcher *docstore.Dispatcher) *Store {
	return &Store{db: db, dispatcher: dispatcher, now: time.Now}
}

func (s *Store) GetEntry(ctx context.Context, path docstore.EntryPath) (*docstore.Document, error) {
	query := `
		SELECT doc FROM shift_entries
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3 AND entry_id = $4
	`
	var raw []byte
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift), uuid.UUID(path.Entry),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query entry: %w", err)
	}
	return docstore.DecodeDocument(raw)
}

func (s *Store) CreateEntry(ctx context.Context, path docstore.EntryPath, doc *docstore.Document) error {
	now := s.now().UTC()
	committed := doc.Clone()
	stamp := docstore.String(now.Format(time.RFC3339Nano))
	committed.Set(docstore.FieldCreatedAt, stamp)
	committed.Set(docstore.FieldUpdatedAt, stamp)

	raw, err := json.Marshal(committed)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	query := `
		INSERT INTO shift_entries (scope_id, owner_id, shift_id, entry_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift), uuid.UUID(path.Entry),
		raw, now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return dErrors.New(dErrors.CodeConflict, "entry already exists")
		}
		return fmt.Errorf("insert entry: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, docstore.Event{
			Kind:  docstore.EventCreated,
			Path:  path,
			Value: committed,
		})
	}
	return nil
}

func (s *Store) SetEntry(ctx context.Context, path docstore.EntryPath, doc *docstore.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var priorRaw []byte
	selectQuery := `
		SELECT doc FROM shift_entries
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3 AND entry_id = $4
		FOR UPDATE
	`
	err = tx.QueryRowContext(ctx, selectQuery,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift), uuid.UUID(path.Entry),
	).Scan(&priorRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	if err != nil {
		return fmt.Errorf("read prior entry: %w", err)
	}
	prior, err := docstore.DecodeDocument(priorRaw)
	if err != nil {
		return fmt.Errorf("decode prior entry: %w", err)
	}

	now := s.now().UTC()
	committed := doc.Clone()
	if created, ok := prior.Get(docstore.FieldCreatedAt); ok {
		committed.Set(docstore.FieldCreatedAt, created)
	}
	committed.Set(docstore.FieldUpdatedAt, docstore.String(now.Format(time.RFC3339Nano)))

	raw, err := json.Marshal(committed)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	updateQuery := `
		UPDATE shift_entries SET doc = $5, updated_at = $6
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3 AND entry_id = $4
	`
	if _, err := tx.ExecContext(ctx, updateQuery,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift), uuid.UUID(path.Entry),
		raw, now,
	); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, docstore.Event{
			Kind:  docstore.EventUpdated,
			Path:  path,
			Value: committed,
			Prior: prior,
		})
	}
	return nil
}

// DeleteEntry is idempotent: deleting an absent row succeeds.
func (s *Store) DeleteEntry(ctx context.Context, path docstore.EntryPath) error {
	query := `
		DELETE FROM shift_entries
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3 AND entry_id = $4
	`
	if _, err := s.db.ExecContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift), uuid.UUID(path.Entry),
	); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// ReplaceEntry writes doc verbatim without restamping or dispatching.
func (s *Store) ReplaceEntry(ctx context.Context, path docstore.EntryPath, doc *docstore.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	query := `
		UPDATE shift_entries SET doc = $5
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3 AND entry_id = $4
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift), uuid.UUID(path.Entry),
		raw,
	)
	if err != nil {
		return fmt.Errorf("replace entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	return nil
}

func (s *Store) GetShift(ctx context.Context, path docstore.ShiftPath) (*docstore.Document, error) {
	query := `
		SELECT doc FROM shifts
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3
	`
	var raw []byte
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "shift not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query shift: %w", err)
	}
	return docstore.DecodeDocument(raw)
}

func (s *Store) PutShift(ctx context.Context, path docstore.ShiftPath, doc *docstore.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal shift: %w", err)
	}
	query := `
		INSERT INTO shifts (scope_id, owner_id, shift_id, doc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scope_id, owner_id, shift_id) DO UPDATE SET doc = EXCLUDED.doc
	`
	if _, err := s.db.ExecContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift), raw,
	); err != nil {
		return fmt.Errorf("upsert shift: %w", err)
	}
	return nil
}

func (s *Store) SetShiftSummary(ctx context.Context, path docstore.ShiftPath, text string, generatedAt time.Time) error {
	query := `
		UPDATE shifts
		SET doc = jsonb_set(jsonb_set(doc, '{summaryText}', to_jsonb($4::text)), '{summaryGeneratedAt}', to_jsonb($5::text))
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift),
		text, generatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("update shift summary: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return dErrors.New(dErrors.CodeNotFound, "shift not found")
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, path docstore.ShiftPath) ([]docstore.ListedEntry, error) {
	query := `
		SELECT entry_id, doc FROM shift_entries
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3
		ORDER BY created_at, entry_id
	`
	rows, err := s.db.QueryContext(ctx, query,
		uuid.UUID(path.Scope), uuid.UUID(path.Owner), uuid.UUID(path.Shift),
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var listed []docstore.ListedEntry
	for rows.Next() {
		var (
			entryID uuid.UUID
			raw     []byte
		)
		if err := rows.Scan(&entryID, &raw); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		doc, err := docstore.DecodeDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("decode entry %s: %w", entryID, err)
		}
		listed = append(listed, docstore.ListedEntry{Entry: id.EntryID(entryID), Doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return listed, nil
}
