// Package postgres persists the audit trail. Appends are idempotent via
// ON CONFLICT DO NOTHING so handler re-invocation cannot duplicate rows that
// carry the same entry ID.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"carelog/internal/audit"
	"carelog/internal/phi"
	id "carelog/pkg/domain"
)

type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit entry. Duplicate IDs are ignored.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	findings, err := json.Marshal(entry.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	query := `
		INSERT INTO audit_entries (
			id, scope_id, owner_id, shift_id, entry_id, entity_kind,
			timestamp_server, findings, action, severity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.ScopeID),
		uuid.UUID(entry.OwnerID),
		uuid.UUID(entry.ShiftID),
		uuid.UUID(entry.EntryID),
		entry.EntityKind,
		entry.Timestamp,
		findings,
		string(entry.Action),
		string(entry.Severity),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListByShift(ctx context.Context, scope id.ScopeID, owner id.OwnerID, shift id.ShiftID) ([]audit.Entry, error) {
	query := `
		SELECT id, scope_id, owner_id, shift_id, entry_id, entity_kind,
		       timestamp_server, findings, action, severity
		FROM audit_entries
		WHERE scope_id = $1 AND owner_id = $2 AND shift_id = $3
		ORDER BY timestamp_server
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(scope), uuid.UUID(owner), uuid.UUID(shift))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := `
		SELECT id, scope_id, owner_id, shift_id, entry_id, entity_kind,
		       timestamp_server, findings, action, severity
		FROM audit_entries
		ORDER BY timestamp_server DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

func (s *Store) scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry

	for rows.Next() {
		var (
			entry       audit.Entry
			scopeID     uuid.UUID
			ownerID     uuid.UUID
			shiftID     uuid.UUID
			entryID     uuid.UUID
			rawFindings []byte
			action      string
			severity    string
		)
		err := rows.Scan(
			&entry.ID,
			&scopeID,
			&ownerID,
			&shiftID,
			&entryID,
			&entry.EntityKind,
			&entry.Timestamp,
			&rawFindings,
			&action,
			&severity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		var findings []phi.Finding
		if len(rawFindings) > 0 {
			if err := json.Unmarshal(rawFindings, &findings); err != nil {
				return nil, fmt.Errorf("unmarshal findings: %w", err)
			}
		}

		entry.ScopeID = id.ScopeID(scopeID)
		entry.OwnerID = id.OwnerID(ownerID)
		entry.ShiftID = id.ShiftID(shiftID)
		entry.EntryID = id.EntryID(entryID)
		entry.Findings = findings
		entry.Action = audit.Action(action)
		entry.Severity = audit.Severity(severity)

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
