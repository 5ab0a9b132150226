package audit

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"carelog/internal/platform/metrics"
	id "carelog/pkg/domain"
)

// DedupeTTL bounds how long a dedup key blocks repeat audit appends. It only
// needs to outlive the hosting infrastructure's retry window.
const DedupeTTL = 10 * time.Minute

// Deduper records that a logical enforcement event has been audited.
// Seen returns true when key was already marked within the TTL.
type Deduper interface {
	Seen(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// DedupeKey derives the exactly-once key for one enforcement event:
// entry identity, content hash of the offending committed value, and a
// one-minute time bucket. Two trigger invocations for the same commit hash
// into the same key; a genuine later violation on the same entry does not.
func DedupeKey(entry id.EntryID, committed json.Marshaler, at time.Time) string {
	raw, err := committed.MarshalJSON()
	if err != nil {
		raw = []byte(err.Error())
	}
	sum := sha256.Sum256(raw)
	bucket := at.UTC().Truncate(time.Minute).Unix()
	return fmt.Sprintf("audit:%s:%x:%d", entry, sum[:12], bucket)
}

// Writer owns the audit failure policy: append after the corrective action,
// never retry past the store's answer, and report failures as monitoring
// signals rather than propagating them into enforcement.
type Writer struct {
	store   Store
	dedupe  Deduper
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

func WithDeduper(d Deduper) WriterOption {
	return func(w *Writer) { w.dedupe = d }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

func WithMetrics(m *metrics.Metrics) WriterOption {
	return func(w *Writer) { w.metrics = m }
}

// NewWriter builds a Writer over store.
func NewWriter(store Store, opts ...WriterOption) (*Writer, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	w := &Writer{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Record appends entry unless dedupeKey marks it as already written. A
// dedup check failure falls through to an append: a duplicate audit row is
// preferable to a missing one. The returned error is informational; callers
// must not undo the corrective action on audit failure.
func (w *Writer) Record(ctx context.Context, entry Entry, dedupeKey string) error {
	if w.dedupe != nil && dedupeKey != "" {
		seen, err := w.dedupe.Seen(ctx, dedupeKey, DedupeTTL)
		if err != nil {
			w.logger.WarnContext(ctx, "audit dedupe check failed, appending anyway",
				"error", err,
				"entry_id", entry.EntryID.String(),
			)
		} else if seen {
			if w.metrics != nil {
				w.metrics.AuditDuplicatesSuppressed.Inc()
			}
			return nil
		}
	}

	if err := w.store.Append(ctx, entry); err != nil {
		if w.metrics != nil {
			w.metrics.AuditWriteFailures.Inc()
		}
		w.logger.ErrorContext(ctx, "audit append failed",
			"error", err,
			"entry_id", entry.EntryID.String(),
			"action", string(entry.Action),
		)
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
