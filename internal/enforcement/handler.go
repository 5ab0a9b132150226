package enforcement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carelog/internal/audit"
	"carelog/internal/docstore"
	"carelog/internal/platform/metrics"
	dErrors "carelog/pkg/domain-errors"
)

// EntityKindEntry is the entity kind recorded on audit entries for shift
// entry records.
const EntityKindEntry = "entry"

// Handler binds the evaluator to store trigger events and performs the
// corrective I/O. One invocation is one stateless unit of work; concurrent
// invocations for different entries need no coordination because each
// operates on a disjoint record.
type Handler struct {
	evaluator *Evaluator
	store     docstore.Store
	audit     *audit.Writer
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithClock overrides the audit timestamp source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler builds the enforcement handler.
func NewHandler(evaluator *Evaluator, store docstore.Store, auditWriter *audit.Writer, opts ...Option) (*Handler, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if auditWriter == nil {
		return nil, fmt.Errorf("audit writer is required")
	}
	h := &Handler{
		evaluator: evaluator,
		store:     store,
		audit:     auditWriter,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// HandleCreate evaluates a newly committed entry and, on a violation,
// deletes it and audits the rejection. The returned Outcome is the
// rejection marker; the error is non-nil only when the corrective delete
// itself failed and the host should retry.
func (h *Handler) HandleCreate(ctx context.Context, ev docstore.Event) (Outcome, error) {
	outcome := h.evaluator.EvaluateCreate(ev.Value)
	h.observeScan(outcome)
	if !outcome.Violation() {
		return outcome, nil
	}

	// Corrective action first; audit only after it is issued. DeleteEntry
	// is idempotent, so host re-invocation is safe.
	if err := h.store.DeleteEntry(ctx, ev.Path); err != nil {
		h.correctiveFailed(ctx, ev, "delete", err)
		return outcome, dErrors.Wrap(err, dErrors.CodeInternal, "corrective delete failed")
	}

	h.recordAudit(ctx, ev, outcome, audit.ActionRejected)
	return outcome, nil
}

// HandleUpdate evaluates the new value of a modified entry and, on a
// violation, restores the prior value verbatim (full replace, not merge, so
// no tainted field can survive a partial write) and audits the rollback.
func (h *Handler) HandleUpdate(ctx context.Context, ev docstore.Event) (Outcome, error) {
	outcome := h.evaluator.EvaluateUpdate(ev.Value, ev.Prior)
	h.observeScan(outcome)
	if !outcome.Violation() {
		return outcome, nil
	}

	if err := h.store.ReplaceEntry(ctx, ev.Path, ev.Prior); err != nil {
		h.correctiveFailed(ctx, ev, "replace", err)
		return outcome, dErrors.Wrap(err, dErrors.CodeInternal, "corrective replace failed")
	}

	h.recordAudit(ctx, ev, outcome, audit.ActionRolledBack)
	return outcome, nil
}

// OnEntryCreated implements docstore.EntryHandler.
func (h *Handler) OnEntryCreated(ctx context.Context, ev docstore.Event) error {
	_, err := h.HandleCreate(ctx, ev)
	return err
}

// OnEntryUpdated implements docstore.EntryHandler.
func (h *Handler) OnEntryUpdated(ctx context.Context, ev docstore.Event) error {
	_, err := h.HandleUpdate(ctx, ev)
	return err
}

func (h *Handler) observeScan(outcome Outcome) {
	if h.metrics == nil {
		return
	}
	h.metrics.EntriesScanned.Inc()
	for _, f := range outcome.Findings {
		h.metrics.FindingsDetected.WithLabelValues(f.Detector).Inc()
	}
}

// correctiveFailed logs distinctly from a normal violation: the taint is
// still live and only the host's retry policy can clear it.
func (h *Handler) correctiveFailed(ctx context.Context, ev docstore.Event, action string, err error) {
	if h.metrics != nil {
		h.metrics.CorrectiveFailures.Inc()
	}
	h.logger.ErrorContext(ctx, "corrective action failed, tainted record persists",
		"action", action,
		"path", ev.Path.String(),
		"error", err,
	)
}

func (h *Handler) recordAudit(ctx context.Context, ev docstore.Event, outcome Outcome, action audit.Action) {
	if h.metrics != nil {
		h.metrics.EnforcementActions.WithLabelValues(string(action)).Inc()
	}
	now := h.now().UTC()
	entry := audit.Entry{
		ID:         uuid.New(),
		ScopeID:    ev.Path.Scope,
		OwnerID:    ev.Path.Owner,
		ShiftID:    ev.Path.Shift,
		EntryID:    ev.Path.Entry,
		EntityKind: EntityKindEntry,
		Timestamp:  now,
		Findings:   outcome.Findings,
		Action:     action,
		Severity:   audit.SeverityHigh,
	}
	h.logger.WarnContext(ctx, "sensitive content enforced",
		"action", string(action),
		"path", ev.Path.String(),
		"fields", outcome.FieldPaths(),
	)
	// The corrective action already stands; a failed append is a monitoring
	// signal, not grounds to resurrect the record. Writer logs and counts.
	_ = h.audit.Record(ctx, entry, audit.DedupeKey(ev.Path.Entry, ev.Value, now))
}
