// Package summary produces on-demand text summaries of a shift's accepted
// entries. It trusts enforcement: everything it reads has already passed the
// write-time scan, so no content scanning happens here.
package summary

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"context"

	"carelog/internal/docstore"
	"carelog/internal/platform/metrics"
	dErrors "carelog/pkg/domain-errors"
)

// Result is one computed shift summary.
type Result struct {
	SummaryText string
	GeneratedAt time.Time
	EntryCount  int
}

// Service aggregates a shift's records into a summary and caches the text
// back onto the shift document.
type Service struct {
	store   docstore.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the generation timestamp source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the summary service.
func NewService(store docstore.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	s := &Service{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate computes the summary for one shift, persists the text and
// generation timestamp onto the shift document, and returns the result.
// Incomplete identification yields an invalid-input error; an unknown shift
// for this caller yields not-found.
func (s *Service) Generate(ctx context.Context, path docstore.ShiftPath) (*Result, error) {
	start := s.now()
	if s.metrics != nil {
		s.metrics.SummaryRequests.Inc()
		defer func() {
			s.metrics.SummaryLatency.Observe(time.Since(start).Seconds())
		}()
	}

	if path.Scope.IsNil() || path.Owner.IsNil() || path.Shift.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "scope, owner, and shift ids are required")
	}

	// The shift document and its entries are independent reads; fetch them
	// concurrently.
	var (
		shiftDoc *docstore.Document
		entries  []docstore.ListedEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shiftDoc, err = s.store.GetShift(gctx, path)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.store.ListEntries(gctx, path)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list shift entries")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load shift")
	}

	generatedAt := s.now().UTC()
	text := FormatReport(shiftDoc, entries, generatedAt)

	if err := s.store.SetShiftSummary(ctx, path, text, generatedAt); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cache shift summary")
	}

	s.logger.InfoContext(ctx, "shift summary generated",
		"path", path.String(),
		"entries", len(entries),
	)

	return &Result{
		SummaryText: text,
		GeneratedAt: generatedAt,
		EntryCount:  len(entries),
	}, nil
}
