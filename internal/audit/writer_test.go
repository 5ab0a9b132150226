package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelog/internal/audit"
	auditmem "carelog/internal/audit/store/memory"
	"carelog/internal/docstore"
	"carelog/internal/phi"
	id "carelog/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEntry() audit.Entry {
	return audit.Entry{
		ID:         uuid.New(),
		ScopeID:    id.NewScopeID(),
		OwnerID:    id.NewOwnerID(),
		ShiftID:    id.NewShiftID(),
		EntryID:    id.NewEntryID(),
		EntityKind: "entry",
		Timestamp:  time.Now().UTC(),
		Findings:   []phi.Finding{{Field: "notes", Detector: "name-like", Count: 1, Sample: "Jane Smith"}},
		Action:     audit.ActionRejected,
		Severity:   audit.SeverityHigh,
	}
}

func TestRecordAppends(t *testing.T) {
	store := auditmem.NewInMemoryStore()
	w, err := audit.NewWriter(store, audit.WithLogger(discardLogger()))
	require.NoError(t, err)

	entry := sampleEntry()
	require.NoError(t, w.Record(context.Background(), entry, ""))

	recent, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entry.ID, recent[0].ID)
}

func TestRecordSuppressesDuplicateKey(t *testing.T) {
	store := auditmem.NewInMemoryStore()
	w, err := audit.NewWriter(store,
		audit.WithLogger(discardLogger()),
		audit.WithDeduper(audit.NewMemoryDeduper()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	key := "audit:test:abc:0"
	require.NoError(t, w.Record(ctx, sampleEntry(), key))
	// A re-invoked handler builds a fresh entry ID but the same dedup key.
	require.NoError(t, w.Record(ctx, sampleEntry(), key))

	recent, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestRecordDistinctKeysBothAppend(t *testing.T) {
	store := auditmem.NewInMemoryStore()
	w, err := audit.NewWriter(store,
		audit.WithLogger(discardLogger()),
		audit.WithDeduper(audit.NewMemoryDeduper()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Record(ctx, sampleEntry(), "audit:a"))
	require.NoError(t, w.Record(ctx, sampleEntry(), "audit:b"))

	recent, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

type failingDeduper struct{}

func (failingDeduper) Seen(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestRecordDedupeFailureStillAppends(t *testing.T) {
	store := auditmem.NewInMemoryStore()
	w, err := audit.NewWriter(store,
		audit.WithLogger(discardLogger()),
		audit.WithDeduper(failingDeduper{}),
	)
	require.NoError(t, err)

	require.NoError(t, w.Record(context.Background(), sampleEntry(), "audit:key"))

	recent, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Entry) error { return errors.New("disk full") }
func (failingStore) ListByShift(context.Context, id.ScopeID, id.OwnerID, id.ShiftID) ([]audit.Entry, error) {
	return nil, nil
}
func (failingStore) ListRecent(context.Context, int) ([]audit.Entry, error) { return nil, nil }

func TestRecordAppendFailureReturnsError(t *testing.T) {
	w, err := audit.NewWriter(failingStore{}, audit.WithLogger(discardLogger()))
	require.NoError(t, err)

	err = w.Record(context.Background(), sampleEntry(), "")
	assert.Error(t, err)
}

func TestNewWriterRequiresStore(t *testing.T) {
	_, err := audit.NewWriter(nil)
	assert.Error(t, err)
}

func TestDedupeKey(t *testing.T) {
	entry := id.NewEntryID()
	at := time.Date(2025, 6, 1, 8, 30, 42, 0, time.UTC)
	doc := docstore.NewDocument().Set("notes", docstore.String("Jane Smith"))

	t.Run("stable within a minute bucket", func(t *testing.T) {
		a := audit.DedupeKey(entry, doc, at)
		b := audit.DedupeKey(entry, doc, at.Add(10*time.Second))
		assert.Equal(t, a, b)
	})

	t.Run("changes across minute buckets", func(t *testing.T) {
		a := audit.DedupeKey(entry, doc, at)
		b := audit.DedupeKey(entry, doc, at.Add(time.Minute))
		assert.NotEqual(t, a, b)
	})

	t.Run("changes with content", func(t *testing.T) {
		other := docstore.NewDocument().Set("notes", docstore.String("John Doe"))
		assert.NotEqual(t, audit.DedupeKey(entry, doc, at), audit.DedupeKey(entry, other, at))
	})

	t.Run("changes with entry identity", func(t *testing.T) {
		assert.NotEqual(t, audit.DedupeKey(entry, doc, at), audit.DedupeKey(id.NewEntryID(), doc, at))
	})
}

func TestMemoryDeduper(t *testing.T) {
	d := audit.NewMemoryDeduper()
	ctx := context.Background()

	seen, err := d.Seen(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = d.Seen(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = d.Seen(ctx, "k2", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryDeduperExpiry(t *testing.T) {
	d := audit.NewMemoryDeduper()
	ctx := context.Background()

	_, err := d.Seen(ctx, "k", 5*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	seen, err := d.Seen(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
}
