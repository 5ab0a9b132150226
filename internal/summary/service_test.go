package summary_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelog/internal/docstore"
	"carelog/internal/docstore/memory"
	"carelog/internal/summary"
	id "carelog/pkg/domain"
	dErrors "carelog/pkg/domain-errors"
)

var fixedNow = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*summary.Service, *memory.Store) {
	t.Helper()
	store := memory.New(nil)
	svc, err := summary.NewService(store,
		summary.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		summary.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return svc, store
}

func seedShift(t *testing.T, store *memory.Store) docstore.ShiftPath {
	t.Helper()
	path := docstore.ShiftPath{Scope: id.NewScopeID(), Owner: id.NewOwnerID(), Shift: id.NewShiftID()}
	shiftDoc := docstore.NewDocument().
		Set("label", docstore.String("Night shift")).
		Set("date", docstore.String("2025-06-01"))
	require.NoError(t, store.PutShift(context.Background(), path, shiftDoc))
	return path
}

func addEntry(t *testing.T, store *memory.Store, shift docstore.ShiftPath, category, notes string) {
	t.Helper()
	path := docstore.EntryPath{Scope: shift.Scope, Owner: shift.Owner, Shift: shift.Shift, Entry: id.NewEntryID()}
	doc := docstore.NewDocument().
		Set("category", docstore.String(category)).
		Set("notes", docstore.String(notes))
	require.NoError(t, store.CreateEntry(context.Background(), path, doc))
}

func TestGenerate(t *testing.T) {
	svc, store := newService(t)
	shift := seedShift(t, store)
	addEntry(t, store, shift, "feeding", "120ml formula")
	addEntry(t, store, shift, "diaper", "changed, all normal")
	addEntry(t, store, shift, "observation", "slept through")

	result, err := svc.Generate(context.Background(), shift)
	require.NoError(t, err)

	assert.Equal(t, 3, result.EntryCount)
	assert.Equal(t, fixedNow, result.GeneratedAt)
	assert.Contains(t, result.SummaryText, "Night shift")
	assert.Contains(t, result.SummaryText, "Date: 2025-06-01")
	assert.Contains(t, result.SummaryText, "[1] feeding")
	assert.Contains(t, result.SummaryText, "[2] diaper")
	assert.Contains(t, result.SummaryText, "[3] observation")
	assert.Contains(t, result.SummaryText, "notes: 120ml formula")
	assert.Contains(t, result.SummaryText, "Entries: 3")
}

func TestGeneratePersistsOntoShift(t *testing.T) {
	svc, store := newService(t)
	shift := seedShift(t, store)
	addEntry(t, store, shift, "feeding", "120ml formula")

	result, err := svc.Generate(context.Background(), shift)
	require.NoError(t, err)

	doc, err := store.GetShift(context.Background(), shift)
	require.NoError(t, err)
	assert.Equal(t, result.SummaryText, doc.GetString(docstore.FieldSummaryText))
	assert.Equal(t, "2025-06-01T20:00:00Z", doc.GetString(docstore.FieldSummaryGeneratedAt))
}

func TestGenerateEmptyShift(t *testing.T) {
	svc, store := newService(t)
	shift := seedShift(t, store)

	result, err := svc.Generate(context.Background(), shift)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EntryCount)
	assert.Contains(t, result.SummaryText, "Entries: 0")
}

func TestGenerateUnknownShift(t *testing.T) {
	svc, _ := newService(t)
	path := docstore.ShiftPath{Scope: id.NewScopeID(), Owner: id.NewOwnerID(), Shift: id.NewShiftID()}

	_, err := svc.Generate(context.Background(), path)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGenerateIncompletePath(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Generate(context.Background(), docstore.ShiftPath{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = svc.Generate(context.Background(), docstore.ShiftPath{Scope: id.NewScopeID()})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestFormatReportFieldRendering(t *testing.T) {
	shift := docstore.NewDocument().Set("label", docstore.String("Day shift"))
	entryDoc := docstore.NewDocument().
		Set("category", docstore.String("feeding")).
		Set(docstore.FieldCreatedAt, docstore.String("2025-06-01T08:00:00Z")).
		Set("amountMl", docstore.Number(120)).
		Set("completed", docstore.Bool(true)).
		Set("tags", docstore.ListValue(docstore.String("a"), docstore.String("b")))

	text := summary.FormatReport(shift, []docstore.ListedEntry{{Entry: id.NewEntryID(), Doc: entryDoc}}, fixedNow)

	assert.Contains(t, text, "amountMl: 120")
	assert.Contains(t, text, "completed: true")
	assert.Contains(t, text, "tags: 2 items")
	assert.NotContains(t, text, docstore.FieldCreatedAt)
}
