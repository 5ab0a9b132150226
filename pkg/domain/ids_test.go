package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carelog/pkg/domain-errors"
)

func TestParseRoundTrip(t *testing.T) {
	scope := NewScopeID()
	parsed, err := ParseScopeID(scope.String())
	require.NoError(t, err)
	assert.Equal(t, scope, parsed)

	owner := NewOwnerID()
	parsedOwner, err := ParseOwnerID(owner.String())
	require.NoError(t, err)
	assert.Equal(t, owner, parsedOwner)

	shift := NewShiftID()
	parsedShift, err := ParseShiftID(shift.String())
	require.NoError(t, err)
	assert.Equal(t, shift, parsedShift)

	entry := NewEntryID()
	parsedEntry, err := ParseEntryID(entry.String())
	require.NoError(t, err)
	assert.Equal(t, entry, parsedEntry)
}

func TestParseRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not a uuid", "not-a-uuid"},
		{"nil uuid", uuid.Nil.String()},
		{"truncated", "123e4567-e89b-12d3-a456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseShiftID(tc.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, ScopeID(uuid.Nil).IsNil())
	assert.True(t, OwnerID(uuid.Nil).IsNil())
	assert.False(t, NewScopeID().IsNil())
	assert.False(t, NewEntryID().IsNil())
}

func TestNewIDsAreDistinct(t *testing.T) {
	assert.NotEqual(t, NewShiftID(), NewShiftID())
}
