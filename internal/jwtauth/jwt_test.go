package jwtauth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "carelog/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService("test-signing-key", "carelog-test", "carelog-api")
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService()
	userID := uuid.New()
	scopeID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, scopeID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, scopeID.String(), claims.ScopeID)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateWrongKey(t *testing.T) {
	token, err := newTestService().GenerateAccessToken(uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, err)

	other := NewService("different-key", "carelog-test", "carelog-api")
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := newTestService().ValidateToken("not.a.jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
