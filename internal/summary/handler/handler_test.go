package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"carelog/internal/docstore"
	"carelog/internal/docstore/memory"
	"carelog/internal/jwtauth"
	"carelog/internal/summary"
	"carelog/internal/summary/handler"
	id "carelog/pkg/domain"
)

type SummaryHandlerSuite struct {
	suite.Suite
	router  chi.Router
	jwt     *jwtauth.Service
	store   *memory.Store
	userID  uuid.UUID
	scopeID uuid.UUID
	shift   docstore.ShiftPath
}

func TestSummaryHandlerSuite(t *testing.T) {
	suite.Run(t, new(SummaryHandlerSuite))
}

func (s *SummaryHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = memory.New(nil)
	s.jwt = jwtauth.NewService("test-signing-key", "carelog-test", "carelog-api")

	svc, err := summary.NewService(s.store, summary.WithLogger(logger))
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	handler.New(svc, logger, s.jwt).Register(s.router)

	s.userID = uuid.New()
	s.scopeID = uuid.New()

	owner, err := id.ParseOwnerID(s.userID.String())
	s.Require().NoError(err)
	scope, err := id.ParseScopeID(s.scopeID.String())
	s.Require().NoError(err)
	s.shift = docstore.ShiftPath{Scope: scope, Owner: owner, Shift: id.NewShiftID()}

	shiftDoc := docstore.NewDocument().Set("label", docstore.String("Night shift"))
	s.Require().NoError(s.store.PutShift(context.Background(), s.shift, shiftDoc))

	entryPath := docstore.EntryPath{Scope: scope, Owner: owner, Shift: s.shift.Shift, Entry: id.NewEntryID()}
	entryDoc := docstore.NewDocument().
		Set("category", docstore.String("feeding")).
		Set("notes", docstore.String("120ml formula"))
	s.Require().NoError(s.store.CreateEntry(context.Background(), entryPath, entryDoc))
}

func (s *SummaryHandlerSuite) post(body any, token string) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/v1/shifts/summary", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *SummaryHandlerSuite) token() string {
	token, err := s.jwt.GenerateAccessToken(s.userID, s.scopeID, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *SummaryHandlerSuite) TestSummarySuccess() {
	rec := s.post(handler.SummaryRequest{
		ScopeID: s.shift.Scope.String(),
		ShiftID: s.shift.Shift.String(),
	}, s.token())

	s.Equal(http.StatusOK, rec.Code)

	var resp handler.SummaryResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp.EntryCount)
	s.Contains(resp.SummaryText, "Night shift")
	s.Contains(resp.SummaryText, "[1] feeding")
	s.NotEmpty(resp.GeneratedAtIso)
}

func (s *SummaryHandlerSuite) TestSummaryMissingToken() {
	rec := s.post(handler.SummaryRequest{
		ScopeID: s.shift.Scope.String(),
		ShiftID: s.shift.Shift.String(),
	}, "")

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *SummaryHandlerSuite) TestSummaryExpiredToken() {
	token, err := s.jwt.GenerateAccessToken(s.userID, s.scopeID, -time.Minute)
	s.Require().NoError(err)

	rec := s.post(handler.SummaryRequest{
		ScopeID: s.shift.Scope.String(),
		ShiftID: s.shift.Shift.String(),
	}, token)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *SummaryHandlerSuite) TestSummaryInvalidScopeID() {
	rec := s.post(handler.SummaryRequest{
		ScopeID: "not-a-uuid",
		ShiftID: s.shift.Shift.String(),
	}, s.token())

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *SummaryHandlerSuite) TestSummaryMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/v1/shifts/summary", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *SummaryHandlerSuite) TestSummaryUnknownShift() {
	rec := s.post(handler.SummaryRequest{
		ScopeID: s.shift.Scope.String(),
		ShiftID: id.NewShiftID().String(),
	}, s.token())

	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *SummaryHandlerSuite) TestSummaryOtherCallersShiftIsNotFound() {
	// A valid token for a different user scopes reads to that user's
	// records; the shift exists but not under the caller's path.
	otherToken, err := s.jwt.GenerateAccessToken(uuid.New(), s.scopeID, time.Hour)
	s.Require().NoError(err)

	rec := s.post(handler.SummaryRequest{
		ScopeID: s.shift.Scope.String(),
		ShiftID: s.shift.Shift.String(),
	}, otherToken)

	s.Equal(http.StatusNotFound, rec.Code)
}
