package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"carelog/internal/docstore"
	"carelog/internal/platform/middleware"
	"carelog/internal/summary"
	"carelog/internal/transport/http/shared"
	id "carelog/pkg/domain"
	dErrors "carelog/pkg/domain-errors"
)

// Service defines the interface for summary operations.
type Service interface {
	Generate(ctx context.Context, path docstore.ShiftPath) (*summary.Result, error)
}

// SummaryRequest identifies one shift of the authenticated caller.
type SummaryRequest struct {
	ScopeID string `json:"scopeId"`
	ShiftID string `json:"shiftId"`
}

// SummaryResponse carries the computed summary back to the caller.
type SummaryResponse struct {
	SummaryText    string `json:"summaryText"`
	GeneratedAtIso string `json:"generatedAtIso"`
	EntryCount     int    `json:"entryCount"`
}

// Handler exposes the summary request endpoint.
type Handler struct {
	logger       *slog.Logger
	service      Service
	jwtValidator middleware.JWTValidator
}

// New creates a summary Handler.
func New(service Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		jwtValidator: jwtValidator,
	}
}

// Register registers the summary routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	summaryRouter := chi.NewRouter()
	summaryRouter.Use(middleware.Recovery(h.logger))
	summaryRouter.Use(middleware.RequestID)
	summaryRouter.Use(middleware.Logger(h.logger))
	summaryRouter.Use(middleware.Timeout(30 * time.Second))
	summaryRouter.Use(middleware.ContentTypeJSON)
	summaryRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	summaryRouter.Post("/v1/shifts/summary", h.handleSummary)

	r.Mount("/", summaryRouter)
}

// handleSummary generates the summary for one shift of the authenticated
// caller.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	// The middleware has already validated the JWT and set the userID in context
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	owner, err := id.ParseOwnerID(userID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid caller identity"))
		return
	}

	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid summary request body",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	scope, err := id.ParseScopeID(req.ScopeID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shift, err := id.ParseShiftID(req.ShiftID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.service.Generate(ctx, docstore.ShiftPath{Scope: scope, Owner: owner, Shift: shift})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) || dErrors.Is(err, dErrors.CodeInvalidInput) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to generate shift summary",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to generate summary"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, SummaryResponse{
		SummaryText:    result.SummaryText,
		GeneratedAtIso: result.GeneratedAt.Format(time.RFC3339),
		EntryCount:     result.EntryCount,
	})
}
