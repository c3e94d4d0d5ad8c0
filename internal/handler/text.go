// Package handler contains HTTP handlers for the SocialSieve backend.
//
// This file implements text analysis handlers.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/socialsieve/backend/internal/auth"
	"github.com/socialsieve/backend/internal/domain"
	"github.com/socialsieve/backend/internal/service"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// TextHandler handles text analysis HTTP requests.
//
// Routes handled:
// - POST   /api/text/analyze -> Analyze
// - GET    /api/text/history -> History
// - GET    /api/text/{id}    -> Get
// - DELETE /api/text/{id}    -> Delete
type TextHandler struct {
	textService service.TextService
	logger      *slog.Logger
}

// NewTextHandler creates a new TextHandler.
func NewTextHandler(textService service.TextService, logger *slog.Logger) *TextHandler {
	return &TextHandler{
		textService: textService,
		logger:      logger,
	}
}

// RegisterRoutes registers all text routes with the provided mux.
//
// All routes require authentication via the requireUser middleware.
func (h *TextHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/text/analyze", requireUser(http.HandlerFunc(h.Analyze)))
	mux.Handle("GET /api/text/history", requireUser(http.HandlerFunc(h.History)))
	mux.Handle("GET /api/text/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /api/text/{id}", requireUser(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// Request Types
// =============================================================================

type textAnalyzeRequest struct {
	Text string `json:"text"`
}

// =============================================================================
// POST /api/text/analyze - Analyze Text
// =============================================================================

// Analyze runs AI analysis on submitted text and returns the stored record.
func (h *TextHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		h.logger.Error("text analyze handler called without authenticated user")
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req textAnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("text.analyze", "Invalid request body"))
		return
	}

	analysis, err := h.textService.Analyze(r.Context(), req.Text, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// =============================================================================
// GET /api/text/history - Recent Analyses
// =============================================================================

// History returns the user's most recent text analyses, newest first.
func (h *TextHandler) History(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	analyses, err := h.textService.History(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}

// =============================================================================
// GET /api/text/{id} - Get Single Analysis
// =============================================================================

// Get returns one text analysis owned by the authenticated user.
func (h *TextHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	analysis, err := h.textService.GetByID(r.Context(), id, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// =============================================================================
// DELETE /api/text/{id} - Delete Analysis
// =============================================================================

// Delete permanently removes a text analysis.
func (h *TextHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	if err := h.textService.Delete(r.Context(), id, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
