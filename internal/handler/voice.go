// Package handler contains HTTP handlers for the SocialSieve backend.
//
// This file implements voice analysis handlers for uploading recordings and
// browsing past results.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/socialsieve/backend/internal/auth"
	"github.com/socialsieve/backend/internal/domain"
	"github.com/socialsieve/backend/internal/service"
)

// maxMultipartMemory bounds how much of an upload is held in memory while
// parsing the multipart form. Larger files spill to temp files.
const maxMultipartMemory = 32 << 20

// =============================================================================
// Handler Configuration
// =============================================================================

// VoiceHandler handles voice analysis HTTP requests.
//
// Routes handled:
// - POST   /api/voice/analyze -> Analyze
// - GET    /api/voice/history -> History
// - GET    /api/voice/{id}    -> Get
// - DELETE /api/voice/{id}    -> Delete
type VoiceHandler struct {
	voiceService service.VoiceService
	logger       *slog.Logger
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(voiceService service.VoiceService, logger *slog.Logger) *VoiceHandler {
	return &VoiceHandler{
		voiceService: voiceService,
		logger:       logger,
	}
}

// RegisterRoutes registers all voice routes with the provided mux.
//
// All routes require authentication via the requireUser middleware.
func (h *VoiceHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/voice/analyze", requireUser(http.HandlerFunc(h.Analyze)))
	mux.Handle("GET /api/voice/history", requireUser(http.HandlerFunc(h.History)))
	mux.Handle("GET /api/voice/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /api/voice/{id}", requireUser(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// POST /api/voice/analyze - Upload and Analyze
// =============================================================================

// Analyze accepts a multipart upload with an "audio" form field, runs the
// full transcription and analysis pipeline, and returns the stored record.
func (h *VoiceHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		h.logger.Error("voice analyze handler called without authenticated user")
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	// Reject oversized bodies before buffering the form
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxAudioSize+maxMultipartMemory)

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.logger.Info("failed to parse multipart form", "error", err)
		ErrorResponse(w, r, h.logger, domain.Invalid("voice.analyze", "Invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("voice.analyze", "Audio file is required"))
		return
	}
	defer file.Close()

	analysis, err := h.voiceService.Analyze(r.Context(), file, header, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// =============================================================================
// GET /api/voice/history - Recent Analyses
// =============================================================================

// History returns the user's most recent voice analyses, newest first.
func (h *VoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	analyses, err := h.voiceService.History(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}

// =============================================================================
// GET /api/voice/{id} - Get Single Analysis
// =============================================================================

// Get returns one voice analysis owned by the authenticated user.
func (h *VoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	analysis, err := h.voiceService.GetByID(r.Context(), id, user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// =============================================================================
// DELETE /api/voice/{id} - Delete Analysis
// =============================================================================

// Delete permanently removes a voice analysis and its stored audio.
func (h *VoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.voiceService.Delete(r.Context(), id, user.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
