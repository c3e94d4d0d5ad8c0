// Package handler contains HTTP handlers for the SocialSieve backend.
//
// This file implements authentication handlers for user registration, login,
// and logout functionality.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/socialsieve/backend/internal/auth"
	"github.com/socialsieve/backend/internal/domain"
	"github.com/socialsieve/backend/internal/service"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// AuthHandler handles authentication-related HTTP requests.
//
// Routes handled:
// - POST /api/auth/signup -> Signup
// - POST /api/auth/login  -> Login
// - POST /api/auth/logout -> Logout
// - GET  /api/auth/me     -> Me
type AuthHandler struct {
	userService  service.UserService
	quotaService service.QuotaService
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
func NewAuthHandler(userService service.UserService, quotaService service.QuotaService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		quotaService: quotaService,
		logger:       logger,
	}
}

// RegisterRoutes registers all auth routes with the provided mux.
//
// Signup and login are rate limited per client IP. Logout and me require a
// valid bearer token.
func (h *AuthHandler) RegisterRoutes(
	mux *http.ServeMux,
	limitLogin, limitRegister func(http.Handler) http.Handler,
	requireUser func(http.Handler) http.Handler,
) {
	mux.Handle("POST /api/auth/signup", limitRegister(http.HandlerFunc(h.Signup)))
	mux.Handle("POST /api/auth/login", limitLogin(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/auth/logout", http.HandlerFunc(h.Logout))
	mux.Handle("GET /api/auth/me", requireUser(http.HandlerFunc(h.Me)))
}

// =============================================================================
// Request / Response Types
// =============================================================================

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Plan      string `json:"plan"`
	CreatedAt string `json:"created_at"`
}

type meResponse struct {
	User  userResponse       `json:"user"`
	Usage *domain.QuotaUsage `json:"usage"`
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Plan:      string(user.Plan),
		CreatedAt: user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// =============================================================================
// Signup
// =============================================================================

// Signup creates a new account and logs the user in.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("auth.signup", "Invalid request body"))
		return
	}

	user, err := h.userService.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Issue a session immediately so the client doesn't need a second call
	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token: result.Token,
		User:  toUserResponse(user),
	})
}

// =============================================================================
// Login
// =============================================================================

// Login authenticates a user and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("auth.login", "Invalid request body"))
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

// =============================================================================
// Logout
// =============================================================================

// Logout invalidates the current session. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)

	if err := h.userService.Logout(r.Context(), token); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// =============================================================================
// Me
// =============================================================================

// Me returns the authenticated user's profile plus quota usage.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	usage, err := h.quotaService.GetUsage(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		User:  toUserResponse(user),
		Usage: usage,
	})
}
