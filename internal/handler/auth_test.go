package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/socialsieve/backend/internal/auth"
	"github.com/socialsieve/backend/internal/domain"
)

// =============================================================================
// Mock UserService Implementation
// =============================================================================

// mockUserService implements the service.UserService interface for testing.
type mockUserService struct {
	RegisterFunc              func(ctx context.Context, params domain.RegisterParams) (*domain.User, error)
	LoginFunc                 func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	LogoutFunc                func(ctx context.Context, token string) error
	GetByIDFunc               func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetBySessionTokenFunc     func(ctx context.Context, token string) (*domain.User, error)
	DeleteExpiredSessionsFunc func(ctx context.Context) error
}

func (m *mockUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return nil, errors.New("RegisterFunc not implemented")
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, errors.New("LoginFunc not implemented")
}

func (m *mockUserService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errors.New("GetByIDFunc not implemented")
}

func (m *mockUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if m.GetBySessionTokenFunc != nil {
		return m.GetBySessionTokenFunc(ctx, token)
	}
	return nil, errors.New("GetBySessionTokenFunc not implemented")
}

func (m *mockUserService) DeleteExpiredSessions(ctx context.Context) error {
	if m.DeleteExpiredSessionsFunc != nil {
		return m.DeleteExpiredSessionsFunc(ctx)
	}
	return nil
}

// =============================================================================
// Mock QuotaService Implementation
// =============================================================================

// mockQuotaService implements the service.QuotaService interface for testing.
type mockQuotaService struct {
	GetUsageFunc     func(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error)
	CheckVoiceFunc   func(ctx context.Context, userID uuid.UUID, minutes int) error
	CheckTextFunc    func(ctx context.Context, userID uuid.UUID) error
	ConsumeVoiceFunc func(ctx context.Context, userID uuid.UUID, minutes int) error
	ConsumeTextFunc  func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockQuotaService) GetUsage(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error) {
	if m.GetUsageFunc != nil {
		return m.GetUsageFunc(ctx, userID)
	}
	return &domain.QuotaUsage{}, nil
}

func (m *mockQuotaService) CheckVoice(ctx context.Context, userID uuid.UUID, minutes int) error {
	if m.CheckVoiceFunc != nil {
		return m.CheckVoiceFunc(ctx, userID, minutes)
	}
	return nil
}

func (m *mockQuotaService) CheckText(ctx context.Context, userID uuid.UUID) error {
	if m.CheckTextFunc != nil {
		return m.CheckTextFunc(ctx, userID)
	}
	return nil
}

func (m *mockQuotaService) ConsumeVoice(ctx context.Context, userID uuid.UUID, minutes int) error {
	if m.ConsumeVoiceFunc != nil {
		return m.ConsumeVoiceFunc(ctx, userID, minutes)
	}
	return nil
}

func (m *mockQuotaService) ConsumeText(ctx context.Context, userID uuid.UUID) error {
	if m.ConsumeTextFunc != nil {
		return m.ConsumeTextFunc(ctx, userID)
	}
	return nil
}

// =============================================================================
// Test Helpers
// =============================================================================

// newTestLogger creates a logger that discards most output for testing.
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

// newTestAuthHandler creates an AuthHandler with mock dependencies for testing.
func newTestAuthHandler(users *mockUserService, quota *mockQuotaService) *AuthHandler {
	if quota == nil {
		quota = &mockQuotaService{}
	}
	return NewAuthHandler(users, quota, newTestLogger())
}

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		Email:     "keiko@example.com",
		Name:      "Keiko",
		Plan:      domain.PlanFree,
		IsActive:  true,
		CreatedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func jsonRequest(method, target string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeErrorEnvelope extracts the error code and message from a JSON error body.
func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response body is not a JSON error envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return envelope.Error.Code, envelope.Error.Message
}

// =============================================================================
// Signup Tests
// =============================================================================

func TestSignup_Success_ReturnsTokenAndUser(t *testing.T) {
	user := testUser()

	mock := &mockUserService{
		RegisterFunc: func(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
			return user, nil
		},
		LoginFunc: func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
			return &domain.LoginResult{User: user, Token: strings.Repeat("a", 64)}, nil
		},
	}

	handler := newTestAuthHandler(mock, nil)

	req := jsonRequest("POST", "/api/auth/signup", map[string]string{
		"email":    "keiko@example.com",
		"password": "correct-horse",
		"name":     "Keiko",
	})
	rec := httptest.NewRecorder()

	handler.Signup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Plan  string `json:"plan"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a session token in the response")
	}
	if resp.User.Email != "keiko@example.com" {
		t.Errorf("user email = %q, want keiko@example.com", resp.User.Email)
	}
	if resp.User.Plan != "free" {
		t.Errorf("user plan = %q, want free", resp.User.Plan)
	}
}

func TestSignup_DuplicateEmail_Returns409(t *testing.T) {
	mock := &mockUserService{
		RegisterFunc: func(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
			return nil, domain.Conflict("UserService.Register", "Email already registered")
		},
	}

	handler := newTestAuthHandler(mock, nil)

	req := jsonRequest("POST", "/api/auth/signup", map[string]string{
		"email":    "taken@example.com",
		"password": "correct-horse",
	})
	rec := httptest.NewRecorder()

	handler.Signup(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusConflict)
	}

	code, msg := decodeErrorEnvelope(t, rec)
	if code != domain.ECONFLICT {
		t.Errorf("error code = %q, want %q", code, domain.ECONFLICT)
	}
	if msg != "Email already registered" {
		t.Errorf("error message = %q, want %q", msg, "Email already registered")
	}
}

func TestSignup_InvalidBody_Returns400(t *testing.T) {
	handler := newTestAuthHandler(&mockUserService{}, nil)

	req := httptest.NewRequest("POST", "/api/auth/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// =============================================================================
// Login Tests
// =============================================================================

func TestLogin_Success_ReturnsToken(t *testing.T) {
	user := testUser()

	mock := &mockUserService{
		LoginFunc: func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
			return &domain.LoginResult{User: user, Token: strings.Repeat("b", 64)}, nil
		},
	}

	handler := newTestAuthHandler(mock, nil)

	req := jsonRequest("POST", "/api/auth/login", map[string]string{
		"email":    "keiko@example.com",
		"password": "correct-horse",
	})
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(resp.Token))
	}
}

func TestLogin_InvalidCredentials_Returns401WithGenericMessage(t *testing.T) {
	mock := &mockUserService{
		LoginFunc: func(ctx context.Context, email, password string) (*domain.LoginResult, error) {
			return nil, domain.Unauthorized("UserService.Login", "Invalid email or password")
		},
	}

	handler := newTestAuthHandler(mock, nil)

	req := jsonRequest("POST", "/api/auth/login", map[string]string{
		"email":    "keiko@example.com",
		"password": "wrong",
	})
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	_, msg := decodeErrorEnvelope(t, rec)
	if msg != "Invalid email or password" {
		t.Errorf("error message = %q, want generic credentials message", msg)
	}
}

// =============================================================================
// Logout Tests
// =============================================================================

func TestLogout_InvalidatesSession(t *testing.T) {
	var receivedToken string

	mock := &mockUserService{
		LogoutFunc: func(ctx context.Context, token string) error {
			receivedToken = token
			return nil
		},
	}

	handler := newTestAuthHandler(mock, nil)

	token := strings.Repeat("c", 64)
	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if receivedToken != token {
		t.Errorf("logout received token %q, want %q", receivedToken, token)
	}
}

func TestLogout_WithoutToken_IsIdempotent(t *testing.T) {
	handler := newTestAuthHandler(&mockUserService{}, nil)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
}

// =============================================================================
// Me Tests
// =============================================================================

func TestMe_ReturnsProfileAndUsage(t *testing.T) {
	user := testUser()

	quota := &mockQuotaService{
		GetUsageFunc: func(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error) {
			return &domain.QuotaUsage{
				VoiceMinutesUsed:  12,
				VoiceMinutesLimit: 30,
				TextAnalysesUsed:  5,
				TextAnalysesLimit: 20,
			}, nil
		},
	}

	handler := newTestAuthHandler(&mockUserService{}, quota)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req = req.WithContext(auth.SetUser(req.Context(), user))
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Usage struct {
			VoiceMinutesUsed  int `json:"voice_minutes_used"`
			VoiceMinutesLimit int `json:"voice_minutes_limit"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User.Email != user.Email {
		t.Errorf("email = %q, want %q", resp.User.Email, user.Email)
	}
	if resp.Usage.VoiceMinutesUsed != 12 || resp.Usage.VoiceMinutesLimit != 30 {
		t.Errorf("usage = %d/%d, want 12/30", resp.Usage.VoiceMinutesUsed, resp.Usage.VoiceMinutesLimit)
	}
}

func TestMe_WithoutUser_Returns401(t *testing.T) {
	handler := newTestAuthHandler(&mockUserService{}, nil)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	handler.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
