package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/socialsieve/backend/internal/auth"
	"github.com/socialsieve/backend/internal/domain"
)

// =============================================================================
// Mock VoiceService Implementation
// =============================================================================

// mockVoiceService implements the service.VoiceService interface for testing.
type mockVoiceService struct {
	AnalyzeFunc func(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID uuid.UUID) (*domain.VoiceAnalysis, error)
	HistoryFunc func(ctx context.Context, userID uuid.UUID) ([]domain.VoiceAnalysis, error)
	GetByIDFunc func(ctx context.Context, analysisID, userID uuid.UUID) (*domain.VoiceAnalysis, error)
	DeleteFunc  func(ctx context.Context, analysisID, userID uuid.UUID) error
}

func (m *mockVoiceService) Analyze(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, file, header, userID)
	}
	return nil, errors.New("AnalyzeFunc not implemented")
}

func (m *mockVoiceService) History(ctx context.Context, userID uuid.UUID) ([]domain.VoiceAnalysis, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID)
	}
	return nil, errors.New("HistoryFunc not implemented")
}

func (m *mockVoiceService) GetByID(ctx context.Context, analysisID, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, analysisID, userID)
	}
	return nil, errors.New("GetByIDFunc not implemented")
}

func (m *mockVoiceService) Delete(ctx context.Context, analysisID, userID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, analysisID, userID)
	}
	return errors.New("DeleteFunc not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

// multipartAudioRequest builds a multipart request with an "audio" form field.
func multipartAudioRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func withTestUser(req *http.Request, user *domain.User) *http.Request {
	return req.WithContext(auth.SetUser(req.Context(), user))
}

// =============================================================================
// Analyze Tests
// =============================================================================

func TestVoiceAnalyze_Success(t *testing.T) {
	user := testUser()
	analysisID := uuid.New()

	mock := &mockVoiceService{
		AnalyzeFunc: func(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
			if userID != user.ID {
				t.Errorf("analyze called with user %s, want %s", userID, user.ID)
			}
			return &domain.VoiceAnalysis{
				ID:              analysisID,
				UserID:          userID,
				FileName:        header.Filename,
				DurationSeconds: 95,
				Transcript:      "meeting notes",
				Summary:         "A short meeting recap.",
				ActionItems:     []string{"send the deck"},
				Language:        "en",
			}, nil
		},
	}

	handler := NewVoiceHandler(mock, newTestLogger())

	req := withTestUser(multipartAudioRequest(t, "/api/voice/analyze", "memo.wav", []byte("RIFFdata")), user)
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d\nbody: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp domain.VoiceAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != analysisID {
		t.Errorf("analysis ID = %s, want %s", resp.ID, analysisID)
	}
	if len(resp.ActionItems) != 1 {
		t.Errorf("action items = %v, want one entry", resp.ActionItems)
	}
}

func TestVoiceAnalyze_MissingFile_Returns400(t *testing.T) {
	handler := NewVoiceHandler(&mockVoiceService{}, newTestLogger())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.WriteField("note", "no audio here")
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/api/voice/analyze", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req = withTestUser(req, testUser())
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	code, _ := decodeErrorEnvelope(t, rec)
	if code != domain.EINVALID {
		t.Errorf("error code = %q, want %q", code, domain.EINVALID)
	}
}

func TestVoiceAnalyze_QuotaExceeded_Returns403(t *testing.T) {
	mock := &mockVoiceService{
		AnalyzeFunc: func(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
			return nil, domain.QuotaExceeded("quota.check_voice", domain.QuotaTypeVoice, 29, 30)
		},
	}

	handler := NewVoiceHandler(mock, newTestLogger())

	req := withTestUser(multipartAudioRequest(t, "/api/voice/analyze", "memo.wav", []byte("RIFFdata")), testUser())
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusForbidden)
	}

	_, msg := decodeErrorEnvelope(t, rec)
	if msg != "Monthly limit exceeded! Used: 29/30 minutes" {
		t.Errorf("error message = %q, want quota denial message", msg)
	}
}

func TestVoiceAnalyze_UnsupportedType_Returns400(t *testing.T) {
	mock := &mockVoiceService{
		AnalyzeFunc: func(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
			return nil, domain.Invalid("voice.analyze", "Unsupported file type: image/png. Only audio files are supported.")
		},
	}

	handler := NewVoiceHandler(mock, newTestLogger())

	req := withTestUser(multipartAudioRequest(t, "/api/voice/analyze", "cat.png", []byte{0x89, 'P', 'N', 'G'}), testUser())
	rec := httptest.NewRecorder()

	handler.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// =============================================================================
// History Tests
// =============================================================================

func TestVoiceHistory_ReturnsAnalyses(t *testing.T) {
	user := testUser()

	mock := &mockVoiceService{
		HistoryFunc: func(ctx context.Context, userID uuid.UUID) ([]domain.VoiceAnalysis, error) {
			return []domain.VoiceAnalysis{
				{ID: uuid.New(), UserID: userID, FileName: "a.wav"},
				{ID: uuid.New(), UserID: userID, FileName: "b.wav"},
			}, nil
		},
	}

	handler := NewVoiceHandler(mock, newTestLogger())

	req := withTestUser(httptest.NewRequest("GET", "/api/voice/history", nil), user)
	rec := httptest.NewRecorder()

	handler.History(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Analyses []domain.VoiceAnalysis `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Analyses) != 2 {
		t.Errorf("got %d analyses, want 2", len(resp.Analyses))
	}
}

// =============================================================================
// Get Tests
// =============================================================================

func TestVoiceGet_InvalidID_Returns404(t *testing.T) {
	handler := NewVoiceHandler(&mockVoiceService{}, newTestLogger())

	req := withTestUser(httptest.NewRequest("GET", "/api/voice/not-a-uuid", nil), testUser())
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestVoiceGet_OtherUsersRecord_Returns403(t *testing.T) {
	analysisID := uuid.New()

	mock := &mockVoiceService{
		GetByIDFunc: func(ctx context.Context, id, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
			return nil, domain.Forbidden("voice.get", "You don't have access to this analysis")
		},
	}

	handler := NewVoiceHandler(mock, newTestLogger())

	req := withTestUser(httptest.NewRequest("GET", "/api/voice/"+analysisID.String(), nil), testUser())
	req.SetPathValue("id", analysisID.String())
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusForbidden)
	}
	code, _ := decodeErrorEnvelope(t, rec)
	if code != domain.EFORBIDDEN {
		t.Errorf("error code = %s, want %s", code, domain.EFORBIDDEN)
	}
}

// =============================================================================
// Delete Tests
// =============================================================================

func TestVoiceDelete_Success(t *testing.T) {
	user := testUser()
	analysisID := uuid.New()
	deleteCalled := false

	mock := &mockVoiceService{
		DeleteFunc: func(ctx context.Context, id, userID uuid.UUID) error {
			deleteCalled = true
			if id != analysisID {
				t.Errorf("delete called with id %s, want %s", id, analysisID)
			}
			return nil
		},
	}

	handler := NewVoiceHandler(mock, newTestLogger())

	req := withTestUser(httptest.NewRequest("DELETE", "/api/voice/"+analysisID.String(), nil), user)
	req.SetPathValue("id", analysisID.String())
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	if !deleteCalled {
		t.Error("delete service method was not called")
	}
}
