// Package service contains business logic for the SocialSieve backend.
//
// This file implements the voice service: upload, transcription, and
// AI analysis of voice recordings.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"github.com/socialsieve/backend/internal/ai"
	"github.com/socialsieve/backend/internal/audio"
	"github.com/socialsieve/backend/internal/domain"
	"github.com/socialsieve/backend/internal/metrics"
	"github.com/socialsieve/backend/internal/repository"
	"github.com/socialsieve/backend/internal/storage"
)

// HistoryLimit is the number of analyses returned by history listings.
const HistoryLimit = 20

// UnavailableSummary is returned in place of an AI summary when the
// summarization provider fails. The transcript is still saved and the
// user can retry later.
const UnavailableSummary = "⚠️ AI analysis temporarily unavailable. Please try again."

// AudioURLTTL is how long presigned audio URLs remain valid.
const AudioURLTTL = 1 * time.Hour

// =============================================================================
// Interface Definition
// =============================================================================

// VoiceService defines the interface for voice recording operations.
type VoiceService interface {
	// Analyze uploads a voice recording, transcribes it, and runs AI
	// analysis on the transcript.
	// Returns domain.EINVALID for validation errors.
	// Returns domain.ETOOLARGE if the file exceeds the size limit.
	// Returns domain.EFORBIDDEN if the user's monthly voice quota is exhausted.
	Analyze(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID uuid.UUID) (*domain.VoiceAnalysis, error)

	// History retrieves the user's most recent voice analyses.
	History(ctx context.Context, userID uuid.UUID) ([]domain.VoiceAnalysis, error)

	// GetByID retrieves a voice analysis by ID with authorization check.
	// Returns domain.ENOTFOUND if the analysis doesn't exist and
	// domain.EFORBIDDEN if it belongs to another user.
	GetByID(ctx context.Context, analysisID, userID uuid.UUID) (*domain.VoiceAnalysis, error)

	// Delete removes a voice analysis and its stored audio.
	// Returns domain.ENOTFOUND if the analysis doesn't exist and
	// domain.EFORBIDDEN if it belongs to another user.
	Delete(ctx context.Context, analysisID, userID uuid.UUID) error
}

// VoiceQueries is the subset of repository queries the voice service uses.
type VoiceQueries interface {
	CreateVoiceAnalysis(ctx context.Context, arg repository.CreateVoiceAnalysisParams) (repository.VoiceAnalysis, error)
	GetVoiceAnalysis(ctx context.Context, id uuid.UUID) (repository.VoiceAnalysis, error)
	ListVoiceAnalysesByUser(ctx context.Context, arg repository.ListVoiceAnalysesByUserParams) ([]repository.VoiceAnalysis, error)
	DeleteVoiceAnalysis(ctx context.Context, id uuid.UUID) error
}

var _ VoiceQueries = (*repository.Queries)(nil)

// =============================================================================
// Implementation
// =============================================================================

// voiceService implements the VoiceService interface.
type voiceService struct {
	queries     VoiceQueries
	storage     storage.Storage
	transcriber ai.Transcriber
	summarizer  ai.Summarizer
	quota       QuotaService
	logger      *slog.Logger
}

// NewVoiceService creates a new VoiceService.
func NewVoiceService(
	queries VoiceQueries,
	store storage.Storage,
	transcriber ai.Transcriber,
	summarizer ai.Summarizer,
	quota QuotaService,
	logger *slog.Logger,
) VoiceService {
	return &voiceService{
		queries:     queries,
		storage:     store,
		transcriber: transcriber,
		summarizer:  summarizer,
		quota:       quota,
		logger:      logger,
	}
}

// =============================================================================
// Analyze
// =============================================================================

// Analyze runs the full voice pipeline.
//
// Flow:
// 1. Validate file size and sniff content type
// 2. Read file into memory and probe audio duration
// 3. Upload original audio to storage
// 4. Quota admission (after the upload, charged in whole minutes)
// 5. Transcribe the audio (failure here is fatal)
// 6. Re-admit if the transcriber reports a duration the probe missed
// 7. Detect language if the transcriber didn't report one
// 8. Summarize the transcript (failure here is masked)
// 9. Persist the analysis record and charge the quota
func (s *voiceService) Analyze(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
	const op = "voice.analyze"

	// Validate file size
	if err := domain.ValidateAudioSize(header.Size); err != nil {
		return nil, err
	}

	// Detect content type from file header (read first 512 bytes)
	headerBytes := make([]byte, 512)
	n, err := file.Read(headerBytes)
	if err != nil && err != io.EOF {
		return nil, domain.Internal(err, op, "failed to read file header")
	}
	contentType := http.DetectContentType(headerBytes[:n])

	// Sniffing can't distinguish every container; fall back to the
	// client-declared type when it claims a known audio format
	if !storage.IsAudio(contentType) && storage.IsAllowedAudioType(header.Header.Get("Content-Type")) {
		contentType = header.Header.Get("Content-Type")
	}

	// Validate content type
	if !storage.IsAudio(contentType) {
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported file type: %s. Only audio files are supported.", contentType))
	}

	// Reset file pointer to beginning after reading header
	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, 0); err != nil {
			return nil, domain.Internal(err, op, "failed to reset file pointer")
		}
	}

	// Read entire file into memory for processing
	fileData, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read file data")
	}

	// Probe duration from the audio header. Zero means unknown; the
	// transcription provider's reported duration fills the gap below.
	durationSeconds := audio.ProbeDurationSeconds(fileData)
	minutes := domain.VoiceMinutes(durationSeconds)

	// Upload original audio to storage
	storageKey := storage.AudioKey(userID, header.Filename)
	if err := s.storage.Put(ctx, storageKey, bytes.NewReader(fileData), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxAudioSize,
		Overwrite:   false,
		Public:      false,
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to upload audio")
	}

	// Quota admission happens after the upload so the file is already
	// durable when the check passes. On denial the upload is removed and
	// no record or charge is made.
	if err := s.quota.CheckVoice(ctx, userID, minutes); err != nil {
		_ = s.storage.Delete(ctx, storageKey)
		metrics.RecordQuotaDenial(metrics.AnalysisTypeVoice)
		return nil, err
	}

	// Transcribe the audio. A transcription failure is fatal: without a
	// transcript there is nothing to analyze or save.
	transcribeStart := time.Now()
	transcription, err := s.transcriber.Transcribe(ctx, ai.TranscribeParams{
		Audio:       fileData,
		ContentType: contentType,
		FileName:    header.Filename,
	})
	metrics.RecordAICall(metrics.AIProviderTranscription, err == nil)
	if err != nil {
		_ = s.storage.Delete(ctx, storageKey)
		return nil, domain.Internal(err, op, "failed to transcribe audio")
	}
	metrics.ObserveTranscriptionDuration(time.Since(transcribeStart))

	// When the header probe couldn't determine a duration, trust the
	// transcription provider's measurement. The recomputed cost goes back
	// through quota admission so the charge never exceeds what was admitted.
	if durationSeconds == 0 && transcription.DurationSeconds > 0 {
		durationSeconds = int(transcription.DurationSeconds + 0.5)
		minutes = domain.VoiceMinutes(durationSeconds)
		if err := s.quota.CheckVoice(ctx, userID, minutes); err != nil {
			_ = s.storage.Delete(ctx, storageKey)
			metrics.RecordQuotaDenial(metrics.AnalysisTypeVoice)
			return nil, err
		}
	}

	// Resolve transcript language
	language := transcription.Language
	if language == "" {
		language = detectLanguage(transcription.Text)
	}

	// Summarize the transcript. Summarization failures are masked so a
	// flaky AI provider doesn't lose the transcript.
	summary, actionItems := s.summarize(ctx, transcription.Text)

	actionItemsJSON, err := json.Marshal(actionItems)
	if err != nil {
		_ = s.storage.Delete(ctx, storageKey)
		return nil, domain.Internal(err, op, "failed to encode action items")
	}

	// Create database record
	record, err := s.queries.CreateVoiceAnalysis(ctx, repository.CreateVoiceAnalysisParams{
		UserID:          userID,
		FileName:        header.Filename,
		StorageKey:      storageKey,
		DurationSeconds: int32(durationSeconds),
		FileSizeBytes:   header.Size,
		Transcript:      transcription.Text,
		Summary:         summary,
		ActionItems:     actionItemsJSON,
		Language:        domain.ToNullString(language),
	})
	if err != nil {
		// Clean up storage on database error
		_ = s.storage.Delete(ctx, storageKey)
		return nil, domain.Internal(err, op, "failed to create analysis record")
	}

	// Charge the quota only after the record exists
	if err := s.quota.ConsumeVoice(ctx, userID, minutes); err != nil {
		s.logger.Error("failed to charge voice quota", "error", err, "user_id", userID, "minutes", minutes)
	}

	metrics.RecordAnalysis(metrics.AnalysisTypeVoice)

	s.logger.Info("voice analysis completed",
		"user_id", userID,
		"analysis_id", record.ID,
		"duration_seconds", durationSeconds,
		"minutes_charged", minutes,
		"language", language,
	)

	return s.toDomain(ctx, record), nil
}

// =============================================================================
// History
// =============================================================================

// History retrieves the user's most recent voice analyses.
func (s *voiceService) History(ctx context.Context, userID uuid.UUID) ([]domain.VoiceAnalysis, error) {
	const op = "voice.history"

	records, err := s.queries.ListVoiceAnalysesByUser(ctx, repository.ListVoiceAnalysesByUserParams{
		UserID: userID,
		Limit:  HistoryLimit,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list analyses")
	}

	analyses := make([]domain.VoiceAnalysis, 0, len(records))
	for _, record := range records {
		analyses = append(analyses, *s.toDomain(ctx, record))
	}

	return analyses, nil
}

// =============================================================================
// GetByID
// =============================================================================

// GetByID retrieves a voice analysis by ID with authorization check.
func (s *voiceService) GetByID(ctx context.Context, analysisID, userID uuid.UUID) (*domain.VoiceAnalysis, error) {
	const op = "voice.get"

	record, err := s.queries.GetVoiceAnalysis(ctx, analysisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "analysis", analysisID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch analysis")
	}

	if record.UserID != userID {
		return nil, domain.Forbidden(op, "You don't have access to this analysis")
	}

	return s.toDomain(ctx, record), nil
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes a voice analysis and its stored audio.
func (s *voiceService) Delete(ctx context.Context, analysisID, userID uuid.UUID) error {
	const op = "voice.delete"

	// Get analysis with authorization check
	analysis, err := s.GetByID(ctx, analysisID, userID)
	if err != nil {
		return err
	}

	// Delete from storage
	// Continue even if storage deletion fails - we still want to remove DB record
	if err := s.storage.Delete(ctx, analysis.StorageKey); err != nil {
		s.logger.Error("failed to delete audio from storage", "error", err, "key", analysis.StorageKey)
	}

	// Delete from database
	if err := s.queries.DeleteVoiceAnalysis(ctx, analysisID); err != nil {
		return domain.Internal(err, op, "failed to delete analysis record")
	}

	return nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// summarize runs the transcript through the AI summarizer, substituting a
// placeholder summary when the provider fails.
func (s *voiceService) summarize(ctx context.Context, transcript string) (string, []string) {
	analysis, err := s.summarizer.Summarize(ctx, transcript)
	metrics.RecordAICall(metrics.AIProviderSummarization, err == nil)
	if err != nil {
		s.logger.Warn("summarization failed, saving transcript without analysis", "error", err)
		return UnavailableSummary, []string{}
	}
	return analysis.Summary, analysis.ActionItems
}

// detectLanguage guesses the language of a transcript, returning the
// default when detection is unreliable.
func detectLanguage(text string) string {
	if text == "" {
		return domain.DefaultLanguage
	}

	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return domain.DefaultLanguage
	}

	return info.Lang.Iso6391()
}

// toDomain converts a repository record to the domain type, resolving the
// audio URL from storage.
func (s *voiceService) toDomain(ctx context.Context, record repository.VoiceAnalysis) *domain.VoiceAnalysis {
	var actionItems []string
	if err := json.Unmarshal(record.ActionItems, &actionItems); err != nil {
		s.logger.Warn("failed to decode action items", "error", err, "analysis_id", record.ID)
		actionItems = []string{}
	}
	if actionItems == nil {
		actionItems = []string{}
	}

	audioURL, err := s.storage.URL(ctx, record.StorageKey, AudioURLTTL)
	if err != nil {
		s.logger.Warn("failed to resolve audio URL", "error", err, "key", record.StorageKey)
	}

	return &domain.VoiceAnalysis{
		ID:              record.ID,
		UserID:          record.UserID,
		FileName:        record.FileName,
		AudioURL:        audioURL,
		StorageKey:      record.StorageKey,
		DurationSeconds: int(record.DurationSeconds),
		FileSizeBytes:   record.FileSizeBytes,
		Transcript:      record.Transcript,
		Summary:         record.Summary,
		ActionItems:     actionItems,
		Language:        domain.NullStringValue(record.Language),
		CreatedAt:       record.CreatedAt,
	}
}
