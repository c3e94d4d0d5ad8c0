// Package service contains business logic for the SocialSieve backend.
//
// This file implements the text service: AI analysis of pasted text.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/socialsieve/backend/internal/ai"
	"github.com/socialsieve/backend/internal/domain"
	"github.com/socialsieve/backend/internal/metrics"
	"github.com/socialsieve/backend/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// TextService defines the interface for text analysis operations.
type TextService interface {
	// Analyze runs AI analysis on the submitted text.
	// Returns domain.EINVALID if the text is empty.
	// Returns domain.EFORBIDDEN if the text exceeds the free plan length
	// limit or the user's monthly text quota is exhausted.
	Analyze(ctx context.Context, text string, userID uuid.UUID) (*domain.TextAnalysis, error)

	// History retrieves the user's most recent text analyses.
	History(ctx context.Context, userID uuid.UUID) ([]domain.TextAnalysis, error)

	// GetByID retrieves a text analysis by ID with authorization check.
	// Returns domain.ENOTFOUND if the analysis doesn't exist and
	// domain.EFORBIDDEN if it belongs to another user.
	GetByID(ctx context.Context, analysisID, userID uuid.UUID) (*domain.TextAnalysis, error)

	// Delete removes a text analysis.
	// Returns domain.ENOTFOUND if the analysis doesn't exist and
	// domain.EFORBIDDEN if it belongs to another user.
	Delete(ctx context.Context, analysisID, userID uuid.UUID) error
}

// TextQueries is the subset of repository queries the text service uses.
type TextQueries interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	CreateTextAnalysis(ctx context.Context, arg repository.CreateTextAnalysisParams) (repository.TextAnalysis, error)
	GetTextAnalysis(ctx context.Context, id uuid.UUID) (repository.TextAnalysis, error)
	ListTextAnalysesByUser(ctx context.Context, arg repository.ListTextAnalysesByUserParams) ([]repository.TextAnalysis, error)
	DeleteTextAnalysis(ctx context.Context, id uuid.UUID) error
}

var _ TextQueries = (*repository.Queries)(nil)

// =============================================================================
// Implementation
// =============================================================================

// textService implements the TextService interface.
type textService struct {
	queries    TextQueries
	summarizer ai.Summarizer
	quota      QuotaService
	logger     *slog.Logger
}

// NewTextService creates a new TextService.
func NewTextService(
	queries TextQueries,
	summarizer ai.Summarizer,
	quota QuotaService,
	logger *slog.Logger,
) TextService {
	return &textService{
		queries:    queries,
		summarizer: summarizer,
		quota:      quota,
		logger:     logger,
	}
}

// =============================================================================
// Analyze
// =============================================================================

// Analyze runs AI analysis on the submitted text.
//
// Flow:
// 1. Validate the text (non-empty, free plan length cap)
// 2. Quota admission
// 3. Summarize via the AI provider (failure here is masked)
// 4. Persist the analysis record and charge the quota
func (s *textService) Analyze(ctx context.Context, text string, userID uuid.UUID) (*domain.TextAnalysis, error) {
	const op = "text.analyze"

	if strings.TrimSpace(text) == "" {
		return nil, domain.Invalid(op, "Text is required")
	}

	characterCount := len([]rune(text))

	// The free plan caps text length; paid plans have no cap
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "failed to retrieve user")
	}
	limits := domain.GetPlanLimits(domain.PlanTier(user.Plan))
	if !limits.UnlimitedText && characterCount > domain.MaxFreeTextLength {
		return nil, domain.Forbidden(op, "Text too long for free plan. Upgrade to analyze longer texts.")
	}

	// Quota admission
	if err := s.quota.CheckText(ctx, userID); err != nil {
		metrics.RecordQuotaDenial(metrics.AnalysisTypeText)
		return nil, err
	}

	// Summarize the text. Summarization failures are masked so a flaky AI
	// provider doesn't lose the submission; the placeholder record lets
	// the user retry later.
	summary, actionItems := s.summarize(ctx, text)

	actionItemsJSON, err := json.Marshal(actionItems)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode action items")
	}

	// Create database record
	record, err := s.queries.CreateTextAnalysis(ctx, repository.CreateTextAnalysisParams{
		UserID:         userID,
		Content:        text,
		Summary:        summary,
		ActionItems:    actionItemsJSON,
		CharacterCount: int32(characterCount),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create analysis record")
	}

	// Charge the quota only after the record exists
	if err := s.quota.ConsumeText(ctx, userID); err != nil {
		s.logger.Error("failed to charge text quota", "error", err, "user_id", userID)
	}

	metrics.RecordAnalysis(metrics.AnalysisTypeText)

	s.logger.Info("text analysis completed",
		"user_id", userID,
		"analysis_id", record.ID,
		"character_count", characterCount,
	)

	return s.toDomain(record), nil
}

// =============================================================================
// History
// =============================================================================

// History retrieves the user's most recent text analyses.
func (s *textService) History(ctx context.Context, userID uuid.UUID) ([]domain.TextAnalysis, error) {
	const op = "text.history"

	records, err := s.queries.ListTextAnalysesByUser(ctx, repository.ListTextAnalysesByUserParams{
		UserID: userID,
		Limit:  HistoryLimit,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list analyses")
	}

	analyses := make([]domain.TextAnalysis, 0, len(records))
	for _, record := range records {
		analyses = append(analyses, *s.toDomain(record))
	}

	return analyses, nil
}

// =============================================================================
// GetByID
// =============================================================================

// GetByID retrieves a text analysis by ID with authorization check.
func (s *textService) GetByID(ctx context.Context, analysisID, userID uuid.UUID) (*domain.TextAnalysis, error) {
	const op = "text.get"

	record, err := s.queries.GetTextAnalysis(ctx, analysisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "analysis", analysisID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch analysis")
	}

	if record.UserID != userID {
		return nil, domain.Forbidden(op, "You don't have access to this analysis")
	}

	return s.toDomain(record), nil
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes a text analysis.
func (s *textService) Delete(ctx context.Context, analysisID, userID uuid.UUID) error {
	const op = "text.delete"

	// Authorization check
	if _, err := s.GetByID(ctx, analysisID, userID); err != nil {
		return err
	}

	if err := s.queries.DeleteTextAnalysis(ctx, analysisID); err != nil {
		return domain.Internal(err, op, "failed to delete analysis record")
	}

	return nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// summarize runs the text through the AI summarizer, substituting a
// placeholder summary when the provider fails.
func (s *textService) summarize(ctx context.Context, text string) (string, []string) {
	analysis, err := s.summarizer.Summarize(ctx, text)
	metrics.RecordAICall(metrics.AIProviderSummarization, err == nil)
	if err != nil {
		s.logger.Warn("summarization failed, saving text without analysis", "error", err)
		return UnavailableSummary, []string{}
	}
	return analysis.Summary, analysis.ActionItems
}

// toDomain converts a repository record to the domain type.
func (s *textService) toDomain(record repository.TextAnalysis) *domain.TextAnalysis {
	var actionItems []string
	if err := json.Unmarshal(record.ActionItems, &actionItems); err != nil {
		s.logger.Warn("failed to decode action items", "error", err, "analysis_id", record.ID)
		actionItems = []string{}
	}
	if actionItems == nil {
		actionItems = []string{}
	}

	return &domain.TextAnalysis{
		ID:             record.ID,
		UserID:         record.UserID,
		Text:           record.Content,
		Summary:        record.Summary,
		ActionItems:    actionItems,
		CharacterCount: int(record.CharacterCount),
		CreatedAt:      record.CreatedAt,
	}
}
