// Package service contains the business logic layer.
//
// This file implements the quota service for checking and enforcing
// monthly usage limits based on subscription plan.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/socialsieve/backend/internal/domain"
	"github.com/socialsieve/backend/internal/repository"
)

// =============================================================================
// Interface Definition
// =============================================================================

// QuotaService defines operations for checking and recording quota usage.
//
// Counters reset when a check or consume touches a user whose last reset
// falls in a different calendar month. Check and Consume are separate calls
// so the admission decision can happen at the right point in a pipeline
// (for voice, after the upload) and the charge only after the work succeeds.
type QuotaService interface {
	// GetUsage returns the current quota usage for a user, applying the
	// monthly reset if a new period has started.
	GetUsage(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error)

	// CheckVoice checks if the user has quota remaining for the given
	// number of voice minutes. Returns nil if admission is allowed, or a
	// QuotaExceeded error (EFORBIDDEN) if the limit would be crossed.
	CheckVoice(ctx context.Context, userID uuid.UUID, minutes int) error

	// CheckText checks if the user has a text analysis remaining this month.
	CheckText(ctx context.Context, userID uuid.UUID) error

	// ConsumeVoice charges the given number of voice minutes against the
	// user's monthly counter.
	ConsumeVoice(ctx context.Context, userID uuid.UUID, minutes int) error

	// ConsumeText charges one text analysis against the user's monthly counter.
	ConsumeText(ctx context.Context, userID uuid.UUID) error
}

// QuotaQueries is the subset of repository queries the quota service uses.
type QuotaQueries interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	ResetUsage(ctx context.Context, arg repository.ResetUsageParams) (repository.User, error)
	IncrementVoiceUsage(ctx context.Context, arg repository.IncrementVoiceUsageParams) (repository.User, error)
	IncrementTextUsage(ctx context.Context, id uuid.UUID) (repository.User, error)
}

var _ QuotaQueries = (*repository.Queries)(nil)

// =============================================================================
// Implementation
// =============================================================================

type quotaService struct {
	queries QuotaQueries
	logger  *slog.Logger
	now     func() time.Time
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(queries QuotaQueries, logger *slog.Logger) QuotaService {
	return &quotaService{
		queries: queries,
		logger:  logger,
		now:     time.Now,
	}
}

// GetUsage returns the current quota usage for a user.
func (s *quotaService) GetUsage(ctx context.Context, userID uuid.UUID) (*domain.QuotaUsage, error) {
	const op = "quota.get_usage"

	user, err := s.currentUser(ctx, op, userID)
	if err != nil {
		return nil, err
	}

	limits := user.Limits()

	// Unlimited plans report no caps
	if limits.UnlimitedVoice && limits.UnlimitedText {
		return &domain.QuotaUsage{
			VoiceMinutesUsed: user.Usage.VoiceMinutesUsed,
			TextAnalysesUsed: user.Usage.TextAnalysesUsed,
			IsUnlimited:      true,
		}, nil
	}

	return &domain.QuotaUsage{
		VoiceMinutesUsed:  user.Usage.VoiceMinutesUsed,
		VoiceMinutesLimit: limits.VoiceMinutesPerMonth,
		TextAnalysesUsed:  user.Usage.TextAnalysesUsed,
		TextAnalysesLimit: limits.TextAnalysesPerMonth,
		IsUnlimited:       false,
	}, nil
}

// CheckVoice checks if the user has quota remaining for voice minutes.
func (s *quotaService) CheckVoice(ctx context.Context, userID uuid.UUID, minutes int) error {
	const op = "quota.check_voice"

	user, err := s.currentUser(ctx, op, userID)
	if err != nil {
		return err
	}

	if user.CanConsumeVoice(minutes) {
		return nil
	}

	limits := user.Limits()
	s.logger.Info("voice quota denied",
		"user_id", userID,
		"used", user.Usage.VoiceMinutesUsed,
		"limit", limits.VoiceMinutesPerMonth,
		"requested", minutes,
	)

	return domain.QuotaExceeded(op, domain.QuotaTypeVoice, user.Usage.VoiceMinutesUsed, limits.VoiceMinutesPerMonth)
}

// CheckText checks if the user has a text analysis remaining this month.
func (s *quotaService) CheckText(ctx context.Context, userID uuid.UUID) error {
	const op = "quota.check_text"

	user, err := s.currentUser(ctx, op, userID)
	if err != nil {
		return err
	}

	if user.CanConsumeText() {
		return nil
	}

	limits := user.Limits()
	s.logger.Info("text quota denied",
		"user_id", userID,
		"used", user.Usage.TextAnalysesUsed,
		"limit", limits.TextAnalysesPerMonth,
	)

	return domain.QuotaExceeded(op, domain.QuotaTypeText, user.Usage.TextAnalysesUsed, limits.TextAnalysesPerMonth)
}

// ConsumeVoice charges voice minutes against the user's monthly counter.
// The monthly reset is applied first so a charge straddling a month
// boundary books into the new period instead of the stale one.
func (s *quotaService) ConsumeVoice(ctx context.Context, userID uuid.UUID, minutes int) error {
	const op = "quota.consume_voice"

	if _, err := s.currentUser(ctx, op, userID); err != nil {
		return err
	}

	_, err := s.queries.IncrementVoiceUsage(ctx, repository.IncrementVoiceUsageParams{
		ID:               userID,
		VoiceMinutesUsed: int32(minutes),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", userID.String())
		}
		return domain.Internal(err, op, "failed to record voice usage")
	}

	return nil
}

// ConsumeText charges one text analysis against the user's monthly counter,
// applying the monthly reset first like ConsumeVoice.
func (s *quotaService) ConsumeText(ctx context.Context, userID uuid.UUID) error {
	const op = "quota.consume_text"

	if _, err := s.currentUser(ctx, op, userID); err != nil {
		return err
	}

	_, err := s.queries.IncrementTextUsage(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", userID.String())
		}
		return domain.Internal(err, op, "failed to record text usage")
	}

	return nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// currentUser loads a user and applies the monthly reset if the stored
// counters belong to a previous calendar month. The reset is persisted so
// subsequent reads see zeroed counters.
func (s *quotaService) currentUser(ctx context.Context, op string, userID uuid.UUID) (*domain.User, error) {
	repoUser, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, domain.Internal(err, op, "failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)

	now := s.now()
	if user.Usage.ResetIfNewPeriod(now) {
		repoUser, err = s.queries.ResetUsage(ctx, repository.ResetUsageParams{
			ID:           userID,
			UsageResetAt: now,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to reset usage counters")
		}
		s.logger.Info("usage counters reset", "user_id", userID)
		user = repoUserToDomain(repoUser)
	}

	return user, nil
}
