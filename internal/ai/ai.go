package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	// Transcribe sends the audio to a speech-to-text provider and returns
	// the transcript with detected language and clip duration.
	Transcribe(ctx context.Context, params TranscribeParams) (*Transcription, error)
}

// Summarizer condenses a transcript or raw text into a summary and a list
// of action items.
type Summarizer interface {
	// Summarize runs the analysis prompt against the language model.
	Summarize(ctx context.Context, text string) (*Analysis, error)
}

// TranscribeParams contains parameters for audio transcription.
type TranscribeParams struct {
	Audio       []byte // Raw audio bytes
	ContentType string // MIME type (e.g., "audio/mpeg")
	FileName    string // Original filename, for logging only
}

// Transcription contains the speech-to-text result.
type Transcription struct {
	Text            string  // Full transcript
	Language        string  // BCP-47 language tag reported by the provider, may be empty
	DurationSeconds float64 // Clip duration reported by the provider, 0 when unknown
	Confidence      float64 // Provider confidence (0-1), 0 when not reported
}

// Analysis contains the parsed summarization result.
type Analysis struct {
	Summary     string   // Bullet-point summary
	ActionItems []string // Extracted tasks, may be empty
	Raw         string   // Unparsed model output, kept for diagnostics
	Model       string   // Model that produced the output
}

// ProviderConfig contains common configuration for AI providers.
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIInvalidAudio indicates the audio format or content is invalid
	EAIInvalidAudio = errors.New("invalid audio format or content")

	// EAIEmptyInput indicates there was nothing to analyze
	EAIEmptyInput = errors.New("empty input")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}
