package mock

import (
	"context"
	"log/slog"

	"github.com/socialsieve/backend/internal/ai"
)

// Provider is a mock AI provider for testing and development. It
// implements both the Transcriber and Summarizer interfaces.
type Provider struct {
	logger *slog.Logger

	// Configurable responses for testing
	TranscribeResponse *ai.Transcription
	TranscribeError    error
	SummarizeResponse  *ai.Analysis
	SummarizeError     error

	// Call tracking for testing
	TranscribeCalls int
	SummarizeCalls  int
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// Transcribe returns a canned transcription
func (p *Provider) Transcribe(ctx context.Context, params ai.TranscribeParams) (*ai.Transcription, error) {
	p.TranscribeCalls++

	// If a custom response or error is set, use it
	if p.TranscribeError != nil {
		return nil, p.TranscribeError
	}
	if p.TranscribeResponse != nil {
		return p.TranscribeResponse, nil
	}

	// Default canned response
	return &ai.Transcription{
		Text:            "We need to finish the quarterly report by Friday and schedule a review meeting with the design team.",
		Language:        "en",
		DurationSeconds: 42.5,
		Confidence:      0.97,
	}, nil
}

// Summarize returns a canned analysis
func (p *Provider) Summarize(ctx context.Context, text string) (*ai.Analysis, error) {
	p.SummarizeCalls++

	// If a custom response or error is set, use it
	if p.SummarizeError != nil {
		return nil, p.SummarizeError
	}
	if p.SummarizeResponse != nil {
		return p.SummarizeResponse, nil
	}

	// Default canned response
	return &ai.Analysis{
		Summary:     "- Quarterly report is due by Friday\n- A review meeting with the design team needs to be scheduled",
		ActionItems: []string{"Finish the quarterly report by Friday", "Schedule a review meeting with the design team"},
		Raw:         "SUMMARY:\n- Quarterly report is due by Friday\n\nACTION ITEMS:\n- Finish the quarterly report by Friday",
		Model:       "mock-ai-v1",
	}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.TranscribeCalls = 0
	p.SummarizeCalls = 0
	p.TranscribeResponse = nil
	p.TranscribeError = nil
	p.SummarizeResponse = nil
	p.SummarizeError = nil
}

// Compile-time interface checks
var (
	_ ai.Transcriber = (*Provider)(nil)
	_ ai.Summarizer  = (*Provider)(nil)
)
