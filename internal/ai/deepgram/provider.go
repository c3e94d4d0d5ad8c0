// Package deepgram implements speech-to-text using the Deepgram API.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/socialsieve/backend/internal/ai"
)

const (
	// APIBaseURL is the base URL for the Deepgram transcription API
	APIBaseURL = "https://api.deepgram.com/v1/listen"

	// DefaultModel is the default Deepgram model to use
	DefaultModel = "nova-2"
)

// Config contains configuration for the Deepgram provider
type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

// Provider implements the Transcriber interface using Deepgram
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new Deepgram transcription provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("deepgram API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.MaxRetries == 0 {
		config.ProviderConfig.MaxRetries = 3
	}
	if config.ProviderConfig.RetryBaseDelay == 0 {
		config.ProviderConfig.RetryBaseDelay = 1 * time.Second
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = 60 * time.Second
	}

	return &Provider{
		config: config,
		client: &http.Client{
			Timeout: config.ProviderConfig.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// Transcribe sends audio to Deepgram and returns the transcript.
func (p *Provider) Transcribe(ctx context.Context, params ai.TranscribeParams) (*ai.Transcription, error) {
	if len(params.Audio) == 0 {
		return nil, ai.WrapError("transcribe", ai.EAIInvalidAudio)
	}
	if params.ContentType == "" {
		return nil, ai.WrapError("transcribe", fmt.Errorf("%w: content type is required", ai.EAIInvalidAudio))
	}

	resp, err := p.executeWithRetry(ctx, params)
	if err != nil {
		return nil, ai.WrapError("transcribe", err)
	}

	result, err := p.parseResponse(resp)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}

	p.logger.Debug("transcription complete",
		"file", params.FileName,
		"duration_seconds", result.DurationSeconds,
		"language", result.Language,
	)

	return result, nil
}

// executeWithRetry executes the transcription request with exponential backoff.
// The request is rebuilt per attempt since the body is consumed on send.
func (p *Provider) executeWithRetry(ctx context.Context, params ai.TranscribeParams) (*apiResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		req, err := p.buildRequest(ctx, params)
		if err != nil {
			return nil, err
		}

		resp, err := p.executeRequest(req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		// Only retry on retryable errors
		if !ai.IsRetryable(err) {
			return nil, err
		}

		if attempt >= p.config.ProviderConfig.MaxRetries {
			break
		}

		// Exponential backoff: base * 2^(attempt-1)
		delay := p.config.ProviderConfig.RetryBaseDelay * time.Duration(1<<(attempt-1))
		p.logger.Info("Retrying transcription request", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// buildRequest builds the HTTP request for a transcription attempt.
func (p *Provider) buildRequest(ctx context.Context, params ai.TranscribeParams) (*http.Request, error) {
	query := url.Values{}
	query.Set("model", p.config.Model)
	query.Set("smart_format", "true")
	query.Set("detect_language", "true")

	req, err := http.NewRequestWithContext(ctx, "POST", APIBaseURL+"?"+query.Encode(), bytes.NewReader(params.Audio))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+p.config.APIKey)
	req.Header.Set("Content-Type", params.ContentType)

	return req, nil
}

// executeRequest executes a single HTTP request
func (p *Provider) executeRequest(req *http.Request) (*apiResponse, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		// Network errors are typically retryable
		return nil, ai.EAIUnavailable
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to provider errors
func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout:
		return ai.EAITimeout
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return fmt.Errorf("%w: %s", ai.EAIInvalidAudio, errResp.ErrMsg)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.ErrMsg)
	}
}

// parseResponse extracts the transcript from the API response.
func (p *Provider) parseResponse(resp *apiResponse) (*ai.Transcription, error) {
	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return nil, fmt.Errorf("empty transcription result")
	}

	channel := resp.Results.Channels[0]
	alt := channel.Alternatives[0]

	return &ai.Transcription{
		Text:            alt.Transcript,
		Language:        channel.DetectedLanguage,
		DurationSeconds: resp.Metadata.Duration,
		Confidence:      alt.Confidence,
	}, nil
}

// API request/response types

type apiResponse struct {
	Metadata apiMetadata `json:"metadata"`
	Results  apiResults  `json:"results"`
}

type apiMetadata struct {
	Duration float64 `json:"duration"`
}

type apiResults struct {
	Channels []apiChannel `json:"channels"`
}

type apiChannel struct {
	Alternatives     []apiAlternative `json:"alternatives"`
	DetectedLanguage string           `json:"detected_language"`
}

type apiAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type apiErrorResponse struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// Compile-time interface check
var _ ai.Transcriber = (*Provider)(nil)
