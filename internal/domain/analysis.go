// Package domain contains core business types and interfaces.
//
// This file defines the analysis record types produced by the voice and text
// ingestion pipelines.
package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAudioSize is the maximum accepted voice recording size (50MB).
	MaxAudioSize = 50 * 1024 * 1024

	// MaxFreeTextLength is the maximum text submission length for free-plan
	// users. Paid plans are exempt from this cap.
	MaxFreeTextLength = 10_000

	// DefaultLanguage is recorded when no language could be determined.
	DefaultLanguage = "unknown"
)

// VoiceAnalysis is the persisted result of one voice recording submission.
// Records are immutable after creation; the only mutation is deletion.
type VoiceAnalysis struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	FileName        string    `json:"file_name"`
	AudioURL        string    `json:"audio_url"`
	StorageKey      string    `json:"-"`
	DurationSeconds int       `json:"duration_seconds"`
	FileSizeBytes   int64     `json:"file_size_bytes"`
	Transcript      string    `json:"transcript"`
	Summary         string    `json:"summary"`
	ActionItems     []string  `json:"action_items"`
	Language        string    `json:"language"`
	CreatedAt       time.Time `json:"created_at"`
}

// TextAnalysis is the persisted result of one text submission.
type TextAnalysis struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Text           string    `json:"text"`
	Summary        string    `json:"summary"`
	ActionItems    []string  `json:"action_items"`
	CharacterCount int       `json:"character_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidateAudioSize checks an upload against the size cap.
func ValidateAudioSize(size int64) error {
	if size <= 0 {
		return Errorf(EINVALID, "", "Audio file is empty")
	}
	if size > MaxAudioSize {
		return Errorf(ETOOLARGE, "", "Audio file exceeds the 50MB limit")
	}
	return nil
}
