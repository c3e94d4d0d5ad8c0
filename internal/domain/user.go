// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication.
// These types are separate from the repository models to allow for business logic
// enrichment and to decouple the domain layer from the database layer.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// PlanTier represents the subscription plan of a user.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPro     PlanTier = "pro"
	PlanCreator PlanTier = "creator"
)

// Valid checks if the plan tier is a known value.
func (p PlanTier) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanCreator:
		return true
	default:
		return false
	}
}

// User represents a registered user of the SocialSieve platform.
//
// This is the domain representation of a user, designed for use in business logic.
// It differs from repository.User in that:
// - It uses proper Go types instead of sql.Null* types where appropriate
// - It carries the embedded usage ledger for quota decisions
// - It can be extended with computed properties without affecting the database layer
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // Never expose this in API responses
	Name         string
	Plan         PlanTier
	IsActive     bool
	Usage        UsageLedger
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Limits returns the monthly limits for the user's plan.
func (u *User) Limits() PlanLimits {
	return GetPlanLimits(u.Plan)
}

// CanConsumeVoice reports whether the user may spend the given number of
// voice minutes this period. Callers must apply ResetIfNewPeriod first.
func (u *User) CanConsumeVoice(minutes int) bool {
	limits := u.Limits()
	if limits.UnlimitedVoice {
		return true
	}
	return u.Usage.VoiceMinutesUsed+minutes <= limits.VoiceMinutesPerMonth
}

// CanConsumeText reports whether the user may run one more text analysis
// this period. Callers must apply ResetIfNewPeriod first.
func (u *User) CanConsumeText() bool {
	limits := u.Limits()
	if limits.UnlimitedText {
		return true
	}
	return u.Usage.TextAnalysesUsed+1 <= limits.TextAnalysesPerMonth
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token.
// The raw token is only given to the client once (at login).
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string // Raw password, will be hashed by service
	Name     string
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
