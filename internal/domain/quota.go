// Package domain contains core business types and interfaces.
//
// This file defines the monthly usage ledger and per-plan limits that gate
// voice and text analysis submissions.
package domain

import "time"

// QuotaType identifies the type of quota being checked.
type QuotaType string

const (
	QuotaTypeVoice QuotaType = "voice"
	QuotaTypeText  QuotaType = "text"
)

// Unit returns the human-readable unit for quota denial messages.
func (q QuotaType) Unit() string {
	switch q {
	case QuotaTypeVoice:
		return "minutes"
	case QuotaTypeText:
		return "analyses"
	default:
		return "units"
	}
}

// PlanLimits defines the monthly limits for a plan tier.
type PlanLimits struct {
	VoiceMinutesPerMonth int
	TextAnalysesPerMonth int
	UnlimitedVoice       bool
	UnlimitedText        bool
}

// PlanLimitsByTier maps plan tiers to their monthly limits.
// Free tier has strict limits; paid tiers are unlimited.
var PlanLimitsByTier = map[PlanTier]PlanLimits{
	PlanFree: {
		VoiceMinutesPerMonth: 30,
		TextAnalysesPerMonth: 20,
	},
	PlanPro: {
		UnlimitedVoice: true,
		UnlimitedText:  true,
	},
	PlanCreator: {
		UnlimitedVoice: true,
		UnlimitedText:  true,
	},
}

// GetPlanLimits returns the limits for a tier, defaulting to free for unknown tiers.
func GetPlanLimits(tier PlanTier) PlanLimits {
	if limits, ok := PlanLimitsByTier[tier]; ok {
		return limits
	}
	return PlanLimitsByTier[PlanFree]
}

// UsageLedger tracks a user's consumption within the current calendar month.
// Counters only grow during a period; the only path back to zero is the
// period rollover in ResetIfNewPeriod.
type UsageLedger struct {
	VoiceMinutesUsed int
	TextAnalysesUsed int
	LastReset        time.Time
}

// ResetIfNewPeriod zeroes both counters when now falls in a different
// calendar month (or year) than LastReset. Returns true if a reset was
// applied. Idempotent within a period.
func (l *UsageLedger) ResetIfNewPeriod(now time.Time) bool {
	if now.Month() == l.LastReset.Month() && now.Year() == l.LastReset.Year() {
		return false
	}
	l.VoiceMinutesUsed = 0
	l.TextAnalysesUsed = 0
	l.LastReset = now
	return true
}

// QuotaUsage reports current usage against plan limits.
type QuotaUsage struct {
	VoiceMinutesUsed  int `json:"voice_minutes_used"`
	VoiceMinutesLimit int `json:"voice_minutes_limit"`
	TextAnalysesUsed  int `json:"text_analyses_used"`
	TextAnalysesLimit int `json:"text_analyses_limit"`
	IsUnlimited       bool `json:"is_unlimited"`
}

// VoiceMinutes converts a clip duration to billable minutes.
// Every submission costs at least one minute; beyond that, whole minutes
// are floored (95s costs 1 minute, 150s costs 2).
func VoiceMinutes(durationSeconds int) int {
	minutes := durationSeconds / 60
	if minutes < 1 {
		return 1
	}
	return minutes
}
