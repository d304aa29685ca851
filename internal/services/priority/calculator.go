// Package priority scores risk items and domain risks on a 0-100 scale.
//
// All functions are pure and never fail: unknown priorities fall back to LOW,
// unknown evidence statuses to the default multiplier, and results are clamped.
package priority

import (
	"strings"

	"riskboard/internal/domain"
)

const (
	MaxScore = 100

	// Multipliers are kept in tenths so base*multiplier floors exactly.
	blankStatusMultiplier   = 20
	unknownStatusMultiplier = 15

	highBonusPerItem = 2
	highBonusCap     = 10
	volumeThreshold  = 3
	volumeBonusCap   = 5

	ImmediateAttentionThreshold = 70
)

var baseScores = map[domain.Priority]int{
	domain.PriorityCritical: 40,
	domain.PriorityHigh:     30,
	domain.PriorityMedium:   20,
	domain.PriorityLow:      10,
}

var statusMultipliers = map[string]int{
	"missing":       25,
	"not_provided":  25,
	"non_compliant": 23,
	"failed":        23,
	"expired":       20,
	"under_review":  15,
	"pending":       15,
	"needs_update":  13,
	"approved":      10,
	"compliant":     10,
	"waived":        5,
	"exempted":      5,
}

// BaseScore returns the unmodified score for a priority; unknown values score as LOW.
func BaseScore(p domain.Priority) int {
	if s, ok := baseScores[p]; ok {
		return s
	}
	return baseScores[domain.PriorityLow]
}

// multiplierTenths resolves an evidence status to its multiplier in tenths.
// A blank status and an unrecognised non-blank status are separate entries.
func multiplierTenths(evidenceStatus string) int {
	s := strings.ToLower(strings.TrimSpace(evidenceStatus))
	if s == "" {
		return blankStatusMultiplier
	}
	if m, ok := statusMultipliers[s]; ok {
		return m
	}
	return unknownStatusMultiplier
}

// ItemScore computes min(100, floor(base * multiplier)) for one risk item.
func ItemScore(p domain.Priority, evidenceStatus string) int {
	return clamp(BaseScore(p) * multiplierTenths(evidenceStatus) / 10)
}

// ItemScorePtr is ItemScore for an optional evidence status; nil is treated as blank.
func ItemScorePtr(p domain.Priority, evidenceStatus *string) int {
	if evidenceStatus == nil {
		return ItemScore(p, "")
	}
	return ItemScore(p, *evidenceStatus)
}

// DomainScore combines the highest open item score with bonuses for high
// priority and volume. No open items means a score of zero.
func DomainScore(maxItemScore, highPriorityOpen, totalOpen int) int {
	if totalOpen <= 0 {
		return 0
	}
	highBonus := min(highBonusCap, max(0, highPriorityOpen)*highBonusPerItem)
	volumeBonus := min(volumeBonusCap, max(0, totalOpen-volumeThreshold))
	return clamp(maxItemScore + highBonus + volumeBonus)
}

// FromScore maps a score back onto a priority bucket.
func FromScore(score int) domain.Priority {
	switch {
	case score >= 90:
		return domain.PriorityCritical
	case score >= 70:
		return domain.PriorityHigh
	case score >= 40:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// SeverityLabel is the lowercase name of the FromScore bucket.
func SeverityLabel(score int) string {
	return strings.ToLower(string(FromScore(score)))
}

func RequiresImmediateAttention(score int) bool {
	return score >= ImmediateAttentionThreshold
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
