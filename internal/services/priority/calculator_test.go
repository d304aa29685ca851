package priority

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"riskboard/internal/domain"
)

func TestItemScore(t *testing.T) {
	tests := []struct {
		priority domain.Priority
		status   string
		want     int
	}{
		{domain.PriorityCritical, "missing", 100},
		{domain.PriorityHigh, "missing", 75},
		{domain.PriorityMedium, "missing", 50},
		{domain.PriorityLow, "missing", 25},
		{domain.PriorityHigh, "not_provided", 75},
		{domain.PriorityCritical, "non_compliant", 92},
		{domain.PriorityHigh, "non_compliant", 69},
		{domain.PriorityHigh, "failed", 69},
		{domain.PriorityCritical, "expired", 80},
		{domain.PriorityCritical, "approved", 40},
		{domain.PriorityMedium, "approved", 20},
		{domain.PriorityMedium, "compliant", 20},
		{domain.PriorityLow, "waived", 5},
		{domain.PriorityLow, "exempted", 5},
		{domain.PriorityMedium, "needs_update", 26},
		{domain.PriorityHigh, "pending", 45},
		{domain.PriorityHigh, "under_review", 45},
		{"", "missing", 25},
		{domain.PriorityCritical, "", 80},
		{domain.PriorityCritical, "   ", 80},
		{domain.PriorityMedium, "unknown_status", 30},
		{"BOGUS", "approved", 10},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s/%q", tc.priority, tc.status), func(t *testing.T) {
			assert.Equal(t, tc.want, ItemScore(tc.priority, tc.status))
		})
	}
}

func TestItemScore_CaseInsensitive(t *testing.T) {
	assert.Equal(t, ItemScore(domain.PriorityHigh, "missing"), ItemScore(domain.PriorityHigh, "MISSING"))
	assert.Equal(t, ItemScore(domain.PriorityCritical, "expired"), ItemScore(domain.PriorityCritical, "Expired"))
}

func TestItemScorePtr_NilIsBlank(t *testing.T) {
	assert.Equal(t, 80, ItemScorePtr(domain.PriorityCritical, nil))
	s := "approved"
	assert.Equal(t, 40, ItemScorePtr(domain.PriorityCritical, &s))
}

func TestBlankAndUnknownStatusAreDistinct(t *testing.T) {
	assert.NotEqual(t, ItemScore(domain.PriorityMedium, ""), ItemScore(domain.PriorityMedium, "something_else"))
}

func TestDomainScore(t *testing.T) {
	tests := []struct {
		max, high, open int
		want            int
	}{
		{75, 0, 1, 75},
		{70, 3, 5, 78},
		{80, 10, 15, 95},
		{60, 0, 7, 64},
		{50, 0, 1, 50},
		{50, 0, 2, 50},
		{50, 0, 3, 50},
		{70, 0, 20, 75},
		{80, 5, 10, 95},
		{95, 10, 20, 100},
		{0, 0, 0, 0},
		{80, 2, 0, 0},
		{100, 2, 3, 100},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d/%d/%d", tc.max, tc.high, tc.open), func(t *testing.T) {
			assert.Equal(t, tc.want, DomainScore(tc.max, tc.high, tc.open))
		})
	}
}

func TestFromScore(t *testing.T) {
	tests := []struct {
		score    int
		priority domain.Priority
		label    string
		urgent   bool
	}{
		{100, domain.PriorityCritical, "critical", true},
		{90, domain.PriorityCritical, "critical", true},
		{89, domain.PriorityHigh, "high", true},
		{70, domain.PriorityHigh, "high", true},
		{69, domain.PriorityMedium, "medium", false},
		{40, domain.PriorityMedium, "medium", false},
		{39, domain.PriorityLow, "low", false},
		{0, domain.PriorityLow, "low", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.priority, FromScore(tc.score), "score %d", tc.score)
		assert.Equal(t, tc.label, SeverityLabel(tc.score), "score %d", tc.score)
		assert.Equal(t, tc.urgent, RequiresImmediateAttention(tc.score), "score %d", tc.score)
	}
}
