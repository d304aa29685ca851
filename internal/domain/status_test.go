package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryStatusIsClassified(t *testing.T) {
	for _, s := range AllRiskItemStatuses {
		assert.NotEqual(t, ClassUnknown, s.Class(), "item status %s", s)
	}
	for _, s := range AllDomainRiskStatuses {
		assert.NotEqual(t, ClassUnknown, s.Class(), "domain status %s", s)
	}
	assert.Equal(t, ClassUnknown, RiskItemStatus("BOGUS").Class())
	assert.Equal(t, ClassUnknown, DomainRiskStatus("BOGUS").Class())
}

func TestItemActiveSet(t *testing.T) {
	terminal := map[RiskItemStatus]bool{
		ItemSMEApproved: true, ItemSelfAttested: true, ItemRemediated: true, ItemClosed: true,
	}
	for _, s := range AllRiskItemStatuses {
		assert.Equal(t, !terminal[s], s.IsActive(), "status %s", s)
		assert.Equal(t, terminal[s], s.IsTerminal(), "status %s", s)
	}
}

func TestDomainTerminalSet(t *testing.T) {
	assert.True(t, DomainResolved.IsTerminal())
	assert.True(t, DomainWaived.IsTerminal())
	assert.True(t, DomainClosed.IsTerminal())
	assert.False(t, DomainPendingARBReview.IsTerminal())
	assert.False(t, DomainInProgress.IsTerminal())
}

func TestCanTransitionItem(t *testing.T) {
	tests := []struct {
		from, to RiskItemStatus
		want     bool
	}{
		{ItemPendingReview, ItemSelfAttested, true},
		{ItemPendingReview, ItemUnderSMEReview, true},
		{ItemPendingReview, ItemClosed, false},
		{ItemUnderSMEReview, ItemSMEApproved, true},
		{ItemUnderSMEReview, ItemEscalated, true},
		{ItemAwaitingRemediation, ItemClosed, true},
		{ItemInRemediation, ItemPendingApproval, true},
		{ItemPendingApproval, ItemRemediated, true},
		{ItemPendingApproval, ItemEscalated, true},
		{ItemEscalated, ItemSMEApproved, true},
		{ItemEscalated, ItemClosed, true},
		{ItemSelfAttested, ItemPendingReview, false},
		{ItemClosed, ItemInRemediation, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransitionItem(tc.from, tc.to))
		})
	}
}

func TestCanTransitionDomain(t *testing.T) {
	assert.True(t, CanTransitionDomain(DomainPendingARBReview, DomainUnderARBReview))
	assert.True(t, CanTransitionDomain(DomainUnderARBReview, DomainAwaitingRemediation))
	assert.True(t, CanTransitionDomain(DomainAwaitingRemediation, DomainInProgress))
	assert.True(t, CanTransitionDomain(DomainInProgress, DomainResolved))
	assert.True(t, CanTransitionDomain(DomainPendingARBReview, DomainWaived))
	assert.True(t, CanTransitionDomain(DomainInProgress, DomainClosed))

	assert.False(t, CanTransitionDomain(DomainPendingARBReview, DomainInProgress))
	assert.False(t, CanTransitionDomain(DomainResolved, DomainInProgress))
	assert.False(t, CanTransitionDomain(DomainWaived, DomainClosed))
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityCritical, ParsePriority("CRITICAL"))
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority(""))
	assert.Equal(t, PriorityLow, ParsePriority("urgent"))
	assert.True(t, PriorityCritical.IsHigh())
	assert.True(t, PriorityHigh.IsHigh())
	assert.False(t, PriorityMedium.IsHigh())
}
