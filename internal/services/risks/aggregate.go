package risks

import (
	"time"

	"riskboard/internal/domain"
	"riskboard/internal/services/priority"
)

// Aggregates are the derived fields of a DomainRisk. They are only ever
// computed from the live item set, never edited by hand.
type Aggregates struct {
	TotalItems        int
	OpenItems         int
	HighPriorityItems int
	MaxOpenItemScore  int
	PriorityScore     int
	OverallPriority   domain.Priority
	OverallSeverity   string
}

// Aggregate computes the derived fields for a set of items belonging to one domain risk.
func Aggregate(items []domain.RiskItem) Aggregates {
	var a Aggregates
	a.TotalItems = len(items)
	for _, it := range items {
		if !it.IsActive() {
			continue
		}
		a.OpenItems++
		if it.Priority.IsHigh() {
			a.HighPriorityItems++
		}
		if it.PriorityScore > a.MaxOpenItemScore {
			a.MaxOpenItemScore = it.PriorityScore
		}
	}
	a.PriorityScore = priority.DomainScore(a.MaxOpenItemScore, a.HighPriorityItems, a.OpenItems)
	a.OverallPriority = priority.FromScore(a.PriorityScore)
	a.OverallSeverity = priority.SeverityLabel(a.PriorityScore)
	return a
}

func applyAggregates(dr domain.DomainRisk, a Aggregates) domain.DomainRisk {
	dr.TotalItems = a.TotalItems
	dr.OpenItems = a.OpenItems
	dr.HighPriorityItems = a.HighPriorityItems
	dr.PriorityScore = a.PriorityScore
	dr.OverallPriority = a.OverallPriority
	dr.OverallSeverity = a.OverallSeverity
	return dr
}

func sameAggregates(a, b domain.DomainRisk) bool {
	return a.TotalItems == b.TotalItems &&
		a.OpenItems == b.OpenItems &&
		a.HighPriorityItems == b.HighPriorityItems &&
		a.PriorityScore == b.PriorityScore &&
		a.OverallPriority == b.OverallPriority &&
		a.OverallSeverity == b.OverallSeverity
}

// settle applies the automatic status rules after aggregates were refreshed.
// A non-terminal domain risk with items and none open closes as RESOLVED.
// A terminal one reopens to IN_PROGRESS only when the change itself opened an item.
func settle(dr domain.DomainRisk, openedByChange bool, now time.Time) domain.DomainRisk {
	switch {
	case dr.OpenItems == 0 && dr.TotalItems > 0 && !dr.Status.IsTerminal():
		dr.Status = domain.DomainResolved
		dr.ClosedAt = &now
	case dr.Status.IsTerminal() && dr.OpenItems > 0 && openedByChange:
		dr.Status = domain.DomainInProgress
		dr.ClosedAt = nil
	}
	return dr
}
