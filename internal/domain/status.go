package domain

// RiskItemStatus is the lifecycle state of a single finding.
type RiskItemStatus string

const (
	ItemPendingReview       RiskItemStatus = "PENDING_REVIEW"
	ItemSelfAttested        RiskItemStatus = "SELF_ATTESTED"
	ItemUnderSMEReview      RiskItemStatus = "UNDER_SME_REVIEW"
	ItemSMEApproved         RiskItemStatus = "SME_APPROVED"
	ItemAwaitingRemediation RiskItemStatus = "AWAITING_REMEDIATION"
	ItemInRemediation       RiskItemStatus = "IN_REMEDIATION"
	ItemPendingApproval     RiskItemStatus = "PENDING_APPROVAL"
	ItemRemediated          RiskItemStatus = "REMEDIATED"
	ItemEscalated           RiskItemStatus = "ESCALATED"
	ItemClosed              RiskItemStatus = "CLOSED"
)

// AllRiskItemStatuses lists every variant. Keep in sync with classifyItem.
var AllRiskItemStatuses = []RiskItemStatus{
	ItemPendingReview, ItemSelfAttested, ItemUnderSMEReview, ItemSMEApproved,
	ItemAwaitingRemediation, ItemInRemediation, ItemPendingApproval,
	ItemRemediated, ItemEscalated, ItemClosed,
}

// DomainRiskStatus is the lifecycle state of an aggregate.
type DomainRiskStatus string

const (
	DomainPendingARBReview    DomainRiskStatus = "PENDING_ARB_REVIEW"
	DomainUnderARBReview      DomainRiskStatus = "UNDER_ARB_REVIEW"
	DomainAwaitingRemediation DomainRiskStatus = "AWAITING_REMEDIATION"
	DomainInProgress          DomainRiskStatus = "IN_PROGRESS"
	DomainResolved            DomainRiskStatus = "RESOLVED"
	DomainWaived              DomainRiskStatus = "WAIVED"
	DomainClosed              DomainRiskStatus = "CLOSED"
)

// AllDomainRiskStatuses lists every variant. Keep in sync with classifyDomain.
var AllDomainRiskStatuses = []DomainRiskStatus{
	DomainPendingARBReview, DomainUnderARBReview, DomainAwaitingRemediation,
	DomainInProgress, DomainResolved, DomainWaived, DomainClosed,
}

type StatusClass int

const (
	ClassUnknown StatusClass = iota
	ClassActive
	ClassTerminal
)

func classifyItem(s RiskItemStatus) StatusClass {
	switch s {
	case ItemPendingReview, ItemUnderSMEReview, ItemAwaitingRemediation,
		ItemInRemediation, ItemPendingApproval, ItemEscalated:
		return ClassActive
	case ItemSMEApproved, ItemSelfAttested, ItemRemediated, ItemClosed:
		return ClassTerminal
	}
	return ClassUnknown
}

func classifyDomain(s DomainRiskStatus) StatusClass {
	switch s {
	case DomainPendingARBReview, DomainUnderARBReview, DomainAwaitingRemediation, DomainInProgress:
		return ClassActive
	case DomainResolved, DomainWaived, DomainClosed:
		return ClassTerminal
	}
	return ClassUnknown
}

func (s RiskItemStatus) Class() StatusClass   { return classifyItem(s) }
func (s RiskItemStatus) IsActive() bool       { return classifyItem(s) == ClassActive }
func (s RiskItemStatus) IsTerminal() bool     { return classifyItem(s) == ClassTerminal }
func (s DomainRiskStatus) Class() StatusClass { return classifyDomain(s) }
func (s DomainRiskStatus) IsTerminal() bool   { return classifyDomain(s) == ClassTerminal }

// Transition graphs. Self-transitions are handled by the callers.
var itemTransitions = map[RiskItemStatus][]RiskItemStatus{
	ItemPendingReview:       {ItemSelfAttested, ItemUnderSMEReview},
	ItemUnderSMEReview:      {ItemSMEApproved, ItemAwaitingRemediation, ItemEscalated},
	ItemAwaitingRemediation: {ItemInRemediation, ItemClosed},
	ItemInRemediation:       {ItemPendingApproval},
	ItemPendingApproval:     {ItemRemediated, ItemEscalated},
	ItemEscalated:           {ItemSMEApproved, ItemClosed},
}

var domainTransitions = map[DomainRiskStatus][]DomainRiskStatus{
	DomainPendingARBReview:    {DomainUnderARBReview, DomainWaived, DomainClosed},
	DomainUnderARBReview:      {DomainAwaitingRemediation, DomainWaived, DomainClosed},
	DomainAwaitingRemediation: {DomainInProgress, DomainWaived, DomainClosed},
	DomainInProgress:          {DomainResolved, DomainWaived, DomainClosed},
}

// CanTransitionItem reports whether the documented item graph allows from -> to.
func CanTransitionItem(from, to RiskItemStatus) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionDomain reports whether a manual ARB move from -> to is allowed.
// Terminal -> IN_PROGRESS happens only through the automatic reopen rule.
func CanTransitionDomain(from, to DomainRiskStatus) bool {
	for _, next := range domainTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
