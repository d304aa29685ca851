package domain

import "time"

// Core domain models. A RiskItem never holds a pointer to its DomainRisk; it
// references the parent only by DomainRiskID, and aggregates are always
// recomputed by re-querying items on that key.

type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// ParsePriority is lenient: unknown or empty input yields LOW.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s)
	}
	return PriorityLow
}

// IsHigh reports whether p counts toward a domain's high-priority items.
func (p Priority) IsHigh() bool {
	return p == PriorityCritical || p == PriorityHigh
}

type CreationType string

const (
	CreationSystemAuto CreationType = "SYSTEM_AUTO_CREATION"
	CreationManual     CreationType = "MANUAL_CREATION"
)

type RiskItem struct {
	ID                   string         `json:"id"`
	DomainRiskID         string         `json:"domainRiskId"`
	AppID                string         `json:"appId"`
	FieldKey             string         `json:"fieldKey"`
	ProfileFieldID       *string        `json:"profileFieldId,omitempty"`
	TriggeringEvidenceID *string        `json:"triggeringEvidenceId,omitempty"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Hypothesis           string         `json:"hypothesis"`
	Condition            string         `json:"condition"`
	Consequence          string         `json:"consequence"`
	ControlRefs          []string       `json:"controlRefs,omitempty"`
	Priority             Priority       `json:"priority"`
	EvidenceStatus       *string        `json:"evidenceStatus,omitempty"`
	PriorityScore        int            `json:"priorityScore"`
	Status               RiskItemStatus `json:"status"`
	CreationType         CreationType   `json:"creationType"`
	RaisedBy             string         `json:"raisedBy"`
	Resolution           *string        `json:"resolution,omitempty"`
	ResolutionComment    *string        `json:"resolutionComment,omitempty"`
	OpenedAt             time.Time      `json:"openedAt"`
	ResolvedAt           *time.Time     `json:"resolvedAt,omitempty"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// IsActive reports whether the item still counts as open.
func (r RiskItem) IsActive() bool { return r.Status.IsActive() }

type DomainRisk struct {
	ID                string           `json:"id"`
	AppID             string           `json:"appId"`
	Domain            string           `json:"domain"`
	ARB               string           `json:"arb"`
	Status            DomainRiskStatus `json:"status"`
	TotalItems        int              `json:"totalItems"`
	OpenItems         int              `json:"openItems"`
	HighPriorityItems int              `json:"highPriorityItems"`
	PriorityScore     int              `json:"priorityScore"`
	OverallPriority   Priority         `json:"overallPriority"`
	OverallSeverity   string           `json:"overallSeverity"`
	LastItemAddedAt   *time.Time       `json:"lastItemAddedAt,omitempty"`
	AssignedARB       *string          `json:"assignedArb,omitempty"`
	AssignedAt        *time.Time       `json:"assignedAt,omitempty"`
	ClosedAt          *time.Time       `json:"closedAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// DomainRiskEvent is emitted after a committed change to a DomainRisk.
type DomainRiskEvent struct {
	Type           string           `json:"type"`
	DomainRiskID   string           `json:"domainRiskId"`
	AppID          string           `json:"appId"`
	Domain         string           `json:"domain"`
	ARB            string           `json:"arb"`
	Status         DomainRiskStatus `json:"status"`
	PreviousStatus DomainRiskStatus `json:"previousStatus,omitempty"`
	PriorityScore  int              `json:"priorityScore"`
	OpenItems      int              `json:"openItems"`
	Actor          string           `json:"actor,omitempty"`
	OccurredAt     time.Time        `json:"occurredAt"`
}

const (
	EventDomainRiskCreated       = "domain_risk.created"
	EventDomainRiskResolved      = "domain_risk.resolved"
	EventDomainRiskReopened      = "domain_risk.reopened"
	EventDomainRiskStatusChanged = "domain_risk.status_changed"
	EventDomainRiskReassigned    = "domain_risk.reassigned"
)
