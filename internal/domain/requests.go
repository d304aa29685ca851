package domain

// ManualRiskRequest carries the content of a manually raised risk.
type ManualRiskRequest struct {
	AppID          string   `json:"-" validate:"required"`
	FieldKey       string   `json:"fieldKey" validate:"required"`
	ProfileFieldID *string  `json:"profileFieldId,omitempty"`
	Title          string   `json:"title" validate:"required,max=500"`
	Description    string   `json:"description"`
	Hypothesis     string   `json:"hypothesis"`
	Condition      string   `json:"condition"`
	Consequence    string   `json:"consequence"`
	ControlRefs    []string `json:"controlRefs"`
	Priority       Priority `json:"priority" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	RaisedBy       string   `json:"raisedBy" validate:"required"`
	EvidenceID     *string  `json:"evidenceId,omitempty"`
	Domain         string   `json:"domain" validate:"required"`
}

// EvidenceRiskRequest is what the evidence-review workflow supplies.
type EvidenceRiskRequest struct {
	AppID          string    `json:"-" validate:"required"`
	FieldKey       string    `json:"fieldKey" validate:"required"`
	ProfileFieldID *string   `json:"profileFieldId,omitempty"`
	EvidenceID     *string   `json:"evidenceId,omitempty"`
	EvidenceStatus *string   `json:"evidenceStatus,omitempty"`
	Priority       *Priority `json:"priority,omitempty" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	Domain         string    `json:"domain" validate:"required"`
	Title          string    `json:"title" validate:"required,max=500"`
	Description    string    `json:"description"`
}

// ItemStatusUpdate is an SME/PO review action on one item.
type ItemStatusUpdate struct {
	RiskItemID string         `json:"-" validate:"required"`
	Status     RiskItemStatus `json:"status" validate:"required"`
	Resolution *string        `json:"resolution,omitempty"`
	Comment    *string        `json:"comment,omitempty"`
}

const ReasonDuplicateRiskItem = "duplicate_risk_item"

// CreationResult is returned by the creation paths. Duplicates are reported
// with Created=false and a Reason rather than an error.
type CreationResult struct {
	Created    bool        `json:"created"`
	Reason     string      `json:"reason,omitempty"`
	RiskItem   *RiskItem   `json:"riskItem,omitempty"`
	DomainRisk *DomainRisk `json:"domainRisk,omitempty"`
}
