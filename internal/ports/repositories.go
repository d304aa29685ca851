package ports

import (
	"context"

	"riskboard/internal/domain"
)

// RiskReader serves read-only lookups outside a unit of work.
type RiskReader interface {
	GetDomainRisk(ctx context.Context, id string) (domain.DomainRisk, error)
	FindDomainRisk(ctx context.Context, appID, domainName string) (dr domain.DomainRisk, found bool, err error)
	GetRiskItem(ctx context.Context, id string) (domain.RiskItem, error)
	// ListDomainRisksForARB matches the assigned board when set, else the routed board.
	// Empty statuses means any status. Ordered by priority score then open items, both descending.
	ListDomainRisksForARB(ctx context.Context, arb string, statuses []domain.DomainRiskStatus) ([]domain.DomainRisk, error)
	ListRiskItemsForApp(ctx context.Context, appID string) ([]domain.RiskItem, error)
	ListRiskItemsForDomainRisk(ctx context.Context, domainRiskID string) ([]domain.RiskItem, error)
	ListDomainRiskIDs(ctx context.Context) ([]string, error)
}

// RiskRepository stores domain risks and their items.
type RiskRepository interface {
	RiskReader
	// WithinTx runs fn as one unit of work. A non-nil error from fn aborts every write made through tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx RiskTx) error) error
}

// RiskTx is the write surface of a unit of work. Lock* and GetOrCreate*
// hold the DomainRisk exclusively until the unit of work ends.
type RiskTx interface {
	GetOrCreateDomainRisk(ctx context.Context, seed domain.DomainRisk) (dr domain.DomainRisk, created bool, err error)
	LockDomainRisk(ctx context.Context, id string) (domain.DomainRisk, error)
	UpdateDomainRisk(ctx context.Context, dr domain.DomainRisk) error

	// LockItemKey serialises creations for one (app, field, evidence) key.
	LockItemKey(ctx context.Context, appID, fieldKey string, evidenceID *string) error
	ActiveItemExists(ctx context.Context, appID, fieldKey string, evidenceID *string) (bool, error)
	InsertRiskItem(ctx context.Context, item domain.RiskItem) error
	GetRiskItem(ctx context.Context, id string) (domain.RiskItem, error)
	UpdateRiskItem(ctx context.Context, item domain.RiskItem) error
	ListRiskItemsForDomainRisk(ctx context.Context, domainRiskID string) ([]domain.RiskItem, error)
}
