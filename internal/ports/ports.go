package ports

import (
	"context"

	"riskboard/internal/domain"
)

// RiskService is the aggregator surface consumed by inbound adapters.
type RiskService interface {
	GetOrCreateDomainRisk(ctx context.Context, appID, domainName string) (domain.DomainRisk, error)
	CreateManualRisk(ctx context.Context, req domain.ManualRiskRequest) (domain.CreationResult, error)
	CreateEvidenceRisk(ctx context.Context, req domain.EvidenceRiskRequest) (domain.CreationResult, error)
	UpdateRiskItemStatus(ctx context.Context, upd domain.ItemStatusUpdate) (domain.RiskItem, domain.DomainRisk, error)
	RecalculateAggregations(ctx context.Context, domainRiskID string) (domain.DomainRisk, error)
	ReassignDomainRisk(ctx context.Context, domainRiskID, newARB, actor string) (domain.DomainRisk, error)
	TransitionDomainRisk(ctx context.Context, domainRiskID string, to domain.DomainRiskStatus, actor string) (domain.DomainRisk, error)

	GetDomainRisk(ctx context.Context, id string) (domain.DomainRisk, error)
	GetRiskItem(ctx context.Context, id string) (domain.RiskItem, error)
	GetDomainRisksForARB(ctx context.Context, arb string, statuses []domain.DomainRiskStatus) ([]domain.DomainRisk, error)
	GetRiskItemsForApp(ctx context.Context, appID string) ([]domain.RiskItem, error)
	GetRiskItemsForDomain(ctx context.Context, domainRiskID string) ([]domain.RiskItem, error)
}

// EventPublisher delivers domain-risk events after commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.DomainRiskEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.DomainRiskEvent) error { return nil }

// HealthChecker reports whether a backing store can serve requests.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
