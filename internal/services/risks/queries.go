package risks

import (
	"context"
	"fmt"
	"strings"

	"riskboard/internal/domain"
)

func (s *Service) GetDomainRisk(ctx context.Context, id string) (domain.DomainRisk, error) {
	dr, err := s.repo.GetDomainRisk(ctx, id)
	if err != nil {
		return domain.DomainRisk{}, fmt.Errorf("domain risk %s: %w", id, err)
	}
	return dr, nil
}

func (s *Service) GetRiskItem(ctx context.Context, id string) (domain.RiskItem, error) {
	item, err := s.repo.GetRiskItem(ctx, id)
	if err != nil {
		return domain.RiskItem{}, fmt.Errorf("risk item %s: %w", id, err)
	}
	return item, nil
}

// GetDomainRisksForARB is the review-board queue, highest priority first.
func (s *Service) GetDomainRisksForARB(ctx context.Context, arb string, statuses []domain.DomainRiskStatus) ([]domain.DomainRisk, error) {
	arb = strings.TrimSpace(arb)
	if arb == "" {
		return nil, fmt.Errorf("%w: arb is required", domain.ErrInvalidInput)
	}
	for _, st := range statuses {
		if st.Class() == domain.ClassUnknown {
			return nil, fmt.Errorf("%w: unknown domain risk status %q", domain.ErrInvalidInput, st)
		}
	}
	return s.repo.ListDomainRisksForARB(ctx, arb, statuses)
}

func (s *Service) GetRiskItemsForApp(ctx context.Context, appID string) ([]domain.RiskItem, error) {
	return s.repo.ListRiskItemsForApp(ctx, appID)
}

func (s *Service) GetRiskItemsForDomain(ctx context.Context, domainRiskID string) ([]domain.RiskItem, error) {
	if _, err := s.repo.GetDomainRisk(ctx, domainRiskID); err != nil {
		return nil, fmt.Errorf("domain risk %s: %w", domainRiskID, err)
	}
	return s.repo.ListRiskItemsForDomainRisk(ctx, domainRiskID)
}

// DomainRiskIDs lists every domain risk id; used by bulk recalculation.
func (s *Service) DomainRiskIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListDomainRiskIDs(ctx)
}
