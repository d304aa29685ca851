// Package risks maintains domain risks: the per (application, rating domain)
// aggregates built from individually raised risk items.
//
// Every write runs as one unit of work against the parent DomainRisk: the
// row is locked, the item mutation applied, aggregates recomputed from the
// stored items and the automatic status rules evaluated before commit.
// Events are published only after the unit of work commits.
package risks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"riskboard/internal/arb"
	"riskboard/internal/domain"
	"riskboard/internal/metrics"
	"riskboard/internal/ports"
	"riskboard/internal/services/priority"
)

var validate = validator.New()

type Options struct {
	// StrictTransitions rejects item status changes outside the documented graph.
	StrictTransitions bool
	Now               func() time.Time
	NewID             func() string
}

type Service struct {
	repo   ports.RiskRepository
	routes *arb.Table
	events ports.EventPublisher
	log    *zap.Logger
	strict bool
	now    func() time.Time
	newID  func() string
}

var _ ports.RiskService = (*Service)(nil)

func New(repo ports.RiskRepository, routes *arb.Table, events ports.EventPublisher, log *zap.Logger, opts Options) *Service {
	s := &Service{
		repo:   repo,
		routes: routes,
		events: events,
		log:    log,
		strict: opts.StrictTransitions,
		now:    opts.Now,
		newID:  opts.NewID,
	}
	if s.events == nil {
		s.events = ports.NopPublisher{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// GetOrCreateDomainRisk returns the aggregate for (appID, domainName), creating
// it in PENDING_ARB_REVIEW with its routed board on first use.
func (s *Service) GetOrCreateDomainRisk(ctx context.Context, appID, domainName string) (domain.DomainRisk, error) {
	appID, domainName = strings.TrimSpace(appID), strings.TrimSpace(domainName)
	if appID == "" || domainName == "" {
		return domain.DomainRisk{}, fmt.Errorf("%w: app id and domain are required", domain.ErrInvalidInput)
	}
	var (
		dr     domain.DomainRisk
		events []domain.DomainRiskEvent
	)
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.RiskTx) error {
		events = events[:0]
		var created bool
		var err error
		dr, created, err = s.getOrCreate(ctx, tx, appID, domainName)
		if err != nil {
			return err
		}
		if created {
			events = append(events, s.event(domain.EventDomainRiskCreated, dr, "", ""))
		}
		return nil
	})
	if err != nil {
		return domain.DomainRisk{}, err
	}
	s.publish(ctx, events)
	return dr, nil
}

// AddRiskItemToDomain files item under an existing domain risk.
func (s *Service) AddRiskItemToDomain(ctx context.Context, domainRiskID string, item domain.RiskItem) (domain.RiskItem, domain.DomainRisk, error) {
	var (
		dr     domain.DomainRisk
		events []domain.DomainRiskEvent
	)
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.RiskTx) error {
		events = events[:0]
		locked, err := tx.LockDomainRisk(ctx, domainRiskID)
		if err != nil {
			return fmt.Errorf("lock domain risk %s: %w", domainRiskID, err)
		}
		item, dr, events, err = s.addItem(ctx, tx, locked, item, events)
		return err
	})
	if err != nil {
		return domain.RiskItem{}, domain.DomainRisk{}, err
	}
	metrics.ItemsCreated.WithLabelValues(string(item.CreationType)).Inc()
	s.publish(ctx, events)
	return item, dr, nil
}

// CreateManualRisk files a manually raised risk. Evidence status is absent on
// this path, so the item scores with the blank-status multiplier.
func (s *Service) CreateManualRisk(ctx context.Context, req domain.ManualRiskRequest) (domain.CreationResult, error) {
	if err := validate.Struct(req); err != nil {
		return domain.CreationResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	item := domain.RiskItem{
		AppID:                req.AppID,
		FieldKey:             req.FieldKey,
		ProfileFieldID:       req.ProfileFieldID,
		TriggeringEvidenceID: req.EvidenceID,
		Title:                req.Title,
		Description:          req.Description,
		Hypothesis:           req.Hypothesis,
		Condition:            req.Condition,
		Consequence:          req.Consequence,
		ControlRefs:          req.ControlRefs,
		Priority:             domain.ParsePriority(string(req.Priority)),
		CreationType:         domain.CreationManual,
		RaisedBy:             req.RaisedBy,
	}
	return s.create(ctx, req.AppID, req.Domain, item)
}

// CreateEvidenceRisk files a risk raised by the evidence-review workflow.
func (s *Service) CreateEvidenceRisk(ctx context.Context, req domain.EvidenceRiskRequest) (domain.CreationResult, error) {
	if err := validate.Struct(req); err != nil {
		return domain.CreationResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	p := domain.PriorityLow
	if req.Priority != nil {
		p = domain.ParsePriority(string(*req.Priority))
	}
	item := domain.RiskItem{
		AppID:                req.AppID,
		FieldKey:             req.FieldKey,
		ProfileFieldID:       req.ProfileFieldID,
		TriggeringEvidenceID: req.EvidenceID,
		Title:                req.Title,
		Description:          req.Description,
		Priority:             p,
		EvidenceStatus:       req.EvidenceStatus,
		CreationType:         domain.CreationSystemAuto,
		RaisedBy:             "system",
	}
	return s.create(ctx, req.AppID, req.Domain, item)
}

func (s *Service) create(ctx context.Context, appID, domainName string, item domain.RiskItem) (domain.CreationResult, error) {
	appID, domainName = strings.TrimSpace(appID), strings.TrimSpace(domainName)
	var (
		res    domain.CreationResult
		events []domain.DomainRiskEvent
	)
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.RiskTx) error {
		events = events[:0]
		if err := tx.LockItemKey(ctx, appID, item.FieldKey, item.TriggeringEvidenceID); err != nil {
			return fmt.Errorf("lock item key: %w", err)
		}
		exists, err := tx.ActiveItemExists(ctx, appID, item.FieldKey, item.TriggeringEvidenceID)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			res = domain.CreationResult{Created: false, Reason: domain.ReasonDuplicateRiskItem}
			return nil
		}
		dr, created, err := s.getOrCreate(ctx, tx, appID, domainName)
		if err != nil {
			return err
		}
		if created {
			events = append(events, s.event(domain.EventDomainRiskCreated, dr, "", item.RaisedBy))
		}
		var stored domain.RiskItem
		stored, dr, events, err = s.addItem(ctx, tx, dr, item, events)
		if err != nil {
			return err
		}
		res = domain.CreationResult{Created: true, RiskItem: &stored, DomainRisk: &dr}
		return nil
	})
	if err != nil {
		return domain.CreationResult{}, err
	}
	if !res.Created {
		metrics.Duplicates.Inc()
		s.log.Info("risk item not created",
			zap.String("app_id", appID),
			zap.String("field_key", item.FieldKey),
			zap.String("reason", res.Reason),
		)
		return res, nil
	}
	metrics.ItemsCreated.WithLabelValues(string(item.CreationType)).Inc()
	s.publish(ctx, events)
	return res, nil
}

// UpdateRiskItemStatus applies a review action and refreshes the parent.
// When the last open item closes, the domain risk becomes RESOLVED.
func (s *Service) UpdateRiskItemStatus(ctx context.Context, upd domain.ItemStatusUpdate) (domain.RiskItem, domain.DomainRisk, error) {
	if err := validate.Struct(upd); err != nil {
		return domain.RiskItem{}, domain.DomainRisk{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if upd.Status.Class() == domain.ClassUnknown {
		return domain.RiskItem{}, domain.DomainRisk{}, fmt.Errorf("%w: unknown item status %q", domain.ErrInvalidInput, upd.Status)
	}
	current, err := s.repo.GetRiskItem(ctx, upd.RiskItemID)
	if err != nil {
		return domain.RiskItem{}, domain.DomainRisk{}, fmt.Errorf("risk item %s: %w", upd.RiskItemID, err)
	}

	var (
		item   domain.RiskItem
		dr     domain.DomainRisk
		events []domain.DomainRiskEvent
	)
	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.RiskTx) error {
		events = events[:0]
		locked, err := tx.LockDomainRisk(ctx, current.DomainRiskID)
		if err != nil {
			return fmt.Errorf("lock domain risk %s: %w", current.DomainRiskID, err)
		}
		item, err = tx.GetRiskItem(ctx, upd.RiskItemID)
		if err != nil {
			return fmt.Errorf("risk item %s: %w", upd.RiskItemID, err)
		}
		if item.Status != upd.Status && s.strict && !domain.CanTransitionItem(item.Status, upd.Status) {
			return fmt.Errorf("%w: risk item %s -> %s", domain.ErrInvalidTransition, item.Status, upd.Status)
		}

		now := s.now()
		wasActive := item.IsActive()
		item.Status = upd.Status
		if upd.Resolution != nil {
			item.Resolution = upd.Resolution
		}
		if upd.Comment != nil {
			item.ResolutionComment = upd.Comment
		}
		switch {
		case item.Status.IsTerminal() && item.ResolvedAt == nil:
			item.ResolvedAt = &now
		case item.IsActive():
			item.ResolvedAt = nil
		}
		item.UpdatedAt = now
		if err := tx.UpdateRiskItem(ctx, item); err != nil {
			return fmt.Errorf("update risk item: %w", err)
		}

		dr, events, err = s.refresh(ctx, tx, locked, !wasActive && item.IsActive(), now, events)
		return err
	})
	if err != nil {
		return domain.RiskItem{}, domain.DomainRisk{}, err
	}
	s.log.Info("risk item status updated",
		zap.String("risk_item_id", item.ID),
		zap.String("domain_risk_id", dr.ID),
		zap.String("status", string(item.Status)),
		zap.Int("open_items", dr.OpenItems),
	)
	s.publish(ctx, events)
	return item, dr, nil
}

// RecalculateAggregations recomputes the derived fields from the stored items.
// It does not change status and is a no-op when nothing drifted.
func (s *Service) RecalculateAggregations(ctx context.Context, domainRiskID string) (domain.DomainRisk, error) {
	var dr domain.DomainRisk
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.RiskTx) error {
		locked, err := tx.LockDomainRisk(ctx, domainRiskID)
		if err != nil {
			return fmt.Errorf("lock domain risk %s: %w", domainRiskID, err)
		}
		items, err := tx.ListRiskItemsForDomainRisk(ctx, domainRiskID)
		if err != nil {
			return fmt.Errorf("list risk items: %w", err)
		}
		dr = applyAggregates(locked, Aggregate(items))
		if sameAggregates(dr, locked) {
			return nil
		}
		dr.UpdatedAt = s.now()
		return tx.UpdateDomainRisk(ctx, dr)
	})
	if err != nil {
		return domain.DomainRisk{}, err
	}
	metrics.Recalculations.Inc()
	metrics.DomainPriorityScore.Observe(float64(dr.PriorityScore))
	return dr, nil
}

// ReassignDomainRisk hands a domain risk to another board. Items and counters are untouched.
func (s *Service) ReassignDomainRisk(ctx context.Context, domainRiskID, newARB, actor string) (domain.DomainRisk, error) {
	newARB = strings.TrimSpace(newARB)
	if newARB == "" {
		return domain.DomainRisk{}, fmt.Errorf("%w: arb is required", domain.ErrInvalidInput)
	}
	if !slices.Contains(s.routes.Boards(), newARB) {
		return domain.DomainRisk{}, fmt.Errorf("%w: unknown arb %q", domain.ErrInvalidInput, newARB)
	}
	var dr domain.DomainRisk
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.RiskTx) error {
		var err error
		dr, err = tx.LockDomainRisk(ctx, domainRiskID)
		if err != nil {
			return fmt.Errorf("lock domain risk %s: %w", domainRiskID, err)
		}
		now := s.now()
		dr.AssignedARB = &newARB
		dr.AssignedAt = &now
		dr.UpdatedAt = now
		return tx.UpdateDomainRisk(ctx, dr)
	})
	if err != nil {
		return domain.DomainRisk{}, err
	}
	s.log.Info("domain risk reassigned",
		zap.String("domain_risk_id", dr.ID),
		zap.String("arb", newARB),
		zap.String("actor", actor),
	)
	s.publish(ctx, []domain.DomainRiskEvent{s.event(domain.EventDomainRiskReassigned, dr, "", actor)})
	return dr, nil
}

// TransitionDomainRisk moves a domain risk along the review-board graph.
// RESOLVED requires every item to be closed; terminal states only reopen automatically.
func (s *Service) TransitionDomainRisk(ctx context.Context, domainRiskID string, to domain.DomainRiskStatus, actor string) (domain.DomainRisk, error) {
	if to.Class() == domain.ClassUnknown {
		return domain.DomainRisk{}, fmt.Errorf("%w: unknown domain risk status %q", domain.ErrInvalidInput, to)
	}
	var (
		dr   domain.DomainRisk
		from domain.DomainRiskStatus
	)
	err := s.repo.WithinTx(ctx, func(ctx context.Context, tx ports.RiskTx) error {
		var err error
		dr, err = tx.LockDomainRisk(ctx, domainRiskID)
		if err != nil {
			return fmt.Errorf("lock domain risk %s: %w", domainRiskID, err)
		}
		from = dr.Status
		if from == to {
			return nil
		}
		if !domain.CanTransitionDomain(from, to) {
			return fmt.Errorf("%w: domain risk %s -> %s", domain.ErrInvalidTransition, from, to)
		}
		if to == domain.DomainResolved && dr.OpenItems > 0 {
			return fmt.Errorf("%w: domain risk has %d open items", domain.ErrInvalidTransition, dr.OpenItems)
		}
		now := s.now()
		dr.Status = to
		if to.IsTerminal() {
			dr.ClosedAt = &now
		}
		dr.UpdatedAt = now
		return tx.UpdateDomainRisk(ctx, dr)
	})
	if err != nil {
		return domain.DomainRisk{}, err
	}
	if from != to {
		metrics.DomainTransitions.WithLabelValues(string(from), string(to)).Inc()
		s.log.Info("domain risk status changed",
			zap.String("domain_risk_id", dr.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("actor", actor),
		)
		s.publish(ctx, []domain.DomainRiskEvent{s.event(domain.EventDomainRiskStatusChanged, dr, from, actor)})
	}
	return dr, nil
}

func (s *Service) getOrCreate(ctx context.Context, tx ports.RiskTx, appID, domainName string) (domain.DomainRisk, bool, error) {
	now := s.now()
	seed := domain.DomainRisk{
		ID:              s.newID(),
		AppID:           appID,
		Domain:          domainName,
		ARB:             s.routes.Resolve(domainName),
		Status:          domain.DomainPendingARBReview,
		OverallPriority: priority.FromScore(0),
		OverallSeverity: priority.SeverityLabel(0),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	dr, created, err := tx.GetOrCreateDomainRisk(ctx, seed)
	if err != nil {
		return domain.DomainRisk{}, false, fmt.Errorf("get or create domain risk %s/%s: %w", appID, domainName, err)
	}
	if created {
		s.log.Info("domain risk created",
			zap.String("domain_risk_id", dr.ID),
			zap.String("app_id", appID),
			zap.String("domain", domainName),
			zap.String("arb", dr.ARB),
		)
	}
	return dr, created, nil
}

// addItem must run with dr locked by the surrounding unit of work.
func (s *Service) addItem(ctx context.Context, tx ports.RiskTx, dr domain.DomainRisk, item domain.RiskItem, events []domain.DomainRiskEvent) (domain.RiskItem, domain.DomainRisk, []domain.DomainRiskEvent, error) {
	now := s.now()
	if item.ID == "" {
		item.ID = s.newID()
	}
	item.DomainRiskID = dr.ID
	item.AppID = dr.AppID
	item.Priority = domain.ParsePriority(string(item.Priority))
	item.PriorityScore = priority.ItemScorePtr(item.Priority, item.EvidenceStatus)
	if item.Status == "" {
		item.Status = domain.ItemPendingReview
	}
	if item.Status.Class() == domain.ClassUnknown {
		return domain.RiskItem{}, domain.DomainRisk{}, events, fmt.Errorf("%w: unknown item status %q", domain.ErrInvalidInput, item.Status)
	}
	if item.CreationType == "" {
		item.CreationType = domain.CreationSystemAuto
	}
	if item.OpenedAt.IsZero() {
		item.OpenedAt = now
	}
	item.UpdatedAt = now
	if err := tx.InsertRiskItem(ctx, item); err != nil {
		return domain.RiskItem{}, domain.DomainRisk{}, events, fmt.Errorf("insert risk item: %w", err)
	}

	dr.LastItemAddedAt = &now
	dr, events, err := s.refresh(ctx, tx, dr, item.IsActive(), now, events)
	if err != nil {
		return domain.RiskItem{}, domain.DomainRisk{}, events, err
	}
	s.log.Info("risk item added",
		zap.String("risk_item_id", item.ID),
		zap.String("domain_risk_id", dr.ID),
		zap.String("app_id", dr.AppID),
		zap.String("domain", dr.Domain),
		zap.Int("priority_score", item.PriorityScore),
	)
	return item, dr, events, nil
}

// refresh recomputes aggregates, applies the automatic status rules and persists dr.
func (s *Service) refresh(ctx context.Context, tx ports.RiskTx, dr domain.DomainRisk, openedByChange bool, now time.Time, events []domain.DomainRiskEvent) (domain.DomainRisk, []domain.DomainRiskEvent, error) {
	items, err := tx.ListRiskItemsForDomainRisk(ctx, dr.ID)
	if err != nil {
		return dr, events, fmt.Errorf("list risk items: %w", err)
	}
	prev := dr.Status
	dr = settle(applyAggregates(dr, Aggregate(items)), openedByChange, now)
	dr.UpdatedAt = now
	if err := tx.UpdateDomainRisk(ctx, dr); err != nil {
		return dr, events, fmt.Errorf("update domain risk: %w", err)
	}
	metrics.Recalculations.Inc()
	metrics.DomainPriorityScore.Observe(float64(dr.PriorityScore))

	if dr.Status != prev {
		metrics.DomainTransitions.WithLabelValues(string(prev), string(dr.Status)).Inc()
		kind := domain.EventDomainRiskResolved
		if dr.Status == domain.DomainInProgress {
			kind = domain.EventDomainRiskReopened
		}
		s.log.Info("domain risk auto transition",
			zap.String("domain_risk_id", dr.ID),
			zap.String("from", string(prev)),
			zap.String("to", string(dr.Status)),
		)
		events = append(events, s.event(kind, dr, prev, ""))
	}
	return dr, events, nil
}

func (s *Service) event(kind string, dr domain.DomainRisk, prev domain.DomainRiskStatus, actor string) domain.DomainRiskEvent {
	board := dr.ARB
	if dr.AssignedARB != nil {
		board = *dr.AssignedARB
	}
	return domain.DomainRiskEvent{
		Type:           kind,
		DomainRiskID:   dr.ID,
		AppID:          dr.AppID,
		Domain:         dr.Domain,
		ARB:            board,
		Status:         dr.Status,
		PreviousStatus: prev,
		PriorityScore:  dr.PriorityScore,
		OpenItems:      dr.OpenItems,
		Actor:          actor,
		OccurredAt:     s.now(),
	}
}

// publish runs after commit; failures are logged only.
func (s *Service) publish(ctx context.Context, events []domain.DomainRiskEvent) {
	for _, ev := range events {
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("publish domain risk event",
				zap.String("type", ev.Type),
				zap.String("domain_risk_id", ev.DomainRiskID),
				zap.Error(err),
			)
		}
	}
}
